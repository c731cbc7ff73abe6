package ports

import (
	"context"
	"time"

	"trip-finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Service Ports (Business Logic) ---

// LedgerService is the transaction engine: the only writer of ledger entries.
type LedgerService interface {
	CreateWallet(ctx context.Context, req CreateWalletRequest) (*domain.Wallet, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (*WalletBalanceView, error)
	Credit(ctx context.Context, req MovementRequest) (*domain.TransactionResult, error)
	Debit(ctx context.Context, req MovementRequest) (*domain.TransactionResult, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.TransactionResult, error)
	GetStatement(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.Statement, error)
	GetHistory(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.HistoryItem, int64, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.TransactionDetail, error)
	VerifyBalance(ctx context.Context, userID uuid.UUID) (*domain.BalanceCheck, error)
	Suspend(ctx context.Context, userID, actor uuid.UUID) (*domain.Wallet, error)
	Activate(ctx context.Context, userID, actor uuid.UUID) (*domain.Wallet, error)
	Close(ctx context.Context, userID, actor uuid.UUID) (*domain.Wallet, error)
}

// CreateWalletRequest holds validated input for wallet creation.
type CreateWalletRequest struct {
	UserID   uuid.UUID
	Currency string // empty = configured default
	Actor    uuid.UUID
}

// WalletBalanceView is a wallet's current balance.
type WalletBalanceView struct {
	WalletID uuid.UUID       `json:"wallet_id"`
	UserID   uuid.UUID       `json:"user_id"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Status   string          `json:"status"`
}

// MovementMeta is the manual-entry metadata shared by credit, debit and transfer.
type MovementMeta struct {
	Description        string
	PaymentMethod      string
	ReferenceNumber    string
	Remarks            string
	ActualTransferDate *time.Time
	TripID             *uuid.UUID
	ContractID         *uuid.UUID
	EnteredBy          uuid.UUID
	Document           *DocumentUpload
}

// DocumentUpload is an optional proof-of-payment attachment.
type DocumentUpload struct {
	FileName string
	MimeType string
	Content  []byte
}

// MovementRequest holds validated input for a single-wallet credit or debit.
type MovementRequest struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Meta   MovementMeta
}

// TransferRequest holds validated input for a wallet-to-wallet transfer.
type TransferRequest struct {
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Amount     decimal.Decimal
	Meta       MovementMeta
}

// TripService exposes the trips that bids and proposals refer to.
type TripService interface {
	CreateTrip(ctx context.Context, req CreateTripRequest) (*domain.Trip, error)
	GetTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
}

// CreateTripRequest holds validated input for trip creation.
type CreateTripRequest struct {
	TransporterID uuid.UUID
	SenderID      uuid.UUID
	LoanAmount    decimal.Decimal
	Currency      string
	InterestRate  decimal.Decimal
	MaturityDays  int
}

// BidService is the bid negotiation state machine.
type BidService interface {
	Create(ctx context.Context, req CreateBidRequest) (*domain.TripBid, error)
	Update(ctx context.Context, bidID, lenderID uuid.UUID, terms domain.BidTerms, expiresAt *time.Time) (*domain.TripBid, error)
	Cancel(ctx context.Context, bidID, lenderID uuid.UUID) (*domain.TripBid, error)
	Accept(ctx context.Context, bidID, transporterID uuid.UUID) (*domain.TripBid, error)
	Reject(ctx context.Context, bidID, transporterID uuid.UUID, reason string) (*domain.TripBid, error)
	Counter(ctx context.Context, bidID, transporterID uuid.UUID, terms domain.BidTerms) (*domain.TripBid, error)
	AcceptCounter(ctx context.Context, bidID, lenderID uuid.UUID) (*domain.TripBid, error)
	RejectCounter(ctx context.Context, bidID, lenderID uuid.UUID) (*domain.TripBid, error)
	ExpireOverdue(ctx context.Context) (int64, error)
	Get(ctx context.Context, bidID uuid.UUID) (*domain.TripBid, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripBid, error)
	ListByLender(ctx context.Context, lenderID uuid.UUID) ([]domain.TripBid, error)
}

// CreateBidRequest holds validated input for a new bid.
type CreateBidRequest struct {
	TripID    uuid.UUID
	LenderID  uuid.UUID
	Terms     domain.BidTerms
	Currency  string // empty = trip currency
	ExpiresAt *time.Time
}

// ProposalService is the finance proposal state machine.
type ProposalService interface {
	MarkInterest(ctx context.Context, lenderID uuid.UUID, tripIDs []uuid.UUID) (*domain.InterestBatchResult, error)
	Withdraw(ctx context.Context, proposalID, lenderID uuid.UUID) (*domain.TripFinanceProposal, error)
	Accept(ctx context.Context, proposalID, transporterID uuid.UUID) (*domain.TripFinanceProposal, error)
	Reject(ctx context.Context, proposalID, transporterID uuid.UUID) (*domain.TripFinanceProposal, error)
	Get(ctx context.Context, proposalID uuid.UUID) (*domain.TripFinanceProposal, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripFinanceProposal, error)
	ListByLender(ctx context.Context, lenderID uuid.UUID) ([]domain.TripFinanceProposal, error)
}

// AnalyticsService builds read-only per-actor summaries.
type AnalyticsService interface {
	LenderSummary(ctx context.Context, lenderID uuid.UUID) (*domain.LenderSummary, error)
	TransporterSummary(ctx context.Context, transporterID uuid.UUID) (*domain.TransporterSummary, error)
}

// AuditService records audit entries asynchronously.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
