package ports

import (
	"context"
	"errors"
	"time"

	"trip-finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUniqueViolation is returned by repositories when an insert collides with a unique constraint.
var ErrUniqueViolation = errors.New("unique constraint violation")

// IsolationLevel selects the transaction isolation for a unit of work.
type IsolationLevel string

const (
	ReadCommitted  IsolationLevel = "read committed"
	RepeatableRead IsolationLevel = "repeatable read"
	Serializable   IsolationLevel = "serializable"
)

// UnitOfWork runs fn inside one database transaction. fn receives a Store bound to that
// transaction; returning an error (or panicking) rolls everything back, otherwise it commits.
type UnitOfWork interface {
	Do(ctx context.Context, level IsolationLevel, fn func(ctx context.Context, store Store) error) error
}

// Store groups the repositories that share one transaction.
type Store interface {
	Wallets() WalletRepository
	Ledger() LedgerRepository
	Transactions() TransactionRepository
	Trips() TripRepository
	Bids() BidRepository
	Proposals() ProposalRepository
}

// WalletRepository defines persistence operations for wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	// LockByUserIDs takes row locks on the wallets of userIDs in ascending user id order,
	// in a single statement. Missing wallets are simply absent from the result.
	LockByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]domain.Wallet, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WalletStatus, now time.Time) error
}

// LedgerRepository is the append-only entry store plus the materialized balance head.
// There is no update or delete path for entries.
type LedgerRepository interface {
	// AppendEntry inserts entry with its caller-computed BalanceAfter, assigns entry.ID
	// and moves the wallet's balance head.
	AppendEntry(ctx context.Context, entry *domain.TransactionEntry) error
	CurrentBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)
	FoldBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, int64, error)
	BalanceAsOf(ctx context.Context, walletID uuid.UUID, at time.Time) (decimal.Decimal, error)
	Statement(ctx context.Context, walletID uuid.UUID, from, to time.Time) ([]domain.TransactionEntry, error)
	History(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.HistoryItem, int64, error)
	EntriesByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.TransactionEntry, error)
	TripFlows(ctx context.Context, walletID uuid.UUID) (*domain.TripFlows, error)
}

// TransactionRepository stores transactions and the records written alongside them.
type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	CreateManualRequest(ctx context.Context, req *domain.ManualTransferRequest) error
	GetManualRequest(ctx context.Context, transactionID uuid.UUID) (*domain.ManualTransferRequest, error)
	AddDocument(ctx context.Context, doc *domain.TransactionDocument) error
	ListDocuments(ctx context.Context, transactionID uuid.UUID) ([]domain.TransactionDocument, error)
}

// PartyFilter scopes an aggregate query to one lender or one transporter.
type PartyFilter struct {
	LenderID      *uuid.UUID
	TransporterID *uuid.UUID
}

// TripRepository defines persistence operations for trips.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	BindFinancing(ctx context.Context, trip *domain.Trip) error
	CountFinanced(ctx context.Context, filter PartyFilter) (int64, error)
}

// BidRepository defines persistence operations for trip bids.
type BidRepository interface {
	Create(ctx context.Context, bid *domain.TripBid) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TripBid, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TripBid, error)
	// Update persists every mutable field of bid.
	Update(ctx context.Context, bid *domain.TripBid) error
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripBid, error)
	ListByLender(ctx context.Context, lenderID uuid.UUID) ([]domain.TripBid, error)
	HasActiveBid(ctx context.Context, tripID, lenderID uuid.UUID) (bool, error)
	// RejectActiveForTrip rejects every active bid on tripID except exceptID.
	RejectActiveForTrip(ctx context.Context, tripID, exceptID uuid.UUID, reason string, by uuid.UUID, now time.Time) (int64, error)
	// ExpireOverdue marks every active bid with expires_at < now as EXPIRED.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	// ExpireBids is ExpireOverdue restricted to ids.
	ExpireBids(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error)
	StatusCounts(ctx context.Context, filter PartyFilter) (map[domain.BidStatus]int64, error)
	AcceptedTotals(ctx context.Context, filter PartyFilter) (*domain.BidTotals, error)
}

// ProposalRepository defines persistence operations for finance proposals.
type ProposalRepository interface {
	// Create returns ErrUniqueViolation if the (trip, lender, contract) triple exists.
	Create(ctx context.Context, p *domain.TripFinanceProposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TripFinanceProposal, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TripFinanceProposal, error)
	UpdateStatus(ctx context.Context, p *domain.TripFinanceProposal) error
	Exists(ctx context.Context, tripID, lenderID, contractID uuid.UUID) (bool, error)
	HasAcceptedForTrip(ctx context.Context, tripID, exceptID uuid.UUID) (bool, error)
	RejectPendingForTrip(ctx context.Context, tripID, exceptID uuid.UUID, by uuid.UUID, now time.Time) (int64, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripFinanceProposal, error)
	ListByLender(ctx context.Context, lenderID uuid.UUID) ([]domain.TripFinanceProposal, error)
	StatusCounts(ctx context.Context, filter PartyFilter) (map[domain.ProposalStatus]int64, error)
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
