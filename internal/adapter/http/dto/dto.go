package dto

import (
	"time"

	"trip-finance-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	Currency string `json:"currency" binding:"omitempty,currency"`
}

// DocumentPayload is an optional proof-of-payment attachment, base64 encoded.
type DocumentPayload struct {
	FileName string `json:"file_name" binding:"required,max=255"`
	MimeType string `json:"mime_type" binding:"omitempty,max=100"`
	Content  string `json:"content" binding:"required,base64"`
}

// MovementFields is the manual-entry metadata shared by credit, debit and transfer.
type MovementFields struct {
	Amount             string           `json:"amount" binding:"required,money"`
	Description        string           `json:"description" binding:"max=500"`
	PaymentMethod      string           `json:"payment_method" binding:"max=50"`
	ReferenceNumber    string           `json:"reference_number" binding:"omitempty,max=100,safe_id"`
	Remarks            string           `json:"remarks" binding:"max=1000"`
	ActualTransferDate *time.Time       `json:"actual_transfer_date,omitempty"`
	TripID             *string          `json:"trip_id,omitempty" binding:"omitempty,uuid"`
	ContractID         *string          `json:"contract_id,omitempty" binding:"omitempty,uuid"`
	Document           *DocumentPayload `json:"document,omitempty"`
}

// MovementRequest is the request body for a manual credit or debit.
type MovementRequest struct {
	MovementFields
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	FromUserID string `json:"from_user_id" binding:"required,uuid"`
	ToUserID   string `json:"to_user_id" binding:"required,uuid"`
	MovementFields
}

// CreateTripRequest is the request body for trip creation. The caller is the transporter.
type CreateTripRequest struct {
	SenderID     string `json:"sender_id" binding:"required,uuid"`
	LoanAmount   string `json:"loan_amount" binding:"required,money"`
	Currency     string `json:"currency" binding:"required,currency"`
	InterestRate string `json:"interest_rate" binding:"required,rate"`
	MaturityDays int    `json:"maturity_days" binding:"required,gt=0,lte=3650"`
}

// BidTerms are the negotiable terms carried by bid, update and counter requests.
type BidTerms struct {
	Amount       string `json:"amount" binding:"required,money"`
	InterestRate string `json:"interest_rate" binding:"required,rate"`
	MaturityDays int    `json:"maturity_days" binding:"required,gt=0,lte=3650"`
	Notes        string `json:"notes" binding:"max=1000"`
}

// Domain converts validated terms. The binding rules guarantee both decimals parse.
func (t BidTerms) Domain() domain.BidTerms {
	return domain.BidTerms{
		Amount:       decimal.RequireFromString(t.Amount),
		InterestRate: decimal.RequireFromString(t.InterestRate),
		MaturityDays: t.MaturityDays,
		Notes:        t.Notes,
	}
}

// CreateBidRequest is the request body for placing a bid.
type CreateBidRequest struct {
	BidTerms
	Currency  string     `json:"currency" binding:"omitempty,currency"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// UpdateBidRequest is the request body for editing a pending bid.
type UpdateBidRequest struct {
	BidTerms
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RejectBidRequest is the optional request body for rejecting a bid.
type RejectBidRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// InterestRequest is the request body for batch interest.
type InterestRequest struct {
	TripIDs []string `json:"trip_ids" binding:"required,min=1,max=100,dive,uuid"`
}

// BidResponse is a bid with its derived interest figures.
type BidResponse struct {
	domain.TripBid
	TotalInterest decimal.Decimal `json:"total_interest"`
	TotalPayable  decimal.Decimal `json:"total_payable"`
}

// NewBidResponse derives interest from the bid's current primary terms.
func NewBidResponse(b *domain.TripBid) BidResponse {
	return BidResponse{TripBid: *b, TotalInterest: b.TotalInterest(), TotalPayable: b.TotalPayable()}
}

// NewBidResponses converts a list of bids.
func NewBidResponses(bids []domain.TripBid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for i := range bids {
		out = append(out, NewBidResponse(&bids[i]))
	}
	return out
}

// ExpireBidsResponse reports how many bids an expiry sweep changed.
type ExpireBidsResponse struct {
	Expired int64 `json:"expired"`
}
