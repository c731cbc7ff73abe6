package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeManualCredit TransactionType = "MANUAL_CREDIT"
	TransactionTypeManualDebit  TransactionType = "MANUAL_DEBIT"
	TransactionTypeTransfer     TransactionType = "TRANSFER"
)

// TransactionStatus represents the lifecycle state of a transaction.
// Partial or pending movements are not modeled.
type TransactionStatus string

const TransactionStatusCompleted TransactionStatus = "COMPLETED"

// Transaction is a single immutable money-movement event.
type Transaction struct {
	ID                 uuid.UUID         `json:"id"`
	Type               TransactionType   `json:"type"`
	Status             TransactionStatus `json:"status"`
	Description        string            `json:"description"`
	CreatedBy          uuid.UUID         `json:"created_by"`
	CreatedAt          time.Time         `json:"created_at"`
	CompletedAt        time.Time         `json:"completed_at"`
	ActualTransferDate *time.Time        `json:"actual_transfer_date,omitempty"`
	TripID             *uuid.UUID        `json:"trip_id,omitempty"`
	ContractID         *uuid.UUID        `json:"contract_id,omitempty"`
}

// EntryType is the direction of a ledger entry.
type EntryType string

const (
	EntryTypeCredit EntryType = "CREDIT"
	EntryTypeDebit  EntryType = "DEBIT"
)

// TransactionEntry is one append-only ledger row. ID is the ledger position assigned on insert.
type TransactionEntry struct {
	ID            int64           `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	EntryType     EntryType       `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Sequence      int             `json:"sequence"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Signed returns the amount as it affects the wallet: CREDIT positive, DEBIT negative.
func (e *TransactionEntry) Signed() decimal.Decimal {
	if e.EntryType == EntryTypeDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// BalanceBefore reverses the entry's effect on the wallet.
func (e *TransactionEntry) BalanceBefore() decimal.Decimal {
	return e.BalanceAfter.Sub(e.Signed())
}

// RequestType is the manual-entry path that produced a transaction.
type RequestType string

const (
	RequestTypeCredit   RequestType = "CREDIT"
	RequestTypeDebit    RequestType = "DEBIT"
	RequestTypeTransfer RequestType = "TRANSFER"
)

// ManualTransferRequest records why a transaction was entered manually. One per transaction.
type ManualTransferRequest struct {
	ID              uuid.UUID       `json:"id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	RequestType     RequestType     `json:"request_type"`
	FromUserID      *uuid.UUID      `json:"from_user_id,omitempty"`
	ToUserID        *uuid.UUID      `json:"to_user_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Remarks         string          `json:"remarks,omitempty"`
	EnteredBy       uuid.UUID       `json:"entered_by"`
	EnteredAt       time.Time       `json:"entered_at"`
}

// TransactionDocument is a proof-of-payment attachment.
// Content is set only when the document is stored inline in the database.
type TransactionDocument struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	FileName      string    `json:"file_name"`
	MimeType      string    `json:"mime_type"`
	Size          int64     `json:"size"`
	Checksum      string    `json:"checksum"`
	StorageKey    string    `json:"storage_key,omitempty"`
	Content       []byte    `json:"-"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// TransactionResult is returned by every ledger mutation.
type TransactionResult struct {
	Transaction Transaction            `json:"transaction"`
	Entries     []TransactionEntry     `json:"entries"`
	Request     *ManualTransferRequest `json:"request,omitempty"`
	Document    *TransactionDocument   `json:"document,omitempty"`
	Borrowed    decimal.Decimal        `json:"borrowed"`
}

// TransactionDetail is a transaction with everything recorded alongside it.
type TransactionDetail struct {
	Transaction Transaction            `json:"transaction"`
	Entries     []TransactionEntry     `json:"entries"`
	Request     *ManualTransferRequest `json:"request,omitempty"`
	Documents   []TransactionDocument  `json:"documents"`
}

// HistoryItem is a ledger entry joined with its transaction's type and description.
type HistoryItem struct {
	TransactionEntry
	TransactionType TransactionType `json:"transaction_type"`
	Description     string          `json:"description"`
}

// Statement is a wallet's entries within a time window, newest first.
type Statement struct {
	WalletID       uuid.UUID          `json:"wallet_id"`
	From           time.Time          `json:"from"`
	To             time.Time          `json:"to"`
	OpeningBalance decimal.Decimal    `json:"opening_balance"`
	ClosingBalance decimal.Decimal    `json:"closing_balance"`
	Entries        []TransactionEntry `json:"entries"`
}

// NewStatement builds a statement from newest-first entries. When the window is empty,
// fallback is used as both opening and closing balance.
func NewStatement(walletID uuid.UUID, from, to time.Time, entries []TransactionEntry, fallback decimal.Decimal) Statement {
	st := Statement{
		WalletID:       walletID,
		From:           from,
		To:             to,
		OpeningBalance: fallback,
		ClosingBalance: fallback,
		Entries:        entries,
	}
	if len(entries) > 0 {
		st.ClosingBalance = entries[0].BalanceAfter
		st.OpeningBalance = entries[len(entries)-1].BalanceBefore()
	}
	if st.Entries == nil {
		st.Entries = []TransactionEntry{}
	}
	return st
}
