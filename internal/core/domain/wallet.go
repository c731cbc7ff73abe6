package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletStatus represents the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
	WalletStatusClosed    WalletStatus = "CLOSED"
)

// Wallet is a user's single currency account. The balance lives in the ledger, not here.
type Wallet struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Currency  string       `json:"currency"`
	Status    WalletStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsUsable returns true if money may move in or out of the wallet.
func (w *Wallet) IsUsable() bool {
	return w.Status == WalletStatusActive
}

// CanTransitionTo reports whether the wallet may move from its current status to next.
// CLOSED is terminal.
func (w *Wallet) CanTransitionTo(next WalletStatus) bool {
	switch w.Status {
	case WalletStatusActive:
		return next == WalletStatusSuspended || next == WalletStatusClosed
	case WalletStatusSuspended:
		return next == WalletStatusActive || next == WalletStatusClosed
	default:
		return false
	}
}

// WalletBalance is the materialized head of a wallet's ledger.
type WalletBalance struct {
	WalletID    uuid.UUID       `json:"wallet_id"`
	Balance     decimal.Decimal `json:"balance"`
	LastEntryID int64           `json:"last_entry_id"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BalanceCheck compares the materialized head with a full fold over the wallet's entries.
type BalanceCheck struct {
	WalletID uuid.UUID       `json:"wallet_id"`
	Head     decimal.Decimal `json:"head_balance"`
	Folded   decimal.Decimal `json:"folded_balance"`
	Entries  int64           `json:"entries"`
}

// Consistent returns true if both computations agree.
func (c BalanceCheck) Consistent() bool {
	return c.Head.Equal(c.Folded)
}
