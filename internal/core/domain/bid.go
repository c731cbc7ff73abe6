package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidStatus represents the negotiation state of a trip bid.
type BidStatus string

const (
	BidStatusPending   BidStatus = "PENDING"
	BidStatusCountered BidStatus = "COUNTERED"
	BidStatusAccepted  BidStatus = "ACCEPTED"
	BidStatusRejected  BidStatus = "REJECTED"
	BidStatusCancelled BidStatus = "CANCELLED"
	BidStatusExpired   BidStatus = "EXPIRED"
)

const (
	// DefaultBidExpiry applies to new bids and counter-offers without an explicit expiry.
	DefaultBidExpiry = 7 * 24 * time.Hour

	// RivalRejectionReason is stamped on every other active bid when one bid on a trip is accepted.
	RivalRejectionReason = "Another bid was accepted for this trip."
)

// ActiveBidStatuses are the statuses from which a bid can still be accepted or expire.
var ActiveBidStatuses = []BidStatus{BidStatusPending, BidStatusCountered}

// IsActive returns true for PENDING and COUNTERED.
func (s BidStatus) IsActive() bool {
	return s == BidStatusPending || s == BidStatusCountered
}

// BidTerms are the negotiable financing terms of a bid or counter-offer.
type BidTerms struct {
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	MaturityDays int             `json:"maturity_days"`
	Notes        string          `json:"notes,omitempty"`
}

// TripBid is a lender's competitive offer to finance a trip.
type TripBid struct {
	ID                  uuid.UUID        `json:"id"`
	TripID              uuid.UUID        `json:"trip_id"`
	LenderUserID        uuid.UUID        `json:"lender_user_id"`
	LenderCompanyID     *uuid.UUID       `json:"lender_company_id,omitempty"`
	Amount              decimal.Decimal  `json:"amount"`
	Currency            string           `json:"currency"`
	InterestRate        decimal.Decimal  `json:"interest_rate"`
	MaturityDays        int              `json:"maturity_days"`
	Notes               string           `json:"notes,omitempty"`
	Status              BidStatus        `json:"status"`
	CounterAmount       *decimal.Decimal `json:"counter_amount,omitempty"`
	CounterInterestRate *decimal.Decimal `json:"counter_interest_rate,omitempty"`
	CounterMaturityDays *int             `json:"counter_maturity_days,omitempty"`
	CounterNotes        *string          `json:"counter_notes,omitempty"`
	CounteredBy         *uuid.UUID       `json:"countered_by,omitempty"`
	CounteredAt         *time.Time       `json:"countered_at,omitempty"`
	RespondedAt         *time.Time       `json:"responded_at,omitempty"`
	RespondedBy         *uuid.UUID       `json:"responded_by,omitempty"`
	RejectionReason     *string          `json:"rejection_reason,omitempty"`
	ExpiresAt           time.Time        `json:"expires_at"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// IsActive returns true if the bid is PENDING or COUNTERED.
func (b *TripBid) IsActive() bool {
	return b.Status.IsActive()
}

// IsOverdue returns true if the bid is still active but past its expiry.
func (b *TripBid) IsOverdue(now time.Time) bool {
	return b.IsActive() && now.After(b.ExpiresAt)
}

// TotalInterest is recomputed from the current primary terms on every read.
func (b *TripBid) TotalInterest() decimal.Decimal {
	return SimpleInterest(b.Amount, b.InterestRate, b.MaturityDays)
}

// TotalPayable is the bid amount plus interest.
func (b *TripBid) TotalPayable() decimal.Decimal {
	return b.Amount.Add(b.TotalInterest())
}

// Update replaces the primary terms. Only PENDING bids can be edited.
func (b *TripBid) Update(terms BidTerms, expiresAt *time.Time, now time.Time) error {
	if b.Status != BidStatusPending {
		return transitionError("bid", b.Status, BidStatusPending)
	}
	b.Amount = terms.Amount
	b.InterestRate = terms.InterestRate
	b.MaturityDays = terms.MaturityDays
	b.Notes = terms.Notes
	if expiresAt != nil {
		b.ExpiresAt = *expiresAt
	}
	b.UpdatedAt = now
	return nil
}

// Cancel withdraws an active bid on the lender's behalf.
func (b *TripBid) Cancel(now time.Time) error {
	if !b.IsActive() {
		return transitionError("bid", b.Status, ActiveBidStatuses...)
	}
	b.Status = BidStatusCancelled
	b.UpdatedAt = now
	return nil
}

// Accept marks an active bid as the trip's winner.
func (b *TripBid) Accept(by uuid.UUID, now time.Time) error {
	if !b.IsActive() {
		return transitionError("bid", b.Status, ActiveBidStatuses...)
	}
	b.Status = BidStatusAccepted
	b.respond(by, now)
	return nil
}

// Reject declines an active bid with an optional reason.
func (b *TripBid) Reject(by uuid.UUID, reason string, now time.Time) error {
	if !b.IsActive() {
		return transitionError("bid", b.Status, ActiveBidStatuses...)
	}
	b.Status = BidStatusRejected
	if reason != "" {
		b.RejectionReason = &reason
	}
	b.respond(by, now)
	return nil
}

// Counter proposes new terms to the lender and restarts the expiry clock.
func (b *TripBid) Counter(by uuid.UUID, terms BidTerms, expiresAt time.Time, now time.Time) error {
	if b.Status != BidStatusPending {
		return transitionError("bid", b.Status, BidStatusPending)
	}
	amount, rate, days, notes := terms.Amount, terms.InterestRate, terms.MaturityDays, terms.Notes
	b.CounterAmount = &amount
	b.CounterInterestRate = &rate
	b.CounterMaturityDays = &days
	b.CounterNotes = &notes
	b.CounteredBy = &by
	b.CounteredAt = &now
	b.ExpiresAt = expiresAt
	b.Status = BidStatusCountered
	b.UpdatedAt = now
	return nil
}

// AcceptCounter adopts the counter terms as the bid's primary terms.
func (b *TripBid) AcceptCounter(by uuid.UUID, now time.Time) error {
	if b.Status != BidStatusCountered {
		return transitionError("bid", b.Status, BidStatusCountered)
	}
	if b.CounterAmount != nil {
		b.Amount = *b.CounterAmount
	}
	if b.CounterInterestRate != nil {
		b.InterestRate = *b.CounterInterestRate
	}
	if b.CounterMaturityDays != nil {
		b.MaturityDays = *b.CounterMaturityDays
	}
	b.Status = BidStatusAccepted
	b.respond(by, now)
	return nil
}

// RejectCounter declines the counter-offer, which ends the negotiation.
func (b *TripBid) RejectCounter(by uuid.UUID, now time.Time) error {
	if b.Status != BidStatusCountered {
		return transitionError("bid", b.Status, BidStatusCountered)
	}
	b.Status = BidStatusCancelled
	b.respond(by, now)
	return nil
}

// Expire moves an active bid to EXPIRED.
func (b *TripBid) Expire(now time.Time) error {
	if !b.IsActive() {
		return transitionError("bid", b.Status, ActiveBidStatuses...)
	}
	b.Status = BidStatusExpired
	b.UpdatedAt = now
	return nil
}

func (b *TripBid) respond(by uuid.UUID, now time.Time) {
	b.RespondedBy = &by
	b.RespondedAt = &now
	b.UpdatedAt = now
}
