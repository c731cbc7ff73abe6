package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProposalStatus represents the state of a finance proposal. Every non-PENDING status is terminal.
type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "PENDING"
	ProposalStatusAccepted  ProposalStatus = "ACCEPTED"
	ProposalStatusRejected  ProposalStatus = "REJECTED"
	ProposalStatusWithdrawn ProposalStatus = "WITHDRAWN"
)

// TripFinanceProposal is a lender's interest in financing a trip under an existing contract.
// Unique per (trip, lender, contract).
type TripFinanceProposal struct {
	ID           uuid.UUID      `json:"id"`
	TripID       uuid.UUID      `json:"trip_id"`
	LenderUserID uuid.UUID      `json:"lender_user_id"`
	ContractID   uuid.UUID      `json:"contract_id"`
	Status       ProposalStatus `json:"status"`
	RespondedAt  *time.Time     `json:"responded_at,omitempty"`
	RespondedBy  *uuid.UUID     `json:"responded_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Withdraw retracts a pending proposal.
func (p *TripFinanceProposal) Withdraw(by uuid.UUID, now time.Time) error {
	return p.resolve(ProposalStatusWithdrawn, by, now)
}

// Accept marks the proposal as the trip's financing.
func (p *TripFinanceProposal) Accept(by uuid.UUID, now time.Time) error {
	return p.resolve(ProposalStatusAccepted, by, now)
}

// Reject declines a pending proposal.
func (p *TripFinanceProposal) Reject(by uuid.UUID, now time.Time) error {
	return p.resolve(ProposalStatusRejected, by, now)
}

func (p *TripFinanceProposal) resolve(next ProposalStatus, by uuid.UUID, now time.Time) error {
	if p.Status != ProposalStatusPending {
		return transitionError("proposal", p.Status, ProposalStatusPending)
	}
	p.Status = next
	p.RespondedBy = &by
	p.RespondedAt = &now
	p.UpdatedAt = now
	return nil
}

// InterestOutcome classifies one trip's result in a batch interest request.
type InterestOutcome string

const (
	InterestCreated    InterestOutcome = "CREATED"
	InterestNotFound   InterestOutcome = "NOT_FOUND"
	InterestNoContract InterestOutcome = "NO_CONTRACT"
	InterestDuplicate  InterestOutcome = "DUPLICATE"
	InterestFailed     InterestOutcome = "FAILED"
)

// InterestResult is the per-trip outcome of a batch interest request.
type InterestResult struct {
	TripID     uuid.UUID       `json:"trip_id"`
	Success    bool            `json:"success"`
	Outcome    InterestOutcome `json:"outcome"`
	Message    string          `json:"message"`
	ProposalID *uuid.UUID      `json:"proposal_id,omitempty"`
	ContractID *uuid.UUID      `json:"contract_id,omitempty"`
}

// InterestBatchResult aggregates per-trip results. The batch never fails as a whole.
type InterestBatchResult struct {
	Total        int              `json:"total"`
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
	Results      []InterestResult `json:"results"`
}

// Add records one trip's result and updates the counts.
func (r *InterestBatchResult) Add(res InterestResult) {
	r.Results = append(r.Results, res)
	r.Total++
	if res.Success {
		r.SuccessCount++
	} else {
		r.FailureCount++
	}
}
