package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionCreateWallet   AuditAction = "CREATE_WALLET"
	AuditActionCredit         AuditAction = "CREDIT"
	AuditActionDebit          AuditAction = "DEBIT"
	AuditActionTransfer       AuditAction = "TRANSFER"
	AuditActionSuspendWallet  AuditAction = "SUSPEND_WALLET"
	AuditActionActivateWallet AuditAction = "ACTIVATE_WALLET"
	AuditActionCloseWallet    AuditAction = "CLOSE_WALLET"
	AuditActionExpireBids     AuditAction = "EXPIRE_BIDS"
	AuditActionAcceptBid      AuditAction = "ACCEPT_BID"
	AuditActionAcceptCounter  AuditAction = "ACCEPT_COUNTER"
	AuditActionAcceptProposal AuditAction = "ACCEPT_PROPOSAL"

	// recorded by the HTTP audit trail
	AuditActionCreateTrip       AuditAction = "CREATE_TRIP"
	AuditActionCreateBid        AuditAction = "CREATE_BID"
	AuditActionUpdateBid        AuditAction = "UPDATE_BID"
	AuditActionCancelBid        AuditAction = "CANCEL_BID"
	AuditActionRejectBid        AuditAction = "REJECT_BID"
	AuditActionCounterBid       AuditAction = "COUNTER_BID"
	AuditActionRejectCounter    AuditAction = "REJECT_COUNTER"
	AuditActionMarkInterest     AuditAction = "MARK_INTEREST"
	AuditActionWithdrawProposal AuditAction = "WITHDRAW_PROPOSAL"
	AuditActionRejectProposal   AuditAction = "REJECT_PROPOSAL"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	ActorID      *uuid.UUID  `json:"actor_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
