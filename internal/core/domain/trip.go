package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TripStatus represents the lifecycle state of a trip.
type TripStatus string

const (
	TripStatusActive    TripStatus = "ACTIVE"
	TripStatusInTransit TripStatus = "IN_TRANSIT"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// Trip is a shipment owned by the transporter who created it.
type Trip struct {
	ID                uuid.UUID       `json:"id"`
	TransporterUserID uuid.UUID       `json:"transporter_user_id"`
	SenderUserID      uuid.UUID       `json:"sender_user_id"`
	LoanAmount        decimal.Decimal `json:"loan_amount"`
	Currency          string          `json:"currency"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	MaturityDays      int             `json:"maturity_days"`
	Status            TripStatus      `json:"status"`
	ContractID        *uuid.UUID      `json:"contract_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsOwnedBy returns true if userID created the trip.
func (t *Trip) IsOwnedBy(userID uuid.UUID) bool {
	return t.TransporterUserID == userID
}

// AcceptsBids returns true if lenders may still bid on the trip.
func (t *Trip) AcceptsBids() bool {
	return t.Status == TripStatusActive
}

// BindContract copies the financing terms of c onto the trip.
func (t *Trip) BindContract(c *Contract, now time.Time) {
	id := c.ID
	t.ContractID = &id
	t.InterestRate = c.InterestRate
	t.MaturityDays = c.MaturityDays
	t.UpdatedAt = now
}

// ContractStatus represents the lifecycle state of a three-party contract.
type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusExpired    ContractStatus = "EXPIRED"
	ContractStatusTerminated ContractStatus = "TERMINATED"
)

// Contract is a three-party agreement between a lender, a transporter and a sender.
type Contract struct {
	ID                uuid.UUID       `json:"id"`
	ContractNumber    string          `json:"contract_number"`
	LenderUserID      uuid.UUID       `json:"lender_user_id"`
	TransporterUserID uuid.UUID       `json:"transporter_user_id"`
	SenderUserID      uuid.UUID       `json:"sender_user_id"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	MaturityDays      int             `json:"maturity_days"`
	Status            ContractStatus  `json:"status"`
	ExpiresAt         time.Time       `json:"expires_at"`
}

// IsActiveAt returns true if the contract can authorize financing at now.
func (c *Contract) IsActiveAt(now time.Time) bool {
	return c.Status == ContractStatusActive && c.ExpiresAt.After(now)
}

// Role is the platform role carried in an access token.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleLender      Role = "lender"
	RoleTransporter Role = "transporter"
)

// User is the slice of a platform user the ledger needs.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
}
