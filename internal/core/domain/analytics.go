package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RevenueTrackingUnimplemented marks shipper revenue and profit as not tracked.
const RevenueTrackingUnimplemented = "unimplemented"

// TripFlows totals a wallet's trip-linked money movement.
type TripFlows struct {
	Credits decimal.Decimal `json:"credits"`
	Debits  decimal.Decimal `json:"debits"`
}

// BidTotals aggregates accepted bids.
type BidTotals struct {
	Count    int64           `json:"count"`
	Volume   decimal.Decimal `json:"volume"`
	Interest decimal.Decimal `json:"interest"`
}

// LenderSummary is the read-only analytics view of a lender.
type LenderSummary struct {
	LenderID          uuid.UUID                `json:"lender_id"`
	Currency          string                   `json:"currency,omitempty"`
	WalletBalance     decimal.Decimal          `json:"wallet_balance"`
	TotalDisbursed    decimal.Decimal          `json:"total_disbursed"`
	TotalReceived     decimal.Decimal          `json:"total_received"`
	FinancedTrips     int64                    `json:"financed_trips"`
	ProposalsByStatus map[ProposalStatus]int64 `json:"proposals_by_status"`
	BidsByStatus      map[BidStatus]int64      `json:"bids_by_status"`
	AcceptedBids      int64                    `json:"accepted_bids"`
	AcceptedBidVolume decimal.Decimal          `json:"accepted_bid_volume"`
	ExpectedInterest  decimal.Decimal          `json:"expected_interest"`
}

// TransporterSummary is the read-only analytics view of a transporter.
// RevenueFromShipper and Profit stay nil until shipper revenue is tracked.
type TransporterSummary struct {
	TransporterID      uuid.UUID                `json:"transporter_id"`
	Currency           string                   `json:"currency,omitempty"`
	WalletBalance      decimal.Decimal          `json:"wallet_balance"`
	TotalBorrowed      decimal.Decimal          `json:"total_borrowed"`
	TotalRepaid        decimal.Decimal          `json:"total_repaid"`
	Outstanding        decimal.Decimal          `json:"outstanding"`
	FinancedTrips      int64                    `json:"financed_trips"`
	InterestPayable    decimal.Decimal          `json:"interest_payable"`
	ProposalsByStatus  map[ProposalStatus]int64 `json:"proposals_by_status"`
	BidsByStatus       map[BidStatus]int64      `json:"bids_by_status"`
	RevenueFromShipper *decimal.Decimal         `json:"revenue_from_shipper"`
	Profit             *decimal.Decimal         `json:"profit"`
	RevenueTracking    string                   `json:"revenue_tracking"`
}
