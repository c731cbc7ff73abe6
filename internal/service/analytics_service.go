package service

import (
	"context"
	"fmt"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	allBidStatuses = []domain.BidStatus{
		domain.BidStatusPending, domain.BidStatusCountered, domain.BidStatusAccepted,
		domain.BidStatusRejected, domain.BidStatusCancelled, domain.BidStatusExpired,
	}
	allProposalStatuses = []domain.ProposalStatus{
		domain.ProposalStatusPending, domain.ProposalStatusAccepted,
		domain.ProposalStatusRejected, domain.ProposalStatusWithdrawn,
	}
)

// analyticsService implements ports.AnalyticsService with aggregate queries only.
type analyticsService struct {
	store ports.Store
	users ports.UserDirectory
	log   zerolog.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(store ports.Store, users ports.UserDirectory, log zerolog.Logger) ports.AnalyticsService {
	return &analyticsService{store: store, users: users, log: log}
}

// LenderSummary aggregates a lender's wallet, trip-linked flows, bids and proposals.
func (s *analyticsService) LenderSummary(ctx context.Context, lenderID uuid.UUID) (*domain.LenderSummary, error) {
	if err := s.requireUser(ctx, lenderID, "lender"); err != nil {
		return nil, err
	}
	filter := ports.PartyFilter{LenderID: &lenderID}

	w, err := s.walletPosition(ctx, lenderID)
	if err != nil {
		return nil, err
	}
	financed, err := s.store.Trips().CountFinanced(ctx, filter)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count financed trips: %w", err))
	}
	bids, proposals, err := s.counts(ctx, filter)
	if err != nil {
		return nil, err
	}
	totals, err := s.store.Bids().AcceptedTotals(ctx, filter)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("accepted bid totals: %w", err))
	}

	return &domain.LenderSummary{
		LenderID:          lenderID,
		Currency:          w.currency,
		WalletBalance:     w.balance,
		TotalDisbursed:    w.flows.Debits,
		TotalReceived:     w.flows.Credits,
		FinancedTrips:     financed,
		ProposalsByStatus: proposals,
		BidsByStatus:      bids,
		AcceptedBids:      totals.Count,
		AcceptedBidVolume: totals.Volume,
		ExpectedInterest:  totals.Interest,
	}, nil
}

// TransporterSummary aggregates a transporter's borrowing, repayments and offers.
// Shipper revenue is not tracked, so revenue and profit are reported as unimplemented.
func (s *analyticsService) TransporterSummary(ctx context.Context, transporterID uuid.UUID) (*domain.TransporterSummary, error) {
	if err := s.requireUser(ctx, transporterID, "transporter"); err != nil {
		return nil, err
	}
	filter := ports.PartyFilter{TransporterID: &transporterID}

	w, err := s.walletPosition(ctx, transporterID)
	if err != nil {
		return nil, err
	}
	financed, err := s.store.Trips().CountFinanced(ctx, filter)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count financed trips: %w", err))
	}
	bids, proposals, err := s.counts(ctx, filter)
	if err != nil {
		return nil, err
	}
	totals, err := s.store.Bids().AcceptedTotals(ctx, filter)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("accepted bid totals: %w", err))
	}

	return &domain.TransporterSummary{
		TransporterID:     transporterID,
		Currency:          w.currency,
		WalletBalance:     w.balance,
		TotalBorrowed:     w.flows.Credits,
		TotalRepaid:       w.flows.Debits,
		Outstanding:       w.flows.Credits.Sub(w.flows.Debits),
		FinancedTrips:     financed,
		InterestPayable:   totals.Interest,
		ProposalsByStatus: proposals,
		BidsByStatus:      bids,
		RevenueTracking:   domain.RevenueTrackingUnimplemented,
	}, nil
}

type walletPosition struct {
	currency string
	balance  decimal.Decimal
	flows    domain.TripFlows
}

// walletPosition reads the user's balance and trip-linked flows. A user without a wallet
// has a zero position.
func (s *analyticsService) walletPosition(ctx context.Context, userID uuid.UUID) (*walletPosition, error) {
	pos := &walletPosition{balance: decimal.Zero, flows: domain.TripFlows{Credits: decimal.Zero, Debits: decimal.Zero}}
	w, err := s.store.Wallets().GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return pos, nil
	}
	pos.currency = w.Currency
	if pos.balance, err = s.store.Ledger().CurrentBalance(ctx, w.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get balance: %w", err))
	}
	flows, err := s.store.Ledger().TripFlows(ctx, w.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("trip flows: %w", err))
	}
	pos.flows = *flows
	return pos, nil
}

func (s *analyticsService) counts(ctx context.Context, f ports.PartyFilter) (map[domain.BidStatus]int64, map[domain.ProposalStatus]int64, error) {
	bids, err := s.store.Bids().StatusCounts(ctx, f)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("bid status counts: %w", err))
	}
	proposals, err := s.store.Proposals().StatusCounts(ctx, f)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("proposal status counts: %w", err))
	}
	return withZeros(bids, allBidStatuses), withZeros(proposals, allProposalStatuses), nil
}

func (s *analyticsService) requireUser(ctx context.Context, id uuid.UUID, kind string) error {
	u, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lookup %s: %w", kind, err))
	}
	if u == nil {
		return apperror.ErrNotFound(kind)
	}
	return nil
}

// withZeros reports every known status, including those with no rows.
func withZeros[S comparable](counts map[S]int64, all []S) map[S]int64 {
	out := make(map[S]int64, len(all))
	for _, st := range all {
		out[st] = counts[st]
	}
	return out
}
