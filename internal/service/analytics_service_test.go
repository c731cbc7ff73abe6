package service

import (
	"context"
	"testing"

	"trip-finance-ledger/internal/adapter/storage/memory"
	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// analyticsFixture runs one financed trip end to end through the real services.
type analyticsFixture struct {
	db          *memory.DB
	svc         ports.AnalyticsService
	lender      uuid.UUID
	transporter uuid.UUID
}

func setupAnalytics(t *testing.T) *analyticsFixture {
	ctx := context.Background()
	db := memory.New()
	log := newTestLogger()
	audit := NewAuditService(db.Audit(), log)
	notifier := quietNotifier(t)

	ledger := NewLedgerService(db, db.Store(), db.Users(), nil, notifier, audit, LedgerOptions{DefaultCurrency: "INR"}, log)
	trips := NewTripService(db.Store(), db.Users(), log)
	bids := NewBidService(db, db.Store(), db.Users(), notifier, audit, 0, log)

	f := &analyticsFixture{db: db, svc: NewAnalyticsService(db.Store(), db.Users(), log)}
	f.lender = seedUser(db, nil)
	f.transporter = seedUser(db, nil)
	admin := seedUser(db, nil)
	rival := seedUser(db, nil)

	for _, u := range []uuid.UUID{f.lender, f.transporter} {
		_, err := ledger.CreateWallet(ctx, ports.CreateWalletRequest{UserID: u, Actor: admin})
		require.NoError(t, err)
	}

	trip, err := trips.CreateTrip(ctx, ports.CreateTripRequest{
		TransporterID: f.transporter, SenderID: seedUser(db, nil), LoanAmount: dec("36500"),
		Currency: "INR", InterestRate: dec("10"), MaturityDays: 30,
	})
	require.NoError(t, err)

	won, err := bids.Create(ctx, ports.CreateBidRequest{TripID: trip.ID, LenderID: f.lender, Terms: domain.BidTerms{
		Amount: dec("36500"), InterestRate: dec("10"), MaturityDays: 30,
	}})
	require.NoError(t, err)
	_, err = bids.Create(ctx, ports.CreateBidRequest{TripID: trip.ID, LenderID: rival, Terms: terms("30000")})
	require.NoError(t, err)
	_, err = bids.Accept(ctx, won.ID, f.transporter)
	require.NoError(t, err)

	_, err = ledger.Credit(ctx, ports.MovementRequest{UserID: f.lender, Amount: dec("50000"), Meta: ports.MovementMeta{EnteredBy: admin}})
	require.NoError(t, err)
	_, err = ledger.Transfer(ctx, ports.TransferRequest{FromUserID: f.lender, ToUserID: f.transporter, Amount: dec("36500"),
		Meta: ports.MovementMeta{Description: "disbursement", TripID: &trip.ID, EnteredBy: admin}})
	require.NoError(t, err)
	_, err = ledger.Transfer(ctx, ports.TransferRequest{FromUserID: f.transporter, ToUserID: f.lender, Amount: dec("10000"),
		Meta: ports.MovementMeta{Description: "repayment", TripID: &trip.ID, EnteredBy: admin}})
	require.NoError(t, err)
	return f
}

func TestAnalyticsService_LenderSummary(t *testing.T) {
	f := setupAnalytics(t)

	s, err := f.svc.LenderSummary(context.Background(), f.lender)
	require.NoError(t, err)
	assert.Equal(t, "INR", s.Currency)
	assert.True(t, dec("23500").Equal(s.WalletBalance))
	assert.True(t, dec("36500").Equal(s.TotalDisbursed), "only trip-linked movements count")
	assert.True(t, dec("10000").Equal(s.TotalReceived))
	assert.Equal(t, int64(1), s.FinancedTrips)
	assert.Equal(t, int64(1), s.AcceptedBids)
	assert.True(t, dec("36500").Equal(s.AcceptedBidVolume))
	assert.True(t, dec("300").Equal(s.ExpectedInterest))
	assert.Equal(t, int64(1), s.BidsByStatus[domain.BidStatusAccepted])
	assert.Len(t, s.BidsByStatus, 6, "every status is reported")
	assert.Len(t, s.ProposalsByStatus, 4)
}

func TestAnalyticsService_TransporterSummary(t *testing.T) {
	f := setupAnalytics(t)

	s, err := f.svc.TransporterSummary(context.Background(), f.transporter)
	require.NoError(t, err)
	assert.True(t, dec("26500").Equal(s.WalletBalance))
	assert.True(t, dec("36500").Equal(s.TotalBorrowed))
	assert.True(t, dec("10000").Equal(s.TotalRepaid))
	assert.True(t, dec("26500").Equal(s.Outstanding))
	assert.Equal(t, int64(1), s.FinancedTrips)
	assert.True(t, dec("300").Equal(s.InterestPayable))
	assert.Equal(t, int64(1), s.BidsByStatus[domain.BidStatusAccepted])
	assert.Equal(t, int64(1), s.BidsByStatus[domain.BidStatusRejected])
	assert.Nil(t, s.RevenueFromShipper)
	assert.Nil(t, s.Profit)
	assert.Equal(t, domain.RevenueTrackingUnimplemented, s.RevenueTracking)
}

func TestAnalyticsService_NoWallet(t *testing.T) {
	db := memory.New()
	svc := NewAnalyticsService(db.Store(), db.Users(), newTestLogger())
	lender := seedUser(db, nil)

	s, err := svc.LenderSummary(context.Background(), lender)
	require.NoError(t, err)
	assert.True(t, s.WalletBalance.IsZero())
	assert.True(t, s.TotalDisbursed.IsZero())
	assert.Zero(t, s.FinancedTrips)
	assert.Empty(t, s.Currency)
}

func TestAnalyticsService_UnknownUser(t *testing.T) {
	db := memory.New()
	svc := NewAnalyticsService(db.Store(), db.Users(), newTestLogger())

	_, err := svc.LenderSummary(context.Background(), uuid.New())
	assertCode(t, "NF_001", err)
	_, err = svc.TransporterSummary(context.Background(), uuid.New())
	assertCode(t, "NF_001", err)
}
