package service

import (
	"context"
	"testing"
	"time"

	"trip-finance-ledger/internal/adapter/storage/memory"
	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bidTestDeps struct {
	svc         *BidServiceImpl
	db          *memory.DB
	clock       *fixedClock
	transporter uuid.UUID
	trip        *domain.Trip
}

func setupBidService(t *testing.T) *bidTestDeps {
	db := memory.New()
	clock := newClock()
	d := &bidTestDeps{db: db, clock: clock, transporter: seedUser(db, nil)}
	d.svc = NewBidService(db, db.Store(), db.Users(), quietNotifier(t),
		NewAuditService(db.Audit(), newTestLogger()), 24*time.Hour, newTestLogger())
	d.svc.now = clock.now
	d.trip = d.newTrip(t, domain.TripStatusActive)
	return d
}

func (d *bidTestDeps) newTrip(t *testing.T, status domain.TripStatus) *domain.Trip {
	t.Helper()
	now := d.clock.now()
	trip := &domain.Trip{
		ID:                uuid.New(),
		TransporterUserID: d.transporter,
		SenderUserID:      seedUser(d.db, nil),
		LoanAmount:        dec("50000"),
		Currency:          "INR",
		InterestRate:      dec("12"),
		MaturityDays:      30,
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, d.db.Store().Trips().Create(context.Background(), trip))
	return trip
}

func terms(amount string) domain.BidTerms {
	return domain.BidTerms{Amount: dec(amount), InterestRate: dec("10"), MaturityDays: 30}
}

func (d *bidTestDeps) bid(t *testing.T, lender uuid.UUID, amount string) *domain.TripBid {
	t.Helper()
	b, err := d.svc.Create(context.Background(), ports.CreateBidRequest{TripID: d.trip.ID, LenderID: lender, Terms: terms(amount)})
	require.NoError(t, err)
	return b
}

func (d *bidTestDeps) stored(t *testing.T, id uuid.UUID) *domain.TripBid {
	t.Helper()
	b, err := d.db.Store().Bids().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

// ==================== Create ====================

func TestBidService_Create(t *testing.T) {
	d := setupBidService(t)
	company := uuid.New()
	lender := seedUser(d.db, &company)

	b := d.bid(t, lender, "45000")
	assert.Equal(t, domain.BidStatusPending, b.Status)
	assert.Equal(t, "INR", b.Currency)
	assert.Equal(t, &company, b.LenderCompanyID)
	assert.Equal(t, d.clock.now().Add(24*time.Hour), b.ExpiresAt)
	assert.True(t, dec("369.86").Equal(b.TotalInterest()))
}

func TestBidService_Create_Rejections(t *testing.T) {
	d := setupBidService(t)
	ctx := context.Background()
	lender := seedUser(d.db, nil)
	past := d.clock.now().Add(-time.Minute)

	tests := []struct {
		name string
		req  ports.CreateBidRequest
		code string
	}{
		{"zero amount", ports.CreateBidRequest{TripID: d.trip.ID, LenderID: lender, Terms: terms("0")}, "VAL_001"},
		{"negative rate", ports.CreateBidRequest{TripID: d.trip.ID, LenderID: lender, Terms: domain.BidTerms{Amount: dec("1"), InterestRate: dec("-1"), MaturityDays: 1}}, "VAL_001"},
		{"no maturity", ports.CreateBidRequest{TripID: d.trip.ID, LenderID: lender, Terms: domain.BidTerms{Amount: dec("1"), InterestRate: dec("1")}}, "VAL_001"},
		{"past expiry", ports.CreateBidRequest{TripID: d.trip.ID, LenderID: lender, Terms: terms("10"), ExpiresAt: &past}, "VAL_001"},
		{"unknown lender", ports.CreateBidRequest{TripID: d.trip.ID, LenderID: uuid.New(), Terms: terms("10")}, "NF_001"},
		{"unknown trip", ports.CreateBidRequest{TripID: uuid.New(), LenderID: lender, Terms: terms("10")}, "NF_001"},
		{"own trip", ports.CreateBidRequest{TripID: d.trip.ID, LenderID: d.transporter, Terms: terms("10")}, "AUTH_002"},
		{"currency mismatch", ports.CreateBidRequest{TripID: d.trip.ID, LenderID: lender, Terms: terms("10"), Currency: "usd"}, "WL_002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.svc.Create(ctx, tt.req)
			assertCode(t, tt.code, err)
		})
	}
}

func TestBidService_Create_TripNotActive(t *testing.T) {
	d := setupBidService(t)
	trip := d.newTrip(t, domain.TripStatusInTransit)

	_, err := d.svc.Create(context.Background(), ports.CreateBidRequest{TripID: trip.ID, LenderID: seedUser(d.db, nil), Terms: terms("10")})
	assertCode(t, "ST_001", err)
}

func TestBidService_Create_Duplicate(t *testing.T) {
	d := setupBidService(t)
	lender := seedUser(d.db, nil)
	first := d.bid(t, lender, "100")

	_, err := d.svc.Create(context.Background(), ports.CreateBidRequest{TripID: d.trip.ID, LenderID: lender, Terms: terms("200")})
	assertCode(t, "CF_002", err)

	// once the first bid is no longer active the lender may bid again
	_, err = d.svc.Cancel(context.Background(), first.ID, lender)
	require.NoError(t, err)
	d.bid(t, lender, "200")
}

// ==================== Transitions ====================

func TestBidService_UpdateAndCancel(t *testing.T) {
	d := setupBidService(t)
	ctx := context.Background()
	lender := seedUser(d.db, nil)
	b := d.bid(t, lender, "100")

	_, err := d.svc.Update(ctx, b.ID, seedUser(d.db, nil), terms("150"), nil)
	assertCode(t, "AUTH_002", err)

	updated, err := d.svc.Update(ctx, b.ID, lender, terms("150"), nil)
	require.NoError(t, err)
	assert.True(t, dec("150").Equal(updated.Amount))
	assert.True(t, dec("150").Equal(d.stored(t, b.ID).Amount))

	cancelled, err := d.svc.Cancel(ctx, b.ID, lender)
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusCancelled, cancelled.Status)

	_, err = d.svc.Cancel(ctx, b.ID, lender)
	assertCode(t, "ST_001", err)
	_, err = d.svc.Update(ctx, b.ID, lender, terms("200"), nil)
	assertCode(t, "ST_001", err)
}

func TestBidService_Accept_RejectsRivals(t *testing.T) {
	d := setupBidService(t)
	ctx := context.Background()
	winner := d.bid(t, seedUser(d.db, nil), "100")
	rivalA := d.bid(t, seedUser(d.db, nil), "110")
	rivalB := d.bid(t, seedUser(d.db, nil), "120")
	_, err := d.svc.Counter(ctx, rivalB.ID, d.transporter, terms("115"))
	require.NoError(t, err)

	_, err = d.svc.Accept(ctx, winner.ID, seedUser(d.db, nil))
	assertCode(t, "AUTH_002", err)

	accepted, err := d.svc.Accept(ctx, winner.ID, d.transporter)
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedBy)
	assert.Equal(t, d.transporter, *accepted.RespondedBy)

	for _, id := range []uuid.UUID{rivalA.ID, rivalB.ID} {
		rival := d.stored(t, id)
		assert.Equal(t, domain.BidStatusRejected, rival.Status)
		require.NotNil(t, rival.RejectionReason)
		assert.Equal(t, domain.RivalRejectionReason, *rival.RejectionReason)
	}

	_, err = d.svc.Accept(ctx, rivalA.ID, d.transporter)
	assertCode(t, "ST_001", err)

	assert.Eventually(t, func() bool {
		for _, l := range d.db.AuditLogs() {
			if l.Action == domain.AuditActionAcceptBid && l.ResourceID == winner.ID.String() {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestBidService_Accept_RivalSweepFailureRollsBack(t *testing.T) {
	d := setupBidService(t)
	winner := d.bid(t, seedUser(d.db, nil), "100")
	rival := d.bid(t, seedUser(d.db, nil), "110")

	d.svc.uow = faultyUoW{inner: d.db, wrap: func(st ports.Store) ports.Store {
		return storeWithBids{Store: st, bids: failingRivalSweep{st.Bids()}}
	}}

	_, err := d.svc.Accept(context.Background(), winner.ID, d.transporter)
	assertCode(t, "SYS_001", err)

	assert.Equal(t, domain.BidStatusPending, d.stored(t, winner.ID).Status)
	assert.Equal(t, domain.BidStatusPending, d.stored(t, rival.ID).Status)
}

func TestBidService_Reject(t *testing.T) {
	d := setupBidService(t)
	ctx := context.Background()
	b := d.bid(t, seedUser(d.db, nil), "100")

	rejected, err := d.svc.Reject(ctx, b.ID, d.transporter, "  rate too high ")
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "rate too high", *rejected.RejectionReason)

	other := d.bid(t, seedUser(d.db, nil), "100")
	rejected, err = d.svc.Reject(ctx, other.ID, d.transporter, "")
	require.NoError(t, err)
	assert.Nil(t, rejected.RejectionReason)
}

func TestBidService_CounterFlow(t *testing.T) {
	d := setupBidService(t)
	ctx := context.Background()
	lender := seedUser(d.db, nil)
	b := d.bid(t, lender, "100")
	rival := d.bid(t, seedUser(d.db, nil), "100")

	d.clock.advance(6 * time.Hour)
	countered, err := d.svc.Counter(ctx, b.ID, d.transporter, domain.BidTerms{Amount: dec("90"), InterestRate: dec("8"), MaturityDays: 45})
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusCountered, countered.Status)
	assert.Equal(t, d.clock.now().Add(24*time.Hour), countered.ExpiresAt, "counter restarts the expiry")
	assert.True(t, dec("100").Equal(countered.Amount), "primary terms untouched until accepted")

	_, err = d.svc.Counter(ctx, b.ID, d.transporter, terms("80"))
	assertCode(t, "ST_001", err)
	_, err = d.svc.Update(ctx, b.ID, lender, terms("95"), nil)
	assertCode(t, "ST_001", err)
	_, err = d.svc.AcceptCounter(ctx, b.ID, seedUser(d.db, nil))
	assertCode(t, "AUTH_002", err)

	accepted, err := d.svc.AcceptCounter(ctx, b.ID, lender)
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusAccepted, accepted.Status)
	assert.True(t, dec("90").Equal(accepted.Amount))
	assert.True(t, dec("8").Equal(accepted.InterestRate))
	assert.Equal(t, 45, accepted.MaturityDays)

	assert.Equal(t, domain.BidStatusRejected, d.stored(t, rival.ID).Status)
}

func TestBidService_RejectCounter(t *testing.T) {
	d := setupBidService(t)
	ctx := context.Background()
	lender := seedUser(d.db, nil)
	b := d.bid(t, lender, "100")

	_, err := d.svc.RejectCounter(ctx, b.ID, lender)
	assertCode(t, "ST_001", err)

	_, err = d.svc.Counter(ctx, b.ID, d.transporter, terms("90"))
	require.NoError(t, err)
	cancelled, err := d.svc.RejectCounter(ctx, b.ID, lender)
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusCancelled, cancelled.Status)
}

// ==================== Expiry ====================

func TestBidService_LazyExpiryOnMutation(t *testing.T) {
	d := setupBidService(t)
	lender := seedUser(d.db, nil)
	b := d.bid(t, lender, "100")

	d.clock.advance(25 * time.Hour)

	_, err := d.svc.Accept(context.Background(), b.ID, d.transporter)
	assertCode(t, "ST_002", err)
	assert.Equal(t, domain.BidStatusExpired, d.stored(t, b.ID).Status, "expiry is persisted")

	_, err = d.svc.Cancel(context.Background(), b.ID, lender)
	assertCode(t, "ST_001", err)
}

func TestBidService_LazyExpiryOnRead(t *testing.T) {
	d := setupBidService(t)
	lender := seedUser(d.db, nil)
	stale := d.bid(t, lender, "100")
	d.clock.advance(12 * time.Hour)
	fresh := d.bid(t, seedUser(d.db, nil), "100")
	d.clock.advance(13 * time.Hour)

	got, err := d.svc.Get(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusExpired, got.Status)

	bids, err := d.svc.ListByTrip(context.Background(), d.trip.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	statuses := map[uuid.UUID]domain.BidStatus{}
	for _, b := range bids {
		statuses[b.ID] = b.Status
	}
	assert.Equal(t, domain.BidStatusExpired, statuses[stale.ID])
	assert.Equal(t, domain.BidStatusPending, statuses[fresh.ID])
	assert.Equal(t, domain.BidStatusExpired, d.stored(t, stale.ID).Status)

	mine, err := d.svc.ListByLender(context.Background(), lender)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.BidStatusExpired, mine[0].Status)
}

func TestBidService_ExpireOverdue(t *testing.T) {
	d := setupBidService(t)
	ctx := context.Background()
	d.bid(t, seedUser(d.db, nil), "100")
	d.bid(t, seedUser(d.db, nil), "100")
	accepted := d.bid(t, seedUser(d.db, nil), "100")
	d.clock.advance(time.Hour)
	fresh := d.bid(t, seedUser(d.db, nil), "100")

	n, err := d.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = d.svc.Reject(ctx, accepted.ID, d.transporter, "")
	require.NoError(t, err)

	d.clock.advance(23*time.Hour + time.Second)
	n, err = d.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = d.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second run finds nothing")

	assert.Equal(t, domain.BidStatusPending, d.stored(t, fresh.ID).Status)
	assert.Equal(t, domain.BidStatusRejected, d.stored(t, accepted.ID).Status)
}

func TestBidService_ListByTrip_UnknownTrip(t *testing.T) {
	d := setupBidService(t)

	_, err := d.svc.ListByTrip(context.Background(), uuid.New())
	assertCode(t, "NF_001", err)

	bids, err := d.svc.ListByLender(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, bids)
	assert.Empty(t, bids)
}

func TestBidService_GetNotFound(t *testing.T) {
	d := setupBidService(t)

	_, err := d.svc.Get(context.Background(), uuid.New())
	assertCode(t, "NF_001", err)
	_, err = d.svc.Cancel(context.Background(), uuid.New(), uuid.New())
	assertCode(t, "NF_001", err)
}
