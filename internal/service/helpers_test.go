package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"trip-finance-ledger/internal/adapter/storage/memory"
	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

var errInjected = errors.New("injected failure")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// quietNotifier accepts any number of events.
func quietNotifier(t *testing.T) *mocks.MockNotifier {
	ctrl := gomock.NewController(t)
	n := mocks.NewMockNotifier(ctrl)
	n.EXPECT().Notify(gomock.Any(), gomock.Any()).AnyTimes()
	return n
}

// fixedClock is a controllable time source.
type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *fixedClock                   { return &fixedClock{t: time.Now().UTC().Truncate(time.Second)} }

func seedUser(db *memory.DB, company *uuid.UUID) uuid.UUID {
	id := uuid.New()
	db.SeedUser(domain.User{ID: id, Name: "user-" + id.String()[:8], CompanyID: company})
	return id
}

// faultyUoW runs the wrapped unit of work with a store whose repositories may be
// replaced to inject failures part-way through.
type faultyUoW struct {
	inner ports.UnitOfWork
	wrap  func(ports.Store) ports.Store
}

func (u faultyUoW) Do(ctx context.Context, level ports.IsolationLevel, fn func(ctx context.Context, store ports.Store) error) error {
	return u.inner.Do(ctx, level, func(ctx context.Context, st ports.Store) error {
		return fn(ctx, u.wrap(st))
	})
}

type storeWithBids struct {
	ports.Store
	bids ports.BidRepository
}

func (s storeWithBids) Bids() ports.BidRepository { return s.bids }

type storeWithProposals struct {
	ports.Store
	proposals ports.ProposalRepository
}

func (s storeWithProposals) Proposals() ports.ProposalRepository { return s.proposals }

type storeWithTransactions struct {
	ports.Store
	txns ports.TransactionRepository
}

func (s storeWithTransactions) Transactions() ports.TransactionRepository { return s.txns }

// failingRivalSweep lets the winner's update through and fails the sweep after it.
type failingRivalSweep struct{ ports.BidRepository }

func (failingRivalSweep) RejectActiveForTrip(ctx context.Context, tripID, exceptID uuid.UUID, reason string, by uuid.UUID, now time.Time) (int64, error) {
	return 0, errInjected
}

type failingPendingSweep struct{ ports.ProposalRepository }

func (failingPendingSweep) RejectPendingForTrip(ctx context.Context, tripID, exceptID uuid.UUID, by uuid.UUID, now time.Time) (int64, error) {
	return 0, errInjected
}

// failingManualRequest fails after the transaction and its entries were written.
type failingManualRequest struct{ ports.TransactionRepository }

func (failingManualRequest) CreateManualRequest(ctx context.Context, req *domain.ManualTransferRequest) error {
	return errInjected
}
