package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BidServiceImpl implements ports.BidService.
//
// Every transition runs in one READ COMMITTED unit of work that locks the trip row first
// and the bid row second, so a winner and its rival sweep commit together and two
// acceptances on one trip cannot interleave. An active bid found past its expiry is
// persisted as EXPIRED and the call fails with ST_002.
type BidServiceImpl struct {
	uow           ports.UnitOfWork
	store         ports.Store
	users         ports.UserDirectory
	notifier      ports.Notifier
	audit         ports.AuditService
	defaultExpiry time.Duration
	log           zerolog.Logger
	now           func() time.Time
}

// NewBidService creates a new BidServiceImpl. A non-positive defaultExpiry falls back to
// domain.DefaultBidExpiry.
func NewBidService(
	uow ports.UnitOfWork,
	store ports.Store,
	users ports.UserDirectory,
	notifier ports.Notifier,
	audit ports.AuditService,
	defaultExpiry time.Duration,
	log zerolog.Logger,
) *BidServiceImpl {
	if defaultExpiry <= 0 {
		defaultExpiry = domain.DefaultBidExpiry
	}
	return &BidServiceImpl{
		uow:           uow,
		store:         store,
		users:         users,
		notifier:      notifier,
		audit:         audit,
		defaultExpiry: defaultExpiry,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create places a PENDING bid on an ACTIVE trip.
func (s *BidServiceImpl) Create(ctx context.Context, req ports.CreateBidRequest) (*domain.TripBid, error) {
	if err := validateTerms(req.Terms); err != nil {
		return nil, err
	}
	now := s.now()
	expiresAt := now.Add(s.defaultExpiry)
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(now) {
			return nil, apperror.Validation("expiry must be in the future")
		}
		expiresAt = req.ExpiresAt.UTC()
	}

	lender, err := s.users.FindUserByID(ctx, req.LenderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup lender: %w", err))
	}
	if lender == nil {
		return nil, apperror.ErrNotFound("lender")
	}

	bid := &domain.TripBid{
		ID:              uuid.New(),
		TripID:          req.TripID,
		LenderUserID:    req.LenderID,
		LenderCompanyID: lender.CompanyID,
		Amount:          req.Terms.Amount,
		InterestRate:    req.Terms.InterestRate,
		MaturityDays:    req.Terms.MaturityDays,
		Notes:           req.Terms.Notes,
		Status:          domain.BidStatusPending,
		ExpiresAt:       expiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.uow.Do(ctx, ports.ReadCommitted, func(ctx context.Context, st ports.Store) error {
		trip, err := st.Trips().GetByIDForUpdate(ctx, req.TripID)
		if err != nil {
			return fmt.Errorf("lock trip: %w", err)
		}
		if trip == nil {
			return apperror.ErrNotFound("trip")
		}
		if !trip.AcceptsBids() {
			return apperror.ErrInvalidState("trip", string(trip.Status), string(domain.TripStatusActive))
		}
		if trip.IsOwnedBy(req.LenderID) {
			return apperror.ErrForbidden("trip")
		}

		bid.Currency = trip.Currency
		if req.Currency != "" && !strings.EqualFold(req.Currency, trip.Currency) {
			return apperror.ErrCurrencyMismatch(strings.ToUpper(req.Currency), trip.Currency)
		}

		active, err := st.Bids().HasActiveBid(ctx, req.TripID, req.LenderID)
		if err != nil {
			return fmt.Errorf("check active bid: %w", err)
		}
		if active {
			return apperror.ErrDuplicateBid()
		}
		if err := st.Bids().Create(ctx, bid); err != nil {
			if errors.Is(err, ports.ErrUniqueViolation) {
				return apperror.ErrDuplicateBid()
			}
			return fmt.Errorf("create bid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translate("create bid", err)
	}

	s.log.Info().
		Str("bid_id", bid.ID.String()).
		Str("trip_id", bid.TripID.String()).
		Str("lender_id", bid.LenderUserID.String()).
		Str("amount", bid.Amount.StringFixed(domain.MoneyScale)).
		Msg("bid created")
	s.emit(ctx, domain.EventBidCreated, bid, req.LenderID, nil)

	return bid, nil
}

// Update replaces the terms of a PENDING bid. Owning lender only.
func (s *BidServiceImpl) Update(ctx context.Context, bidID, lenderID uuid.UUID, terms domain.BidTerms, expiresAt *time.Time) (*domain.TripBid, error) {
	if err := validateTerms(terms); err != nil {
		return nil, err
	}
	bid, err := s.transition(ctx, "update bid", bidID, ownedByLender(lenderID),
		func(ctx context.Context, st ports.Store, trip *domain.Trip, bid *domain.TripBid, now time.Time) error {
			if expiresAt != nil && !expiresAt.After(now) {
				return apperror.Validation("expiry must be in the future")
			}
			if err := bid.Update(terms, expiresAt, now); err != nil {
				return err
			}
			return s.save(ctx, st, bid)
		})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventBidUpdated, bid, lenderID, nil)
	return bid, nil
}

// Cancel withdraws an active bid. Owning lender only.
func (s *BidServiceImpl) Cancel(ctx context.Context, bidID, lenderID uuid.UUID) (*domain.TripBid, error) {
	bid, err := s.transition(ctx, "cancel bid", bidID, ownedByLender(lenderID),
		func(ctx context.Context, st ports.Store, trip *domain.Trip, bid *domain.TripBid, now time.Time) error {
			if err := bid.Cancel(now); err != nil {
				return err
			}
			return s.save(ctx, st, bid)
		})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventBidCancelled, bid, lenderID, nil)
	return bid, nil
}

// Accept makes an active bid the trip's winner and rejects every other active bid on the
// trip in the same unit of work. Trip owner only.
func (s *BidServiceImpl) Accept(ctx context.Context, bidID, transporterID uuid.UUID) (*domain.TripBid, error) {
	var rivals int64
	bid, err := s.transition(ctx, "accept bid", bidID, ownsTrip(transporterID),
		func(ctx context.Context, st ports.Store, trip *domain.Trip, bid *domain.TripBid, now time.Time) error {
			if !trip.AcceptsBids() {
				return apperror.ErrInvalidState("trip", string(trip.Status), string(domain.TripStatusActive))
			}
			if err := bid.Accept(transporterID, now); err != nil {
				return err
			}
			var err error
			rivals, err = s.win(ctx, st, bid, transporterID, now)
			return err
		})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("bid_id", bid.ID.String()).
		Str("trip_id", bid.TripID.String()).
		Int64("rivals_rejected", rivals).
		Msg("bid accepted")
	s.audit.Log(ctx, newAuditLog(ctx, transporterID, domain.AuditActionAcceptBid, "bid", bid.ID, map[string]any{
		"trip_id":         bid.TripID,
		"rivals_rejected": rivals,
	}))
	s.emit(ctx, domain.EventBidAccepted, bid, transporterID, map[string]any{"rivals_rejected": rivals})
	return bid, nil
}

// Reject declines an active bid with an optional reason. Trip owner only.
func (s *BidServiceImpl) Reject(ctx context.Context, bidID, transporterID uuid.UUID, reason string) (*domain.TripBid, error) {
	bid, err := s.transition(ctx, "reject bid", bidID, ownsTrip(transporterID),
		func(ctx context.Context, st ports.Store, trip *domain.Trip, bid *domain.TripBid, now time.Time) error {
			if err := bid.Reject(transporterID, strings.TrimSpace(reason), now); err != nil {
				return err
			}
			return s.save(ctx, st, bid)
		})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventBidRejected, bid, transporterID, nil)
	return bid, nil
}

// Counter proposes new terms on a PENDING bid and restarts its expiry. Trip owner only.
func (s *BidServiceImpl) Counter(ctx context.Context, bidID, transporterID uuid.UUID, terms domain.BidTerms) (*domain.TripBid, error) {
	if err := validateTerms(terms); err != nil {
		return nil, err
	}
	bid, err := s.transition(ctx, "counter bid", bidID, ownsTrip(transporterID),
		func(ctx context.Context, st ports.Store, trip *domain.Trip, bid *domain.TripBid, now time.Time) error {
			if err := bid.Counter(transporterID, terms, now.Add(s.defaultExpiry), now); err != nil {
				return err
			}
			return s.save(ctx, st, bid)
		})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventBidCountered, bid, transporterID, map[string]any{
		"counter_amount": terms.Amount.StringFixed(domain.MoneyScale),
	})
	return bid, nil
}

// AcceptCounter adopts the counter terms and wins the trip, with the same rival sweep as
// Accept. Owning lender only.
func (s *BidServiceImpl) AcceptCounter(ctx context.Context, bidID, lenderID uuid.UUID) (*domain.TripBid, error) {
	var rivals int64
	bid, err := s.transition(ctx, "accept counter", bidID, ownedByLender(lenderID),
		func(ctx context.Context, st ports.Store, trip *domain.Trip, bid *domain.TripBid, now time.Time) error {
			if !trip.AcceptsBids() {
				return apperror.ErrInvalidState("trip", string(trip.Status), string(domain.TripStatusActive))
			}
			if err := bid.AcceptCounter(lenderID, now); err != nil {
				return err
			}
			var err error
			rivals, err = s.win(ctx, st, bid, lenderID, now)
			return err
		})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("bid_id", bid.ID.String()).
		Str("trip_id", bid.TripID.String()).
		Int64("rivals_rejected", rivals).
		Msg("counter-offer accepted")
	s.audit.Log(ctx, newAuditLog(ctx, lenderID, domain.AuditActionAcceptCounter, "bid", bid.ID, map[string]any{
		"trip_id":         bid.TripID,
		"amount":          bid.Amount.StringFixed(domain.MoneyScale),
		"rivals_rejected": rivals,
	}))
	s.emit(ctx, domain.EventBidAccepted, bid, lenderID, map[string]any{"rivals_rejected": rivals, "via_counter": true})
	return bid, nil
}

// RejectCounter declines a counter-offer, which cancels the bid. Owning lender only.
func (s *BidServiceImpl) RejectCounter(ctx context.Context, bidID, lenderID uuid.UUID) (*domain.TripBid, error) {
	bid, err := s.transition(ctx, "reject counter", bidID, ownedByLender(lenderID),
		func(ctx context.Context, st ports.Store, trip *domain.Trip, bid *domain.TripBid, now time.Time) error {
			if err := bid.RejectCounter(lenderID, now); err != nil {
				return err
			}
			return s.save(ctx, st, bid)
		})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventBidCounterRejected, bid, lenderID, nil)
	return bid, nil
}

// ExpireOverdue marks every active bid past its expiry as EXPIRED and returns how many
// changed. Running it again immediately returns 0.
func (s *BidServiceImpl) ExpireOverdue(ctx context.Context) (int64, error) {
	var n int64
	err := s.uow.Do(ctx, ports.ReadCommitted, func(ctx context.Context, st ports.Store) error {
		var err error
		n, err = st.Bids().ExpireOverdue(ctx, s.now())
		return err
	})
	if err != nil {
		return 0, translate("expire bids", err)
	}
	if n == 0 {
		return 0, nil
	}

	s.log.Info().Int64("expired", n).Msg("overdue bids expired")
	data := map[string]any{"expired": n}
	s.audit.Log(ctx, newAuditLog(ctx, uuid.Nil, domain.AuditActionExpireBids, "bid", uuid.Nil, data))
	s.notifier.Notify(ctx, domain.NewEvent(domain.EventBidsExpired, "bid", uuid.Nil, uuid.Nil, data))
	return n, nil
}

// Get returns a bid, expiring it first if it is overdue.
func (s *BidServiceImpl) Get(ctx context.Context, bidID uuid.UUID) (*domain.TripBid, error) {
	bid, err := s.store.Bids().GetByID(ctx, bidID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get bid: %w", err))
	}
	if bid == nil {
		return nil, apperror.ErrNotFound("bid")
	}
	bids := []domain.TripBid{*bid}
	if err := s.expireStale(ctx, bids); err != nil {
		return nil, err
	}
	return &bids[0], nil
}

// ListByTrip returns the trip's bids, newest first.
func (s *BidServiceImpl) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripBid, error) {
	trip, err := s.store.Trips().GetByID(ctx, tripID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get trip: %w", err))
	}
	if trip == nil {
		return nil, apperror.ErrNotFound("trip")
	}
	bids, err := s.store.Bids().ListByTrip(ctx, tripID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list bids by trip: %w", err))
	}
	if err := s.expireStale(ctx, bids); err != nil {
		return nil, err
	}
	return nonNil(bids), nil
}

// ListByLender returns the lender's bids, newest first.
func (s *BidServiceImpl) ListByLender(ctx context.Context, lenderID uuid.UUID) ([]domain.TripBid, error) {
	bids, err := s.store.Bids().ListByLender(ctx, lenderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list bids by lender: %w", err))
	}
	if err := s.expireStale(ctx, bids); err != nil {
		return nil, err
	}
	return nonNil(bids), nil
}

type (
	bidGuard  func(trip *domain.Trip, bid *domain.TripBid) error
	bidChange func(ctx context.Context, st ports.Store, trip *domain.Trip, bid *domain.TripBid, now time.Time) error
)

func ownsTrip(transporterID uuid.UUID) bidGuard {
	return func(trip *domain.Trip, _ *domain.TripBid) error {
		if !trip.IsOwnedBy(transporterID) {
			return apperror.ErrForbidden("trip")
		}
		return nil
	}
}

func ownedByLender(lenderID uuid.UUID) bidGuard {
	return func(_ *domain.Trip, bid *domain.TripBid) error {
		if bid.LenderUserID != lenderID {
			return apperror.ErrForbidden("bid")
		}
		return nil
	}
}

// transition locks the bid's trip and then the bid, checks guard, lazily expires an
// overdue bid and otherwise applies change. Expiry is committed before ST_002 is returned.
func (s *BidServiceImpl) transition(ctx context.Context, op string, bidID uuid.UUID, guard bidGuard, change bidChange) (*domain.TripBid, error) {
	var result *domain.TripBid
	expired := false

	err := s.uow.Do(ctx, ports.ReadCommitted, func(ctx context.Context, st ports.Store) error {
		trip, bid, err := lockBid(ctx, st, bidID)
		if err != nil {
			return err
		}
		if err := guard(trip, bid); err != nil {
			return err
		}

		now := s.now()
		if bid.IsOverdue(now) {
			if err := bid.Expire(now); err != nil {
				return err
			}
			expired = true
			return s.save(ctx, st, bid)
		}

		if err := change(ctx, st, trip, bid, now); err != nil {
			return err
		}
		result = bid
		return nil
	})
	if err != nil {
		return nil, translate(op, err)
	}
	if expired {
		s.log.Info().Str("bid_id", bidID.String()).Str("op", op).Msg("bid expired on access")
		return nil, apperror.ErrBidExpired()
	}
	return result, nil
}

// win persists an accepted bid and rejects every other active bid on its trip.
func (s *BidServiceImpl) win(ctx context.Context, st ports.Store, bid *domain.TripBid, by uuid.UUID, now time.Time) (int64, error) {
	if err := s.save(ctx, st, bid); err != nil {
		return 0, err
	}
	n, err := st.Bids().RejectActiveForTrip(ctx, bid.TripID, bid.ID, domain.RivalRejectionReason, by, now)
	if err != nil {
		return 0, fmt.Errorf("reject rival bids: %w", err)
	}
	return n, nil
}

func (s *BidServiceImpl) save(ctx context.Context, st ports.Store, bid *domain.TripBid) error {
	if err := st.Bids().Update(ctx, bid); err != nil {
		if errors.Is(err, ports.ErrUniqueViolation) {
			return apperror.ErrDuplicateBid()
		}
		return fmt.Errorf("update bid: %w", err)
	}
	return nil
}

// expireStale persists EXPIRED for every overdue bid in bids and updates them in place.
func (s *BidServiceImpl) expireStale(ctx context.Context, bids []domain.TripBid) error {
	now := s.now()
	var ids []uuid.UUID
	for i := range bids {
		if bids[i].IsOverdue(now) {
			ids = append(ids, bids[i].ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	err := s.uow.Do(ctx, ports.ReadCommitted, func(ctx context.Context, st ports.Store) error {
		_, err := st.Bids().ExpireBids(ctx, ids, now)
		return err
	})
	if err != nil {
		return apperror.InternalError(fmt.Errorf("expire stale bids: %w", err))
	}
	for i := range bids {
		if bids[i].IsOverdue(now) {
			_ = bids[i].Expire(now)
		}
	}
	s.log.Debug().Int("expired", len(ids)).Msg("stale bids expired on read")
	return nil
}

func (s *BidServiceImpl) emit(ctx context.Context, typ domain.EventType, bid *domain.TripBid, actor uuid.UUID, extra map[string]any) {
	data := map[string]any{
		"trip_id":   bid.TripID,
		"lender_id": bid.LenderUserID,
		"status":    bid.Status,
		"amount":    bid.Amount.StringFixed(domain.MoneyScale),
	}
	for k, v := range extra {
		data[k] = v
	}
	s.notifier.Notify(ctx, domain.NewEvent(typ, "bid", bid.ID, actor, data))
}

// lockBid locks the bid's trip row and then the bid row.
func lockBid(ctx context.Context, st ports.Store, bidID uuid.UUID) (*domain.Trip, *domain.TripBid, error) {
	peek, err := st.Bids().GetByID(ctx, bidID)
	if err != nil {
		return nil, nil, fmt.Errorf("get bid: %w", err)
	}
	if peek == nil {
		return nil, nil, apperror.ErrNotFound("bid")
	}
	trip, err := st.Trips().GetByIDForUpdate(ctx, peek.TripID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock trip: %w", err)
	}
	if trip == nil {
		return nil, nil, apperror.ErrNotFound("trip")
	}
	bid, err := st.Bids().GetByIDForUpdate(ctx, bidID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock bid: %w", err)
	}
	if bid == nil {
		return nil, nil, apperror.ErrNotFound("bid")
	}
	return trip, bid, nil
}

func validateTerms(t domain.BidTerms) error {
	if err := checkAmount(t.Amount); err != nil {
		return err
	}
	if t.InterestRate.IsNegative() {
		return apperror.Validation("interest rate must not be negative")
	}
	if t.MaturityDays <= 0 {
		return apperror.Validation("maturity days must be positive")
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
