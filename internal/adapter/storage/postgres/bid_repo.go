package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bidColumns = `b.id, b.trip_id, b.lender_user_id, b.lender_company_id, b.amount::text, b.currency,
	b.interest_rate::text, b.maturity_days, b.notes, b.status, b.counter_amount::text, b.counter_interest_rate::text,
	b.counter_maturity_days, b.counter_notes, b.countered_by, b.countered_at, b.responded_at, b.responded_by,
	b.rejection_reason, b.expires_at, b.created_at, b.updated_at`

// BidRepo implements ports.BidRepository.
type BidRepo struct {
	db DBTX
}

// NewBidRepo creates a new BidRepo.
func NewBidRepo(db DBTX) *BidRepo {
	return &BidRepo{db: db}
}

// Create inserts a new bid. A second active bid by the same lender on the same trip fails with
// ports.ErrUniqueViolation (partial unique index on active statuses).
func (r *BidRepo) Create(ctx context.Context, b *domain.TripBid) error {
	query := `INSERT INTO trip_bids (id, trip_id, lender_user_id, lender_company_id, amount, currency,
		interest_rate, maturity_days, notes, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		b.ID, b.TripID, b.LenderUserID, b.LenderCompanyID, b.Amount, b.Currency,
		b.InterestRate, b.MaturityDays, b.Notes, b.Status, b.ExpiresAt, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return wrapErr("insert bid", err)
	}
	return nil
}

// GetByID fetches a bid (without locking).
func (r *BidRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TripBid, error) {
	return r.getOne(ctx, `SELECT `+bidColumns+` FROM trip_bids b WHERE b.id = $1`, id)
}

// GetByIDForUpdate fetches a bid with a row lock.
// This MUST be called within a transaction.
func (r *BidRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TripBid, error) {
	return r.getOne(ctx, `SELECT `+bidColumns+` FROM trip_bids b WHERE b.id = $1 FOR UPDATE`, id)
}

// Update writes every mutable field of the bid.
func (r *BidRepo) Update(ctx context.Context, b *domain.TripBid) error {
	query := `UPDATE trip_bids SET amount = $2, interest_rate = $3, maturity_days = $4, notes = $5, status = $6,
		counter_amount = $7, counter_interest_rate = $8, counter_maturity_days = $9, counter_notes = $10,
		countered_by = $11, countered_at = $12, responded_at = $13, responded_by = $14, rejection_reason = $15,
		expires_at = $16, updated_at = $17
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		b.ID, b.Amount, b.InterestRate, b.MaturityDays, b.Notes, b.Status,
		b.CounterAmount, b.CounterInterestRate, b.CounterMaturityDays, b.CounterNotes,
		b.CounteredBy, b.CounteredAt, b.RespondedAt, b.RespondedBy, b.RejectionReason,
		b.ExpiresAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update bid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bid not found: %s", b.ID)
	}
	return nil
}

// ListByTrip returns a trip's bids, newest first.
func (r *BidRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripBid, error) {
	return r.list(ctx, `SELECT `+bidColumns+` FROM trip_bids b WHERE b.trip_id = $1 ORDER BY b.created_at DESC`, tripID)
}

// ListByLender returns a lender's bids, newest first.
func (r *BidRepo) ListByLender(ctx context.Context, lenderID uuid.UUID) ([]domain.TripBid, error) {
	return r.list(ctx, `SELECT `+bidColumns+` FROM trip_bids b WHERE b.lender_user_id = $1 ORDER BY b.created_at DESC`, lenderID)
}

// HasActiveBid reports whether the lender has a PENDING or COUNTERED bid on the trip.
func (r *BidRepo) HasActiveBid(ctx context.Context, tripID, lenderID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM trip_bids
		WHERE trip_id = $1 AND lender_user_id = $2 AND status IN ('PENDING', 'COUNTERED'))`

	var exists bool
	if err := r.db.QueryRow(ctx, query, tripID, lenderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active bid: %w", err)
	}
	return exists, nil
}

// RejectActiveForTrip rejects every other active bid on the trip in one statement.
func (r *BidRepo) RejectActiveForTrip(ctx context.Context, tripID, exceptID uuid.UUID, reason string, by uuid.UUID, now time.Time) (int64, error) {
	query := `UPDATE trip_bids SET status = 'REJECTED', rejection_reason = $3, responded_by = $4,
		responded_at = $5, updated_at = $5
		WHERE trip_id = $1 AND id <> $2 AND status IN ('PENDING', 'COUNTERED')`

	tag, err := r.db.Exec(ctx, query, tripID, exceptID, reason, by, now)
	if err != nil {
		return 0, fmt.Errorf("reject rival bids: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExpireOverdue marks every overdue active bid EXPIRED. Already expired bids are untouched,
// so a repeated sweep reports zero for them.
func (r *BidRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE trip_bids SET status = 'EXPIRED', updated_at = $1
		WHERE status IN ('PENDING', 'COUNTERED') AND expires_at < $1`

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire overdue bids: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExpireBids is ExpireOverdue restricted to ids.
func (r *BidRepo) ExpireBids(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error) {
	query := `UPDATE trip_bids SET status = 'EXPIRED', updated_at = $1
		WHERE id = ANY($2::uuid[]) AND status IN ('PENDING', 'COUNTERED') AND expires_at < $1`

	tag, err := r.db.Exec(ctx, query, now, ids)
	if err != nil {
		return 0, fmt.Errorf("expire bids: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StatusCounts counts bids per status for the party.
func (r *BidRepo) StatusCounts(ctx context.Context, f ports.PartyFilter) (map[domain.BidStatus]int64, error) {
	join, where, args := partyScope(f, "b", nil)
	query := `SELECT b.status, COUNT(*) FROM trip_bids b` + join + ` WHERE ` + where + ` GROUP BY b.status`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count bids by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.BidStatus]int64)
	for rows.Next() {
		var status domain.BidStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan bid count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bid counts: %w", err)
	}
	return counts, nil
}

// AcceptedTotals sums accepted bid amounts and their interest, rounded per bid.
func (r *BidRepo) AcceptedTotals(ctx context.Context, f ports.PartyFilter) (*domain.BidTotals, error) {
	join, where, args := partyScope(f, "b", nil)
	query := `SELECT COUNT(*),
		COALESCE(SUM(b.amount), 0)::text,
		COALESCE(SUM(ROUND(b.amount * b.interest_rate * b.maturity_days / 36500, 2)), 0)::text
		FROM trip_bids b` + join + ` WHERE b.status = 'ACCEPTED' AND ` + where

	totals := &domain.BidTotals{}
	var volume, interest string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&totals.Count, &volume, &interest); err != nil {
		return nil, fmt.Errorf("accepted bid totals: %w", err)
	}
	var err error
	if totals.Volume, err = parseDecimal(volume); err != nil {
		return nil, err
	}
	if totals.Interest, err = parseDecimal(interest); err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *BidRepo) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.TripBid, error) {
	b, err := scanBid(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bid: %w", err)
	}
	return b, nil
}

func (r *BidRepo) list(ctx context.Context, query string, id uuid.UUID) ([]domain.TripBid, error) {
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	bids := []domain.TripBid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bid row: %w", err)
		}
		bids = append(bids, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bid rows: %w", err)
	}
	return bids, nil
}

func scanBid(row pgx.Row) (*domain.TripBid, error) {
	b := &domain.TripBid{}
	var amount, rate string
	var counterAmount, counterRate *string
	err := row.Scan(
		&b.ID, &b.TripID, &b.LenderUserID, &b.LenderCompanyID, &amount, &b.Currency,
		&rate, &b.MaturityDays, &b.Notes, &b.Status, &counterAmount, &counterRate,
		&b.CounterMaturityDays, &b.CounterNotes, &b.CounteredBy, &b.CounteredAt, &b.RespondedAt, &b.RespondedBy,
		&b.RejectionReason, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if b.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if b.InterestRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	if b.CounterAmount, err = parseNullDecimal(counterAmount); err != nil {
		return nil, err
	}
	if b.CounterInterestRate, err = parseNullDecimal(counterRate); err != nil {
		return nil, err
	}
	return b, nil
}
