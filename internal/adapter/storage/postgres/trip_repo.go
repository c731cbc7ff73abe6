package postgres

import (
	"context"
	"errors"
	"fmt"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tripColumns = `id, transporter_user_id, sender_user_id, loan_amount::text, currency, interest_rate::text,
	maturity_days, status, contract_id, created_at, updated_at`

// TripRepo implements ports.TripRepository.
type TripRepo struct {
	db DBTX
}

// NewTripRepo creates a new TripRepo.
func NewTripRepo(db DBTX) *TripRepo {
	return &TripRepo{db: db}
}

// Create inserts a new trip.
func (r *TripRepo) Create(ctx context.Context, t *domain.Trip) error {
	query := `INSERT INTO trips (id, transporter_user_id, sender_user_id, loan_amount, currency, interest_rate,
		maturity_days, status, contract_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		t.ID, t.TransporterUserID, t.SenderUserID, t.LoanAmount, t.Currency, t.InterestRate,
		t.MaturityDays, t.Status, t.ContractID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return wrapErr("insert trip", err)
	}
	return nil
}

// GetByID fetches a trip (without locking).
func (r *TripRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	return r.get(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
}

// GetByIDForUpdate fetches a trip with a row lock. Bid and proposal transitions lock the
// trip first so every sweep over the trip's rivals is serialized.
// This MUST be called within a transaction.
func (r *TripRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	return r.get(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, id)
}

// BindFinancing stores the contract and terms copied onto the trip.
func (r *TripRepo) BindFinancing(ctx context.Context, t *domain.Trip) error {
	query := `UPDATE trips SET contract_id = $1, interest_rate = $2, maturity_days = $3, updated_at = $4 WHERE id = $5`

	tag, err := r.db.Exec(ctx, query, t.ContractID, t.InterestRate, t.MaturityDays, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("bind trip financing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trip not found: %s", t.ID)
	}
	return nil
}

// CountFinanced counts trips with an accepted bid or proposal for the party.
func (r *TripRepo) CountFinanced(ctx context.Context, f ports.PartyFilter) (int64, error) {
	var query string
	var args []any

	switch {
	case f.LenderID != nil:
		query = `SELECT COUNT(*) FROM (
			SELECT trip_id FROM trip_bids WHERE status = 'ACCEPTED' AND lender_user_id = $1
			UNION
			SELECT trip_id FROM trip_finance_proposals WHERE status = 'ACCEPTED' AND lender_user_id = $1
		) financed`
		args = append(args, *f.LenderID)
	case f.TransporterID != nil:
		query = `SELECT COUNT(*) FROM trips t WHERE t.transporter_user_id = $1 AND (
			t.contract_id IS NOT NULL
			OR EXISTS (SELECT 1 FROM trip_bids b WHERE b.trip_id = t.id AND b.status = 'ACCEPTED')
			OR EXISTS (SELECT 1 FROM trip_finance_proposals p WHERE p.trip_id = t.id AND p.status = 'ACCEPTED'))`
		args = append(args, *f.TransporterID)
	default:
		query = `SELECT COUNT(*) FROM (
			SELECT trip_id FROM trip_bids WHERE status = 'ACCEPTED'
			UNION
			SELECT trip_id FROM trip_finance_proposals WHERE status = 'ACCEPTED'
		) financed`
	}

	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count financed trips: %w", err)
	}
	return n, nil
}

func (r *TripRepo) get(ctx context.Context, query string, id uuid.UUID) (*domain.Trip, error) {
	t := &domain.Trip{}
	var loan, rate string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.TransporterUserID, &t.SenderUserID, &loan, &t.Currency, &rate,
		&t.MaturityDays, &t.Status, &t.ContractID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get trip: %w", err)
	}
	if t.LoanAmount, err = parseDecimal(loan); err != nil {
		return nil, err
	}
	if t.InterestRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	return t, nil
}

// partyScope builds the JOIN and WHERE fragments restricting alias (a trip_bids or
// trip_finance_proposals row) to one lender and/or the trips of one transporter.
func partyScope(f ports.PartyFilter, alias string, args []any) (string, string, []any) {
	join := ""
	conds := "TRUE"
	if f.LenderID != nil {
		args = append(args, *f.LenderID)
		conds += fmt.Sprintf(" AND %s.lender_user_id = $%d", alias, len(args))
	}
	if f.TransporterID != nil {
		args = append(args, *f.TransporterID)
		join = fmt.Sprintf(" JOIN trips t ON t.id = %s.trip_id", alias)
		conds += fmt.Sprintf(" AND t.transporter_user_id = $%d", len(args))
	}
	return join, conds, args
}
