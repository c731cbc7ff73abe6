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

const proposalColumns = `p.id, p.trip_id, p.lender_user_id, p.contract_id, p.status,
	p.responded_at, p.responded_by, p.created_at, p.updated_at`

// ProposalRepo implements ports.ProposalRepository.
type ProposalRepo struct {
	db DBTX
}

// NewProposalRepo creates a new ProposalRepo.
func NewProposalRepo(db DBTX) *ProposalRepo {
	return &ProposalRepo{db: db}
}

// Create inserts a proposal. The (trip, lender, contract) triple is unique.
func (r *ProposalRepo) Create(ctx context.Context, p *domain.TripFinanceProposal) error {
	query := `INSERT INTO trip_finance_proposals (id, trip_id, lender_user_id, contract_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query, p.ID, p.TripID, p.LenderUserID, p.ContractID, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return wrapErr("insert proposal", err)
	}
	return nil
}

func (r *ProposalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TripFinanceProposal, error) {
	return r.getOne(ctx, `SELECT `+proposalColumns+` FROM trip_finance_proposals p WHERE p.id = $1`, id)
}

// GetByIDForUpdate fetches a proposal with a row lock.
// This MUST be called within a transaction.
func (r *ProposalRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TripFinanceProposal, error) {
	return r.getOne(ctx, `SELECT `+proposalColumns+` FROM trip_finance_proposals p WHERE p.id = $1 FOR UPDATE`, id)
}

// UpdateStatus persists the proposal's status and response fields.
func (r *ProposalRepo) UpdateStatus(ctx context.Context, p *domain.TripFinanceProposal) error {
	query := `UPDATE trip_finance_proposals SET status = $2, responded_at = $3, responded_by = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, p.ID, p.Status, p.RespondedAt, p.RespondedBy, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("proposal not found: %s", p.ID)
	}
	return nil
}

func (r *ProposalRepo) Exists(ctx context.Context, tripID, lenderID, contractID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM trip_finance_proposals
		WHERE trip_id = $1 AND lender_user_id = $2 AND contract_id = $3)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, tripID, lenderID, contractID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check proposal exists: %w", err)
	}
	return exists, nil
}

// HasAcceptedForTrip reports whether any proposal other than exceptID is ACCEPTED for the trip.
func (r *ProposalRepo) HasAcceptedForTrip(ctx context.Context, tripID, exceptID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM trip_finance_proposals
		WHERE trip_id = $1 AND id <> $2 AND status = 'ACCEPTED')`

	var exists bool
	if err := r.db.QueryRow(ctx, query, tripID, exceptID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check accepted proposal: %w", err)
	}
	return exists, nil
}

// RejectPendingForTrip rejects every other pending proposal on the trip.
func (r *ProposalRepo) RejectPendingForTrip(ctx context.Context, tripID, exceptID uuid.UUID, by uuid.UUID, now time.Time) (int64, error) {
	query := `UPDATE trip_finance_proposals SET status = 'REJECTED', responded_by = $3, responded_at = $4, updated_at = $4
		WHERE trip_id = $1 AND id <> $2 AND status = 'PENDING'`

	tag, err := r.db.Exec(ctx, query, tripID, exceptID, by, now)
	if err != nil {
		return 0, fmt.Errorf("reject rival proposals: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ProposalRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripFinanceProposal, error) {
	return r.list(ctx, `SELECT `+proposalColumns+` FROM trip_finance_proposals p WHERE p.trip_id = $1 ORDER BY p.created_at DESC`, tripID)
}

func (r *ProposalRepo) ListByLender(ctx context.Context, lenderID uuid.UUID) ([]domain.TripFinanceProposal, error) {
	return r.list(ctx, `SELECT `+proposalColumns+` FROM trip_finance_proposals p WHERE p.lender_user_id = $1 ORDER BY p.created_at DESC`, lenderID)
}

// StatusCounts counts proposals per status for the party.
func (r *ProposalRepo) StatusCounts(ctx context.Context, f ports.PartyFilter) (map[domain.ProposalStatus]int64, error) {
	join, where, args := partyScope(f, "p", nil)
	query := `SELECT p.status, COUNT(*) FROM trip_finance_proposals p` + join + ` WHERE ` + where + ` GROUP BY p.status`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count proposals by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ProposalStatus]int64)
	for rows.Next() {
		var status domain.ProposalStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan proposal count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposal counts: %w", err)
	}
	return counts, nil
}

func (r *ProposalRepo) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.TripFinanceProposal, error) {
	p, err := scanProposal(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	return p, nil
}

func (r *ProposalRepo) list(ctx context.Context, query string, id uuid.UUID) ([]domain.TripFinanceProposal, error) {
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	out := []domain.TripFinanceProposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal row: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposal rows: %w", err)
	}
	return out, nil
}

func scanProposal(row pgx.Row) (*domain.TripFinanceProposal, error) {
	p := &domain.TripFinanceProposal{}
	err := row.Scan(&p.ID, &p.TripID, &p.LenderUserID, &p.ContractID, &p.Status,
		&p.RespondedAt, &p.RespondedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
