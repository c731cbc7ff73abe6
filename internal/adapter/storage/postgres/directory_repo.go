package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trip-finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements ports.UserDirectory over the platform users table.
type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRow(ctx, `SELECT id, name, email, company_id FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

const contractColumns = `id, contract_number, lender_user_id, transporter_user_id, sender_user_id,
	interest_rate::text, maturity_days, status, expires_at`

// ContractRepo implements ports.ContractDirectory over the contracts table.
type ContractRepo struct {
	db  DBTX
	now func() time.Time
}

func NewContractRepo(db DBTX) *ContractRepo {
	return &ContractRepo{db: db, now: time.Now}
}

// FindActiveThreePartyContracts returns active, unexpired contracts binding the three parties,
// latest expiry first.
func (r *ContractRepo) FindActiveThreePartyContracts(ctx context.Context, lenderID, transporterID, senderID uuid.UUID) ([]domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts
		WHERE lender_user_id = $1 AND transporter_user_id = $2 AND sender_user_id = $3
		AND status = 'ACTIVE' AND expires_at > $4
		ORDER BY expires_at DESC`

	rows, err := r.db.Query(ctx, query, lenderID, transporterID, senderID, r.now())
	if err != nil {
		return nil, fmt.Errorf("find contracts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract row: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contract rows: %w", err)
	}
	return out, nil
}

func (r *ContractRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	c, err := scanContract(r.db.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

func scanContract(row pgx.Row) (*domain.Contract, error) {
	c := &domain.Contract{}
	var rate string
	err := row.Scan(&c.ID, &c.ContractNumber, &c.LenderUserID, &c.TransporterUserID, &c.SenderUserID,
		&rate, &c.MaturityDays, &c.Status, &c.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if c.InterestRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	return c, nil
}
