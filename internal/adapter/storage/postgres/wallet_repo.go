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

const walletColumns = `id, user_id, currency, status, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	db DBTX
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(db DBTX) *WalletRepo {
	return &WalletRepo{db: db}
}

// Create inserts a new wallet. A second wallet for the same user fails with ports.ErrUniqueViolation.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		w.ID, w.UserID, w.Currency, w.Status, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return wrapErr("insert wallet", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id), "get wallet by id")
}

// GetByUserID fetches a user's wallet (without locking).
func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, userID), "get wallet by user id")
}

// LockByUserIDs locks the wallets of userIDs with pessimistic row locks.
// ORDER BY sits below the lock step, so rows are locked in ascending user_id order by a
// single statement and two transfers between the same pair can never deadlock.
// This MUST be called within a transaction.
func (r *WalletRepo) LockByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE user_id = ANY($1::uuid[]) ORDER BY user_id FOR UPDATE`

	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		w := domain.Wallet{}
		if err := rows.Scan(&w.ID, &w.UserID, &w.Currency, &w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// UpdateStatus changes a wallet's status.
func (r *WalletRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WalletStatus, now time.Time) error {
	query := `UPDATE wallets SET status = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.db.Exec(ctx, query, status, now, id)
	if err != nil {
		return fmt.Errorf("update wallet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

func (r *WalletRepo) scanOne(row pgx.Row, op string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(&w.ID, &w.UserID, &w.Currency, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return w, nil
}
