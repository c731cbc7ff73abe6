package postgres

import (
	"context"
	"fmt"
	"time"

	"trip-finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	entryColumns = `e.id, e.transaction_id, e.wallet_id, e.entry_type, e.amount::text, e.balance_after::text, e.sequence, e.created_at`

	// newest first; sequence breaks ties inside one transaction, id breaks the rest
	entryOrder = `ORDER BY e.created_at DESC, e.sequence DESC, e.id DESC`
)

// LedgerRepo implements ports.LedgerRepository. Entries are insert-only; the
// transaction_entries table additionally rejects UPDATE and DELETE with a trigger.
type LedgerRepo struct {
	db DBTX
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(db DBTX) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// AppendEntry inserts the entry and moves the wallet's balance head in one statement.
func (r *LedgerRepo) AppendEntry(ctx context.Context, e *domain.TransactionEntry) error {
	query := `WITH inserted AS (
			INSERT INTO transaction_entries (transaction_id, wallet_id, entry_type, amount, balance_after, sequence, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, wallet_id, balance_after, created_at
		)
		INSERT INTO wallet_balances (wallet_id, balance, last_entry_id, updated_at)
		SELECT wallet_id, balance_after, id, created_at FROM inserted
		ON CONFLICT (wallet_id) DO UPDATE
			SET balance = EXCLUDED.balance, last_entry_id = EXCLUDED.last_entry_id, updated_at = EXCLUDED.updated_at
		RETURNING last_entry_id`

	err := r.db.QueryRow(ctx, query,
		e.TransactionID, e.WalletID, e.EntryType, e.Amount, e.BalanceAfter, e.Sequence, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return wrapErr("append ledger entry", err)
	}
	return nil
}

// CurrentBalance reads the materialized head, falling back to the latest entry.
func (r *LedgerRepo) CurrentBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(
			(SELECT balance::text FROM wallet_balances WHERE wallet_id = $1),
			(SELECT e.balance_after::text FROM transaction_entries e WHERE e.wallet_id = $1 ` + entryOrder + ` LIMIT 1),
			'0')`

	return r.queryDecimal(ctx, "current balance", query, walletID)
}

// FoldBalance recomputes the balance from scratch over every entry of the wallet.
func (r *LedgerRepo) FoldBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, int64, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN entry_type = 'CREDIT' THEN amount ELSE -amount END), 0)::text, COUNT(*)
		FROM transaction_entries WHERE wallet_id = $1`

	var sum string
	var n int64
	if err := r.db.QueryRow(ctx, query, walletID).Scan(&sum, &n); err != nil {
		return decimal.Zero, 0, fmt.Errorf("fold balance: %w", err)
	}
	d, err := parseDecimal(sum)
	return d, n, err
}

// BalanceAsOf returns the balance after the latest entry created at or before at.
func (r *LedgerRepo) BalanceAsOf(ctx context.Context, walletID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(
			(SELECT e.balance_after::text FROM transaction_entries e
				WHERE e.wallet_id = $1 AND e.created_at <= $2 ` + entryOrder + ` LIMIT 1),
			'0')`

	return r.queryDecimal(ctx, "balance as of", query, walletID, at)
}

// Statement returns entries with from <= created_at <= to, newest first.
func (r *LedgerRepo) Statement(ctx context.Context, walletID uuid.UUID, from, to time.Time) ([]domain.TransactionEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM transaction_entries e
		WHERE e.wallet_id = $1 AND e.created_at >= $2 AND e.created_at <= $3 ` + entryOrder

	return r.queryEntries(ctx, "statement", query, walletID, from, to)
}

// History returns one page of entries with their transaction type and description.
func (r *LedgerRepo) History(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.HistoryItem, int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transaction_entries WHERE wallet_id = $1`, walletID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + entryColumns + `, t.type, t.description
		FROM transaction_entries e JOIN transactions t ON t.id = e.transaction_id
		WHERE e.wallet_id = $1 ` + entryOrder + ` LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, walletID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	items := []domain.HistoryItem{}
	for rows.Next() {
		var item domain.HistoryItem
		var amount, after string
		e := &item.TransactionEntry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.WalletID, &e.EntryType, &amount, &after,
			&e.Sequence, &e.CreatedAt, &item.TransactionType, &item.Description); err != nil {
			return nil, 0, fmt.Errorf("scan history row: %w", err)
		}
		if err := setAmounts(e, amount, after); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history rows: %w", err)
	}
	return items, total, nil
}

// EntriesByTransaction returns a transaction's entries in sequence order.
func (r *LedgerRepo) EntriesByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.TransactionEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM transaction_entries e
		WHERE e.transaction_id = $1 ORDER BY e.sequence`

	return r.queryEntries(ctx, "entries by transaction", query, transactionID)
}

// TripFlows totals the wallet's credits and debits on trip-linked transactions.
func (r *LedgerRepo) TripFlows(ctx context.Context, walletID uuid.UUID) (*domain.TripFlows, error) {
	query := `SELECT
		COALESCE(SUM(e.amount) FILTER (WHERE e.entry_type = 'CREDIT'), 0)::text,
		COALESCE(SUM(e.amount) FILTER (WHERE e.entry_type = 'DEBIT'), 0)::text
		FROM transaction_entries e JOIN transactions t ON t.id = e.transaction_id
		WHERE e.wallet_id = $1 AND t.trip_id IS NOT NULL`

	var credits, debits string
	if err := r.db.QueryRow(ctx, query, walletID).Scan(&credits, &debits); err != nil {
		return nil, fmt.Errorf("trip flows: %w", err)
	}
	flows := &domain.TripFlows{}
	var err error
	if flows.Credits, err = parseDecimal(credits); err != nil {
		return nil, err
	}
	if flows.Debits, err = parseDecimal(debits); err != nil {
		return nil, err
	}
	return flows, nil
}

func (r *LedgerRepo) queryDecimal(ctx context.Context, op, query string, args ...any) (decimal.Decimal, error) {
	var s string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&s); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return parseDecimal(s)
}

func (r *LedgerRepo) queryEntries(ctx context.Context, op, query string, args ...any) ([]domain.TransactionEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	entries := []domain.TransactionEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate rows: %w", op, err)
	}
	return entries, nil
}

func scanEntry(row pgx.Row) (*domain.TransactionEntry, error) {
	e := &domain.TransactionEntry{}
	var amount, after string
	if err := row.Scan(&e.ID, &e.TransactionID, &e.WalletID, &e.EntryType, &amount, &after, &e.Sequence, &e.CreatedAt); err != nil {
		return nil, err
	}
	if err := setAmounts(e, amount, after); err != nil {
		return nil, err
	}
	return e, nil
}

func setAmounts(e *domain.TransactionEntry, amount, after string) error {
	var err error
	if e.Amount, err = parseDecimal(amount); err != nil {
		return err
	}
	e.BalanceAfter, err = parseDecimal(after)
	return err
}
