package postgres

import (
	"context"
	"errors"
	"fmt"

	"trip-finance-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// UnitOfWork implements ports.UnitOfWork on a pgx pool.
type UnitOfWork struct {
	pool Pool
}

// NewUnitOfWork creates a UnitOfWork wrapping the connection pool.
func NewUnitOfWork(pool Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Do begins a transaction at level, runs fn and commits. Any error or panic from fn rolls back.
// There are no automatic retries.
func (u *UnitOfWork) Do(ctx context.Context, level ports.IsolationLevel, fn func(ctx context.Context, store ports.Store) error) (err error) {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: isoLevel(level)})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
			}
		}
	}()

	if err = fn(ctx, NewStore(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isoLevel(level ports.IsolationLevel) pgx.TxIsoLevel {
	switch level {
	case ports.Serializable:
		return pgx.Serializable
	case ports.RepeatableRead:
		return pgx.RepeatableRead
	default:
		return pgx.ReadCommitted
	}
}

// Store implements ports.Store over either the pool or an open transaction.
type Store struct {
	db DBTX
}

// NewStore creates a Store issuing queries through db.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) Wallets() ports.WalletRepository { return NewWalletRepo(s.db) }

func (s *Store) Ledger() ports.LedgerRepository { return NewLedgerRepo(s.db) }

func (s *Store) Transactions() ports.TransactionRepository { return NewTransactionRepo(s.db) }

func (s *Store) Trips() ports.TripRepository { return NewTripRepo(s.db) }

func (s *Store) Bids() ports.BidRepository { return NewBidRepo(s.db) }

func (s *Store) Proposals() ports.ProposalRepository { return NewProposalRepo(s.db) }
