// Package memory is an in-process storage driver implementing the same ports as the
// postgres adapter. Units of work are fully serialized by one mutex and rolled back
// through an undo log.
package memory

import (
	"context"
	"sync"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/google/uuid"
)

// DB holds every table of the memory driver.
type DB struct {
	mu sync.Mutex

	wallets      map[uuid.UUID]domain.Wallet
	walletByUser map[uuid.UUID]uuid.UUID
	entries      []domain.TransactionEntry
	heads        map[uuid.UUID]domain.WalletBalance
	transactions map[uuid.UUID]domain.Transaction
	requests     map[uuid.UUID]domain.ManualTransferRequest // by transaction id
	documents    map[uuid.UUID][]domain.TransactionDocument // by transaction id
	trips        map[uuid.UUID]domain.Trip
	bids         map[uuid.UUID]domain.TripBid
	proposals    map[uuid.UUID]domain.TripFinanceProposal

	// directories and audit are outside units of work
	dirMu     sync.RWMutex
	users     map[uuid.UUID]domain.User
	contracts map[uuid.UUID]domain.Contract
	auditLogs []domain.AuditLog
}

// New creates an empty memory database.
func New() *DB {
	return &DB{
		wallets:      make(map[uuid.UUID]domain.Wallet),
		walletByUser: make(map[uuid.UUID]uuid.UUID),
		heads:        make(map[uuid.UUID]domain.WalletBalance),
		transactions: make(map[uuid.UUID]domain.Transaction),
		requests:     make(map[uuid.UUID]domain.ManualTransferRequest),
		documents:    make(map[uuid.UUID][]domain.TransactionDocument),
		trips:        make(map[uuid.UUID]domain.Trip),
		bids:         make(map[uuid.UUID]domain.TripBid),
		proposals:    make(map[uuid.UUID]domain.TripFinanceProposal),
		users:        make(map[uuid.UUID]domain.User),
		contracts:    make(map[uuid.UUID]domain.Contract),
	}
}

// Store returns a non-transactional store. Each call takes the database lock for its duration.
func (db *DB) Store() ports.Store {
	return &store{db: db}
}

// Do runs fn with exclusive access to the database. Every isolation level behaves as
// serializable since writers never overlap.
func (db *DB) Do(ctx context.Context, _ ports.IsolationLevel, fn func(ctx context.Context, store ports.Store) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx := &undoLog{}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
		if err != nil {
			tx.rollback()
		}
	}()

	return fn(ctx, &store{db: db, tx: tx})
}

// Ping implements ports.HealthChecker.
func (db *DB) Ping(ctx context.Context) error {
	return nil
}

// Name implements ports.HealthChecker.
func (db *DB) Name() string {
	return "memory"
}

type undoLog struct {
	steps []func()
}

func (u *undoLog) rollback() {
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
	u.steps = nil
}

// store implements ports.Store. tx is nil outside a unit of work.
type store struct {
	db *DB
	tx *undoLog
}

func (s *store) Wallets() ports.WalletRepository           { return walletRepo{s} }
func (s *store) Ledger() ports.LedgerRepository            { return ledgerRepo{s} }
func (s *store) Transactions() ports.TransactionRepository { return transactionRepo{s} }
func (s *store) Trips() ports.TripRepository               { return tripRepo{s} }
func (s *store) Bids() ports.BidRepository                 { return bidRepo{s} }
func (s *store) Proposals() ports.ProposalRepository       { return proposalRepo{s} }

// begin locks the database unless the store already runs inside a unit of work.
// Usage: defer s.begin()()
func (s *store) begin() func() {
	if s.tx != nil {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

// undo registers a compensating step, replayed in reverse if the unit of work fails.
func (s *store) undo(step func()) {
	if s.tx != nil {
		s.tx.steps = append(s.tx.steps, step)
	}
}

func restoreMap[K comparable, V any](m map[K]V, key K) func() {
	prev, existed := m[key]
	return func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	}
}
