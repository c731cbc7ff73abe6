package memory

import (
	"context"
	"sort"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Wallets ---

type walletRepo struct{ s *store }

func (r walletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	defer r.s.begin()()
	db := r.s.db
	if _, ok := db.walletByUser[w.UserID]; ok {
		return ports.ErrUniqueViolation
	}
	r.s.undo(restoreMap(db.wallets, w.ID))
	r.s.undo(restoreMap(db.walletByUser, w.UserID))
	db.wallets[w.ID] = *w
	db.walletByUser[w.UserID] = w.ID
	return nil
}

func (r walletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	defer r.s.begin()()
	w, ok := r.s.db.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r walletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	defer r.s.begin()()
	id, ok := r.s.db.walletByUser[userID]
	if !ok {
		return nil, nil
	}
	w := r.s.db.wallets[id]
	return &w, nil
}

func (r walletRepo) LockByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]domain.Wallet, error) {
	defer r.s.begin()()
	ids := append([]uuid.UUID(nil), userIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var out []domain.Wallet
	for i, uid := range ids {
		if i > 0 && ids[i-1] == uid {
			continue
		}
		if id, ok := r.s.db.walletByUser[uid]; ok {
			out = append(out, r.s.db.wallets[id])
		}
	}
	return out, nil
}

func (r walletRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WalletStatus, now time.Time) error {
	defer r.s.begin()()
	w, ok := r.s.db.wallets[id]
	if !ok {
		return nil
	}
	r.s.undo(restoreMap(r.s.db.wallets, id))
	w.Status = status
	w.UpdatedAt = now
	r.s.db.wallets[id] = w
	return nil
}

// --- Ledger ---

type ledgerRepo struct{ s *store }

func (r ledgerRepo) AppendEntry(ctx context.Context, e *domain.TransactionEntry) error {
	defer r.s.begin()()
	db := r.s.db

	n := len(db.entries)
	e.ID = int64(n + 1)
	db.entries = append(db.entries, *e)
	r.s.undo(func() { db.entries = db.entries[:n] })

	r.s.undo(restoreMap(db.heads, e.WalletID))
	db.heads[e.WalletID] = domain.WalletBalance{
		WalletID:    e.WalletID,
		Balance:     e.BalanceAfter,
		LastEntryID: e.ID,
		UpdatedAt:   e.CreatedAt,
	}
	return nil
}

func (r ledgerRepo) CurrentBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	defer r.s.begin()()
	if head, ok := r.s.db.heads[walletID]; ok {
		return head.Balance, nil
	}
	entries := r.s.db.walletEntries(walletID, nil, nil)
	if len(entries) == 0 {
		return decimal.Zero, nil
	}
	return entries[0].BalanceAfter, nil
}

func (r ledgerRepo) FoldBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, int64, error) {
	defer r.s.begin()()
	sum := decimal.Zero
	var n int64
	for i := range r.s.db.entries {
		e := &r.s.db.entries[i]
		if e.WalletID == walletID {
			sum = sum.Add(e.Signed())
			n++
		}
	}
	return sum, n, nil
}

func (r ledgerRepo) BalanceAsOf(ctx context.Context, walletID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	defer r.s.begin()()
	entries := r.s.db.walletEntries(walletID, nil, &at)
	if len(entries) == 0 {
		return decimal.Zero, nil
	}
	return entries[0].BalanceAfter, nil
}

func (r ledgerRepo) Statement(ctx context.Context, walletID uuid.UUID, from, to time.Time) ([]domain.TransactionEntry, error) {
	defer r.s.begin()()
	return r.s.db.walletEntries(walletID, &from, &to), nil
}

func (r ledgerRepo) History(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.HistoryItem, int64, error) {
	defer r.s.begin()()
	entries := r.s.db.walletEntries(walletID, nil, nil)
	total := int64(len(entries))

	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	if start >= len(entries) {
		return []domain.HistoryItem{}, total, nil
	}
	end := start + pageSize
	if end > len(entries) {
		end = len(entries)
	}

	items := make([]domain.HistoryItem, 0, end-start)
	for _, e := range entries[start:end] {
		txn := r.s.db.transactions[e.TransactionID]
		items = append(items, domain.HistoryItem{
			TransactionEntry: e,
			TransactionType:  txn.Type,
			Description:      txn.Description,
		})
	}
	return items, total, nil
}

func (r ledgerRepo) EntriesByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.TransactionEntry, error) {
	defer r.s.begin()()
	var out []domain.TransactionEntry
	for _, e := range r.s.db.entries {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r ledgerRepo) TripFlows(ctx context.Context, walletID uuid.UUID) (*domain.TripFlows, error) {
	defer r.s.begin()()
	flows := &domain.TripFlows{Credits: decimal.Zero, Debits: decimal.Zero}
	for _, e := range r.s.db.entries {
		if e.WalletID != walletID || r.s.db.transactions[e.TransactionID].TripID == nil {
			continue
		}
		if e.EntryType == domain.EntryTypeCredit {
			flows.Credits = flows.Credits.Add(e.Amount)
		} else {
			flows.Debits = flows.Debits.Add(e.Amount)
		}
	}
	return flows, nil
}

// walletEntries returns the wallet's entries within [from, to], newest first by
// (created_at, sequence, id). Nil bounds are open.
func (db *DB) walletEntries(walletID uuid.UUID, from, to *time.Time) []domain.TransactionEntry {
	var out []domain.TransactionEntry
	for _, e := range db.entries {
		if e.WalletID != walletID {
			continue
		}
		if from != nil && e.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && e.CreatedAt.After(*to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.Sequence != b.Sequence {
			return a.Sequence > b.Sequence
		}
		return a.ID > b.ID
	})
	return out
}

// --- Transactions ---

type transactionRepo struct{ s *store }

func (r transactionRepo) Create(ctx context.Context, txn *domain.Transaction) error {
	defer r.s.begin()()
	if _, ok := r.s.db.transactions[txn.ID]; ok {
		return ports.ErrUniqueViolation
	}
	r.s.undo(restoreMap(r.s.db.transactions, txn.ID))
	r.s.db.transactions[txn.ID] = *txn
	return nil
}

func (r transactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	defer r.s.begin()()
	txn, ok := r.s.db.transactions[id]
	if !ok {
		return nil, nil
	}
	return &txn, nil
}

func (r transactionRepo) CreateManualRequest(ctx context.Context, req *domain.ManualTransferRequest) error {
	defer r.s.begin()()
	if _, ok := r.s.db.requests[req.TransactionID]; ok {
		return ports.ErrUniqueViolation
	}
	r.s.undo(restoreMap(r.s.db.requests, req.TransactionID))
	r.s.db.requests[req.TransactionID] = *req
	return nil
}

func (r transactionRepo) GetManualRequest(ctx context.Context, transactionID uuid.UUID) (*domain.ManualTransferRequest, error) {
	defer r.s.begin()()
	req, ok := r.s.db.requests[transactionID]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (r transactionRepo) AddDocument(ctx context.Context, doc *domain.TransactionDocument) error {
	defer r.s.begin()()
	r.s.undo(restoreMap(r.s.db.documents, doc.TransactionID))
	docs := r.s.db.documents[doc.TransactionID]
	r.s.db.documents[doc.TransactionID] = append(docs[:len(docs):len(docs)], *doc)
	return nil
}

func (r transactionRepo) ListDocuments(ctx context.Context, transactionID uuid.UUID) ([]domain.TransactionDocument, error) {
	defer r.s.begin()()
	return append([]domain.TransactionDocument(nil), r.s.db.documents[transactionID]...), nil
}
