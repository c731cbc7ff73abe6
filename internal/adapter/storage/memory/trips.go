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

// --- Trips ---

type tripRepo struct{ s *store }

func (r tripRepo) Create(ctx context.Context, t *domain.Trip) error {
	defer r.s.begin()()
	if _, ok := r.s.db.trips[t.ID]; ok {
		return ports.ErrUniqueViolation
	}
	r.s.undo(restoreMap(r.s.db.trips, t.ID))
	r.s.db.trips[t.ID] = *t
	return nil
}

func (r tripRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	defer r.s.begin()()
	t, ok := r.s.db.trips[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// GetByIDForUpdate needs no row lock: units of work are already exclusive.
func (r tripRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	return r.GetByID(ctx, id)
}

func (r tripRepo) BindFinancing(ctx context.Context, t *domain.Trip) error {
	defer r.s.begin()()
	cur, ok := r.s.db.trips[t.ID]
	if !ok {
		return nil
	}
	r.s.undo(restoreMap(r.s.db.trips, t.ID))
	cur.ContractID = t.ContractID
	cur.InterestRate = t.InterestRate
	cur.MaturityDays = t.MaturityDays
	cur.UpdatedAt = t.UpdatedAt
	r.s.db.trips[t.ID] = cur
	return nil
}

func (r tripRepo) CountFinanced(ctx context.Context, f ports.PartyFilter) (int64, error) {
	defer r.s.begin()()
	db := r.s.db
	financed := make(map[uuid.UUID]bool)

	for _, b := range db.bids {
		if b.Status == domain.BidStatusAccepted && db.matchesBid(b, f) {
			financed[b.TripID] = true
		}
	}
	for _, p := range db.proposals {
		if p.Status == domain.ProposalStatusAccepted && db.matchesProposal(p, f) {
			financed[p.TripID] = true
		}
	}
	if f.TransporterID != nil {
		for _, t := range db.trips {
			if t.TransporterUserID == *f.TransporterID && t.ContractID != nil {
				financed[t.ID] = true
			}
		}
	}
	return int64(len(financed)), nil
}

func (db *DB) matchesBid(b domain.TripBid, f ports.PartyFilter) bool {
	if f.LenderID != nil && b.LenderUserID != *f.LenderID {
		return false
	}
	if f.TransporterID != nil && db.trips[b.TripID].TransporterUserID != *f.TransporterID {
		return false
	}
	return true
}

func (db *DB) matchesProposal(p domain.TripFinanceProposal, f ports.PartyFilter) bool {
	if f.LenderID != nil && p.LenderUserID != *f.LenderID {
		return false
	}
	if f.TransporterID != nil && db.trips[p.TripID].TransporterUserID != *f.TransporterID {
		return false
	}
	return true
}

// --- Bids ---

type bidRepo struct{ s *store }

func (r bidRepo) Create(ctx context.Context, b *domain.TripBid) error {
	defer r.s.begin()()
	for _, other := range r.s.db.bids {
		if other.TripID == b.TripID && other.LenderUserID == b.LenderUserID && other.IsActive() && b.IsActive() {
			return ports.ErrUniqueViolation
		}
	}
	r.s.undo(restoreMap(r.s.db.bids, b.ID))
	r.s.db.bids[b.ID] = *b
	return nil
}

func (r bidRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TripBid, error) {
	defer r.s.begin()()
	b, ok := r.s.db.bids[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r bidRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TripBid, error) {
	return r.GetByID(ctx, id)
}

func (r bidRepo) Update(ctx context.Context, b *domain.TripBid) error {
	defer r.s.begin()()
	if _, ok := r.s.db.bids[b.ID]; !ok {
		return nil
	}
	r.s.undo(restoreMap(r.s.db.bids, b.ID))
	r.s.db.bids[b.ID] = *b
	return nil
}

func (r bidRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripBid, error) {
	defer r.s.begin()()
	return r.s.db.filterBids(func(b domain.TripBid) bool { return b.TripID == tripID }), nil
}

func (r bidRepo) ListByLender(ctx context.Context, lenderID uuid.UUID) ([]domain.TripBid, error) {
	defer r.s.begin()()
	return r.s.db.filterBids(func(b domain.TripBid) bool { return b.LenderUserID == lenderID }), nil
}

func (r bidRepo) HasActiveBid(ctx context.Context, tripID, lenderID uuid.UUID) (bool, error) {
	defer r.s.begin()()
	for _, b := range r.s.db.bids {
		if b.TripID == tripID && b.LenderUserID == lenderID && b.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r bidRepo) RejectActiveForTrip(ctx context.Context, tripID, exceptID uuid.UUID, reason string, by uuid.UUID, now time.Time) (int64, error) {
	defer r.s.begin()()
	var n int64
	for id, b := range r.s.db.bids {
		if b.TripID != tripID || id == exceptID || !b.IsActive() {
			continue
		}
		r.s.undo(restoreMap(r.s.db.bids, id))
		_ = b.Reject(by, reason, now)
		r.s.db.bids[id] = b
		n++
	}
	return n, nil
}

func (r bidRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.begin()()
	return r.expire(now, func(uuid.UUID) bool { return true }), nil
}

func (r bidRepo) ExpireBids(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error) {
	defer r.s.begin()()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.expire(now, func(id uuid.UUID) bool { return want[id] }), nil
}

func (r bidRepo) expire(now time.Time, match func(uuid.UUID) bool) int64 {
	var n int64
	for id, b := range r.s.db.bids {
		if !match(id) || !b.IsOverdue(now) {
			continue
		}
		r.s.undo(restoreMap(r.s.db.bids, id))
		_ = b.Expire(now)
		r.s.db.bids[id] = b
		n++
	}
	return n
}

func (r bidRepo) StatusCounts(ctx context.Context, f ports.PartyFilter) (map[domain.BidStatus]int64, error) {
	defer r.s.begin()()
	counts := make(map[domain.BidStatus]int64)
	for _, b := range r.s.db.bids {
		if r.s.db.matchesBid(b, f) {
			counts[b.Status]++
		}
	}
	return counts, nil
}

func (r bidRepo) AcceptedTotals(ctx context.Context, f ports.PartyFilter) (*domain.BidTotals, error) {
	defer r.s.begin()()
	totals := &domain.BidTotals{Volume: decimal.Zero, Interest: decimal.Zero}
	for _, b := range r.s.db.bids {
		if b.Status != domain.BidStatusAccepted || !r.s.db.matchesBid(b, f) {
			continue
		}
		totals.Count++
		totals.Volume = totals.Volume.Add(b.Amount)
		totals.Interest = totals.Interest.Add(b.TotalInterest())
	}
	return totals, nil
}

func (db *DB) filterBids(keep func(domain.TripBid) bool) []domain.TripBid {
	out := []domain.TripBid{}
	for _, b := range db.bids {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// --- Proposals ---

type proposalRepo struct{ s *store }

func (r proposalRepo) Create(ctx context.Context, p *domain.TripFinanceProposal) error {
	defer r.s.begin()()
	for _, other := range r.s.db.proposals {
		if other.TripID == p.TripID && other.LenderUserID == p.LenderUserID && other.ContractID == p.ContractID {
			return ports.ErrUniqueViolation
		}
	}
	r.s.undo(restoreMap(r.s.db.proposals, p.ID))
	r.s.db.proposals[p.ID] = *p
	return nil
}

func (r proposalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TripFinanceProposal, error) {
	defer r.s.begin()()
	p, ok := r.s.db.proposals[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r proposalRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TripFinanceProposal, error) {
	return r.GetByID(ctx, id)
}

func (r proposalRepo) UpdateStatus(ctx context.Context, p *domain.TripFinanceProposal) error {
	defer r.s.begin()()
	cur, ok := r.s.db.proposals[p.ID]
	if !ok {
		return nil
	}
	r.s.undo(restoreMap(r.s.db.proposals, p.ID))
	cur.Status = p.Status
	cur.RespondedAt = p.RespondedAt
	cur.RespondedBy = p.RespondedBy
	cur.UpdatedAt = p.UpdatedAt
	r.s.db.proposals[p.ID] = cur
	return nil
}

func (r proposalRepo) Exists(ctx context.Context, tripID, lenderID, contractID uuid.UUID) (bool, error) {
	defer r.s.begin()()
	for _, p := range r.s.db.proposals {
		if p.TripID == tripID && p.LenderUserID == lenderID && p.ContractID == contractID {
			return true, nil
		}
	}
	return false, nil
}

func (r proposalRepo) HasAcceptedForTrip(ctx context.Context, tripID, exceptID uuid.UUID) (bool, error) {
	defer r.s.begin()()
	for id, p := range r.s.db.proposals {
		if p.TripID == tripID && id != exceptID && p.Status == domain.ProposalStatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (r proposalRepo) RejectPendingForTrip(ctx context.Context, tripID, exceptID uuid.UUID, by uuid.UUID, now time.Time) (int64, error) {
	defer r.s.begin()()
	var n int64
	for id, p := range r.s.db.proposals {
		if p.TripID != tripID || id == exceptID || p.Status != domain.ProposalStatusPending {
			continue
		}
		r.s.undo(restoreMap(r.s.db.proposals, id))
		_ = p.Reject(by, now)
		r.s.db.proposals[id] = p
		n++
	}
	return n, nil
}

func (r proposalRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripFinanceProposal, error) {
	defer r.s.begin()()
	return r.s.db.filterProposals(func(p domain.TripFinanceProposal) bool { return p.TripID == tripID }), nil
}

func (r proposalRepo) ListByLender(ctx context.Context, lenderID uuid.UUID) ([]domain.TripFinanceProposal, error) {
	defer r.s.begin()()
	return r.s.db.filterProposals(func(p domain.TripFinanceProposal) bool { return p.LenderUserID == lenderID }), nil
}

func (r proposalRepo) StatusCounts(ctx context.Context, f ports.PartyFilter) (map[domain.ProposalStatus]int64, error) {
	defer r.s.begin()()
	counts := make(map[domain.ProposalStatus]int64)
	for _, p := range r.s.db.proposals {
		if r.s.db.matchesProposal(p, f) {
			counts[p.Status]++
		}
	}
	return counts, nil
}

func (db *DB) filterProposals(keep func(domain.TripFinanceProposal) bool) []domain.TripFinanceProposal {
	out := []domain.TripFinanceProposal{}
	for _, p := range db.proposals {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
