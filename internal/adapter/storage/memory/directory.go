package memory

import (
	"context"
	"sort"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/google/uuid"
)

// SeedUser registers a user for directory lookups.
func (db *DB) SeedUser(u domain.User) {
	db.dirMu.Lock()
	defer db.dirMu.Unlock()
	db.users[u.ID] = u
}

// SeedContract registers a three-party contract for directory lookups.
func (db *DB) SeedContract(c domain.Contract) {
	db.dirMu.Lock()
	defer db.dirMu.Unlock()
	db.contracts[c.ID] = c
}

// Users returns the user directory backed by seeded users.
func (db *DB) Users() ports.UserDirectory { return userDirectory{db} }

// Contracts returns the contract directory backed by seeded contracts.
func (db *DB) Contracts() ports.ContractDirectory { return contractDirectory{db} }

// Audit returns the audit log repository.
func (db *DB) Audit() ports.AuditRepository { return auditRepo{db} }

// AuditLogs returns a copy of every recorded audit entry.
func (db *DB) AuditLogs() []domain.AuditLog {
	db.dirMu.Lock()
	defer db.dirMu.Unlock()
	return append([]domain.AuditLog(nil), db.auditLogs...)
}

type userDirectory struct{ db *DB }

func (d userDirectory) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	d.db.dirMu.RLock()
	defer d.db.dirMu.RUnlock()
	u, ok := d.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type contractDirectory struct{ db *DB }

func (d contractDirectory) FindActiveThreePartyContracts(ctx context.Context, lenderID, transporterID, senderID uuid.UUID) ([]domain.Contract, error) {
	d.db.dirMu.RLock()
	defer d.db.dirMu.RUnlock()

	now := time.Now()
	var out []domain.Contract
	for _, c := range d.db.contracts {
		if c.LenderUserID == lenderID && c.TransporterUserID == transporterID &&
			c.SenderUserID == senderID && c.IsActiveAt(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.After(out[j].ExpiresAt) })
	return out, nil
}

func (d contractDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	d.db.dirMu.RLock()
	defer d.db.dirMu.RUnlock()
	c, ok := d.db.contracts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type auditRepo struct{ db *DB }

func (r auditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.db.dirMu.Lock()
	defer r.db.dirMu.Unlock()
	r.db.auditLogs = append(r.db.auditLogs, *log)
	return nil
}
