package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Cache key patterns for directory lookups.
const (
	userKeyPrefix      = "user:"
	contractKeyPrefix  = "contract:"
	contractsKeyPrefix = "contracts:"
)

// CachedDirectory serves user and contract lookups through a ports.Cache.
// Cache failures are logged and fall through to the wrapped directory.
// Misses are never cached.
type CachedDirectory struct {
	users     ports.UserDirectory
	contracts ports.ContractDirectory
	cache     ports.Cache
	ttl       time.Duration
	log       zerolog.Logger
}

// NewCachedDirectory wraps users and contracts with cache.
func NewCachedDirectory(users ports.UserDirectory, contracts ports.ContractDirectory, cache ports.Cache, ttl time.Duration, log zerolog.Logger) *CachedDirectory {
	return &CachedDirectory{users: users, contracts: contracts, cache: cache, ttl: ttl, log: log}
}

// FindUserByID implements ports.UserDirectory.
func (d *CachedDirectory) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	key := userKeyPrefix + id.String()
	var u domain.User
	if d.load(ctx, key, &u) {
		return &u, nil
	}
	found, err := d.users.FindUserByID(ctx, id)
	if err != nil || found == nil {
		return found, err
	}
	d.store(ctx, key, found)
	return found, nil
}

// FindActiveThreePartyContracts implements ports.ContractDirectory.
// Cached results are re-filtered so a contract that expired after caching is never returned.
func (d *CachedDirectory) FindActiveThreePartyContracts(ctx context.Context, lenderID, transporterID, senderID uuid.UUID) ([]domain.Contract, error) {
	key := fmt.Sprintf("%s%s:%s:%s", contractsKeyPrefix, lenderID, transporterID, senderID)
	var cached []domain.Contract
	if d.load(ctx, key, &cached) {
		return activeAt(cached, time.Now()), nil
	}
	found, err := d.contracts.FindActiveThreePartyContracts(ctx, lenderID, transporterID, senderID)
	if err != nil || len(found) == 0 {
		return found, err
	}
	d.store(ctx, key, found)
	return found, nil
}

// GetByID implements ports.ContractDirectory.
func (d *CachedDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	key := contractKeyPrefix + id.String()
	var c domain.Contract
	if d.load(ctx, key, &c) {
		return &c, nil
	}
	found, err := d.contracts.GetByID(ctx, id)
	if err != nil || found == nil {
		return found, err
	}
	d.store(ctx, key, found)
	return found, nil
}

// Invalidate drops every cached user and contract.
func (d *CachedDirectory) Invalidate(ctx context.Context) error {
	for _, prefix := range []string{userKeyPrefix, contractKeyPrefix, contractsKeyPrefix} {
		if err := d.cache.Invalidate(ctx, prefix+"*"); err != nil {
			return fmt.Errorf("invalidate %s: %w", prefix, err)
		}
	}
	d.log.Info().Msg("directory cache invalidated")
	return nil
}

func (d *CachedDirectory) load(ctx context.Context, key string, dst any) bool {
	raw, ok, err := d.cache.Get(ctx, key)
	if err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("directory cache read failed, falling through")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("directory cache entry unreadable")
		return false
	}
	return true
}

func (d *CachedDirectory) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := d.cache.Put(ctx, key, raw, d.ttl); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("directory cache write failed")
	}
}

func activeAt(contracts []domain.Contract, now time.Time) []domain.Contract {
	out := contracts[:0:0]
	for _, c := range contracts {
		if c.IsActiveAt(now) {
			out = append(out, c)
		}
	}
	return out
}
