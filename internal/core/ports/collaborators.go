package ports

import (
	"context"
	"time"

	"trip-finance-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// UserDirectory resolves platform users. Returns nil, nil when the user does not exist.
type UserDirectory interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// ContractDirectory resolves three-party contracts.
type ContractDirectory interface {
	// FindActiveThreePartyContracts returns active, unexpired contracts linking the three
	// parties, furthest expiry first.
	FindActiveThreePartyContracts(ctx context.Context, lenderID, transporterID, senderID uuid.UUID) ([]domain.Contract, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error)
}

// Cache is a byte-oriented cache used only for directory lookups, never for ledger reads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate removes every key matching a glob pattern.
	Invalidate(ctx context.Context, pattern string) error
}

// IdempotencyCache stores replayable responses for Idempotency-Key requests. A key is
// reserved before its request runs; only the reservation holder calls Set or Release.
type IdempotencyCache interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// ProofDocumentStore holds proof-of-payment blobs outside the database.
type ProofDocumentStore interface {
	Put(ctx context.Context, key string, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Notifier delivers events after commit. Best-effort; never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}
