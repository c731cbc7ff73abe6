package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// HealthCheck reports PostgreSQL as unhealthy when it is unreachable or when the
// ledger schema is missing or left dirty by a failed migration.
type HealthCheck struct {
	db DBTX
}

func NewHealthCheck(db DBTX) *HealthCheck {
	return &HealthCheck{db: db}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	var (
		version int64
		dirty   bool
	)
	err := h.db.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errors.New("ledger schema not migrated")
	case err != nil:
		return err
	case dirty:
		return fmt.Errorf("ledger schema dirty at version %d", version)
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}
