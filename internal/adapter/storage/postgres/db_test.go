package postgres

import (
	"errors"
	"testing"

	"trip-finance-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapErr_UniqueViolation(t *testing.T) {
	err := wrapErr("insert wallet", &pgconn.PgError{Code: "23505", ConstraintName: "wallets_user_id_key"})
	assert.ErrorIs(t, err, ports.ErrUniqueViolation)
	assert.Contains(t, err.Error(), "insert wallet")
}

func TestWrapErr_OtherErrorsPassThrough(t *testing.T) {
	inner := &pgconn.PgError{Code: "23503"}
	err := wrapErr("insert bid", inner)
	assert.False(t, errors.Is(err, ports.ErrUniqueViolation))

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23503", pgErr.Code)
}

func TestParseDecimal(t *testing.T) {
	d, err := parseDecimal("1234.50")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1234.5").Equal(d))

	_, err = parseDecimal("not-a-number")
	assert.Error(t, err)
}

func TestParseNullDecimal(t *testing.T) {
	d, err := parseNullDecimal(nil)
	require.NoError(t, err)
	assert.Nil(t, d)

	s := "12.25"
	d, err = parseNullDecimal(&s)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "12.25", d.StringFixed(2))
}

func TestEmbeddedMigrations(t *testing.T) {
	up, err := migrationFS.ReadFile("migrations/000001_init.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "uq_trip_bids_active")
	assert.Contains(t, string(up), "UNIQUE (trip_id, lender_user_id, contract_id)")

	_, err = migrationFS.ReadFile("migrations/000001_init.down.sql")
	require.NoError(t, err)
}
