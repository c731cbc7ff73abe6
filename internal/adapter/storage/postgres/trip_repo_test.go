package postgres

import (
	"context"
	"testing"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTripRepo(mock)
	id := uuid.New()
	now := time.Now().UTC()
	var noContract *uuid.UUID

	mock.ExpectQuery("SELECT .+ FROM trips WHERE id = \\$1 FOR UPDATE").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "transporter_user_id", "sender_user_id", "loan_amount", "currency",
			"interest_rate", "maturity_days", "status", "contract_id", "created_at", "updated_at"}).
			AddRow(id, uuid.New(), uuid.New(), "100000.00", "INR", "0", 0, domain.TripStatusActive, noContract, now, now))

	trip, err := repo.GetByIDForUpdate(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, trip)
	assert.Equal(t, "100000.00", trip.LoanAmount.StringFixed(2))
	assert.Equal(t, domain.TripStatusActive, trip.Status)
	assert.Nil(t, trip.ContractID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTripRepo(mock)
	id := uuid.New()
	mock.ExpectQuery("SELECT .+ FROM trips WHERE id").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	trip, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, trip)
}

func TestTripRepo_CountFinanced(t *testing.T) {
	tests := []struct {
		name    string
		filter  func(id uuid.UUID) ports.PartyFilter
		pattern string
	}{
		{"lender", func(id uuid.UUID) ports.PartyFilter { return ports.PartyFilter{LenderID: &id} }, "UNION"},
		{"transporter", func(id uuid.UUID) ports.PartyFilter { return ports.PartyFilter{TransporterID: &id} }, "t.transporter_user_id = \\$1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			id := uuid.New()
			mock.ExpectQuery(tt.pattern).
				WithArgs(id).
				WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

			n, err := NewTripRepo(mock).CountFinanced(context.Background(), tt.filter(id))
			require.NoError(t, err)
			assert.Equal(t, int64(4), n)
		})
	}
}

func TestPartyScope(t *testing.T) {
	lender, transporter := uuid.New(), uuid.New()

	join, where, args := partyScope(ports.PartyFilter{}, "b", nil)
	assert.Empty(t, join)
	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)

	join, where, args = partyScope(ports.PartyFilter{LenderID: &lender, TransporterID: &transporter}, "p", nil)
	assert.Equal(t, " JOIN trips t ON t.id = p.trip_id", join)
	assert.Equal(t, "TRUE AND p.lender_user_id = $1 AND t.transporter_user_id = $2", where)
	assert.Equal(t, []any{lender, transporter}, args)
}
