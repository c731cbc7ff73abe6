package postgres

import (
	"context"
	"testing"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalRepo_Create_DuplicateTriple(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	p := &domain.TripFinanceProposal{
		ID: uuid.New(), TripID: uuid.New(), LenderUserID: uuid.New(), ContractID: uuid.New(),
		Status: domain.ProposalStatusPending, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO trip_finance_proposals").
		WithArgs(p.ID, p.TripID, p.LenderUserID, p.ContractID, p.Status, p.CreatedAt, p.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = NewProposalRepo(mock).Create(context.Background(), p)
	assert.ErrorIs(t, err, ports.ErrUniqueViolation)
}

func TestProposalRepo_ListByLender(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	lender := uuid.New()
	now := time.Now().UTC()
	by := uuid.New()
	var noTime *time.Time
	var noID *uuid.UUID

	mock.ExpectQuery("WHERE p.lender_user_id = \\$1 ORDER BY p.created_at DESC").
		WithArgs(lender).
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "lender_user_id", "contract_id", "status",
			"responded_at", "responded_by", "created_at", "updated_at"}).
			AddRow(uuid.New(), uuid.New(), lender, uuid.New(), domain.ProposalStatusAccepted, &now, &by, now, now).
			AddRow(uuid.New(), uuid.New(), lender, uuid.New(), domain.ProposalStatusPending, noTime, noID, now, now))

	list, err := NewProposalRepo(mock).ListByLender(context.Background(), lender)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, by, *list[0].RespondedBy)
	assert.Nil(t, list[1].RespondedAt)
}

func TestProposalRepo_RejectPendingForTrip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tripID, winner, by := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE trip_finance_proposals SET status = 'REJECTED'").
		WithArgs(tripID, winner, by, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	n, err := NewProposalRepo(mock).RejectPendingForTrip(context.Background(), tripID, winner, by, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProposalRepo_HasAcceptedForTrip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tripID, self := uuid.New(), uuid.New()
	mock.ExpectQuery("status = 'ACCEPTED'").
		WithArgs(tripID, self).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := NewProposalRepo(mock).HasAcceptedForTrip(context.Background(), tripID, self)
	require.NoError(t, err)
	assert.True(t, ok)
}
