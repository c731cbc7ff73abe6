package postgres

import (
	"context"
	"testing"
	"time"

	"trip-finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryColumnNames = []string{"id", "transaction_id", "wallet_id", "entry_type", "amount", "balance_after", "sequence", "created_at"}

func TestLedgerRepo_AppendEntry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	e := &domain.TransactionEntry{
		TransactionID: uuid.New(),
		WalletID:      uuid.New(),
		EntryType:     domain.EntryTypeDebit,
		Amount:        decimal.RequireFromString("400.00"),
		BalanceAfter:  decimal.RequireFromString("-300.00"),
		Sequence:      1,
		CreatedAt:     time.Now().UTC(),
	}

	mock.ExpectQuery("INSERT INTO transaction_entries .+ INSERT INTO wallet_balances").
		WithArgs(e.TransactionID, e.WalletID, e.EntryType, e.Amount, e.BalanceAfter, e.Sequence, e.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"last_entry_id"}).AddRow(int64(42)))

	require.NoError(t, repo.AppendEntry(context.Background(), e))
	assert.Equal(t, int64(42), e.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_CurrentBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID := uuid.New()

	mock.ExpectQuery("FROM wallet_balances").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow("-300.00"))

	bal, err := repo.CurrentBalance(context.Background(), walletID)
	require.NoError(t, err)
	assert.Equal(t, "-300.00", bal.StringFixed(2))
}

func TestLedgerRepo_FoldBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID := uuid.New()

	mock.ExpectQuery("SUM\\(CASE WHEN entry_type = 'CREDIT'").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"sum", "count"}).AddRow("700.00", int64(3)))

	sum, n, err := repo.FoldBalance(context.Background(), walletID)
	require.NoError(t, err)
	assert.Equal(t, "700.00", sum.StringFixed(2))
	assert.Equal(t, int64(3), n)
}

func TestLedgerRepo_History(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID, txnID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transaction_entries").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(25)))
	mock.ExpectQuery("JOIN transactions t .+ LIMIT \\$2 OFFSET \\$3").
		WithArgs(walletID, 10, 20).
		WillReturnRows(pgxmock.NewRows(append(entryColumnNames, "type", "description")).
			AddRow(int64(1), txnID, walletID, domain.EntryTypeCredit, "100.00", "100.00", 1, now,
				domain.TransactionTypeManualCredit, "Top-up"))

	items, total, err := repo.History(context.Background(), walletID, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, items, 1)
	assert.Equal(t, domain.TransactionTypeManualCredit, items[0].TransactionType)
	assert.Equal(t, "100.00", items[0].Amount.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_EntriesByTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	txnID, from, to := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("WHERE e.transaction_id = \\$1 ORDER BY e.sequence").
		WithArgs(txnID).
		WillReturnRows(pgxmock.NewRows(entryColumnNames).
			AddRow(int64(7), txnID, from, domain.EntryTypeDebit, "400.00", "-300.00", 1, now).
			AddRow(int64(8), txnID, to, domain.EntryTypeCredit, "400.00", "400.00", 2, now))

	entries, err := repo.EntriesByTransaction(context.Background(), txnID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EntryTypeDebit, entries[0].EntryType)
	assert.Equal(t, "100.00", entries[0].BalanceBefore().StringFixed(2))
	assert.Equal(t, 2, entries[1].Sequence)
}

func TestLedgerRepo_TripFlows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID := uuid.New()

	mock.ExpectQuery("t.trip_id IS NOT NULL").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"credits", "debits"}).AddRow("1500.00", "250.50"))

	flows, err := repo.TripFlows(context.Background(), walletID)
	require.NoError(t, err)
	assert.Equal(t, "1500.00", flows.Credits.StringFixed(2))
	assert.Equal(t, "250.50", flows.Debits.StringFixed(2))
}
