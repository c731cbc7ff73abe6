package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type directoryTestDeps struct {
	dir       *CachedDirectory
	users     *mocks.MockUserDirectory
	contracts *mocks.MockContractDirectory
	cache     *mocks.MockCache
	ctrl      *gomock.Controller
}

func setupCachedDirectory(t *testing.T) *directoryTestDeps {
	ctrl := gomock.NewController(t)
	d := &directoryTestDeps{
		users:     mocks.NewMockUserDirectory(ctrl),
		contracts: mocks.NewMockContractDirectory(ctrl),
		cache:     mocks.NewMockCache(ctrl),
		ctrl:      ctrl,
	}
	d.dir = NewCachedDirectory(d.users, d.contracts, d.cache, 10*time.Minute, newTestLogger())
	return d
}

func TestCachedDirectory_FindUserByID_Hit(t *testing.T) {
	d := setupCachedDirectory(t)
	ctx := context.Background()
	user := domain.User{ID: uuid.New(), Name: "Asha Lending"}
	raw, _ := json.Marshal(user)

	d.cache.EXPECT().Get(ctx, "user:"+user.ID.String()).Return(raw, true, nil)

	got, err := d.dir.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Name, got.Name)
}

func TestCachedDirectory_FindUserByID_MissPopulates(t *testing.T) {
	d := setupCachedDirectory(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Name: "Ravi Transport"}
	key := "user:" + user.ID.String()

	d.cache.EXPECT().Get(ctx, key).Return(nil, false, nil)
	d.users.EXPECT().FindUserByID(ctx, user.ID).Return(user, nil)
	d.cache.EXPECT().Put(ctx, key, gomock.Any(), 10*time.Minute).Return(nil)

	got, err := d.dir.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestCachedDirectory_FindUserByID_NotFoundNotCached(t *testing.T) {
	d := setupCachedDirectory(t)
	ctx := context.Background()
	id := uuid.New()

	d.cache.EXPECT().Get(ctx, "user:"+id.String()).Return(nil, false, nil)
	d.users.EXPECT().FindUserByID(ctx, id).Return(nil, nil)

	got, err := d.dir.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCachedDirectory_CacheErrorFallsThrough(t *testing.T) {
	d := setupCachedDirectory(t)
	ctx := context.Background()
	contract := &domain.Contract{ID: uuid.New(), ContractNumber: "C-1"}
	key := "contract:" + contract.ID.String()

	d.cache.EXPECT().Get(ctx, key).Return(nil, false, errors.New("redis down"))
	d.contracts.EXPECT().GetByID(ctx, contract.ID).Return(contract, nil)
	d.cache.EXPECT().Put(ctx, key, gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	got, err := d.dir.GetByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, "C-1", got.ContractNumber)
}

func TestCachedDirectory_FindActiveThreePartyContracts_DropsExpiredHits(t *testing.T) {
	d := setupCachedDirectory(t)
	ctx := context.Background()
	lender, transporter, sender := uuid.New(), uuid.New(), uuid.New()

	live := domain.Contract{ID: uuid.New(), Status: domain.ContractStatusActive, InterestRate: decimal.NewFromInt(12), ExpiresAt: time.Now().Add(time.Hour)}
	stale := domain.Contract{ID: uuid.New(), Status: domain.ContractStatusActive, ExpiresAt: time.Now().Add(-time.Minute)}
	raw, _ := json.Marshal([]domain.Contract{live, stale})

	d.cache.EXPECT().Get(ctx, "contracts:"+lender.String()+":"+transporter.String()+":"+sender.String()).Return(raw, true, nil)

	got, err := d.dir.FindActiveThreePartyContracts(ctx, lender, transporter, sender)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, live.ID, got[0].ID)
}

func TestCachedDirectory_Invalidate(t *testing.T) {
	d := setupCachedDirectory(t)
	ctx := context.Background()

	gomock.InOrder(
		d.cache.EXPECT().Invalidate(ctx, "user:*").Return(nil),
		d.cache.EXPECT().Invalidate(ctx, "contract:*").Return(nil),
		d.cache.EXPECT().Invalidate(ctx, "contracts:*").Return(nil),
	)

	require.NoError(t, d.dir.Invalidate(ctx))
}

func TestCachedDirectory_Invalidate_Error(t *testing.T) {
	d := setupCachedDirectory(t)
	ctx := context.Background()

	d.cache.EXPECT().Invalidate(ctx, "user:*").Return(errors.New("scan failed"))

	assert.Error(t, d.dir.Invalidate(ctx))
}
