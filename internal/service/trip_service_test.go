package service

import (
	"context"
	"testing"

	"trip-finance-ledger/internal/adapter/storage/memory"
	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTripService_CreateAndGet(t *testing.T) {
	db := memory.New()
	svc := NewTripService(db.Store(), db.Users(), newTestLogger())
	transporter, sender := seedUser(db, nil), seedUser(db, nil)

	trip, err := svc.CreateTrip(context.Background(), ports.CreateTripRequest{
		TransporterID: transporter,
		SenderID:      sender,
		LoanAmount:    dec("75000"),
		Currency:      "inr",
		InterestRate:  dec("11.5"),
		MaturityDays:  30,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusActive, trip.Status)
	assert.Equal(t, "INR", trip.Currency)
	assert.Nil(t, trip.ContractID)

	got, err := svc.GetTrip(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, got.ID)
	assert.True(t, trip.LoanAmount.Equal(got.LoanAmount))

	_, err = svc.GetTrip(context.Background(), uuid.New())
	assertCode(t, "NF_001", err)
}

func TestTripService_CreateTrip_Validation(t *testing.T) {
	db := memory.New()
	svc := NewTripService(db.Store(), db.Users(), newTestLogger())
	transporter, sender := seedUser(db, nil), seedUser(db, nil)
	valid := func() ports.CreateTripRequest {
		return ports.CreateTripRequest{
			TransporterID: transporter, SenderID: sender, LoanAmount: dec("100"),
			Currency: "INR", InterestRate: dec("10"), MaturityDays: 10,
		}
	}

	tests := []struct {
		name   string
		mutate func(*ports.CreateTripRequest)
		code   string
	}{
		{"zero amount", func(r *ports.CreateTripRequest) { r.LoanAmount = dec("0") }, "VAL_001"},
		{"bad currency", func(r *ports.CreateTripRequest) { r.Currency = "RUPEES" }, "VAL_001"},
		{"negative rate", func(r *ports.CreateTripRequest) { r.InterestRate = dec("-0.5") }, "VAL_001"},
		{"no maturity", func(r *ports.CreateTripRequest) { r.MaturityDays = 0 }, "VAL_001"},
		{"sender is transporter", func(r *ports.CreateTripRequest) { r.SenderID = transporter }, "VAL_001"},
		{"unknown sender", func(r *ports.CreateTripRequest) { r.SenderID = uuid.New() }, "NF_001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			_, err := svc.CreateTrip(context.Background(), req)
			assertCode(t, tt.code, err)
		})
	}
}

func TestTripService_DirectoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserDirectory(ctrl)
	svc := NewTripService(memory.New().Store(), users, newTestLogger())

	users.EXPECT().FindUserByID(gomock.Any(), gomock.Any()).Return(nil, errInjected)

	_, err := svc.CreateTrip(context.Background(), ports.CreateTripRequest{
		TransporterID: uuid.New(), SenderID: uuid.New(), LoanAmount: dec("1"),
		Currency: "INR", InterestRate: dec("1"), MaturityDays: 1,
	})
	assertCode(t, "SYS_001", err)
}
