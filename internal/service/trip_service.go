package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type tripService struct {
	store ports.Store
	users ports.UserDirectory
	log   zerolog.Logger
	now   func() time.Time
}

// NewTripService creates a new trip service.
func NewTripService(store ports.Store, users ports.UserDirectory, log zerolog.Logger) ports.TripService {
	return &tripService{
		store: store,
		users: users,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateTrip registers an ACTIVE trip owned by the transporter.
func (s *tripService) CreateTrip(ctx context.Context, req ports.CreateTripRequest) (*domain.Trip, error) {
	if err := checkAmount(req.LoanAmount); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(req.Currency)
	if len(currency) != 3 {
		return nil, apperror.Validation("currency must be a 3-letter ISO code")
	}
	if req.InterestRate.IsNegative() {
		return nil, apperror.Validation("interest rate must not be negative")
	}
	if req.MaturityDays <= 0 {
		return nil, apperror.Validation("maturity days must be positive")
	}
	if req.SenderID == req.TransporterID {
		return nil, apperror.Validation("sender must differ from transporter")
	}

	for _, id := range []uuid.UUID{req.TransporterID, req.SenderID} {
		u, err := s.users.FindUserByID(ctx, id)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lookup user: %w", err))
		}
		if u == nil {
			return nil, apperror.ErrNotFound("user")
		}
	}

	now := s.now()
	trip := &domain.Trip{
		ID:                uuid.New(),
		TransporterUserID: req.TransporterID,
		SenderUserID:      req.SenderID,
		LoanAmount:        req.LoanAmount,
		Currency:          currency,
		InterestRate:      req.InterestRate,
		MaturityDays:      req.MaturityDays,
		Status:            domain.TripStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Trips().Create(ctx, trip); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create trip: %w", err))
	}

	s.log.Info().
		Str("trip_id", trip.ID.String()).
		Str("transporter_id", trip.TransporterUserID.String()).
		Str("loan_amount", trip.LoanAmount.StringFixed(domain.MoneyScale)).
		Msg("trip created")

	return trip, nil
}

// GetTrip returns a trip by id.
func (s *tripService) GetTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	trip, err := s.store.Trips().GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get trip: %w", err))
	}
	if trip == nil {
		return nil, apperror.ErrNotFound("trip")
	}
	return trip, nil
}
