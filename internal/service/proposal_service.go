package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxInterestBatch bounds how many trips one interest request may name.
const maxInterestBatch = 100

// ProposalServiceImpl implements ports.ProposalService.
type ProposalServiceImpl struct {
	uow       ports.UnitOfWork
	store     ports.Store
	users     ports.UserDirectory
	contracts ports.ContractDirectory
	notifier  ports.Notifier
	audit     ports.AuditService
	log       zerolog.Logger
	now       func() time.Time
}

// NewProposalService creates a new ProposalServiceImpl.
func NewProposalService(
	uow ports.UnitOfWork,
	store ports.Store,
	users ports.UserDirectory,
	contracts ports.ContractDirectory,
	notifier ports.Notifier,
	audit ports.AuditService,
	log zerolog.Logger,
) *ProposalServiceImpl {
	return &ProposalServiceImpl{
		uow:       uow,
		store:     store,
		users:     users,
		contracts: contracts,
		notifier:  notifier,
		audit:     audit,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// MarkInterest registers the lender's interest in each trip independently. A failing trip
// produces a failed result and never aborts the rest of the batch.
func (s *ProposalServiceImpl) MarkInterest(ctx context.Context, lenderID uuid.UUID, tripIDs []uuid.UUID) (*domain.InterestBatchResult, error) {
	if len(tripIDs) == 0 {
		return nil, apperror.Validation("at least one trip id is required")
	}
	if len(tripIDs) > maxInterestBatch {
		return nil, apperror.Validation(fmt.Sprintf("at most %d trips per request", maxInterestBatch))
	}

	lender, err := s.users.FindUserByID(ctx, lenderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup lender: %w", err))
	}
	if lender == nil {
		return nil, apperror.ErrNotFound("lender")
	}

	batch := &domain.InterestBatchResult{Results: make([]domain.InterestResult, 0, len(tripIDs))}
	for _, tripID := range tripIDs {
		res := s.markOne(ctx, lenderID, tripID)
		batch.Add(res)
	}

	s.log.Info().
		Str("lender_id", lenderID.String()).
		Int("total", batch.Total).
		Int("success", batch.SuccessCount).
		Int("failed", batch.FailureCount).
		Msg("interest batch processed")

	return batch, nil
}

func (s *ProposalServiceImpl) markOne(ctx context.Context, lenderID, tripID uuid.UUID) domain.InterestResult {
	res := domain.InterestResult{TripID: tripID}
	fail := func(outcome domain.InterestOutcome, msg string) domain.InterestResult {
		res.Outcome = outcome
		res.Message = msg
		return res
	}

	trip, err := s.store.Trips().GetByID(ctx, tripID)
	if err != nil {
		s.log.Warn().Err(err).Str("trip_id", tripID.String()).Msg("interest: trip lookup failed")
		return fail(domain.InterestFailed, "Trip lookup failed")
	}
	if trip == nil {
		return fail(domain.InterestNotFound, "Trip not found")
	}
	if trip.Status != domain.TripStatusActive {
		return fail(domain.InterestFailed, fmt.Sprintf("Trip is %s", trip.Status))
	}

	contracts, err := s.contracts.FindActiveThreePartyContracts(ctx, lenderID, trip.TransporterUserID, trip.SenderUserID)
	if err != nil {
		s.log.Warn().Err(err).Str("trip_id", tripID.String()).Msg("interest: contract lookup failed")
		return fail(domain.InterestFailed, "Contract lookup failed")
	}
	if len(contracts) == 0 {
		return fail(domain.InterestNoContract, "No active contract links this lender with the trip's transporter and sender")
	}
	contract := contracts[0]
	res.ContractID = &contract.ID

	exists, err := s.store.Proposals().Exists(ctx, tripID, lenderID, contract.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("trip_id", tripID.String()).Msg("interest: duplicate check failed")
		return fail(domain.InterestFailed, "Duplicate check failed")
	}
	if exists {
		return fail(domain.InterestDuplicate, apperror.ErrDuplicateInterest().Message)
	}

	now := s.now()
	p := &domain.TripFinanceProposal{
		ID:           uuid.New(),
		TripID:       tripID,
		LenderUserID: lenderID,
		ContractID:   contract.ID,
		Status:       domain.ProposalStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Proposals().Create(ctx, p); err != nil {
		if errors.Is(err, ports.ErrUniqueViolation) {
			return fail(domain.InterestDuplicate, apperror.ErrDuplicateInterest().Message)
		}
		s.log.Warn().Err(err).Str("trip_id", tripID.String()).Msg("interest: create proposal failed")
		return fail(domain.InterestFailed, "Could not record interest")
	}

	s.emit(ctx, domain.EventProposalCreated, p, lenderID)

	res.Success = true
	res.Outcome = domain.InterestCreated
	res.Message = "Interest registered under contract " + contract.ContractNumber
	res.ProposalID = &p.ID
	return res
}

// Withdraw retracts a PENDING proposal. Owning lender only.
func (s *ProposalServiceImpl) Withdraw(ctx context.Context, proposalID, lenderID uuid.UUID) (*domain.TripFinanceProposal, error) {
	p, err := s.transition(ctx, "withdraw proposal", proposalID,
		func(ctx context.Context, st ports.Store, trip *domain.Trip, p *domain.TripFinanceProposal, now time.Time) error {
			if p.LenderUserID != lenderID {
				return apperror.ErrForbidden("proposal")
			}
			if err := p.Withdraw(lenderID, now); err != nil {
				return err
			}
			return saveProposal(ctx, st, p)
		})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventProposalWithdrawn, p, lenderID)
	return p, nil
}

// Accept makes a PENDING proposal the trip's financing: the trip takes the contract's rate
// and maturity, and every other PENDING proposal on the trip is rejected. Trip owner only.
func (s *ProposalServiceImpl) Accept(ctx context.Context, proposalID, transporterID uuid.UUID) (*domain.TripFinanceProposal, error) {
	var rejected int64
	var trip domain.Trip
	p, err := s.transition(ctx, "accept proposal", proposalID,
		func(ctx context.Context, st ports.Store, t *domain.Trip, p *domain.TripFinanceProposal, now time.Time) error {
			if !t.IsOwnedBy(transporterID) {
				return apperror.ErrForbidden("trip")
			}
			if err := p.Accept(transporterID, now); err != nil {
				return err
			}

			financed, err := st.Proposals().HasAcceptedForTrip(ctx, t.ID, p.ID)
			if err != nil {
				return fmt.Errorf("check accepted proposal: %w", err)
			}
			if financed {
				return apperror.ErrAlreadyFinanced()
			}

			contract, err := s.contracts.GetByID(ctx, p.ContractID)
			if err != nil {
				return fmt.Errorf("get contract: %w", err)
			}
			if contract == nil {
				return apperror.ErrNotFound("contract")
			}
			if !contract.IsActiveAt(now) {
				status := contract.Status
				if status == domain.ContractStatusActive {
					status = domain.ContractStatusExpired
				}
				return apperror.ErrInvalidState("contract", string(status), string(domain.ContractStatusActive))
			}

			t.BindContract(contract, now)
			if err := st.Trips().BindFinancing(ctx, t); err != nil {
				return fmt.Errorf("bind trip financing: %w", err)
			}
			if err := saveProposal(ctx, st, p); err != nil {
				return err
			}
			rejected, err = st.Proposals().RejectPendingForTrip(ctx, t.ID, p.ID, transporterID, now)
			if err != nil {
				return fmt.Errorf("reject pending proposals: %w", err)
			}
			trip = *t
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("proposal_id", p.ID.String()).
		Str("trip_id", p.TripID.String()).
		Str("contract_id", p.ContractID.String()).
		Int64("others_rejected", rejected).
		Msg("proposal accepted")
	s.audit.Log(ctx, newAuditLog(ctx, transporterID, domain.AuditActionAcceptProposal, "proposal", p.ID, map[string]any{
		"trip_id":         p.TripID,
		"contract_id":     p.ContractID,
		"interest_rate":   trip.InterestRate.String(),
		"maturity_days":   trip.MaturityDays,
		"others_rejected": rejected,
	}))
	s.emit(ctx, domain.EventProposalAccepted, p, transporterID)
	return p, nil
}

// Reject declines a PENDING proposal. Trip owner only.
func (s *ProposalServiceImpl) Reject(ctx context.Context, proposalID, transporterID uuid.UUID) (*domain.TripFinanceProposal, error) {
	p, err := s.transition(ctx, "reject proposal", proposalID,
		func(ctx context.Context, st ports.Store, trip *domain.Trip, p *domain.TripFinanceProposal, now time.Time) error {
			if !trip.IsOwnedBy(transporterID) {
				return apperror.ErrForbidden("trip")
			}
			if err := p.Reject(transporterID, now); err != nil {
				return err
			}
			return saveProposal(ctx, st, p)
		})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventProposalRejected, p, transporterID)
	return p, nil
}

// Get returns a proposal by id.
func (s *ProposalServiceImpl) Get(ctx context.Context, proposalID uuid.UUID) (*domain.TripFinanceProposal, error) {
	p, err := s.store.Proposals().GetByID(ctx, proposalID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get proposal: %w", err))
	}
	if p == nil {
		return nil, apperror.ErrNotFound("proposal")
	}
	return p, nil
}

// ListByTrip returns the trip's proposals, newest first.
func (s *ProposalServiceImpl) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripFinanceProposal, error) {
	trip, err := s.store.Trips().GetByID(ctx, tripID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get trip: %w", err))
	}
	if trip == nil {
		return nil, apperror.ErrNotFound("trip")
	}
	ps, err := s.store.Proposals().ListByTrip(ctx, tripID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list proposals by trip: %w", err))
	}
	return nonNil(ps), nil
}

// ListByLender returns the lender's proposals, newest first.
func (s *ProposalServiceImpl) ListByLender(ctx context.Context, lenderID uuid.UUID) ([]domain.TripFinanceProposal, error) {
	ps, err := s.store.Proposals().ListByLender(ctx, lenderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list proposals by lender: %w", err))
	}
	return nonNil(ps), nil
}

type proposalChange func(ctx context.Context, st ports.Store, trip *domain.Trip, p *domain.TripFinanceProposal, now time.Time) error

// transition locks the proposal's trip row, then the proposal row, and applies change.
func (s *ProposalServiceImpl) transition(ctx context.Context, op string, proposalID uuid.UUID, change proposalChange) (*domain.TripFinanceProposal, error) {
	var result *domain.TripFinanceProposal
	err := s.uow.Do(ctx, ports.ReadCommitted, func(ctx context.Context, st ports.Store) error {
		peek, err := st.Proposals().GetByID(ctx, proposalID)
		if err != nil {
			return fmt.Errorf("get proposal: %w", err)
		}
		if peek == nil {
			return apperror.ErrNotFound("proposal")
		}
		trip, err := st.Trips().GetByIDForUpdate(ctx, peek.TripID)
		if err != nil {
			return fmt.Errorf("lock trip: %w", err)
		}
		if trip == nil {
			return apperror.ErrNotFound("trip")
		}
		p, err := st.Proposals().GetByIDForUpdate(ctx, proposalID)
		if err != nil {
			return fmt.Errorf("lock proposal: %w", err)
		}
		if p == nil {
			return apperror.ErrNotFound("proposal")
		}
		if err := change(ctx, st, trip, p, s.now()); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, translate(op, err)
	}
	return result, nil
}

func (s *ProposalServiceImpl) emit(ctx context.Context, typ domain.EventType, p *domain.TripFinanceProposal, actor uuid.UUID) {
	s.notifier.Notify(ctx, domain.NewEvent(typ, "proposal", p.ID, actor, map[string]any{
		"trip_id":     p.TripID,
		"lender_id":   p.LenderUserID,
		"contract_id": p.ContractID,
		"status":      p.Status,
	}))
}

func saveProposal(ctx context.Context, st ports.Store, p *domain.TripFinanceProposal) error {
	if err := st.Proposals().UpdateStatus(ctx, p); err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	return nil
}
