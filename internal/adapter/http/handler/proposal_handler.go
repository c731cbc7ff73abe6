package handler

import (
	"context"

	"trip-finance-ledger/internal/adapter/http/dto"
	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProposalHandler handles finance proposal endpoints.
type ProposalHandler struct {
	proposals ports.ProposalService
}

// NewProposalHandler creates a new ProposalHandler.
func NewProposalHandler(proposals ports.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals}
}

// MarkInterest handles POST /api/v1/proposals/interest. Per-trip outcomes are
// reported in the body; the request itself succeeds even if every trip fails.
func (h *ProposalHandler) MarkInterest(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req dto.InterestRequest
	if !bind(c, &req) {
		return
	}
	tripIDs := make([]uuid.UUID, 0, len(req.TripIDs))
	for _, raw := range req.TripIDs {
		tripIDs = append(tripIDs, uuid.MustParse(raw))
	}

	result, err := h.proposals.MarkInterest(c.Request.Context(), a.UserID, tripIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Withdraw handles POST /api/v1/proposals/:id/withdraw.
func (h *ProposalHandler) Withdraw(c *gin.Context) { h.transition(c, h.proposals.Withdraw) }

// Accept handles POST /api/v1/proposals/:id/accept.
func (h *ProposalHandler) Accept(c *gin.Context) { h.transition(c, h.proposals.Accept) }

// Reject handles POST /api/v1/proposals/:id/reject.
func (h *ProposalHandler) Reject(c *gin.Context) { h.transition(c, h.proposals.Reject) }

func (h *ProposalHandler) transition(c *gin.Context, apply func(ctx context.Context, proposalID, actorID uuid.UUID) (*domain.TripFinanceProposal, error)) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := apply(c.Request.Context(), id, a.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Get handles GET /api/v1/proposals/:id.
func (h *ProposalHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.proposals.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// ListByTrip handles GET /api/v1/trips/:tripId/proposals.
func (h *ProposalHandler) ListByTrip(c *gin.Context) {
	tripID, ok := uuidParam(c, "tripId")
	if !ok {
		return
	}
	list, err := h.proposals.ListByTrip(c.Request.Context(), tripID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /api/v1/proposals/mine.
func (h *ProposalHandler) ListMine(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := h.proposals.ListByLender(c.Request.Context(), a.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
