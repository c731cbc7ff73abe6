package handler

import (
	"context"

	"trip-finance-ledger/internal/adapter/http/dto"
	"trip-finance-ledger/internal/adapter/http/middleware"
	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BidHandler handles bid negotiation endpoints.
type BidHandler struct {
	bids ports.BidService
}

// NewBidHandler creates a new BidHandler.
func NewBidHandler(bids ports.BidService) *BidHandler {
	return &BidHandler{bids: bids}
}

// Create handles POST /api/v1/trips/:tripId/bids.
func (h *BidHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	tripID, ok := uuidParam(c, "tripId")
	if !ok {
		return
	}
	var req dto.CreateBidRequest
	if !bind(c, &req) {
		return
	}

	bid, err := h.bids.Create(c.Request.Context(), ports.CreateBidRequest{
		TripID:    tripID,
		LenderID:  a.UserID,
		Terms:     req.Domain(),
		Currency:  req.Currency,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.CtxAuditResource, bid.ID.String())
	response.Created(c, dto.NewBidResponse(bid))
}

// Update handles PUT /api/v1/bids/:id.
func (h *BidHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBidRequest
	if !bind(c, &req) {
		return
	}
	bid, err := h.bids.Update(c.Request.Context(), id, a.UserID, req.Domain(), req.ExpiresAt)
	h.respond(c, bid, err)
}

// Counter handles POST /api/v1/bids/:id/counter.
func (h *BidHandler) Counter(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.BidTerms
	if !bind(c, &req) {
		return
	}
	bid, err := h.bids.Counter(c.Request.Context(), id, a.UserID, req.Domain())
	h.respond(c, bid, err)
}

// Reject handles POST /api/v1/bids/:id/reject. The body is optional.
func (h *BidHandler) Reject(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.RejectBidRequest
	if !bindOptional(c, &req) {
		return
	}
	bid, err := h.bids.Reject(c.Request.Context(), id, a.UserID, req.Reason)
	h.respond(c, bid, err)
}

// Cancel handles POST /api/v1/bids/:id/cancel.
func (h *BidHandler) Cancel(c *gin.Context) { h.transition(c, h.bids.Cancel) }

// Accept handles POST /api/v1/bids/:id/accept.
func (h *BidHandler) Accept(c *gin.Context) { h.transition(c, h.bids.Accept) }

// AcceptCounter handles POST /api/v1/bids/:id/accept-counter.
func (h *BidHandler) AcceptCounter(c *gin.Context) { h.transition(c, h.bids.AcceptCounter) }

// RejectCounter handles POST /api/v1/bids/:id/reject-counter.
func (h *BidHandler) RejectCounter(c *gin.Context) { h.transition(c, h.bids.RejectCounter) }

func (h *BidHandler) transition(c *gin.Context, apply func(ctx context.Context, bidID, actorID uuid.UUID) (*domain.TripBid, error)) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	bid, err := apply(c.Request.Context(), id, a.UserID)
	h.respond(c, bid, err)
}

// Get handles GET /api/v1/bids/:id.
func (h *BidHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	bid, err := h.bids.Get(c.Request.Context(), id)
	h.respond(c, bid, err)
}

// ListByTrip handles GET /api/v1/trips/:tripId/bids.
func (h *BidHandler) ListByTrip(c *gin.Context) {
	tripID, ok := uuidParam(c, "tripId")
	if !ok {
		return
	}
	bids, err := h.bids.ListByTrip(c.Request.Context(), tripID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBidResponses(bids))
}

// ListMine handles GET /api/v1/bids/mine.
func (h *BidHandler) ListMine(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bids, err := h.bids.ListByLender(c.Request.Context(), a.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBidResponses(bids))
}

// ExpireOverdue handles POST /api/v1/admin/bids/expire.
func (h *BidHandler) ExpireOverdue(c *gin.Context) {
	n, err := h.bids.ExpireOverdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ExpireBidsResponse{Expired: n})
}

func (h *BidHandler) respond(c *gin.Context, bid *domain.TripBid, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBidResponse(bid))
}
