package handler

import (
	"trip-finance-ledger/internal/adapter/http/dto"
	"trip-finance-ledger/internal/adapter/http/middleware"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TripHandler handles trip endpoints.
type TripHandler struct {
	trips ports.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(trips ports.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

// CreateTrip handles POST /api/v1/trips. The caller becomes the trip's transporter.
func (h *TripHandler) CreateTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateTripRequest
	if !bind(c, &req) {
		return
	}

	trip, err := h.trips.CreateTrip(c.Request.Context(), ports.CreateTripRequest{
		TransporterID: a.UserID,
		SenderID:      uuid.MustParse(req.SenderID),
		LoanAmount:    decimal.RequireFromString(req.LoanAmount),
		Currency:      req.Currency,
		InterestRate:  decimal.RequireFromString(req.InterestRate),
		MaturityDays:  req.MaturityDays,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.CtxAuditResource, trip.ID.String())
	response.Created(c, trip)
}

// GetTrip handles GET /api/v1/trips/:tripId.
func (h *TripHandler) GetTrip(c *gin.Context) {
	id, ok := uuidParam(c, "tripId")
	if !ok {
		return
	}
	trip, err := h.trips.GetTrip(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, trip)
}
