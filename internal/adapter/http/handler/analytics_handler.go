package handler

import (
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves per-actor summaries.
type AnalyticsHandler struct {
	analytics ports.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analytics ports.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Lender handles GET /api/v1/analytics/lenders/:id.
func (h *AnalyticsHandler) Lender(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok || !selfOrAdmin(c, a, id, "summary") {
		return
	}
	summary, err := h.analytics.LenderSummary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// Transporter handles GET /api/v1/analytics/transporters/:id.
func (h *AnalyticsHandler) Transporter(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok || !selfOrAdmin(c, a, id, "summary") {
		return
	}
	summary, err := h.analytics.TransporterSummary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
