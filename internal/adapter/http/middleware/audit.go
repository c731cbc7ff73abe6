package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxAuditResource lets a handler name the resource it created.
const CtxAuditResource = "audit_resource_id"

type routeAudit struct {
	action   domain.AuditAction
	resource string
	param    string // path parameter holding the resource id, if any
}

// auditedRoutes covers the writes the services do not audit themselves. Ledger
// mutations, acceptances and bid expiry are recorded inside the services with richer details.
var auditedRoutes = map[string]routeAudit{
	"POST /api/v1/trips":                   {domain.AuditActionCreateTrip, "trip", ""},
	"POST /api/v1/trips/:tripId/bids":      {domain.AuditActionCreateBid, "bid", ""},
	"PUT /api/v1/bids/:id":                 {domain.AuditActionUpdateBid, "bid", "id"},
	"POST /api/v1/bids/:id/cancel":         {domain.AuditActionCancelBid, "bid", "id"},
	"POST /api/v1/bids/:id/reject":         {domain.AuditActionRejectBid, "bid", "id"},
	"POST /api/v1/bids/:id/counter":        {domain.AuditActionCounterBid, "bid", "id"},
	"POST /api/v1/bids/:id/reject-counter": {domain.AuditActionRejectCounter, "bid", "id"},
	"POST /api/v1/proposals/interest":      {domain.AuditActionMarkInterest, "proposal", ""},
	"POST /api/v1/proposals/:id/withdraw":  {domain.AuditActionWithdrawProposal, "proposal", "id"},
	"POST /api/v1/proposals/:id/reject":    {domain.AuditActionRejectProposal, "proposal", "id"},
}

// AuditLog attaches the client IP to the request context for service-level audit
// entries, and records successful writes on the routes in auditedRoutes.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ports.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		route, ok := mapRouteToAction(c.Request.Method, c.FullPath())
		if !ok {
			return
		}

		var actorID *uuid.UUID
		if actor, ok := ActorFrom(c); ok {
			actorID = &actor.UserID
		}
		resourceID := c.GetString(CtxAuditResource)
		if route.param != "" {
			resourceID = c.Param(route.param)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			ActorID:      actorID,
			Action:       route.action,
			ResourceType: route.resource,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func mapRouteToAction(method, fullPath string) (routeAudit, bool) {
	r, ok := auditedRoutes[method+" "+fullPath]
	return r, ok
}
