package handler

import (
	"time"

	"trip-finance-ledger/internal/adapter/http/middleware"
	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Ledger           ports.LedgerService
	Trips            ports.TripService
	Bids             ports.BidService
	Proposals        ports.ProposalService
	Analytics        ports.AnalyticsService
	TokenSvc         ports.TokenService
	RateLimitStore   middleware.RateLimiterStore // nil = rate limiting disabled
	IdempotencyCache ports.IdempotencyCache      // nil = Idempotency-Key ignored
	IdempotencyTTL   time.Duration
	HealthCheckers   []ports.HealthChecker
	AuditSvc         ports.AuditService // nil = audit logging disabled
	MaxBodyBytes     int64
	Mode             string
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 8 << 20
	}

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBody))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()
	noop := func(c *gin.Context) { c.Next() }

	// rl returns the rate limiter for group, or a no-op without a store.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return noop
		}
		rule, ok := rules[group]
		if !ok {
			return noop
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	idem := gin.HandlerFunc(noop)
	if deps.IdempotencyCache != nil {
		ttl := deps.IdempotencyTTL
		if ttl <= 0 {
			ttl = middleware.DefaultIdempotencyTTL
		}
		idem = middleware.Idempotency(deps.IdempotencyCache, ttl, deps.Logger)
	}

	admin := middleware.RequireRole(domain.RoleAdmin)
	lender := middleware.RequireRole(domain.RoleLender)
	transporter := middleware.RequireRole(domain.RoleTransporter)

	v1 := r.Group("/api/v1", middleware.JWTAuth(deps.TokenSvc, deps.Logger))
	if deps.AuditSvc != nil {
		v1.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// --- Wallets & ledger ---
	walletHandler := NewWalletHandler(deps.Ledger)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", admin, rl("ledger_write"), walletHandler.CreateWallet)
		wallets.POST("/:userId/credit", admin, rl("ledger_write"), idem, walletHandler.Credit)
		wallets.POST("/:userId/debit", admin, rl("ledger_write"), idem, walletHandler.Debit)
		wallets.POST("/:userId/suspend", admin, rl("ledger_write"), walletHandler.Suspend)
		wallets.POST("/:userId/activate", admin, rl("ledger_write"), walletHandler.Activate)
		wallets.POST("/:userId/close", admin, rl("ledger_write"), walletHandler.Close)
		wallets.GET("/:userId/verify", admin, rl("reads"), walletHandler.Verify)

		wallets.GET("/:userId", rl("reads"), walletHandler.GetWallet)
		wallets.GET("/:userId/balance", rl("reads"), walletHandler.GetBalance)
		wallets.GET("/:userId/statement", rl("reads"), walletHandler.GetStatement)
		wallets.GET("/:userId/history", rl("reads"), walletHandler.GetHistory)
	}
	v1.POST("/transfers", admin, rl("ledger_write"), idem, walletHandler.Transfer)
	v1.GET("/transactions/:id", rl("reads"), walletHandler.GetTransaction)

	// --- Trips ---
	tripHandler := NewTripHandler(deps.Trips)
	bidHandler := NewBidHandler(deps.Bids)
	proposalHandler := NewProposalHandler(deps.Proposals)
	trips := v1.Group("/trips")
	{
		trips.POST("", transporter, rl("negotiation"), tripHandler.CreateTrip)
		trips.GET("/:tripId", rl("reads"), tripHandler.GetTrip)
		trips.POST("/:tripId/bids", lender, rl("negotiation"), bidHandler.Create)
		trips.GET("/:tripId/bids", rl("reads"), bidHandler.ListByTrip)
		trips.GET("/:tripId/proposals", rl("reads"), proposalHandler.ListByTrip)
	}

	// --- Bids ---
	bids := v1.Group("/bids")
	{
		bids.GET("/mine", lender, rl("reads"), bidHandler.ListMine)
		bids.GET("/:id", rl("reads"), bidHandler.Get)
		bids.PUT("/:id", lender, rl("negotiation"), bidHandler.Update)
		bids.POST("/:id/cancel", lender, rl("negotiation"), bidHandler.Cancel)
		bids.POST("/:id/accept-counter", lender, rl("negotiation"), bidHandler.AcceptCounter)
		bids.POST("/:id/reject-counter", lender, rl("negotiation"), bidHandler.RejectCounter)
		bids.POST("/:id/accept", transporter, rl("negotiation"), bidHandler.Accept)
		bids.POST("/:id/reject", transporter, rl("negotiation"), bidHandler.Reject)
		bids.POST("/:id/counter", transporter, rl("negotiation"), bidHandler.Counter)
	}

	// --- Proposals ---
	proposals := v1.Group("/proposals")
	{
		proposals.POST("/interest", lender, rl("interest"), proposalHandler.MarkInterest)
		proposals.GET("/mine", lender, rl("reads"), proposalHandler.ListMine)
		proposals.GET("/:id", rl("reads"), proposalHandler.Get)
		proposals.POST("/:id/withdraw", lender, rl("negotiation"), proposalHandler.Withdraw)
		proposals.POST("/:id/accept", transporter, rl("negotiation"), proposalHandler.Accept)
		proposals.POST("/:id/reject", transporter, rl("negotiation"), proposalHandler.Reject)
	}

	// --- Analytics ---
	analyticsHandler := NewAnalyticsHandler(deps.Analytics)
	analytics := v1.Group("/analytics")
	{
		analytics.GET("/lenders/:id", rl("reads"), analyticsHandler.Lender)
		analytics.GET("/transporters/:id", rl("reads"), analyticsHandler.Transporter)
	}

	// --- Admin ---
	adm := v1.Group("/admin", admin, rl("admin"))
	{
		adm.POST("/bids/expire", bidHandler.ExpireOverdue)
	}

	return r
}
