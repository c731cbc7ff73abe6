package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trip-finance-ledger/config"
	httpHandler "trip-finance-ledger/internal/adapter/http/handler"
	"trip-finance-ledger/internal/adapter/http/middleware"
	"trip-finance-ledger/internal/adapter/storage/memory"
	"trip-finance-ledger/internal/adapter/storage/objectstore"
	pgStorage "trip-finance-ledger/internal/adapter/storage/postgres"
	redisStorage "trip-finance-ledger/internal/adapter/storage/redis"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/internal/service"
	"trip-finance-ledger/pkg/logger"

	"github.com/rs/zerolog"
)

// storage is the persistence wiring chosen by storage.driver.
type storage struct {
	uow       ports.UnitOfWork
	store     ports.Store
	users     ports.UserDirectory
	contracts ports.ContractDirectory
	audit     ports.AuditRepository
	health    ports.HealthChecker
	close     func()
}

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret is required (set TFL_JWT_SECRET)")
	}

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting Trip Finance Ledger")

	ctx := context.Background()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer st.close()

	healthCheckers := []ports.HealthChecker{st.health}
	users, contracts := st.users, st.contracts
	routerDeps := httpHandler.RouterDeps{}

	// Redis backs the directory cache, idempotency keys and rate limits. All optional.
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		directory := service.NewCachedDirectory(users, contracts, redisStorage.NewCache(rdb), cfg.Cache.TTL, logger.Component(log, "directory"))
		users, contracts = directory, directory
		routerDeps.IdempotencyCache = redisStorage.NewIdempotencyCache(rdb)
		routerDeps.RateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	} else {
		log.Warn().Msg("Redis disabled: no directory cache, idempotency keys or rate limits")
	}

	var docs ports.ProofDocumentStore
	if cfg.Documents.Backend == "s3" {
		s3Store, err := objectstore.NewS3Store(ctx, cfg.Documents.S3, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 document store")
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Str("bucket", s3Store.Bucket()).Msg("S3 bucket unavailable")
		}
		docs = s3Store
		log.Info().Str("bucket", s3Store.Bucket()).Msg("Proof documents stored in S3")
	}

	// Initialize core services
	sigSvc := service.NewHMACSignatureService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	notifier := service.NewWebhookNotifier(
		cfg.Notifications.WebhookURL,
		cfg.Notifications.Secret,
		sigSvc,
		&http.Client{Timeout: cfg.Notifications.Timeout},
		logger.Component(log, "notifier"),
	)
	auditSvc := service.NewAuditService(st.audit, log)

	// Initialize business services
	ledgerSvc := service.NewLedgerService(
		st.uow, st.store, users, docs, notifier, auditSvc,
		service.LedgerOptions{DefaultCurrency: cfg.Ledger.DefaultCurrency, MaxDocumentSize: cfg.Documents.MaxSize},
		logger.Component(log, "ledger"),
	)
	bidSvc := service.NewBidService(st.uow, st.store, users, notifier, auditSvc, cfg.Bids.DefaultExpiry, logger.Component(log, "bids"))
	proposalSvc := service.NewProposalService(st.uow, st.store, users, contracts, notifier, auditSvc, logger.Component(log, "proposals"))
	tripSvc := service.NewTripService(st.store, users, logger.Component(log, "trips"))
	analyticsSvc := service.NewAnalyticsService(st.store, users, logger.Component(log, "analytics"))

	var sweeper *service.ExpirySweeper
	if cfg.Bids.SweepInterval > 0 {
		sweeper = service.NewExpirySweeper(bidSvc, cfg.Bids.SweepInterval, logger.Component(log, "sweeper"))
		sweeper.Start(ctx)
	}

	// Setup Gin router with all routes
	routerDeps.Ledger = ledgerSvc
	routerDeps.Trips = tripSvc
	routerDeps.Bids = bidSvc
	routerDeps.Proposals = proposalSvc
	routerDeps.Analytics = analyticsSvc
	routerDeps.TokenSvc = tokenSvc
	routerDeps.IdempotencyTTL = middleware.DefaultIdempotencyTTL
	routerDeps.HealthCheckers = healthCheckers
	routerDeps.AuditSvc = auditSvc
	routerDeps.MaxBodyBytes = documentBodyLimit(cfg.Documents.MaxSize)
	routerDeps.Mode = cfg.Server.Mode
	routerDeps.Logger = log
	router := httpHandler.SetupRouter(routerDeps)

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if sweeper != nil {
		if err := sweeper.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Expiry sweeper did not stop in time")
		}
	}

	log.Info().Msg("Server exited")
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn().Msg("Using in-memory storage: data is lost on restart")
		db := memory.New()
		return &storage{
			uow:       db,
			store:     db.Store(),
			users:     db.Users(),
			contracts: db.Contracts(),
			audit:     db.Audit(),
			health:    db,
			close:     func() {},
		}, nil
	}

	if cfg.Storage.AutoMigrate {
		m, err := pgStorage.NewMigrator(cfg.Database.MigrateURL(), cfg.Storage.MigrationsPath, log)
		if err != nil {
			return nil, err
		}
		err = m.Up()
		if closeErr := m.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close migrator")
		}
		if err != nil {
			return nil, err
		}
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	log.Info().Msg("PostgreSQL connected")

	return &storage{
		uow:       pgStorage.NewUnitOfWork(pool),
		store:     pgStorage.NewStore(pool),
		users:     pgStorage.NewUserRepo(pool),
		contracts: pgStorage.NewContractRepo(pool),
		audit:     pgStorage.NewAuditRepo(pool),
		health:    pgStorage.NewHealthCheck(pool),
		close:     pool.Close,
	}, nil
}

// documentBodyLimit leaves room for base64 expansion of the largest document plus metadata.
func documentBodyLimit(maxDocument int64) int64 {
	return maxDocument*4/3 + 64<<10
}
