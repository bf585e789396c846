package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/iliyamo/salon-booking/internal/config"
	"github.com/iliyamo/salon-booking/internal/database"
	"github.com/iliyamo/salon-booking/internal/handler"
	"github.com/iliyamo/salon-booking/internal/logger"
	"github.com/iliyamo/salon-booking/internal/middleware"
	"github.com/iliyamo/salon-booking/internal/observability/tracing"
	"github.com/iliyamo/salon-booking/internal/queue"
	"github.com/iliyamo/salon-booking/internal/repository"
	"github.com/iliyamo/salon-booking/internal/router"
	"github.com/iliyamo/salon-booking/internal/service"
)

const serviceName = "salon-booking"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	log.Info().Str("env", cfg.Env).Msg("starting")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, serviceName, cfg.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing init failed")
	}

	db, err := database.Open(database.Params{
		Dialect: database.Dialect(cfg.DBDriver),
		URL:     cfg.DatabaseURL,
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		Name:    cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := db.MigrateUp(); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		log.Info().Msg("migrations applied")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer rdb.Close()
	}

	// repositories
	identities := repository.NewIdentityRepo(db)
	orgs := repository.NewOrganizationRepo(db)
	industries := repository.NewIndustryRepo(db)
	perms := repository.NewPermissionRepo(db)
	invitations := repository.NewInvitationRepo(db)
	tokens := repository.NewTokenRepo(db)

	// services
	events := queue.NewPublisher(cfg.AMQPURL, log)
	auth := service.NewAuthService(identities, invitations, tokens, service.LogMailer{Log: log}, service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
		InviteTTL:      cfg.InviteTTL,
		SiteURL:        cfg.SiteURL,
	}, log)
	checker := service.NewDuplicateChecker(identities, orgs, log)
	owners := service.NewOwnerRegistration(auth, identities, orgs, industries, perms, events, log)
	staff := service.NewStaffInvitation(auth, events, log)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := queue.StartAuditConsumer(ctx, cfg.AMQPURL, "logs", log); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("audit consumer stopped")
		}
	}()
	go func() {
		defer wg.Done()
		h := &queue.CompensationHandler{
			Exec:        service.NewCompensator(identities, orgs),
			MaxAttempts: cfg.CompensationMaxAttempts,
			Log:         log,
			Backoff:     queue.DefaultBackoff,
		}
		if err := queue.StartCompensationConsumer(ctx, cfg.AMQPURL, h); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("compensation consumer stopped")
		}
	}()

	e := router.New(router.Deps{
		JWTSecret:    cfg.JWTSecret,
		Provisioning: handler.NewProvisioningHandler(checker, owners, staff),
		Auth:         handler.NewAuthHandler(auth),
		Account:      handler.NewAccountHandler(identities, perms),
		Industries:   industries,
		Perms:        perms,
		DB:           db,
		Redis:        rdb,
		RateLimit:    config.LoadRateLimitConfig(),
		Cache:        config.LoadCacheConfig(),
	}, middleware.RequestLogger(log), middleware.CORS(cfg.CORSOrigins))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(e, serviceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	wg.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
	log.Info().Msg("server stopped")
}
