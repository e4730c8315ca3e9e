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

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"leadpilot_backend/internal/companies"
	"leadpilot_backend/internal/email"
	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/http/router"
	"leadpilot_backend/internal/identity"
	"leadpilot_backend/internal/leads"
	"leadpilot_backend/internal/notification"
	"leadpilot_backend/internal/preferences"
	"leadpilot_backend/internal/scheduler"
	"leadpilot_backend/internal/settings"
	"leadpilot_backend/internal/sources"
	syncmod "leadpilot_backend/internal/sync"
	"leadpilot_backend/internal/tracking"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/db"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"
	"leadpilot_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting api server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	sender, err := email.NewSender(cfg, log)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Manual syncs are queued to the scheduler binary when redis is
	// configured; without it the sync endpoint runs inline.
	var enqueuer scheduler.SyncEnqueuer
	if cfg.GetRedisURL() != "" {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize task queue client", "error", err)
			panic("failed to initialize task queue client: " + err.Error())
		}
		defer client.Close()
		enqueuer = client
	} else {
		log.Warn("REDIS_URL not configured; manual syncs run inline")
	}

	registry := sources.NewRegistry(log)
	limiter := sources.NewLimiter(cfg.GetProviderRateBudget(), time.Minute)

	identityModule := identity.NewModule(pool, cfg, val, log)
	preferencesModule := preferences.NewModule(pool, val, log)
	leadsModule := leads.NewModule(pool, log)
	trackingModule := tracking.NewModule(pool, val, log, cfg)
	companiesModule := companies.NewModule(pool, val)
	settingsModule := settings.NewModule(pool, val, log, registry.Names(), enqueuer)

	engine := syncmod.NewEngine(
		registry,
		limiter,
		preferencesModule.Service(),
		leadsModule.Service(),
		trackingModule.Service(),
		eventBus,
		log,
		cfg,
	)
	syncModule := syncmod.NewModule(engine, enqueuer, registry, log)

	notificationModule := notification.NewModule(
		pool,
		eventBus,
		sender,
		preferencesModule.Service(),
		identityModule.Service(),
		trackingModule.Repository(),
		log,
	)
	defer notificationModule.Close()

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			identityModule,
			preferencesModule,
			leadsModule,
			trackingModule,
			companiesModule,
			settingsModule,
			syncModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("server stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
