package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadpilot_backend/internal/email"
	identityrepo "leadpilot_backend/internal/identity/repository"
	identityservice "leadpilot_backend/internal/identity/service"
	leadrepo "leadpilot_backend/internal/leads/repository"
	leadservice "leadpilot_backend/internal/leads/service"
	notifrepo "leadpilot_backend/internal/notification/repository"
	notifservice "leadpilot_backend/internal/notification/service"
	"leadpilot_backend/internal/notification/sse"
	prefrepo "leadpilot_backend/internal/preferences/repository"
	prefservice "leadpilot_backend/internal/preferences/service"
	"leadpilot_backend/internal/scheduler"
	settingsrepo "leadpilot_backend/internal/settings/repository"
	settingsservice "leadpilot_backend/internal/settings/service"
	"leadpilot_backend/internal/sources"
	syncengine "leadpilot_backend/internal/sync"
	trackrepo "leadpilot_backend/internal/tracking/repository"
	trackservice "leadpilot_backend/internal/tracking/service"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/db"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "timezone", cfg.DefaultTimezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg, log)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Worker-side services (no HTTP handlers required).
	prefSvc := prefservice.New(prefrepo.New(pool), log)
	leadSvc := leadservice.New(leadrepo.New(pool), log)
	trackRepo := trackrepo.New(pool)
	trackSvc := trackservice.New(trackRepo, log, cfg.GetStrictTransitions())
	identitySvc := identityservice.New(identityrepo.New(pool), cfg, log)

	registry := sources.NewRegistry(log)
	limiter := sources.NewLimiter(cfg.GetProviderRateBudget(), time.Minute)

	engine := syncengine.NewEngine(registry, limiter, prefSvc, leadSvc, trackSvc, eventBus, log, cfg)

	// Scheduled syncs emit the same notifications as manual ones, so the
	// emitter subscribes here too. The SSE hub stays empty in this binary.
	stream := sse.New()
	defer stream.Close()
	notifSvc := notifservice.New(notifrepo.New(pool), stream, sender, prefSvc, identitySvc, trackRepo, log)
	notifSvc.Subscribe(eventBus)

	settingsSvc := settingsservice.New(settingsrepo.New(pool), log, registry.Names())

	sweep := scheduler.NewSweep(prefSvc, identitySvc, engine, eventBus, log, cfg.GetSweepUserDelay())
	runner, err := scheduler.NewRunner(cfg, settingsSvc, engine, sweep, log)
	if err != nil {
		log.Error("failed to initialize cron runner", "error", err)
		panic("failed to initialize cron runner: " + err.Error())
	}
	if err := runner.Start(ctx); err != nil {
		log.Error("failed to start cron runner", "error", err)
		panic("failed to start cron runner: " + err.Error())
	}
	defer runner.Stop()

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; manual sync tasks disabled, cron schedules only")
		<-ctx.Done()
		log.Info("scheduler stopped")
		return
	}

	worker, err := scheduler.NewWorker(cfg, engine, runner, log)
	if err != nil {
		log.Error("failed to initialize task worker", "error", err)
		panic("failed to initialize task worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("scheduler stopped")
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
