// Package scheduler drives recurring lead synchronization: per-user cron
// schedules from the stored api configs, the nightly sweep over every user
// with credentials, and the asynq worker for tasks queued by the API.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	syncengine "leadpilot_backend/internal/sync"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/logger"

	"leadpilot_backend/internal/settings/repository"
)

// Syncer runs one user's synchronization. Ingestion only fills the lead
// pool; the match pass runs separately afterwards.
type Syncer interface {
	SyncLeadsForUser(ctx context.Context, userID uuid.UUID) (*syncengine.Report, error)
	MatchStoredLeads(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// ConfigStore is the slice of the settings service the runner needs.
type ConfigStore interface {
	ListEnabled(ctx context.Context) ([]*repository.APIConfig, error)
	RecordRun(ctx context.Context, id uuid.UUID, status, lastError string) error
}

// Runner owns the cron instance and the retry policy around each run.
type Runner struct {
	cron    *cron.Cron
	configs ConfigStore
	syncer  Syncer
	sweep   *Sweep
	log     *logger.Logger

	defaultAttempts int
	defaultDelay    time.Duration
	sweepSpec       string

	mu      sync.Mutex
	entries []cron.EntryID
	baseCtx context.Context
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRunner builds a runner in the configured timezone.
func NewRunner(cfg config.SchedulerConfig, configs ConfigStore, syncer Syncer, sweep *Sweep, log *logger.Logger) (*Runner, error) {
	loc, err := time.LoadLocation(cfg.GetDefaultTimezone())
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &Runner{
		cron:            cron.New(cron.WithLocation(loc)),
		configs:         configs,
		syncer:          syncer,
		sweep:           sweep,
		log:             log,
		defaultAttempts: cfg.GetRetryAttempts(),
		defaultDelay:    cfg.GetRetryDelay(),
		sweepSpec:       cfg.GetSweepSpec(),
		sleep:           sleepCtx,
	}, nil
}

// Start installs the stored schedules plus the daily sweep and starts the
// cron loop. ctx bounds every triggered run.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	r.baseCtx = ctx
	r.mu.Unlock()

	if err := r.installLocked(ctx); err != nil {
		return err
	}
	r.cron.Start()
	r.log.Info("scheduler started", "sweep", r.sweepSpec)
	return nil
}

// Reconfigure drops every installed job and reinstalls from the stored
// configs. Called when an admin changes a schedule.
func (r *Runner) Reconfigure(ctx context.Context) error {
	r.mu.Lock()
	for _, id := range r.entries {
		r.cron.Remove(id)
	}
	r.entries = nil
	base := r.baseCtx
	r.mu.Unlock()

	if base == nil {
		base = ctx
	}
	if err := r.installLocked(base); err != nil {
		return err
	}
	r.log.Info("scheduler reconfigured")
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Runner) installLocked(ctx context.Context) error {
	configs, err := r.configs.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("load sync schedules: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cfg := range configs {
		cfg := cfg
		id, err := r.cron.AddFunc(cfg.Schedule, func() {
			r.RunConfig(ctx, cfg)
		})
		if err != nil {
			r.log.Warn("skipping invalid schedule",
				"config_id", cfg.ID.String(),
				"schedule", cfg.Schedule,
				"error", err.Error(),
			)
			continue
		}
		r.entries = append(r.entries, id)
	}

	if r.sweep != nil && r.sweepSpec != "" {
		id, err := r.cron.AddFunc(r.sweepSpec, func() {
			r.sweep.Run(ctx)
		})
		if err != nil {
			return fmt.Errorf("install sweep schedule %q: %w", r.sweepSpec, err)
		}
		r.entries = append(r.entries, id)
	}

	r.log.Info("schedules installed", "count", len(r.entries))
	return nil
}

// RunConfig executes one scheduled sync with the config's retry policy.
// Each attempt is recorded on the config; when the budget runs out the
// final state is error and the returned error reports exhaustion.
func (r *Runner) RunConfig(ctx context.Context, cfg *repository.APIConfig) error {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = r.defaultAttempts
	}
	delay := time.Duration(cfg.RetryDelaySec) * time.Second
	if delay <= 0 {
		delay = r.defaultDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		r.log.SchedulerEvent(repository.RunStatusPending, cfg.ID.String(), attempt)

		_, err := r.syncer.SyncLeadsForUser(ctx, cfg.UserID)
		if err == nil {
			if _, merr := r.syncer.MatchStoredLeads(ctx, cfg.UserID, time.Time{}); merr != nil {
				r.log.Warn("match pass failed after scheduled sync",
					"config_id", cfg.ID.String(),
					"error", merr.Error(),
				)
			}
			r.recordRun(ctx, cfg.ID, repository.RunStatusSuccess, "")
			r.log.SchedulerEvent(repository.RunStatusSuccess, cfg.ID.String(), attempt)
			return nil
		}
		lastErr = err
		r.log.Warn("scheduled sync attempt failed",
			"config_id", cfg.ID.String(),
			"attempt", attempt,
			"error", err.Error(),
		)

		if attempt < attempts {
			if err := r.sleep(ctx, delay); err != nil {
				break
			}
		}
	}

	r.recordRun(ctx, cfg.ID, repository.RunStatusError, lastErr.Error())
	r.log.SchedulerEvent(repository.RunStatusError, cfg.ID.String(), attempts)
	return apperr.Exhausted(fmt.Sprintf("sync retries exhausted for config %s", cfg.ID), lastErr)
}

func (r *Runner) recordRun(ctx context.Context, id uuid.UUID, status, lastError string) {
	if err := r.configs.RecordRun(ctx, id, status, lastError); err != nil {
		r.log.Warn("record run failed", "config_id", id.String(), "error", err.Error())
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
