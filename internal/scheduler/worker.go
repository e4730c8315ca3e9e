package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/logger"
)

// Worker consumes scheduler tasks from the asynq queue. It runs inside the
// scheduler binary next to the cron runner.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	syncer Syncer
	runner *Runner
	log    *logger.Logger
}

// NewWorker creates the asynq server and registers the task handlers.
func NewWorker(cfg config.SchedulerConfig, syncer Syncer, runner *Runner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		syncer: syncer,
		runner: runner,
		log:    log,
	}

	mux.HandleFunc(TaskSyncUser, w.handleSyncUser)
	mux.HandleFunc(TaskReloadSchedules, w.handleReloadSchedules)

	return w, nil
}

func (w *Worker) handleSyncUser(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSyncUserPayload(task)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id in sync task: %w", err)
	}

	w.log.Info("manual sync requested", "user_id", payload.UserID, "reason", payload.Reason)
	report, err := w.syncer.SyncLeadsForUser(ctx, userID)
	if err != nil {
		return err
	}
	matched, err := w.syncer.MatchStoredLeads(ctx, userID, time.Time{})
	if err != nil {
		w.log.Warn("match pass failed after manual sync", "user_id", payload.UserID, "error", err.Error())
	}
	w.log.Info("manual sync finished",
		"user_id", payload.UserID,
		"total", report.Total,
		"qualified", report.Qualified,
		"matched", matched,
	)
	return nil
}

func (w *Worker) handleReloadSchedules(ctx context.Context, _ *asynq.Task) error {
	if w.runner == nil {
		return nil
	}
	return w.runner.Reconfigure(ctx)
}

// Run serves tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
