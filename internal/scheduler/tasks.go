package scheduler

import (
	"github.com/hibiken/asynq"

	"leadpilot_backend/internal/scheduler/tasks"
)

// The task contract lives in the leaf package internal/scheduler/tasks so
// HTTP surfaces can enqueue work without importing this package. These
// aliases keep the scheduler-side names stable.

// TaskSyncUser runs a full provider sync for one user.
const TaskSyncUser = tasks.TaskSyncUser

// TaskReloadSchedules reinstalls the cron jobs from the stored api configs.
const TaskReloadSchedules = tasks.TaskReloadSchedules

// SyncUserPayload identifies the user and, when triggered by a stored
// schedule, the config that fired.
type SyncUserPayload = tasks.SyncUserPayload

// SyncEnqueuer is the slice of the client the sync HTTP surface needs.
type SyncEnqueuer = tasks.SyncEnqueuer

// NewSyncUserTask builds an asynq task for a user sync.
func NewSyncUserTask(payload SyncUserPayload) (*asynq.Task, error) {
	return tasks.NewSyncUserTask(payload)
}

// ParseSyncUserPayload decodes a sync.user task payload.
func ParseSyncUserPayload(task *asynq.Task) (SyncUserPayload, error) {
	return tasks.ParseSyncUserPayload(task)
}

// NewReloadSchedulesTask builds an asynq task for a schedule reload.
func NewReloadSchedulesTask() *asynq.Task {
	return tasks.NewReloadSchedulesTask()
}
