// Package tasks defines the asynq task contract shared by the scheduler
// and the HTTP surfaces that enqueue work for it. It is a leaf package so
// internal/sync can enqueue tasks without importing internal/scheduler.
package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskSyncUser runs a full provider sync for one user.
const TaskSyncUser = "sync.user"

// TaskReloadSchedules reinstalls the cron jobs from the stored api configs.
const TaskReloadSchedules = "scheduler.reload"

// SyncUserPayload identifies the user and, when triggered by a stored
// schedule, the config that fired.
type SyncUserPayload struct {
	UserID   string `json:"userId"`
	ConfigID string `json:"configId,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// SyncEnqueuer is the slice of the client the sync HTTP surface needs.
type SyncEnqueuer interface {
	EnqueueSyncUser(ctx context.Context, payload SyncUserPayload) error
	EnqueueReloadSchedules(ctx context.Context) error
}

// NewSyncUserTask builds an asynq task for a user sync.
func NewSyncUserTask(payload SyncUserPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSyncUser, data), nil
}

// ParseSyncUserPayload decodes a sync.user task payload.
func ParseSyncUserPayload(task *asynq.Task) (SyncUserPayload, error) {
	var payload SyncUserPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SyncUserPayload{}, err
	}
	return payload, nil
}

// NewReloadSchedulesTask builds an asynq task for a schedule reload.
func NewReloadSchedulesTask() *asynq.Task {
	return asynq.NewTask(TaskReloadSchedules, nil)
}
