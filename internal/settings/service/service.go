// Package service contains the sync schedule business logic.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"leadpilot_backend/internal/settings/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

// Retry bounds. Zero values fall back to the scheduler defaults.
const (
	maxRetryAttempts = 10
	maxRetryDelaySec = 3600
)

// Service implements api config use cases on top of the repository.
type Service struct {
	repo      repository.Repository
	log       *logger.Logger
	providers []string
}

// New creates a settings service. providers is the set of known provider
// names used to validate configs.
func New(repo repository.Repository, log *logger.Logger, providers []string) *Service {
	return &Service{repo: repo, log: log, providers: providers}
}

// Save validates and upserts a sync schedule.
func (s *Service) Save(ctx context.Context, cfg *repository.APIConfig) (*repository.APIConfig, error) {
	if cfg.UserID == uuid.Nil {
		return nil, apperr.Validation("user id is required")
	}
	if !s.knownProvider(cfg.Provider) {
		return nil, apperr.Validation("unknown provider: " + cfg.Provider)
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, apperr.Validation("invalid cron schedule: " + cfg.Schedule)
	}
	if cfg.RetryAttempts < 0 || cfg.RetryAttempts > maxRetryAttempts {
		return nil, apperr.Validation("retry attempts out of range")
	}
	if cfg.RetryDelaySec < 0 || cfg.RetryDelaySec > maxRetryDelaySec {
		return nil, apperr.Validation("retry delay out of range")
	}

	saved, err := s.repo.Upsert(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.log.Info("api config saved",
		"user_id", saved.UserID.String(),
		"provider", saved.Provider,
		"schedule", saved.Schedule,
		"enabled", saved.Enabled,
	)
	return saved, nil
}

// Get returns one schedule.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.APIConfig, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByUser returns a user's schedules.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*repository.APIConfig, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListEnabled returns every enabled schedule for the cron runner.
func (s *Service) ListEnabled(ctx context.Context) ([]*repository.APIConfig, error) {
	return s.repo.ListEnabled(ctx)
}

// RecordRun stores the outcome of a run attempt.
func (s *Service) RecordRun(ctx context.Context, id uuid.UUID, status, lastError string) error {
	return s.repo.SetLastRun(ctx, id, status, lastError)
}

// Delete removes one schedule.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *Service) knownProvider(name string) bool {
	for _, known := range s.providers {
		if name == known {
			return true
		}
	}
	return false
}
