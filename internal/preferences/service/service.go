// Package service contains the preferences business logic.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/preferences/domain"
	"leadpilot_backend/internal/preferences/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

// Service implements preference use cases on top of the repository.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a preferences service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Save validates and upserts a user's preference document. Weight and
// threshold fields are clamped to [0,100] individually; weights are allowed
// to sum past 100 because the final score is clamped, not the inputs.
func (s *Service) Save(ctx context.Context, pref *domain.Preference) (*domain.Preference, error) {
	if pref.UserID == uuid.Nil {
		return nil, apperr.Validation("user id is required")
	}
	if pref.Triggers.Timeframe != 0 && !domain.ValidTimeframe(pref.Triggers.Timeframe) {
		return nil, apperr.Validation(fmt.Sprintf("invalid trigger timeframe: %d months", pref.Triggers.Timeframe))
	}
	if pref.Notifications.Frequency == "" {
		pref.Notifications.Frequency = domain.FrequencyInstant
	}
	if zeroScoring(pref.Scoring) {
		pref.Scoring = domain.DefaultScoring()
	}
	pref.Scoring.Normalize()
	pref.Notifications.MinScore = domain.ClampPercent(pref.Notifications.MinScore)

	saved, err := s.repo.Upsert(ctx, pref)
	if err != nil {
		return nil, err
	}
	s.log.Info("preferences saved",
		"user_id", saved.UserID.String(),
		"providers", len(saved.ConfiguredProviders()),
	)
	return saved, nil
}

// Get returns a user's preferences.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.Preference, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Delete removes a user's preferences.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info("preferences deleted", "user_id", userID.String())
	return nil
}

// UpdateStats replaces the running sync statistics for a user. The sync
// timestamp is stamped here so every persisted update reflects when it
// actually happened, whatever the caller left in the struct.
func (s *Service) UpdateStats(ctx context.Context, userID uuid.UUID, stats domain.Stats) error {
	stats.LastSync = time.Now().UTC()
	return s.repo.UpdateStats(ctx, userID, stats)
}

// ListWithAPIKeys returns every preference document that has at least one
// provider credential. Used by the daily sweep.
func (s *Service) ListWithAPIKeys(ctx context.Context) ([]*domain.Preference, error) {
	return s.repo.ListWithAPIKeys(ctx)
}

func zeroScoring(sc domain.Scoring) bool {
	return sc.Weights == (domain.Weights{}) && sc.Thresholds == (domain.Thresholds{})
}
