// Package service contains the lead tracking business logic.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/scoring"
	"leadpilot_backend/internal/tracking/domain"
	"leadpilot_backend/internal/tracking/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

// trendingWindow is how far back the trending report looks.
const trendingWindow = 30 * 24 * time.Hour

// Service implements tracking use cases on top of the repository.
type Service struct {
	repo   repository.Repository
	log    *logger.Logger
	strict bool
}

// New creates a tracking service. strict enables the forward-only status
// lifecycle; the default is the permissive lifecycle.
func New(repo repository.Repository, log *logger.Logger, strict bool) *Service {
	return &Service{repo: repo, log: log, strict: strict}
}

// CreateMatch records a matched lead for a user. Score is bounded to
// [0,100] and priority is derived when absent.
func (s *Service) CreateMatch(ctx context.Context, tracking *domain.Tracking) (*domain.Tracking, error) {
	if tracking.UserID == uuid.Nil || tracking.LeadID == uuid.Nil {
		return nil, apperr.Validation("user id and lead id are required")
	}
	if tracking.Score < 0 || tracking.Score > 100 {
		return nil, apperr.Validation("score must be between 0 and 100")
	}
	if tracking.Priority == "" {
		tracking.Priority = scoring.PriorityFor(tracking.Score)
	}
	return s.repo.CreateMatch(ctx, tracking)
}

// Get returns one tracking record owned by the user.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Tracking, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// UpdateStatus transitions a tracking record through its lifecycle. The
// change and its audit action are atomic.
func (s *Service) UpdateStatus(ctx context.Context, userID, id uuid.UUID, to domain.Status, note string) (*domain.Tracking, error) {
	if !to.Valid() {
		return nil, apperr.Validation("unknown status: " + string(to))
	}
	tracking, err := s.repo.UpdateStatus(ctx, userID, id, to, note, s.strict)
	if err != nil {
		return nil, err
	}
	s.log.Info("tracking status updated",
		"tracking_id", id.String(),
		"user_id", userID.String(),
		"status", string(to),
	)
	return tracking, nil
}

// AddAction appends an activity entry to a tracking record.
func (s *Service) AddAction(ctx context.Context, userID, trackingID uuid.UUID, actionType domain.ActionType, note string) (*domain.Action, error) {
	if !actionType.Valid() {
		return nil, apperr.Validation("unknown action type: " + string(actionType))
	}
	if actionType == domain.ActionStatusChange {
		return nil, apperr.Validation("status change actions are recorded automatically")
	}
	return s.repo.AddAction(ctx, userID, &domain.Action{
		TrackingID:  trackingID,
		Type:        actionType,
		Note:        note,
		PerformedBy: userID,
	})
}

// ListActions returns the activity log for a tracking record.
func (s *Service) ListActions(ctx context.Context, userID, trackingID uuid.UUID) ([]*domain.Action, error) {
	return s.repo.ListActions(ctx, userID, trackingID)
}

// List returns a filtered page of the user's tracking records.
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter repository.ListFilter) ([]*domain.Tracking, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperr.Validation("unknown status filter: " + string(filter.Status))
	}
	return s.repo.ListByUser(ctx, userID, filter)
}

// Stats returns the user's pipeline aggregate.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*domain.Stats, error) {
	return s.repo.StatsByUser(ctx, userID)
}

// Trending returns the user's top matches of the last 30 days, best score
// first.
func (s *Service) Trending(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.TrendingEntry, error) {
	return s.repo.Trending(ctx, userID, time.Now().Add(-trendingWindow), limit)
}

// Delete removes a tracking record.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}
