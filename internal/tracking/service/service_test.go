package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/scoring"
	"leadpilot_backend/internal/tracking/domain"
	"leadpilot_backend/internal/tracking/repository"
	"leadpilot_backend/platform/logger"
)

type fakeRepo struct {
	action       *domain.Action
	filter       repository.ListFilter
	trendingUser uuid.UUID
	trendingFrom time.Time
}

func (f *fakeRepo) CreateMatch(_ context.Context, tracking *domain.Tracking) (*domain.Tracking, error) {
	tracking.ID = uuid.New()
	return tracking, nil
}

func (f *fakeRepo) GetByID(_ context.Context, _, _ uuid.UUID) (*domain.Tracking, error) {
	return nil, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, _, _ uuid.UUID, _ domain.Status, _ string, _ bool) (*domain.Tracking, error) {
	return &domain.Tracking{}, nil
}

func (f *fakeRepo) AddAction(_ context.Context, _ uuid.UUID, action *domain.Action) (*domain.Action, error) {
	f.action = action
	return action, nil
}

func (f *fakeRepo) AddNotification(_ context.Context, _ *domain.Notification) error { return nil }

func (f *fakeRepo) ListByUser(_ context.Context, _ uuid.UUID, filter repository.ListFilter) ([]*domain.Tracking, int, error) {
	f.filter = filter
	return nil, 0, nil
}

func (f *fakeRepo) ListActions(_ context.Context, _, _ uuid.UUID) ([]*domain.Action, error) {
	return nil, nil
}

func (f *fakeRepo) StatsByUser(_ context.Context, _ uuid.UUID) (*domain.Stats, error) {
	return nil, nil
}

func (f *fakeRepo) Trending(_ context.Context, userID uuid.UUID, since time.Time, _ int) ([]*domain.TrendingEntry, error) {
	f.trendingUser = userID
	f.trendingFrom = since
	return nil, nil
}

func (f *fakeRepo) Delete(_ context.Context, _, _ uuid.UUID) error { return nil }

func newTestService(repo *fakeRepo) *Service {
	return New(repo, logger.New("test"), false)
}

func TestAddActionAttributesActor(t *testing.T) {
	repo := &fakeRepo{}
	userID := uuid.New()

	action, err := newTestService(repo).AddAction(context.Background(), userID, uuid.New(), domain.ActionNote, "called them")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action.PerformedBy != userID {
		t.Fatalf("expected action attributed to %s, got %s", userID, action.PerformedBy)
	}
}

func TestAddActionRejectsStatusChangeType(t *testing.T) {
	if _, err := newTestService(&fakeRepo{}).AddAction(context.Background(), uuid.New(), uuid.New(), domain.ActionStatusChange, ""); err == nil {
		t.Fatal("status change actions must only come from UpdateStatus")
	}
}

func TestListPassesScoreBounds(t *testing.T) {
	repo := &fakeRepo{}

	_, _, err := newTestService(repo).List(context.Background(), uuid.New(), repository.ListFilter{MinScore: 40, MaxScore: 80})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.filter.MinScore != 40 || repo.filter.MaxScore != 80 {
		t.Fatalf("expected score bounds forwarded, got %+v", repo.filter)
	}
}

func TestTrendingIsScopedToUser(t *testing.T) {
	repo := &fakeRepo{}
	userID := uuid.New()

	if _, err := newTestService(repo).Trending(context.Background(), userID, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.trendingUser != userID {
		t.Fatalf("expected trending scoped to %s, got %s", userID, repo.trendingUser)
	}
	cutoff := time.Now().Add(-trendingWindow)
	if repo.trendingFrom.After(cutoff.Add(time.Minute)) || repo.trendingFrom.Before(cutoff.Add(-time.Minute)) {
		t.Fatalf("expected a 30 day window, got since=%v", repo.trendingFrom)
	}
}

func TestCreateMatchDerivesPriority(t *testing.T) {
	repo := &fakeRepo{}

	saved, err := newTestService(repo).CreateMatch(context.Background(), &domain.Tracking{
		UserID: uuid.New(),
		LeadID: uuid.New(),
		Score:  85,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Priority != scoring.PriorityHigh {
		t.Fatalf("expected high priority derived from score 85, got %s", saved.Priority)
	}
}
