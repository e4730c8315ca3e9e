package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/preferences/domain"
	"leadpilot_backend/platform/logger"
)

type fakeRepo struct {
	saved *domain.Preference
	stats map[uuid.UUID]domain.Stats
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stats: make(map[uuid.UUID]domain.Stats)}
}

func (f *fakeRepo) Upsert(_ context.Context, pref *domain.Preference) (*domain.Preference, error) {
	f.saved = pref
	return pref, nil
}

func (f *fakeRepo) GetByUserID(_ context.Context, _ uuid.UUID) (*domain.Preference, error) {
	return f.saved, nil
}

func (f *fakeRepo) UpdateStats(_ context.Context, userID uuid.UUID, stats domain.Stats) error {
	f.stats[userID] = stats
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeRepo) ListWithAPIKeys(_ context.Context) ([]*domain.Preference, error) {
	return nil, nil
}

func TestSaveAppliesDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.New("test"))

	saved, err := svc.Save(context.Background(), &domain.Preference{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Notifications.Frequency != domain.FrequencyInstant {
		t.Fatalf("expected instant frequency default, got %q", saved.Notifications.Frequency)
	}
	if saved.Scoring.Weights != domain.DefaultScoring().Weights {
		t.Fatalf("expected default scoring weights, got %+v", saved.Scoring.Weights)
	}
}

func TestSaveRejectsMissingUser(t *testing.T) {
	svc := New(newFakeRepo(), logger.New("test"))
	if _, err := svc.Save(context.Background(), &domain.Preference{}); err == nil {
		t.Fatal("expected validation error for missing user id")
	}
}

func TestUpdateStatsStampsLastSync(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.New("test"))
	userID := uuid.New()

	before := time.Now().Add(-time.Second)
	// a zero LastSync from the caller must not survive persistence
	if err := svc.UpdateStats(context.Background(), userID, domain.Stats{TotalLeads: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	persisted := repo.stats[userID]
	if persisted.TotalLeads != 3 {
		t.Fatalf("expected counters preserved, got %+v", persisted)
	}
	if persisted.LastSync.Before(before) {
		t.Fatalf("expected last sync stamped at write time, got %v", persisted.LastSync)
	}

	stale := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := svc.UpdateStats(context.Background(), userID, domain.Stats{LastSync: stale}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.stats[userID].LastSync.Equal(stale) {
		t.Fatal("a caller-provided timestamp must be overwritten")
	}
}
