package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	prefdomain "leadpilot_backend/internal/preferences/domain"
	"leadpilot_backend/internal/settings/repository"
	syncengine "leadpilot_backend/internal/sync"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"
)

type fakeSyncer struct {
	calls     int
	failures  int // fail this many calls, then succeed
	failFor   map[uuid.UUID]bool
	synced    []uuid.UUID
	rematched []uuid.UUID
}

func (f *fakeSyncer) SyncLeadsForUser(_ context.Context, userID uuid.UUID) (*syncengine.Report, error) {
	f.calls++
	f.synced = append(f.synced, userID)
	if f.failFor[userID] {
		return nil, errors.New("provider down")
	}
	if f.calls <= f.failures {
		return nil, errors.New("provider down")
	}
	return &syncengine.Report{UserID: userID}, nil
}

func (f *fakeSyncer) MatchStoredLeads(_ context.Context, userID uuid.UUID, _ time.Time) (int, error) {
	f.rematched = append(f.rematched, userID)
	return 0, nil
}

type fakeConfigs struct {
	enabled []*repository.APIConfig
	runs    []string
}

func (f *fakeConfigs) ListEnabled(_ context.Context) ([]*repository.APIConfig, error) {
	return f.enabled, nil
}

func (f *fakeConfigs) RecordRun(_ context.Context, _ uuid.UUID, status, _ string) error {
	f.runs = append(f.runs, status)
	return nil
}

type runnerConfig struct{}

func (runnerConfig) GetRedisURL() string              { return "redis://localhost:6379" }
func (runnerConfig) GetRedisTLSInsecure() bool        { return false }
func (runnerConfig) GetAsynqQueueName() string        { return "leadpilot" }
func (runnerConfig) GetAsynqConcurrency() int         { return 5 }
func (runnerConfig) GetDefaultTimezone() string       { return "Asia/Kolkata" }
func (runnerConfig) GetSweepSpec() string             { return "0 2 * * *" }
func (runnerConfig) GetSweepUserDelay() time.Duration { return time.Second }
func (runnerConfig) GetRetryAttempts() int            { return 3 }
func (runnerConfig) GetRetryDelay() time.Duration     { return 5 * time.Minute }

func newTestRunner(t *testing.T, configs *fakeConfigs, syncer Syncer) *Runner {
	t.Helper()
	runner, err := NewRunner(runnerConfig{}, configs, syncer, nil, logger.New("test"))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	runner.sleep = func(_ context.Context, _ time.Duration) error { return nil }
	return runner
}

func testConfig(userID uuid.UUID) *repository.APIConfig {
	return &repository.APIConfig{
		ID:       uuid.New(),
		UserID:   userID,
		Provider: "demo1",
		Schedule: "*/30 * * * *",
		Enabled:  true,
	}
}

func TestRunConfigSucceedsFirstAttempt(t *testing.T) {
	configs := &fakeConfigs{}
	syncer := &fakeSyncer{}
	runner := newTestRunner(t, configs, syncer)

	if err := runner.RunConfig(context.Background(), testConfig(uuid.New())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if syncer.calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", syncer.calls)
	}
	if len(configs.runs) != 1 || configs.runs[0] != repository.RunStatusSuccess {
		t.Fatalf("expected success recorded, got %v", configs.runs)
	}
	if len(syncer.rematched) != 1 {
		t.Fatal("expected the match pass to follow the successful sync")
	}
}

func TestRunConfigRetriesThenSucceeds(t *testing.T) {
	configs := &fakeConfigs{}
	syncer := &fakeSyncer{failures: 2}
	runner := newTestRunner(t, configs, syncer)

	if err := runner.RunConfig(context.Background(), testConfig(uuid.New())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if syncer.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", syncer.calls)
	}
	if configs.runs[len(configs.runs)-1] != repository.RunStatusSuccess {
		t.Fatalf("expected final success, got %v", configs.runs)
	}
}

func TestRunConfigExhaustsRetryBudget(t *testing.T) {
	configs := &fakeConfigs{}
	syncer := &fakeSyncer{failures: 100}
	runner := newTestRunner(t, configs, syncer)

	err := runner.RunConfig(context.Background(), testConfig(uuid.New()))
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if apperr.GetKind(err) != apperr.KindExhausted {
		t.Fatalf("expected exhausted kind, got %v", err)
	}
	if syncer.calls != 3 {
		t.Fatalf("expected default 3 attempts, got %d", syncer.calls)
	}
	if configs.runs[len(configs.runs)-1] != repository.RunStatusError {
		t.Fatalf("expected error recorded, got %v", configs.runs)
	}
}

func TestRunConfigHonorsPerConfigRetryPolicy(t *testing.T) {
	configs := &fakeConfigs{}
	syncer := &fakeSyncer{failures: 100}
	runner := newTestRunner(t, configs, syncer)

	cfg := testConfig(uuid.New())
	cfg.RetryAttempts = 5

	if err := runner.RunConfig(context.Background(), cfg); err == nil {
		t.Fatal("expected exhaustion error")
	}
	if syncer.calls != 5 {
		t.Fatalf("expected 5 attempts, got %d", syncer.calls)
	}
}

type sweepPrefs struct {
	prefs []*prefdomain.Preference
}

func (s *sweepPrefs) ListWithAPIKeys(_ context.Context) ([]*prefdomain.Preference, error) {
	return s.prefs, nil
}

type sweepUsers struct {
	active []uuid.UUID
}

func (s *sweepUsers) ListActiveIDs(_ context.Context) ([]uuid.UUID, error) {
	return s.active, nil
}

// allActive marks every preference owner as an enabled account.
func allActive(prefs *sweepPrefs) *sweepUsers {
	users := &sweepUsers{}
	for _, pref := range prefs.prefs {
		users.active = append(users.active, pref.UserID)
	}
	return users
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}
func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *captureBus) Subscribe(_ string, _ events.Handler) {}

func TestSweepContinuesPastFailingUser(t *testing.T) {
	user1, user2, user3 := uuid.New(), uuid.New(), uuid.New()
	prefs := &sweepPrefs{prefs: []*prefdomain.Preference{
		{UserID: user1},
		{UserID: user2},
		{UserID: user3},
	}}
	syncer := &fakeSyncer{failFor: map[uuid.UUID]bool{user2: true}}
	bus := &captureBus{}

	sweep := NewSweep(prefs, allActive(prefs), syncer, bus, logger.New("test"), time.Second)
	sweep.sleep = func(_ context.Context, _ time.Duration) error { return nil }
	sweep.Run(context.Background())

	if len(syncer.synced) != 3 {
		t.Fatalf("expected all 3 users visited, got %d", len(syncer.synced))
	}
	if syncer.synced[2] != user3 {
		t.Fatal("third user should still be visited after the second failed")
	}
	if len(syncer.rematched) != 2 {
		t.Fatalf("expected match pass for the 2 successful users, got %d", len(syncer.rematched))
	}
	if len(bus.published) != 1 || bus.published[0].EventName() != "scheduler.sweep.completed" {
		t.Fatalf("expected sweep completion event, got %v", bus.published)
	}
}

func TestSweepStopsOnCancellation(t *testing.T) {
	prefs := &sweepPrefs{prefs: []*prefdomain.Preference{
		{UserID: uuid.New()},
		{UserID: uuid.New()},
	}}
	syncer := &fakeSyncer{}
	ctx, cancel := context.WithCancel(context.Background())

	sweep := NewSweep(prefs, allActive(prefs), syncer, nil, logger.New("test"), time.Second)
	sweep.sleep = func(_ context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}
	sweep.Run(ctx)

	if len(syncer.synced) != 1 {
		t.Fatalf("expected sweep to stop after cancellation, visited %d", len(syncer.synced))
	}
}

func TestSweepSkipsDeactivatedUsers(t *testing.T) {
	activeUser, disabledUser := uuid.New(), uuid.New()
	prefs := &sweepPrefs{prefs: []*prefdomain.Preference{
		{UserID: activeUser},
		{UserID: disabledUser},
	}}
	syncer := &fakeSyncer{}

	sweep := NewSweep(prefs, &sweepUsers{active: []uuid.UUID{activeUser}}, syncer, nil, logger.New("test"), 0)
	sweep.Run(context.Background())

	if len(syncer.synced) != 1 || syncer.synced[0] != activeUser {
		t.Fatalf("expected only the active user synced, got %v", syncer.synced)
	}
}
