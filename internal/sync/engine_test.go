package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	leaddomain "leadpilot_backend/internal/leads/domain"
	prefdomain "leadpilot_backend/internal/preferences/domain"
	"leadpilot_backend/internal/sources"
	trackdomain "leadpilot_backend/internal/tracking/domain"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"
)

type fakeAdapter struct {
	name  string
	leads []sources.Lead
	err   error
	calls int
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Fetch(_ context.Context, _ sources.Request) ([]sources.Lead, error) {
	a.calls++
	return a.leads, a.err
}

type fakeAdapters struct {
	byName map[string]*fakeAdapter
}

func (f *fakeAdapters) Get(name string) (sources.Adapter, error) {
	adapter, ok := f.byName[name]
	if !ok {
		return nil, apperr.Validation("unknown provider: " + name)
	}
	return adapter, nil
}

type fakePrefs struct {
	pref  *prefdomain.Preference
	stats *prefdomain.Stats
}

func (f *fakePrefs) Get(_ context.Context, _ uuid.UUID) (*prefdomain.Preference, error) {
	return f.pref, nil
}

func (f *fakePrefs) UpdateStats(_ context.Context, _ uuid.UUID, stats prefdomain.Stats) error {
	f.stats = &stats
	return nil
}

type fakeLeads struct {
	stored []sources.Lead
	pool   []*leaddomain.Lead
}

func (f *fakeLeads) Store(_ context.Context, src sources.Lead) (*leaddomain.Lead, bool, error) {
	f.stored = append(f.stored, src)
	return &leaddomain.Lead{
		ID:           uuid.New(),
		Name:         src.Name,
		Website:      src.Website,
		Industry:     src.Industry,
		CompanySize:  sources.EmployeeBucket(src.EmployeeCount),
		RevenueRange: sources.RevenueBucket(src.AnnualRevenue),
		City:         src.City,
		Country:      src.Country,
		Technologies: src.Technologies,
		Provider:     src.Provider,
	}, true, nil
}

func (f *fakeLeads) ListSince(_ context.Context, _ time.Time, _ int) ([]*leaddomain.Lead, error) {
	return f.pool, nil
}

type fakeMatches struct {
	created []*trackdomain.Tracking
	seen    map[string]bool
}

func (f *fakeMatches) CreateMatch(_ context.Context, tracking *trackdomain.Tracking) (*trackdomain.Tracking, error) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	key := tracking.UserID.String() + tracking.LeadID.String()
	if f.seen[key] {
		return nil, apperr.Conflict("lead already matched for this user")
	}
	f.seen[key] = true
	tracking.ID = uuid.New()
	f.created = append(f.created, tracking)
	return tracking, nil
}

type nopBus struct {
	published []events.Event
}

func (b *nopBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}
func (b *nopBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *nopBus) Subscribe(_ string, _ events.Handler) {}

type testConfig struct{}

func (testConfig) GetSyncDeadline() time.Duration { return time.Minute }

func testPreference(userID uuid.UUID, providers ...string) *prefdomain.Preference {
	keys := make(map[string]string)
	for _, p := range providers {
		keys[p] = "key-" + p
	}
	return &prefdomain.Preference{
		UserID: userID,
		Business: prefdomain.Business{
			Industries:   []string{"Software"},
			CompanySizes: []string{"11-50"},
			Technologies: []string{"React"},
		},
		Geographic: prefdomain.Geographic{Cities: []string{"Austin"}},
		Scoring:    prefdomain.DefaultScoring(),
		API:        prefdomain.APISettings{Keys: keys},
	}
}

func newTestEngine(adapters *fakeAdapters, prefs *fakePrefs, leads *fakeLeads, matches *fakeMatches, bus *nopBus) *Engine {
	return NewEngine(
		adapters,
		sources.NewLimiter(100, time.Minute),
		prefs, leads, matches, bus,
		logger.New("test"),
		testConfig{},
	)
}

func matchingLead(provider, name string) sources.Lead {
	return sources.Lead{
		Provider:      provider,
		Name:          name,
		Website:       "https://" + name + ".io",
		Industry:      "Software",
		EmployeeCount: 30,
		City:          "Austin",
	}
}

func TestSyncScoresAndFiltersReport(t *testing.T) {
	userID := uuid.New()
	strong := matchingLead("demo1", "stellar")
	strong.Technologies = []string{"React"}
	adapters := &fakeAdapters{byName: map[string]*fakeAdapter{
		"demo1": {name: "demo1", leads: []sources.Lead{
			strong,
			matchingLead("demo1", "acme"),
			{Provider: "demo1", Name: "misfit", Website: "https://misfit.io", Industry: "Agriculture", EmployeeCount: 5000},
		}},
	}}
	prefs := &fakePrefs{pref: testPreference(userID, "demo1")}
	leads := &fakeLeads{}
	matches := &fakeMatches{}
	bus := &nopBus{}

	report, err := newTestEngine(adapters, prefs, leads, matches, bus).SyncLeadsForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// every fetched lead lands in the pool, but the report only carries
	// those clearing the minimum threshold
	if len(leads.stored) != 3 {
		t.Fatalf("expected 3 leads stored, got %d", len(leads.stored))
	}
	if report.Total != 2 || len(report.Leads) != 2 {
		t.Fatalf("expected 2 leads above minimum, got total=%d leads=%d", report.Total, len(report.Leads))
	}
	// stellar scores 80 (industry+size+location+technology), acme 60
	if report.Qualified != 1 {
		t.Fatalf("expected 1 lead at the high threshold, got %d", report.Qualified)
	}
	if report.Leads[0].Name != "stellar" || report.Leads[0].Score != 80 {
		t.Fatalf("unexpected top lead: %+v", report.Leads[0])
	}
	if len(matches.created) != 0 {
		t.Fatalf("ingestion must not create tracking rows, got %d", len(matches.created))
	}
	if prefs.stats == nil || prefs.stats.TotalLeads != 2 || prefs.stats.QualifiedLeads != 1 || prefs.stats.LastSync.IsZero() {
		t.Fatalf("expected stats updated, got %+v", prefs.stats)
	}
	if prefs.stats.SuccessRate != 100 {
		t.Fatalf("expected 100%% success rate, got %.1f", prefs.stats.SuccessRate)
	}
}

func TestSyncProviderFailureIsIsolated(t *testing.T) {
	userID := uuid.New()
	adapters := &fakeAdapters{byName: map[string]*fakeAdapter{
		"demo1": {name: "demo1", err: errors.New("connection refused")},
		"demo2": {name: "demo2", leads: []sources.Lead{matchingLead("demo2", "acme")}},
	}}
	prefs := &fakePrefs{pref: testPreference(userID, "demo1", "demo2")}
	leads := &fakeLeads{}
	matches := &fakeMatches{}

	report, err := newTestEngine(adapters, prefs, leads, matches, &nopBus{}).SyncLeadsForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
	if adapters.byName["demo2"].calls != 1 {
		t.Fatal("healthy provider should still be called after a failure")
	}
	failed := report.FailedProviders()
	if len(failed) != 1 || failed[0] != "demo1" {
		t.Fatalf("expected demo1 in failed providers, got %v", failed)
	}
	if report.Total != 1 || len(report.Leads) != 1 {
		t.Fatalf("expected demo2 results reported, got total=%d leads=%d", report.Total, len(report.Leads))
	}
	if report.SuccessRate != 50 || prefs.stats.SuccessRate != 50 {
		t.Fatalf("expected 50%% success rate, got %.1f", prefs.stats.SuccessRate)
	}
}

func TestSyncAllProvidersFailedReturnsError(t *testing.T) {
	userID := uuid.New()
	adapters := &fakeAdapters{byName: map[string]*fakeAdapter{
		"demo1": {name: "demo1", err: errors.New("boom")},
	}}
	prefs := &fakePrefs{pref: testPreference(userID, "demo1")}

	_, err := newTestEngine(adapters, prefs, &fakeLeads{}, &fakeMatches{}, &nopBus{}).SyncLeadsForUser(context.Background(), userID)
	if err == nil {
		t.Fatal("expected error when every provider fails")
	}
	if apperr.GetKind(err) != apperr.KindProvider {
		t.Fatalf("expected provider error kind, got %v", err)
	}
	// stats still advance so the sweep does not hammer the same user
	if prefs.stats == nil || prefs.stats.LastSync.IsZero() {
		t.Fatal("expected last sync to advance despite the failure")
	}
	if prefs.stats.SuccessRate != 0 {
		t.Fatalf("expected 0%% success rate, got %.1f", prefs.stats.SuccessRate)
	}
}

func TestSyncDeduplicatesAcrossProviders(t *testing.T) {
	userID := uuid.New()
	adapters := &fakeAdapters{byName: map[string]*fakeAdapter{
		"demo1": {name: "demo1", leads: []sources.Lead{matchingLead("demo1", "acme")}},
		"demo2": {name: "demo2", leads: []sources.Lead{
			{Provider: "demo2", Name: " ACME ", Website: "HTTPS://ACME.IO", Industry: "Software", EmployeeCount: 30, City: "Austin"},
			matchingLead("demo2", "other"),
		}},
	}}
	prefs := &fakePrefs{pref: testPreference(userID, "demo1", "demo2")}
	leads := &fakeLeads{}

	report, err := newTestEngine(adapters, prefs, leads, &fakeMatches{}, &nopBus{}).SyncLeadsForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leads.stored) != 2 {
		t.Fatalf("expected duplicate lead skipped, stored %d", len(leads.stored))
	}
	if report.Providers[1].Skipped != 1 {
		t.Fatalf("expected 1 skipped on second provider, got %d", report.Providers[1].Skipped)
	}
}

func TestSyncRateLimitSkipsProvider(t *testing.T) {
	userID := uuid.New()
	adapter := &fakeAdapter{name: "demo1", leads: []sources.Lead{matchingLead("demo1", "acme")}}
	adapters := &fakeAdapters{byName: map[string]*fakeAdapter{"demo1": adapter}}
	prefs := &fakePrefs{pref: testPreference(userID, "demo1")}

	engine := NewEngine(
		adapters,
		sources.NewLimiter(0, time.Minute),
		prefs, &fakeLeads{}, &fakeMatches{}, &nopBus{},
		logger.New("test"),
		testConfig{},
	)
	report, err := engine.SyncLeadsForUser(context.Background(), userID)
	if err == nil {
		t.Fatal("expected error: the only provider was rate limited")
	}
	if adapter.calls != 0 {
		t.Fatal("rate-limited provider must not be called")
	}
	if report.APICalls != 0 {
		t.Fatalf("expected no api calls counted, got %d", report.APICalls)
	}
}

func TestSyncHonorsProviderBudget(t *testing.T) {
	userID := uuid.New()
	adapter := &fakeAdapter{name: "demo1", leads: []sources.Lead{matchingLead("demo1", "acme")}}
	adapters := &fakeAdapters{byName: map[string]*fakeAdapter{"demo1": adapter}}
	pref := testPreference(userID, "demo1")
	pref.API.Budgets = map[string]prefdomain.RateBudget{
		"demo1": {PerMinute: 1},
	}
	prefs := &fakePrefs{pref: pref}

	engine := newTestEngine(adapters, prefs, &fakeLeads{}, &fakeMatches{}, &nopBus{})
	if _, err := engine.SyncLeadsForUser(context.Background(), userID); err != nil {
		t.Fatalf("first run should pass: %v", err)
	}
	// the preference budget of one call per minute beats the global default
	if _, err := engine.SyncLeadsForUser(context.Background(), userID); err == nil {
		t.Fatal("expected second run rate limited by the provider budget")
	}
	if adapter.calls != 1 {
		t.Fatalf("expected a single provider call, got %d", adapter.calls)
	}
}

func TestSyncDoesNotEmitLeadMatched(t *testing.T) {
	userID := uuid.New()
	adapters := &fakeAdapters{byName: map[string]*fakeAdapter{
		"demo1": {name: "demo1", leads: []sources.Lead{matchingLead("demo1", "acme")}},
	}}
	bus := &nopBus{}

	_, err := newTestEngine(adapters, &fakePrefs{pref: testPreference(userID, "demo1")}, &fakeLeads{}, &fakeMatches{}, bus).
		SyncLeadsForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var matched, completed bool
	for _, event := range bus.published {
		switch event.EventName() {
		case "lead.matched":
			matched = true
		case "sync.completed":
			completed = true
		}
	}
	if !completed {
		t.Fatalf("expected sync.completed event, got %v", bus.published)
	}
	if matched {
		t.Fatal("ingestion must not emit lead.matched; the rematch pass owns that")
	}
}

func TestMatchStoredLeadsRescoresPool(t *testing.T) {
	userID := uuid.New()
	pool := []*leaddomain.Lead{
		{ID: uuid.New(), Name: "acme", Industry: "Software", CompanySize: "11-50", City: "Austin", Provider: "demo1"},
		{ID: uuid.New(), Name: "misfit", Industry: "Agriculture", CompanySize: "1000+", City: "Oslo", Provider: "demo1"},
	}
	prefs := &fakePrefs{pref: testPreference(userID, "demo1")}
	matches := &fakeMatches{}
	bus := &nopBus{}

	count, err := newTestEngine(&fakeAdapters{}, prefs, &fakeLeads{pool: pool}, matches, bus).
		MatchStoredLeads(context.Background(), userID, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 || len(matches.created) != 1 {
		t.Fatalf("expected exactly one rematch, got %d", count)
	}
	var matchedEvents int
	for _, event := range bus.published {
		if event.EventName() == "lead.matched" {
			matchedEvents++
		}
	}
	if matchedEvents != 1 {
		t.Fatalf("expected one lead.matched event, got %d", matchedEvents)
	}
	if prefs.stats == nil || prefs.stats.QualifiedLeads != 1 {
		t.Fatalf("expected rematch to fold into stats, got %+v", prefs.stats)
	}
}
