// Package sync orchestrates lead synchronization: fetch from every
// configured provider, store, score, and record matches. Runs are
// sequential per user and isolate provider failures from each other.
package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	domainevents "leadpilot_backend/internal/events"
	leaddomain "leadpilot_backend/internal/leads/domain"
	prefdomain "leadpilot_backend/internal/preferences/domain"
	"leadpilot_backend/internal/scoring"
	"leadpilot_backend/internal/sources"
	trackdomain "leadpilot_backend/internal/tracking/domain"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"
)

// AdapterSource resolves provider adapters by name.
type AdapterSource interface {
	Get(name string) (sources.Adapter, error)
}

// PreferenceStore is the slice of the preferences service the engine needs.
type PreferenceStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*prefdomain.Preference, error)
	UpdateStats(ctx context.Context, userID uuid.UUID, stats prefdomain.Stats) error
}

// LeadStore is the slice of the leads service the engine needs.
type LeadStore interface {
	Store(ctx context.Context, src sources.Lead) (*leaddomain.Lead, bool, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]*leaddomain.Lead, error)
}

// MatchRecorder is the slice of the tracking service the engine needs.
type MatchRecorder interface {
	CreateMatch(ctx context.Context, tracking *trackdomain.Tracking) (*trackdomain.Tracking, error)
}

// ProviderResult is the per-provider outcome of one sync run.
type ProviderResult struct {
	Provider string `json:"provider"`
	Fetched  int    `json:"fetched"`
	Stored   int    `json:"stored"`
	Matched  int    `json:"matched"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// ScoredLead is one fetched candidate that cleared the user's minimum
// threshold, with its score under the current preferences.
type ScoredLead struct {
	LeadID   uuid.UUID `json:"leadId"`
	Provider string    `json:"provider"`
	Name     string    `json:"name"`
	Website  string    `json:"website"`
	Industry string    `json:"industry"`
	Score    int       `json:"score"`
	Priority string    `json:"priority"`
	Criteria []string  `json:"matchedCriteria"`
}

// Report summarizes one sync run for one user. Total counts the leads that
// cleared the minimum threshold; Qualified the subset at or above the high
// threshold.
type Report struct {
	UserID      uuid.UUID        `json:"userId"`
	Providers   []ProviderResult `json:"providers"`
	Leads       []ScoredLead     `json:"leads"`
	Total       int              `json:"total"`
	Qualified   int              `json:"qualified"`
	APICalls    int              `json:"apiCalls"`
	SuccessRate float64          `json:"successRate"`
	StartedAt   time.Time        `json:"startedAt"`
	Duration    time.Duration    `json:"duration"`
}

// FailedProviders lists the providers that errored during the run.
func (r *Report) FailedProviders() []string {
	var failed []string
	for _, result := range r.Providers {
		if result.Error != "" {
			failed = append(failed, result.Provider)
		}
	}
	return failed
}

// Engine runs sync and rematch operations.
type Engine struct {
	adapters AdapterSource
	limiter  *sources.Limiter
	scorer   *scoring.Engine
	prefs    PreferenceStore
	leads    LeadStore
	matches  MatchRecorder
	bus      events.Bus
	log      *logger.Logger
	deadline time.Duration
	now      func() time.Time
}

// Config carries the sync engine options.
type Config interface {
	GetSyncDeadline() time.Duration
}

// NewEngine wires a sync engine.
func NewEngine(
	adapters AdapterSource,
	limiter *sources.Limiter,
	prefs PreferenceStore,
	leads LeadStore,
	matches MatchRecorder,
	bus events.Bus,
	log *logger.Logger,
	cfg Config,
) *Engine {
	return &Engine{
		adapters: adapters,
		limiter:  limiter,
		scorer:   scoring.NewEngine(),
		prefs:    prefs,
		leads:    leads,
		matches:  matches,
		bus:      bus,
		log:      log,
		deadline: cfg.GetSyncDeadline(),
		now:      time.Now,
	}
}

// SyncLeadsForUser fetches from every provider the user has credentials
// for, stores the results in the lead pool and scores them. Providers run
// sequentially; a failing provider is logged and skipped, it never aborts
// the run. Stats are updated even when every provider fails. No tracking
// rows are written here; MatchStoredLeads consumes the pool for that.
func (e *Engine) SyncLeadsForUser(ctx context.Context, userID uuid.UUID) (*Report, error) {
	pref, err := e.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	providers := pref.ConfiguredProviders()
	if len(providers) == 0 {
		return nil, apperr.Validation("no providers configured")
	}
	sort.Strings(providers)

	if e.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.deadline)
		defer cancel()
	}

	report := &Report{UserID: userID, StartedAt: e.now()}
	seen := make(map[string]struct{})

	for _, name := range providers {
		result := e.syncProvider(ctx, name, userID, pref, seen, report)
		report.Providers = append(report.Providers, result)
		report.Total += result.Matched
	}
	report.Duration = e.now().Sub(report.StartedAt)
	if succeeded := len(providers) - len(report.FailedProviders()); len(providers) > 0 {
		report.SuccessRate = float64(succeeded) / float64(len(providers)) * 100
	}

	e.updateStats(ctx, userID, pref, report)
	e.log.SyncEvent(userID.String(), report.Total, report.Qualified, report.APICalls)

	e.bus.Publish(ctx, domainevents.SyncCompleted{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		Total:     report.Total,
		Qualified: report.Qualified,
		APICalls:  report.APICalls,
		Failed:    report.FailedProviders(),
	})

	if len(report.FailedProviders()) == len(providers) {
		return report, apperr.Provider("all providers failed", nil)
	}
	return report, nil
}

func (e *Engine) syncProvider(ctx context.Context, name string, userID uuid.UUID, pref *prefdomain.Preference, seen map[string]struct{}, report *Report) ProviderResult {
	result := ProviderResult{Provider: name}

	adapter, err := e.adapters.Get(name)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	key := name + ":" + userID.String()
	budget := pref.API.Budgets[name]
	if !e.limiter.AllowBudget(key, sources.Budget{
		PerMinute: budget.PerMinute,
		PerHour:   budget.PerHour,
		PerDay:    budget.PerDay,
	}) {
		e.log.RateLimitExceeded(key, "provider")
		result.Error = apperr.RateLimited("provider call budget exhausted: " + name).Error()
		return result
	}
	report.APICalls++

	fetched, err := adapter.Fetch(ctx, sources.Request{
		APIKey:   pref.API.Keys[name],
		Endpoint: pref.API.Endpoints[name],
		Pref:     pref,
	})
	if err != nil {
		e.log.ProviderError(name, userID.String(), err)
		result.Error = err.Error()
		return result
	}
	result.Fetched = len(fetched)

	for _, src := range fetched {
		dedupe := sources.DedupeKey(src.Name, src.Website)
		if _, dup := seen[dedupe]; dup {
			result.Skipped++
			continue
		}
		seen[dedupe] = struct{}{}

		stored, _, err := e.leads.Store(ctx, src)
		if err != nil {
			e.log.Warn("lead store failed", "provider", name, "lead", src.Name, "error", err.Error())
			continue
		}
		result.Stored++

		res := e.scorer.Score(src.Candidate(), pref)
		if res.Score < pref.Scoring.Thresholds.Minimum {
			continue
		}
		result.Matched++
		if res.Score >= pref.Scoring.Thresholds.High {
			report.Qualified++
		}
		report.Leads = append(report.Leads, ScoredLead{
			LeadID:   stored.ID,
			Provider: name,
			Name:     stored.Name,
			Website:  stored.Website,
			Industry: stored.Industry,
			Score:    res.Score,
			Priority: res.Priority,
			Criteria: res.Matched,
		})
	}
	return result
}

// recordMatch scores one stored lead and records the match when it clears
// the user's minimum threshold. A duplicate match is not an error.
func (e *Engine) recordMatch(ctx context.Context, lead *leaddomain.Lead, candidate scoring.Candidate, pref *prefdomain.Preference, source string) bool {
	ok, res := e.scorer.Matches(candidate, pref)
	if !ok {
		return false
	}

	tracking, err := e.matches.CreateMatch(ctx, &trackdomain.Tracking{
		UserID:          pref.UserID,
		LeadID:          lead.ID,
		Score:           res.Score,
		Priority:        res.Priority,
		MatchedCriteria: res.Matched,
		Source:          source,
	})
	if err != nil {
		if apperr.GetKind(err) == apperr.KindConflict {
			return false
		}
		e.log.Warn("match record failed", "lead_id", lead.ID.String(), "error", err.Error())
		return false
	}

	e.bus.Publish(ctx, domainevents.LeadMatched{
		BaseEvent:  events.NewBaseEvent(),
		UserID:     pref.UserID,
		LeadID:     lead.ID,
		TrackingID: tracking.ID,
		LeadName:   lead.Name,
		Score:      res.Score,
		Priority:   res.Priority,
		Industry:   lead.Industry,
		Location:   location(lead),
		Source:     source,
	})
	return true
}

// MatchStoredLeads rescores leads already in the pool against the user's
// current preferences and records a tracking row for every new qualifying
// pair. Used after a preference change and by the scheduled sync; no
// provider calls are made.
func (e *Engine) MatchStoredLeads(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	pref, err := e.prefs.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	stored, err := e.leads.ListSince(ctx, since, 0)
	if err != nil {
		return 0, fmt.Errorf("list stored leads: %w", err)
	}

	matched := 0
	for _, lead := range stored {
		if e.recordMatch(ctx, lead, storedCandidate(lead), pref, lead.Provider) {
			matched++
		}
	}

	stats := pref.Stats
	stats.QualifiedLeads += matched
	if err := e.prefs.UpdateStats(ctx, userID, stats); err != nil {
		e.log.Warn("stats update failed", "user_id", userID.String(), "error", err.Error())
	}
	return matched, nil
}

// updateStats folds the run outcome into the user's running statistics. The
// last sync time advances even for a fully failed run so the sweep does not
// retry the same user all night.
func (e *Engine) updateStats(ctx context.Context, userID uuid.UUID, pref *prefdomain.Preference, report *Report) {
	stats := pref.Stats
	stats.TotalLeads += report.Total
	stats.QualifiedLeads += report.Qualified
	stats.APICalls += report.APICalls
	stats.LastSync = e.now()
	stats.SuccessRate = report.SuccessRate

	if err := e.prefs.UpdateStats(ctx, userID, stats); err != nil {
		e.log.Warn("stats update failed", "user_id", userID.String(), "error", err.Error())
	}
}

func storedCandidate(lead *leaddomain.Lead) scoring.Candidate {
	return scoring.Candidate{
		Name:          lead.Name,
		Website:       lead.Website,
		Industry:      lead.Industry,
		CompanySize:   lead.CompanySize,
		RevenueRange:  lead.RevenueRange,
		City:          lead.City,
		State:         lead.State,
		Country:       lead.Country,
		Technologies:  lead.Technologies,
		TriggerEvents: lead.TriggerEvents,
	}
}

func location(lead *leaddomain.Lead) string {
	if lead.City != "" && lead.Country != "" {
		return lead.City + ", " + lead.Country
	}
	if lead.City != "" {
		return lead.City
	}
	return lead.Country
}
