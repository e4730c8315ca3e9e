// Package scoring implements the weighted partial-credit lead scoring engine.
// It is pure computation: no storage, no transport.
package scoring

import (
	"math"
	"strings"
	"time"

	"leadpilot_backend/internal/preferences/domain"
)

// Candidate is the normalized shape a lead is scored in, independent of
// which provider produced it.
type Candidate struct {
	Name          string
	Website       string
	Industry      string
	CompanySize   string
	RevenueRange  string
	City          string
	State         string
	Country       string
	Technologies  []string
	TriggerEvents []string
	TriggerDates  []time.Time
}

// Criterion names as they appear in match explanations.
const (
	CriterionIndustry   = "industry"
	CriterionSize       = "company_size"
	CriterionLocation   = "location"
	CriterionTechnology = "technology"
	CriterionTriggers   = "triggers"
	CriterionRevenue    = "revenue"
)

// Result is the outcome of scoring one candidate against one preference.
type Result struct {
	Score    int
	Matched  []string
	Priority string
}

// Priority labels.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Engine scores candidates against preferences. The zero value is ready to
// use; Now is overridable for tests.
type Engine struct {
	Now func() time.Time
}

// NewEngine returns an engine using wall-clock time.
func NewEngine() *Engine {
	return &Engine{Now: time.Now}
}

// Score computes the weighted score for candidate under pref. Every
// dimension contributes independently and rounding happens exactly once, on
// the final sum. The result is bounded to [0,100].
func (e *Engine) Score(candidate Candidate, pref *domain.Preference) Result {
	weights := pref.Scoring.Weights
	var sum float64
	matched := make([]string, 0, 6)

	if containsFold(pref.Business.Industries, candidate.Industry) {
		sum += float64(weights.Industry)
		matched = append(matched, CriterionIndustry)
	}
	if matchesSize(pref.Business, candidate.CompanySize) {
		sum += float64(weights.Size)
		matched = append(matched, CriterionSize)
	}
	if matchesLocation(pref.Geographic, candidate) {
		sum += float64(weights.Location)
		matched = append(matched, CriterionLocation)
	}
	if frac := overlapFraction(pref.Business.Technologies, candidate.Technologies); frac > 0 {
		sum += frac * float64(weights.Technology)
		matched = append(matched, CriterionTechnology)
	}
	if frac := e.triggerFraction(pref.Triggers, candidate); frac > 0 {
		sum += frac * float64(weights.Triggers)
		matched = append(matched, CriterionTriggers)
	}
	if containsFold(pref.Business.RevenueRanges, candidate.RevenueRange) {
		sum += float64(weights.Revenue)
		matched = append(matched, CriterionRevenue)
	}

	score := int(math.Round(sum))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return Result{Score: score, Matched: matched, Priority: PriorityFor(score)}
}

// Matches reports whether candidate clears the preference's minimum
// threshold. The boundary is inclusive.
func (e *Engine) Matches(candidate Candidate, pref *domain.Preference) (bool, Result) {
	result := e.Score(candidate, pref)
	return result.Score >= pref.Scoring.Thresholds.Minimum, result
}

// EvaluateCriteria returns only the matched criterion names, in scoring
// order.
func (e *Engine) EvaluateCriteria(candidate Candidate, pref *domain.Preference) []string {
	return e.Score(candidate, pref).Matched
}

// PriorityFor maps a score to its priority band.
func PriorityFor(score int) string {
	switch {
	case score >= 80:
		return PriorityHigh
	case score >= 60:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// matchesSize accepts either the exact size bucket or, when the preference
// expresses sizes as employee ranges, the candidate bucket against those.
func matchesSize(business domain.Business, size string) bool {
	if containsFold(business.CompanySizes, size) {
		return true
	}
	return containsFold(business.EmployeeRanges, size)
}

// matchesLocation checks city, state, country and region membership. Any
// single hit counts as a full location match.
func matchesLocation(geo domain.Geographic, candidate Candidate) bool {
	if containsFold(geo.Cities, candidate.City) {
		return true
	}
	if containsFold(geo.States, candidate.State) {
		return true
	}
	if containsFold(geo.Countries, candidate.Country) {
		return true
	}
	return containsFold(geo.Regions, candidate.State) || containsFold(geo.Regions, candidate.Country)
}

// triggerFraction computes the fraction of the candidate's trigger events
// that match the preference's event types or keywords within the timeframe.
// Events without a date are counted; the timeframe only filters dated
// events.
func (e *Engine) triggerFraction(triggers domain.Triggers, candidate Candidate) float64 {
	wanted := make([]string, 0, len(triggers.EventTypes)+len(triggers.Keywords))
	wanted = append(wanted, triggers.EventTypes...)
	wanted = append(wanted, triggers.Keywords...)
	if len(wanted) == 0 || len(candidate.TriggerEvents) == 0 {
		return 0
	}
	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}
	cutoff := now.AddDate(0, -int(triggers.Timeframe), 0)

	matched := 0
	for i, event := range candidate.TriggerEvents {
		if !containsFold(wanted, event) {
			continue
		}
		if triggers.Timeframe > 0 && i < len(candidate.TriggerDates) && !candidate.TriggerDates[i].IsZero() {
			if candidate.TriggerDates[i].Before(cutoff) {
				continue
			}
		}
		matched++
	}
	return float64(matched) / float64(len(candidate.TriggerEvents))
}

// overlapFraction returns |wanted ∩ got| / |got|, case-insensitive. The
// candidate's list is the denominator, so a focused stack that fully
// overlaps earns full credit.
func overlapFraction(wanted, got []string) float64 {
	if len(wanted) == 0 || len(got) == 0 {
		return 0
	}
	wantedSet := make(map[string]struct{}, len(wanted))
	for _, item := range wanted {
		wantedSet[fold(item)] = struct{}{}
	}
	matched := 0
	for _, item := range got {
		if _, ok := wantedSet[fold(item)]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(got))
}

func containsFold(list []string, value string) bool {
	if value == "" {
		return false
	}
	folded := fold(value)
	for _, item := range list {
		if fold(item) == folded {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
