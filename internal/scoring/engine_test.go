package scoring

import (
	"testing"
	"time"

	"leadpilot_backend/internal/preferences/domain"
)

func fixedEngine() *Engine {
	return &Engine{Now: func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}}
}

func basePreference() *domain.Preference {
	return &domain.Preference{
		Geographic: domain.Geographic{
			Cities:    []string{"Austin"},
			States:    []string{"Texas"},
			Countries: []string{"USA"},
		},
		Business: domain.Business{
			Industries:    []string{"Software", "Fintech"},
			CompanySizes:  []string{"11-50"},
			RevenueRanges: []string{"$1M-$10M"},
			Technologies:  []string{"React", "Node.js", "PostgreSQL", "AWS"},
		},
		Triggers: domain.Triggers{
			EventTypes: []string{"funding_round", "expansion"},
			Timeframe:  domain.Timeframe6Months,
		},
		Scoring: domain.DefaultScoring(),
	}
}

func TestScoreFullMatchClampsAt100(t *testing.T) {
	pref := basePreference()
	pref.Scoring.Weights = domain.Weights{
		Industry: 40, Size: 40, Location: 40,
		Technology: 40, Triggers: 40, Revenue: 40,
	}
	candidate := Candidate{
		Industry:      "Software",
		CompanySize:   "11-50",
		RevenueRange:  "$1M-$10M",
		City:          "Austin",
		Technologies:  []string{"React", "Node.js", "PostgreSQL", "AWS"},
		TriggerEvents: []string{"funding_round", "expansion"},
	}
	result := fixedEngine().Score(candidate, pref)
	if result.Score != 100 {
		t.Fatalf("expected clamped score 100, got %d", result.Score)
	}
	if result.Priority != PriorityHigh {
		t.Fatalf("expected high priority, got %s", result.Priority)
	}
	if len(result.Matched) != 6 {
		t.Fatalf("expected all 6 criteria matched, got %v", result.Matched)
	}
}

func TestScoreNoMatchIsZero(t *testing.T) {
	pref := basePreference()
	candidate := Candidate{
		Industry:     "Agriculture",
		CompanySize:  "1000+",
		RevenueRange: "$1B+",
		City:         "Oslo",
		Country:      "Norway",
		Technologies: []string{"COBOL"},
	}
	result := fixedEngine().Score(candidate, pref)
	if result.Score != 0 {
		t.Fatalf("expected score 0, got %d", result.Score)
	}
	if len(result.Matched) != 0 {
		t.Fatalf("expected no matched criteria, got %v", result.Matched)
	}
	if result.Priority != PriorityLow {
		t.Fatalf("expected low priority, got %s", result.Priority)
	}
}

func TestScoreIndustryAndSizeOnly(t *testing.T) {
	pref := basePreference()
	candidate := Candidate{
		Industry:    "software",
		CompanySize: "11-50",
		City:        "Berlin",
		Country:     "Germany",
	}
	result := fixedEngine().Score(candidate, pref)
	// industry 25 + size 20 under the default weights
	if result.Score != 45 {
		t.Fatalf("expected 45, got %d", result.Score)
	}
	if result.Priority != PriorityLow {
		t.Fatalf("expected low priority, got %s", result.Priority)
	}
}

func TestScorePartialTechnologyCredit(t *testing.T) {
	pref := basePreference()
	pref.Business.Technologies = []string{"React"}
	candidate := Candidate{
		Technologies: []string{"React", "Node"},
	}
	result := fixedEngine().Score(candidate, pref)
	// 1 of the candidate's 2 technologies wanted, weight 20 gives 10
	if result.Score != 10 {
		t.Fatalf("expected 10, got %d", result.Score)
	}
	if len(result.Matched) != 1 || result.Matched[0] != CriterionTechnology {
		t.Fatalf("expected only technology matched, got %v", result.Matched)
	}
}

func TestScoreMonotonicTechnologyCredit(t *testing.T) {
	pref := basePreference()
	engine := fixedEngine()
	candidate := Candidate{
		Technologies: []string{"React", "Node.js", "PostgreSQL", "AWS"},
	}
	prev := -1
	wanted := [][]string{
		{"React"},
		{"React", "Node.js"},
		{"React", "Node.js", "PostgreSQL"},
		{"React", "Node.js", "PostgreSQL", "AWS"},
	}
	for _, stack := range wanted {
		pref.Business.Technologies = stack
		score := engine.Score(candidate, pref).Score
		if score <= prev {
			t.Fatalf("score not monotonic: %d after %d for %v", score, prev, stack)
		}
		prev = score
	}
}

func TestScoreRoundsOnceOnFinalSum(t *testing.T) {
	pref := basePreference()
	pref.Business.Technologies = []string{"a"}
	pref.Triggers.EventTypes = []string{"x"}
	pref.Scoring.Weights = domain.Weights{Technology: 10, Triggers: 10}
	candidate := Candidate{
		Technologies:  []string{"a", "b", "c"},
		TriggerEvents: []string{"x", "y", "z"},
	}
	// 10/3 + 10/3 = 6.66..., rounds to 7. Per-dimension rounding would
	// have produced 3 + 3 = 6.
	result := fixedEngine().Score(candidate, pref)
	if result.Score != 7 {
		t.Fatalf("expected single final rounding to yield 7, got %d", result.Score)
	}
}

func TestMatchesBoundaryInclusive(t *testing.T) {
	pref := basePreference()
	pref.Scoring.Thresholds.Minimum = 45
	candidate := Candidate{Industry: "Software", CompanySize: "11-50"}

	ok, result := fixedEngine().Matches(candidate, pref)
	if result.Score != 45 {
		t.Fatalf("expected 45, got %d", result.Score)
	}
	if !ok {
		t.Fatal("score equal to minimum threshold must match")
	}

	pref.Scoring.Thresholds.Minimum = 46
	ok, _ = fixedEngine().Matches(candidate, pref)
	if ok {
		t.Fatal("score below minimum threshold must not match")
	}
}

func TestTriggerTimeframeFiltersStaleEvents(t *testing.T) {
	pref := basePreference()
	engine := fixedEngine()
	now := engine.Now()

	recent := Candidate{
		TriggerEvents: []string{"funding_round"},
		TriggerDates:  []time.Time{now.AddDate(0, -2, 0)},
	}
	stale := Candidate{
		TriggerEvents: []string{"funding_round"},
		TriggerDates:  []time.Time{now.AddDate(0, -9, 0)},
	}

	if got := engine.Score(recent, pref).Score; got != 15 {
		// the candidate's only event matches, full weight 15
		t.Fatalf("expected recent trigger to score 15, got %d", got)
	}
	if got := engine.Score(stale, pref).Score; got != 0 {
		t.Fatalf("expected stale trigger to score 0, got %d", got)
	}
}

func TestTriggerKeywordsCountAsEventTypes(t *testing.T) {
	pref := basePreference()
	pref.Triggers.EventTypes = nil
	pref.Triggers.Keywords = []string{"acquisition"}
	pref.Triggers.Timeframe = 0

	candidate := Candidate{
		TriggerEvents: []string{"Acquisition", "ipo"},
	}
	result := fixedEngine().Score(candidate, pref)
	// 1 of the candidate's 2 events hits a keyword, weight 15 rounds to 8
	if result.Score != 8 {
		t.Fatalf("expected keyword match to score 8, got %d", result.Score)
	}
	if len(result.Matched) != 1 || result.Matched[0] != CriterionTriggers {
		t.Fatalf("expected only triggers matched, got %v", result.Matched)
	}
}

func TestScoreMatchingIsCaseAndSpaceInsensitive(t *testing.T) {
	pref := basePreference()
	candidate := Candidate{
		Industry: "  SOFTWARE ",
		City:     "austin",
	}
	result := fixedEngine().Score(candidate, pref)
	// industry 25 + location 15
	if result.Score != 40 {
		t.Fatalf("expected 40, got %d", result.Score)
	}
}

func TestPriorityBands(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, PriorityLow},
		{59, PriorityLow},
		{60, PriorityMedium},
		{79, PriorityMedium},
		{80, PriorityHigh},
		{100, PriorityHigh},
	}
	for _, tc := range cases {
		if got := PriorityFor(tc.score); got != tc.want {
			t.Errorf("PriorityFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestEvaluateCriteriaOrder(t *testing.T) {
	pref := basePreference()
	candidate := Candidate{
		Industry:     "Fintech",
		City:         "Austin",
		Technologies: []string{"AWS"},
	}
	criteria := fixedEngine().EvaluateCriteria(candidate, pref)
	want := []string{CriterionIndustry, CriterionLocation, CriterionTechnology}
	if len(criteria) != len(want) {
		t.Fatalf("expected %v, got %v", want, criteria)
	}
	for i := range want {
		if criteria[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, criteria)
		}
	}
}
