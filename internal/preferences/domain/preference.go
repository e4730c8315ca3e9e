// Package domain defines the user preference model: the weighted matching
// configuration, provider credentials, and running statistics that drive the
// scoring and synchronization engine.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimeframeMonths is the recency window for trigger events.
type TimeframeMonths int

// Allowed trigger timeframes.
const (
	Timeframe1Month   TimeframeMonths = 1
	Timeframe3Months  TimeframeMonths = 3
	Timeframe6Months  TimeframeMonths = 6
	Timeframe12Months TimeframeMonths = 12
	Timeframe24Months TimeframeMonths = 24
)

// ValidTimeframe reports whether months is one of the allowed windows.
func ValidTimeframe(months TimeframeMonths) bool {
	switch months {
	case Timeframe1Month, Timeframe3Months, Timeframe6Months, Timeframe12Months, Timeframe24Months:
		return true
	}
	return false
}

// Frequency is how often notification digests are delivered.
type Frequency string

const (
	FrequencyInstant Frequency = "instant"
	FrequencyHourly  Frequency = "hourly"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
)

// Geographic holds the user's target locations.
type Geographic struct {
	Cities       []string `json:"cities"`
	States       []string `json:"states"`
	Countries    []string `json:"countries"`
	Regions      []string `json:"regions"`
	SearchRadius int      `json:"searchRadius"`
	RadiusUnit   string   `json:"radiusUnit"`
}

// Business holds the user's target firmographic criteria.
type Business struct {
	Industries     []string `json:"industries"`
	CompanySizes   []string `json:"companySizes"`
	RevenueRanges  []string `json:"revenueRanges"`
	EmployeeRanges []string `json:"employeeRanges"`
	CompanyTypes   []string `json:"companyTypes"`
	Technologies   []string `json:"technologies"`
	BusinessModels []string `json:"businessModels"`
}

// Triggers holds the buying-signal criteria.
type Triggers struct {
	EventTypes []string        `json:"eventTypes"`
	Keywords   []string        `json:"keywords"`
	Timeframe  TimeframeMonths `json:"timeframeMonths"`
}

// Weights are the six scoring dimension weights, each 0-100. They are not
// required to sum to 100; over-weighted configurations are clamped only at
// the final score.
type Weights struct {
	Industry   int `json:"industry"`
	Size       int `json:"size"`
	Location   int `json:"location"`
	Technology int `json:"technology"`
	Triggers   int `json:"triggers"`
	Revenue    int `json:"revenue"`
}

// Thresholds are the score cut points, each 0-100. Minimum is the admission
// bar for "matched".
type Thresholds struct {
	Minimum int `json:"minimum"`
	Low     int `json:"low"`
	Medium  int `json:"medium"`
	High    int `json:"high"`
}

// Scoring groups the weights and thresholds.
type Scoring struct {
	Weights    Weights    `json:"weights"`
	Thresholds Thresholds `json:"thresholds"`
}

// Notifications controls which channels fire and which matches qualify.
type Notifications struct {
	Email      bool      `json:"email"`
	SMS        bool      `json:"sms"`
	InApp      bool      `json:"inApp"`
	Webhook    bool      `json:"webhook"`
	Frequency  Frequency `json:"frequency"`
	MinScore   int       `json:"minScore"`
	Industries []string  `json:"industries"`
	Locations  []string  `json:"locations"`
}

// RateBudget is a per-provider call budget.
type RateBudget struct {
	PerMinute int `json:"perMinute"`
	PerHour   int `json:"perHour"`
	PerDay    int `json:"perDay"`
}

// APISettings holds per-provider credentials and budgets. Map keys are
// provider names.
type APISettings struct {
	Endpoints  map[string]string     `json:"endpoints"`
	Keys       map[string]string     `json:"keys"`
	Budgets    map[string]RateBudget `json:"budgets"`
	CustomKeys map[string]string     `json:"customKeys"`
}

// Stats are the running synchronization statistics for a user.
type Stats struct {
	TotalLeads     int       `json:"totalLeads"`
	QualifiedLeads int       `json:"qualifiedLeads"`
	ConvertedLeads int       `json:"convertedLeads"`
	LastSync       time.Time `json:"lastSync"`
	APICalls       int       `json:"apiCalls"`
	SuccessRate    float64   `json:"successRate"`
}

// Preference is one user's complete matching configuration.
type Preference struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"userId"`
	Geographic    Geographic        `json:"geographic"`
	Business      Business          `json:"business"`
	Triggers      Triggers          `json:"triggers"`
	Scoring       Scoring           `json:"scoring"`
	Notifications Notifications     `json:"notifications"`
	API           APISettings       `json:"api"`
	CustomFilters map[string]string `json:"customFilters"`
	DataKeys      map[string]string `json:"dataKeys"`
	Stats         Stats             `json:"stats"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// ClampPercent bounds a weight or threshold to [0,100]. Field-level only;
// there is deliberately no cross-field validation.
func ClampPercent(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// Normalize clamps all weight and threshold fields in place.
func (s *Scoring) Normalize() {
	s.Weights.Industry = ClampPercent(s.Weights.Industry)
	s.Weights.Size = ClampPercent(s.Weights.Size)
	s.Weights.Location = ClampPercent(s.Weights.Location)
	s.Weights.Technology = ClampPercent(s.Weights.Technology)
	s.Weights.Triggers = ClampPercent(s.Weights.Triggers)
	s.Weights.Revenue = ClampPercent(s.Weights.Revenue)
	s.Thresholds.Minimum = ClampPercent(s.Thresholds.Minimum)
	s.Thresholds.Low = ClampPercent(s.Thresholds.Low)
	s.Thresholds.Medium = ClampPercent(s.Thresholds.Medium)
	s.Thresholds.High = ClampPercent(s.Thresholds.High)
}

// ConfiguredProviders returns the provider names that have a non-empty key.
func (p *Preference) ConfiguredProviders() []string {
	providers := make([]string, 0, len(p.API.Keys))
	for name, key := range p.API.Keys {
		if key != "" {
			providers = append(providers, name)
		}
	}
	return providers
}

// DefaultScoring returns the scoring model applied when a user has not
// customized weights or thresholds.
func DefaultScoring() Scoring {
	return Scoring{
		Weights: Weights{
			Industry:   25,
			Size:       20,
			Location:   15,
			Technology: 20,
			Triggers:   15,
			Revenue:    5,
		},
		Thresholds: Thresholds{
			Minimum: 40,
			Low:     40,
			Medium:  60,
			High:    80,
		},
	}
}
