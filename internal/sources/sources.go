// Package sources integrates the external lead providers. Each provider is
// an Adapter that fetches raw organizations and maps them into the shared
// Lead shape; the sync engine consumes that shape regardless of origin.
package sources

import (
	"context"
	"time"

	"leadpilot_backend/internal/preferences/domain"
	"leadpilot_backend/internal/scoring"
)

// Contact is the primary contact extracted from a provider record.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Title string `json:"title"`
}

// Lead is the provider-independent lead shape.
type Lead struct {
	ExternalID    string         `json:"externalId"`
	Provider      string         `json:"provider"`
	Name          string         `json:"name"`
	Website       string         `json:"website"`
	Industry      string         `json:"industry"`
	EmployeeCount int            `json:"employeeCount"`
	AnnualRevenue float64        `json:"annualRevenue"`
	City          string         `json:"city"`
	State         string         `json:"state"`
	Country       string         `json:"country"`
	Technologies  []string       `json:"technologies"`
	TriggerEvents []string       `json:"triggerEvents"`
	TriggerDates  []time.Time    `json:"triggerDates"`
	Contact       Contact        `json:"contact"`
	Raw           map[string]any `json:"raw,omitempty"`
}

// Candidate converts the lead into the scoring shape, deriving the size and
// revenue buckets from the raw counts.
func (l *Lead) Candidate() scoring.Candidate {
	return scoring.Candidate{
		Name:          l.Name,
		Website:       l.Website,
		Industry:      l.Industry,
		CompanySize:   EmployeeBucket(l.EmployeeCount),
		RevenueRange:  RevenueBucket(l.AnnualRevenue),
		City:          l.City,
		State:         l.State,
		Country:       l.Country,
		Technologies:  l.Technologies,
		TriggerEvents: l.TriggerEvents,
		TriggerDates:  l.TriggerDates,
	}
}

// Request carries everything an adapter needs for one fetch.
type Request struct {
	APIKey   string
	Endpoint string
	Pref     *domain.Preference
}

// Adapter is one lead provider integration.
type Adapter interface {
	// Name is the provider identifier used in credentials and telemetry.
	Name() string
	// Fetch retrieves and normalizes leads for the given preference.
	Fetch(ctx context.Context, req Request) ([]Lead, error)
}
