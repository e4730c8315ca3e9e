// Package domain defines the stored lead model.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact is the primary contact stored with a lead.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Title string `json:"title,omitempty"`
}

// Lead is one company record in the shared lead pool. Provider-specific
// fields that do not fit the columns live in CustomFields.
type Lead struct {
	ID            uuid.UUID      `json:"id"`
	ExternalID    string         `json:"externalId,omitempty"`
	Provider      string         `json:"provider"`
	Name          string         `json:"name"`
	Website       string         `json:"website"`
	Industry      string         `json:"industry,omitempty"`
	EmployeeCount int            `json:"employeeCount"`
	AnnualRevenue float64        `json:"annualRevenue"`
	CompanySize   string         `json:"companySize,omitempty"`
	RevenueRange  string         `json:"revenueRange,omitempty"`
	City          string         `json:"city,omitempty"`
	State         string         `json:"state,omitempty"`
	Country       string         `json:"country,omitempty"`
	Technologies  []string       `json:"technologies,omitempty"`
	TriggerEvents []string       `json:"triggerEvents,omitempty"`
	Contact       Contact        `json:"contact"`
	CustomFields  map[string]any `json:"customFields,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}
