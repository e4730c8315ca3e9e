// Package transport defines the preference HTTP DTOs.
package transport

import (
	"leadpilot_backend/internal/preferences/domain"
)

// SavePreferencesRequest is the full preference document as submitted by
// the client. Missing groups fall back to zero values; scoring falls back
// to the default model.
type SavePreferencesRequest struct {
	Geographic    domain.Geographic    `json:"geographic"`
	Business      domain.Business      `json:"business"`
	Triggers      domain.Triggers      `json:"triggers"`
	Scoring       *domain.Scoring      `json:"scoring,omitempty"`
	Notifications domain.Notifications `json:"notifications"`
	API           domain.APISettings   `json:"api"`
	CustomFilters map[string]string    `json:"customFilters,omitempty"`
	DataKeys      map[string]string    `json:"dataKeys,omitempty"`
}

// PreferenceResponse is a preference document in API responses. Provider
// keys are masked; only the provider names are exposed.
type PreferenceResponse struct {
	ID                  string               `json:"id"`
	UserID              string               `json:"userId"`
	Geographic          domain.Geographic    `json:"geographic"`
	Business            domain.Business      `json:"business"`
	Triggers            domain.Triggers      `json:"triggers"`
	Scoring             domain.Scoring       `json:"scoring"`
	Notifications       domain.Notifications `json:"notifications"`
	ConfiguredProviders []string             `json:"configuredProviders"`
	CustomFilters       map[string]string    `json:"customFilters,omitempty"`
	DataKeys            map[string]string    `json:"dataKeys,omitempty"`
	Stats               domain.Stats         `json:"stats"`
	CreatedAt           string               `json:"createdAt"`
	UpdatedAt           string               `json:"updatedAt"`
}
