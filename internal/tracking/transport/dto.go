// Package transport defines the tracking HTTP DTOs.
package transport

import "github.com/google/uuid"

// CreateMatchRequest records a lead match manually.
type CreateMatchRequest struct {
	LeadID          uuid.UUID `json:"leadId" validate:"required"`
	Score           int       `json:"score" validate:"min=0,max=100"`
	Priority        string    `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	MatchedCriteria []string  `json:"matchedCriteria,omitempty"`
	Source          string    `json:"source,omitempty" validate:"omitempty,max=50"`
	Notes           string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateStatusRequest moves a tracking record to a new lifecycle state.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=matched viewed contacted qualified converted rejected"`
	Note   string `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// AddActionRequest appends an activity entry.
type AddActionRequest struct {
	Type string `json:"type" validate:"required,oneof=note call email meeting"`
	Note string `json:"note" validate:"required,max=2000"`
}

// ListTrackingsRequest filters and pages the tracking list.
type ListTrackingsRequest struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Source   string `form:"source"`
	MinScore int    `form:"minScore"`
	MaxScore int    `form:"maxScore"`
	SortBy   string `form:"sortBy"`
	SortDir  string `form:"sortDir"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// ListTrackingsResponse is a page of tracking records.
type ListTrackingsResponse struct {
	Items  any `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
