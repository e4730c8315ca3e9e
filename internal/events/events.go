// Package events defines the domain events exchanged between modules.
package events

import (
	"github.com/google/uuid"

	"leadpilot_backend/platform/events"
)

// Event names.
const (
	LeadMatchedName    = "lead.matched"
	SyncCompletedName  = "sync.completed"
	SweepCompletedName = "scheduler.sweep.completed"
)

// LeadMatched fires when the sync engine records a new match for a user.
type LeadMatched struct {
	events.BaseEvent
	UserID     uuid.UUID `json:"userId"`
	LeadID     uuid.UUID `json:"leadId"`
	TrackingID uuid.UUID `json:"trackingId"`
	LeadName   string    `json:"leadName"`
	Score      int       `json:"score"`
	Priority   string    `json:"priority"`
	Industry   string    `json:"industry"`
	Location   string    `json:"location"`
	Source     string    `json:"source"`
}

// EventName identifies the event type.
func (LeadMatched) EventName() string { return LeadMatchedName }

// SyncCompleted fires after a user sync run finishes, whether or not it
// found anything.
type SyncCompleted struct {
	events.BaseEvent
	UserID    uuid.UUID `json:"userId"`
	Total     int       `json:"total"`
	Qualified int       `json:"qualified"`
	APICalls  int       `json:"apiCalls"`
	Failed    []string  `json:"failedProviders,omitempty"`
}

// EventName identifies the event type.
func (SyncCompleted) EventName() string { return SyncCompletedName }

// SweepCompleted fires after the daily sweep has visited every eligible
// user.
type SweepCompleted struct {
	events.BaseEvent
	Users     int `json:"users"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// EventName identifies the event type.
func (SweepCompleted) EventName() string { return SweepCompletedName }
