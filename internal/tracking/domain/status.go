// Package domain defines the lead tracking model: the per-user match record,
// its status lifecycle, and the action and notification entries hanging off
// it.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a tracked lead.
type Status string

// Lifecycle states, in rough pipeline order.
const (
	StatusMatched   Status = "matched"
	StatusViewed    Status = "viewed"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusRejected  Status = "rejected"
)

// AllStatuses lists every valid status.
var AllStatuses = []Status{
	StatusMatched, StatusViewed, StatusContacted,
	StatusQualified, StatusConverted, StatusRejected,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the pipeline.
func (s Status) Terminal() bool {
	return s == StatusConverted || s == StatusRejected
}

// strictTransitions is the forward-only lifecycle. Rejection is allowed
// from any non-terminal state; terminal states allow nothing.
var strictTransitions = map[Status][]Status{
	StatusMatched:   {StatusViewed, StatusContacted, StatusRejected},
	StatusViewed:    {StatusContacted, StatusQualified, StatusRejected},
	StatusContacted: {StatusQualified, StatusConverted, StatusRejected},
	StatusQualified: {StatusConverted, StatusRejected},
	StatusConverted: {},
	StatusRejected:  {},
}

// CanTransition reports whether from may move to to. In permissive mode any
// pair of valid statuses is allowed; terminality is advisory only. Strict
// mode enforces the forward-only table.
func CanTransition(from, to Status, strict bool) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if !strict {
		return true
	}
	if from == to {
		return false
	}
	for _, allowed := range strictTransitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}

// ActionType classifies a tracking action entry.
type ActionType string

const (
	ActionNote         ActionType = "note"
	ActionCall         ActionType = "call"
	ActionEmail        ActionType = "email"
	ActionMeeting      ActionType = "meeting"
	ActionStatusChange ActionType = "status_change"
)

// Valid reports whether a is a known action type.
func (a ActionType) Valid() bool {
	switch a {
	case ActionNote, ActionCall, ActionEmail, ActionMeeting, ActionStatusChange:
		return true
	}
	return false
}

// Tracking is one user's record of one matched lead.
type Tracking struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"userId"`
	LeadID          uuid.UUID  `json:"leadId"`
	Status          Status     `json:"status"`
	Score           int        `json:"score"`
	Priority        string     `json:"priority"`
	MatchedCriteria []string   `json:"matchedCriteria"`
	Source          string     `json:"source"`
	Notes           string     `json:"notes"`
	MatchedAt       time.Time  `json:"matchedAt"`
	ViewedAt        *time.Time `json:"viewedAt,omitempty"`
	ContactedAt     *time.Time `json:"contactedAt,omitempty"`
	ConvertedAt     *time.Time `json:"convertedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Action is one activity entry on a tracking record.
type Action struct {
	ID          uuid.UUID  `json:"id"`
	TrackingID  uuid.UUID  `json:"trackingId"`
	Type        ActionType `json:"type"`
	Note        string     `json:"note"`
	PerformedBy uuid.UUID  `json:"performedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Notification is one delivery record on a tracking record.
type Notification struct {
	ID         uuid.UUID `json:"id"`
	TrackingID uuid.UUID `json:"trackingId"`
	Channel    string    `json:"channel"`
	Message    string    `json:"message"`
	SentAt     time.Time `json:"sentAt"`
}

// Stats is the per-user pipeline aggregate.
type Stats struct {
	Total          int            `json:"total"`
	ByStatus       map[Status]int `json:"byStatus"`
	AverageScore   float64        `json:"averageScore"`
	HighPriority   int            `json:"highPriority"`
	ConversionRate float64        `json:"conversionRate"`
}

// TrendingEntry is one entry in a user's trending leads report, ranked by
// score then recency.
type TrendingEntry struct {
	TrackingID uuid.UUID `json:"trackingId"`
	LeadID     uuid.UUID `json:"leadId"`
	Score      int       `json:"score"`
	Priority   string    `json:"priority"`
	MatchedAt  time.Time `json:"matchedAt"`
}
