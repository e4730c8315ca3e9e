// Package service routes match events to the channels each user enabled:
// in-app rows, SSE pushes and email. Delivery is fire-and-forget; a failed
// channel never fails the sync that produced the match.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"leadpilot_backend/internal/email"
	domainevents "leadpilot_backend/internal/events"
	"leadpilot_backend/internal/notification/repository"
	"leadpilot_backend/internal/notification/sse"
	prefdomain "leadpilot_backend/internal/preferences/domain"
	trackdomain "leadpilot_backend/internal/tracking/domain"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"
)

// Channel names recorded against tracking rows.
const (
	ChannelInApp = "inapp"
	ChannelSSE   = "sse"
	ChannelEmail = "email"
)

// PreferenceReader fetches a user's notification preferences.
type PreferenceReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*prefdomain.Preference, error)
}

// Recipient resolves a user's email address.
type Recipient interface {
	EmailFor(ctx context.Context, userID uuid.UUID) (string, error)
}

// DeliveryLog records a delivered notification against a tracking row.
type DeliveryLog interface {
	AddNotification(ctx context.Context, notification *trackdomain.Notification) error
}

// Service fans match events out to the enabled channels.
type Service struct {
	repo       repository.Repository
	stream     *sse.Service
	sender     email.Sender
	prefs      PreferenceReader
	recipients Recipient
	deliveries DeliveryLog
	log        *logger.Logger
}

// New creates a notification service.
func New(
	repo repository.Repository,
	stream *sse.Service,
	sender email.Sender,
	prefs PreferenceReader,
	recipients Recipient,
	deliveries DeliveryLog,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		stream:     stream,
		sender:     sender,
		prefs:      prefs,
		recipients: recipients,
		deliveries: deliveries,
		log:        log,
	}
}

// Subscribe wires the service to the event bus.
func (s *Service) Subscribe(bus events.Bus) {
	bus.Subscribe(domainevents.LeadMatchedName, events.HandlerFunc(s.handleLeadMatched))
	bus.Subscribe(domainevents.SyncCompletedName, events.HandlerFunc(s.handleSyncCompleted))
}

func (s *Service) handleLeadMatched(ctx context.Context, event events.Event) error {
	matched, ok := event.(domainevents.LeadMatched)
	if !ok {
		return nil
	}

	pref, err := s.prefs.Get(ctx, matched.UserID)
	if err != nil {
		// no preferences means no notification settings; drop silently
		return nil
	}
	if !s.wantsNotification(pref.Notifications, matched) {
		return nil
	}

	title := fmt.Sprintf("New lead match: %s", matched.LeadName)
	message := fmt.Sprintf("%s scored %d (%s priority) via %s", matched.LeadName, matched.Score, matched.Priority, matched.Source)

	if pref.Notifications.InApp {
		s.deliverInApp(ctx, matched, title, message)
	}
	// SSE rides along with in-app: a connected client sees the match
	// immediately either way.
	s.deliverSSE(ctx, matched, message)

	if pref.Notifications.Email {
		s.deliverEmail(ctx, matched, title, message)
	}
	return nil
}

func (s *Service) handleSyncCompleted(_ context.Context, event events.Event) error {
	completed, ok := event.(domainevents.SyncCompleted)
	if !ok {
		return nil
	}
	s.stream.Publish(completed.UserID, sse.Event{
		Type: sse.EventSyncCompleted,
		Data: completed,
	})
	return nil
}

// wantsNotification applies the user's match filters: minimum score plus
// optional industry and location allowlists.
func (s *Service) wantsNotification(prefs prefdomain.Notifications, matched domainevents.LeadMatched) bool {
	if matched.Score < prefs.MinScore {
		return false
	}
	if len(prefs.Industries) > 0 && !containsFold(prefs.Industries, matched.Industry) {
		return false
	}
	if len(prefs.Locations) > 0 && !locationAllowed(prefs.Locations, matched.Location) {
		return false
	}
	return true
}

func (s *Service) deliverInApp(ctx context.Context, matched domainevents.LeadMatched, title, message string) {
	_, err := s.repo.Create(ctx, &repository.Notification{
		UserID:  matched.UserID,
		Type:    string(sse.EventLeadMatched),
		Title:   title,
		Message: message,
		Payload: map[string]any{
			"leadId":     matched.LeadID.String(),
			"trackingId": matched.TrackingID.String(),
			"score":      matched.Score,
			"priority":   matched.Priority,
			"source":     matched.Source,
		},
	})
	if err != nil {
		s.log.Warn("in-app notification failed", "user_id", matched.UserID.String(), "error", err.Error())
		return
	}
	s.recordDelivery(ctx, matched.TrackingID, ChannelInApp, message)
}

func (s *Service) deliverSSE(ctx context.Context, matched domainevents.LeadMatched, message string) {
	s.stream.Publish(matched.UserID, sse.Event{
		Type:    sse.EventLeadMatched,
		LeadID:  matched.LeadID,
		Message: message,
		Data:    matched,
	})
	s.recordDelivery(ctx, matched.TrackingID, ChannelSSE, message)
}

func (s *Service) deliverEmail(ctx context.Context, matched domainevents.LeadMatched, title, message string) {
	address, err := s.recipients.EmailFor(ctx, matched.UserID)
	if err != nil || address == "" {
		s.log.Warn("no email address for match notification", "user_id", matched.UserID.String())
		return
	}
	if err := s.sender.Send(ctx, address, title, message); err != nil {
		s.log.Warn("email notification failed", "user_id", matched.UserID.String(), "error", err.Error())
		return
	}
	s.recordDelivery(ctx, matched.TrackingID, ChannelEmail, message)
}

func (s *Service) recordDelivery(ctx context.Context, trackingID uuid.UUID, channel, message string) {
	if s.deliveries == nil || trackingID == uuid.Nil {
		return
	}
	err := s.deliveries.AddNotification(ctx, &trackdomain.Notification{
		TrackingID: trackingID,
		Channel:    channel,
		Message:    message,
	})
	if err != nil {
		s.log.Warn("delivery record failed", "tracking_id", trackingID.String(), "error", err.Error())
	}
}

// List returns a user's in-app notifications.
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*repository.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit)
}

// UnreadCount returns the unread badge count.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks one notification read.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead marks everything read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func containsFold(list []string, value string) bool {
	if value == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

// locationAllowed matches when any allowlisted location appears in the
// lead's "city, country" string.
func locationAllowed(allowed []string, location string) bool {
	folded := strings.ToLower(location)
	for _, item := range allowed {
		if item == "" {
			continue
		}
		if strings.Contains(folded, strings.ToLower(strings.TrimSpace(item))) {
			return true
		}
	}
	return false
}
