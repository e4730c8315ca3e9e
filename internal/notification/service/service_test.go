package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	domainevents "leadpilot_backend/internal/events"
	"leadpilot_backend/internal/notification/repository"
	"leadpilot_backend/internal/notification/sse"
	prefdomain "leadpilot_backend/internal/preferences/domain"
	trackdomain "leadpilot_backend/internal/tracking/domain"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"
)

type fakeNotificationRepo struct {
	created []*repository.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *repository.Notification) (*repository.Notification, error) {
	f.created = append(f.created, n)
	return n, nil
}
func (f *fakeNotificationRepo) ListByUser(_ context.Context, _ uuid.UUID, _ bool, _ int) ([]*repository.Notification, error) {
	return f.created, nil
}
func (f *fakeNotificationRepo) UnreadCount(_ context.Context, _ uuid.UUID) (int, error) {
	return len(f.created), nil
}
func (f *fakeNotificationRepo) MarkRead(_ context.Context, _, _ uuid.UUID) error { return nil }
func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, _ uuid.UUID) error { return nil }

type fakePrefReader struct {
	pref *prefdomain.Preference
}

func (f *fakePrefReader) Get(_ context.Context, _ uuid.UUID) (*prefdomain.Preference, error) {
	return f.pref, nil
}

type fakeRecipient struct {
	email string
}

func (f *fakeRecipient) EmailFor(_ context.Context, _ uuid.UUID) (string, error) {
	return f.email, nil
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(_ context.Context, to, _, _ string) error {
	f.sent = append(f.sent, to)
	return nil
}

type fakeDeliveries struct {
	channels []string
}

func (f *fakeDeliveries) AddNotification(_ context.Context, n *trackdomain.Notification) error {
	f.channels = append(f.channels, n.Channel)
	return nil
}

func notifyPref(inApp, email bool, minScore int) *prefdomain.Preference {
	return &prefdomain.Preference{
		Notifications: prefdomain.Notifications{
			InApp:    inApp,
			Email:    email,
			MinScore: minScore,
		},
	}
}

func matchEvent(score int) domainevents.LeadMatched {
	return domainevents.LeadMatched{
		BaseEvent:  events.NewBaseEvent(),
		UserID:     uuid.New(),
		LeadID:     uuid.New(),
		TrackingID: uuid.New(),
		LeadName:   "Acme",
		Score:      score,
		Priority:   "high",
		Industry:   "Software",
		Location:   "Austin, USA",
		Source:     "demo1",
	}
}

func newTestService(repo *fakeNotificationRepo, prefs *fakePrefReader, sender *fakeSender, deliveries *fakeDeliveries) *Service {
	return New(repo, sse.New(), sender, prefs, &fakeRecipient{email: "user@example.com"}, deliveries, logger.New("test"))
}

func TestLeadMatchedDeliversEnabledChannels(t *testing.T) {
	repo := &fakeNotificationRepo{}
	sender := &fakeSender{}
	deliveries := &fakeDeliveries{}
	svc := newTestService(repo, &fakePrefReader{pref: notifyPref(true, true, 0)}, sender, deliveries)

	if err := svc.handleLeadMatched(context.Background(), matchEvent(85)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected in-app notification, got %d", len(repo.created))
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected email sent, got %d", len(sender.sent))
	}
	// inapp + sse + email all recorded on the tracking row
	if len(deliveries.channels) != 3 {
		t.Fatalf("expected 3 delivery records, got %v", deliveries.channels)
	}
}

func TestLeadMatchedRespectsDisabledChannels(t *testing.T) {
	repo := &fakeNotificationRepo{}
	sender := &fakeSender{}
	svc := newTestService(repo, &fakePrefReader{pref: notifyPref(false, false, 0)}, sender, &fakeDeliveries{})

	if err := svc.handleLeadMatched(context.Background(), matchEvent(85)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("in-app disabled, nothing should be stored")
	}
	if len(sender.sent) != 0 {
		t.Fatal("email disabled, nothing should be sent")
	}
}

func TestLeadMatchedBelowMinScoreIsDropped(t *testing.T) {
	repo := &fakeNotificationRepo{}
	sender := &fakeSender{}
	svc := newTestService(repo, &fakePrefReader{pref: notifyPref(true, true, 70)}, sender, &fakeDeliveries{})

	if err := svc.handleLeadMatched(context.Background(), matchEvent(50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 0 || len(sender.sent) != 0 {
		t.Fatal("match below the notification minimum must be dropped")
	}
}

func TestLeadMatchedIndustryFilter(t *testing.T) {
	pref := notifyPref(true, false, 0)
	pref.Notifications.Industries = []string{"Healthcare"}
	repo := &fakeNotificationRepo{}
	svc := newTestService(repo, &fakePrefReader{pref: pref}, &fakeSender{}, &fakeDeliveries{})

	if err := svc.handleLeadMatched(context.Background(), matchEvent(85)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("software match must not pass a healthcare-only filter")
	}

	pref.Notifications.Industries = []string{"software"}
	if err := svc.handleLeadMatched(context.Background(), matchEvent(85)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatal("industry filter should match case-insensitively")
	}
}

func TestLeadMatchedLocationFilter(t *testing.T) {
	pref := notifyPref(true, false, 0)
	pref.Notifications.Locations = []string{"Berlin"}
	repo := &fakeNotificationRepo{}
	svc := newTestService(repo, &fakePrefReader{pref: pref}, &fakeSender{}, &fakeDeliveries{})

	if err := svc.handleLeadMatched(context.Background(), matchEvent(85)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("Austin match must not pass a Berlin-only filter")
	}

	pref.Notifications.Locations = []string{"austin"}
	if err := svc.handleLeadMatched(context.Background(), matchEvent(85)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatal("location filter should substring-match the lead location")
	}
}
