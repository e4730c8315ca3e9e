package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainevents "leadpilot_backend/internal/events"
	prefdomain "leadpilot_backend/internal/preferences/domain"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"
)

// PreferenceLister is the slice of the preferences service the sweep needs.
type PreferenceLister interface {
	ListWithAPIKeys(ctx context.Context) ([]*prefdomain.Preference, error)
}

// ActiveUserLister reports which accounts are enabled. Preferences survive
// a deactivation, so the sweep intersects the two sets.
type ActiveUserLister interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Sweep is the nightly pass over every user with provider credentials.
// Users are synced sequentially with a pause between them so the providers
// see a steady trickle instead of a burst.
type Sweep struct {
	prefs  PreferenceLister
	users  ActiveUserLister
	syncer Syncer
	bus    events.Bus
	log    *logger.Logger
	delay  time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewSweep builds the sweep job.
func NewSweep(prefs PreferenceLister, users ActiveUserLister, syncer Syncer, bus events.Bus, log *logger.Logger, delay time.Duration) *Sweep {
	return &Sweep{
		prefs:  prefs,
		users:  users,
		syncer: syncer,
		bus:    bus,
		log:    log,
		delay:  delay,
		sleep:  sleepCtx,
	}
}

// Run visits every eligible user once. A failing user is logged and the
// sweep moves on; cancellation stops it between users.
func (s *Sweep) Run(ctx context.Context) {
	candidates, err := s.prefs.ListWithAPIKeys(ctx)
	if err != nil {
		s.log.Error("sweep aborted: cannot list users", "error", err.Error())
		return
	}
	activeIDs, err := s.users.ListActiveIDs(ctx)
	if err != nil {
		s.log.Error("sweep aborted: cannot list active users", "error", err.Error())
		return
	}
	active := make(map[uuid.UUID]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	prefs := candidates[:0]
	for _, pref := range candidates {
		if active[pref.UserID] {
			prefs = append(prefs, pref)
		}
	}
	s.log.Info("sweep started", "users", len(prefs), "skipped_inactive", len(candidates)-len(prefs))

	succeeded, failed := 0, 0
	for i, pref := range prefs {
		if ctx.Err() != nil {
			s.log.Warn("sweep cancelled", "visited", i, "total", len(prefs))
			return
		}

		if _, err := s.syncer.SyncLeadsForUser(ctx, pref.UserID); err != nil {
			failed++
			s.log.Warn("sweep user sync failed",
				"user_id", pref.UserID.String(),
				"error", err.Error(),
			)
		} else {
			if _, err := s.syncer.MatchStoredLeads(ctx, pref.UserID, time.Time{}); err != nil {
				s.log.Warn("sweep match pass failed",
					"user_id", pref.UserID.String(),
					"error", err.Error(),
				)
			}
			succeeded++
		}

		if i < len(prefs)-1 && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return
			}
		}
	}

	s.log.Info("sweep finished", "succeeded", succeeded, "failed", failed)
	if s.bus != nil {
		s.bus.Publish(ctx, domainevents.SweepCompleted{
			BaseEvent: events.NewBaseEvent(),
			Users:     len(prefs),
			Succeeded: succeeded,
			Failed:    failed,
		})
	}
}
