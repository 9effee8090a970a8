package cadence

import (
	"context"
	"fmt"

	"outreach_backend/internal/cadence/repository"
	"outreach_backend/internal/events"
	"outreach_backend/platform/logger"
)

// registerActivityWriter subscribes the audit-trail writer to the engine's
// domain events. Appends run off the async bus, so a slow or failing audit
// write never blocks a transition.
func registerActivityWriter(bus events.Bus, appender repository.ActivityAppender, log *logger.Logger) {
	write := func(ctx context.Context, entry repository.ActivityEntry) {
		if err := appender.AppendActivity(ctx, entry); err != nil {
			log.Warn("activity append failed", "lead_id", entry.LeadID, "action", entry.Action, "error", err)
		}
	}

	bus.Subscribe(events.LeadEnrolled{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		evt, ok := e.(events.LeadEnrolled)
		if !ok {
			return nil
		}
		write(ctx, repository.ActivityEntry{
			LeadID:   evt.LeadID,
			Action:   "ENROLLED",
			Field:    "cadence_phase",
			NewValue: evt.CadencePhase,
			Source:   "cadence_engine",
		})
		return nil
	}))

	bus.Subscribe(events.PhaseChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		evt, ok := e.(events.PhaseChanged)
		if !ok {
			return nil
		}
		write(ctx, repository.ActivityEntry{
			LeadID:   evt.LeadID,
			Action:   "PHASE_CHANGED",
			Field:    "cadence_phase",
			OldValue: fmt.Sprintf("%s/%s", evt.FromPhase, evt.FromState),
			NewValue: fmt.Sprintf("%s/%s", evt.ToPhase, evt.ToState),
			Source:   evt.Source,
		})
		return nil
	}))

	bus.Subscribe(events.PhoneAdded{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		evt, ok := e.(events.PhoneAdded)
		if !ok {
			return nil
		}
		write(ctx, repository.ActivityEntry{
			LeadID:   evt.LeadID,
			Action:   "PHONE_ADDED",
			Field:    "phone_numbers",
			NewValue: evt.Number,
			Source:   "cadence_engine",
		})
		return nil
	}))

	bus.Subscribe(events.LeadRescored{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		evt, ok := e.(events.LeadRescored)
		if !ok {
			return nil
		}
		write(ctx, repository.ActivityEntry{
			LeadID:   evt.LeadID,
			Action:   "RESCORED",
			Field:    "priority_score",
			OldValue: fmt.Sprintf("%d", evt.OldScore),
			NewValue: fmt.Sprintf("%d", evt.NewScore),
			Source:   "cadence_engine",
		})
		return nil
	}))
}
