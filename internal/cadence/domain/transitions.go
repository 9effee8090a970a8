package domain

import "time"

// The functions in this file are pure: they take a lead value plus the
// signals the service layer gathered (ledger state, injected now) and return
// the updated lead. Persistence and event publication stay in the service.

// Enroll moves a lead into its first (or next) cadence. A lead without a
// viable phone skips straight to the research phase.
func Enroll(lead Lead, hasValidPhone bool, band TemperatureBand, now time.Time) Lead {
	reenrolled := lead.EnrollmentCount > 0

	lead.TemperatureBand = band
	ct := CadenceTypeForBand(band, reenrolled)
	lead.CadenceType = &ct
	lead.CadenceState = StateActive
	lead.CadenceStep = 0
	lead.CadenceStartDate = &now
	lead.EnrollmentCount++
	lead.BlitzAttempts = 0
	lead.NoResponseStreak = 0
	lead.SnoozedUntil = nil
	lead.PausedReason = nil
	lead.CallbackAt = nil

	if hasValidPhone {
		lead.CadencePhase = PhaseBlitz1
		lead.BlitzStartedAt = &now
		setNextAction(&lead, ActionCall, now)
	} else {
		lead.CadencePhase = PhaseDeepProspect
		lead.BlitzStartedAt = nil
		setNextAction(&lead, ActionGetNumbers, now)
	}

	lead.QueueTier = QueueTierFor(lead.CadencePhase, lead.CadenceState)
	return lead
}

// ApplyCallOutcome applies the lead-side effects of a logged call: attempt
// bookkeeping, engagement, callback pre-emption, cadence advancement and
// exhaustion escalation, in that order.
func ApplyCallOutcome(lead Lead, outcome CallOutcome, exhausted bool, callbackAt *time.Time, now time.Time) Lead {
	lead.CallAttempts++
	lead.LastContactedAt = &now

	if outcome.IsLiveContact() {
		lead.NoResponseStreak = 0
	} else {
		lead.NoResponseStreak++
	}

	if outcome.IsEngaged() {
		lead.HasEngaged = true
		lead.CadencePhase = PhaseEngaged
		lead.NextActionDue = nil
		lead.NextActionType = nil
		lead.CallbackAt = nil
	}

	// Callbacks always pre-empt the cadence step schedule.
	if callbackAt != nil {
		lead.CallbackAt = callbackAt
		due := *callbackAt
		lead.NextActionDue = &due
		action := ActionCall
		lead.NextActionType = &action
	} else if !outcome.IsEngaged() {
		lead.CallbackAt = nil
		advanceCadence(&lead, now)
	}

	if exhausted && !outcome.IsEngaged() {
		escalateToDeepProspect(&lead, now)
	}

	lead.QueueTier = QueueTierFor(lead.CadencePhase, lead.CadenceState)
	return lead
}

// Snooze parks an active lead until the given time.
func Snooze(lead Lead, until time.Time) Lead {
	lead.CadenceState = StateSnoozed
	lead.SnoozedUntil = &until
	lead.QueueTier = QueueTierFor(lead.CadencePhase, lead.CadenceState)
	return lead
}

// Pause takes a lead out of circulation until explicitly resumed.
func Pause(lead Lead, reason string) Lead {
	lead.CadenceState = StatePaused
	lead.PausedReason = &reason
	lead.SnoozedUntil = nil
	lead.QueueTier = QueueTierFor(lead.CadencePhase, lead.CadenceState)
	return lead
}

// Resume reactivates a snoozed or paused lead. The next action is recomputed
// from now; a stale past due date is never restored.
func Resume(lead Lead, now time.Time) Lead {
	lead.CadenceState = StateActive
	lead.SnoozedUntil = nil
	lead.PausedReason = nil
	if !IsTerminalPhase(lead.CadencePhase) {
		action := ActionCall
		if lead.CadencePhase == PhaseDeepProspect {
			action = ActionGetNumbers
		} else if lead.NextActionType != nil {
			action = *lead.NextActionType
		}
		setNextAction(&lead, action, now)
	}
	lead.QueueTier = QueueTierFor(lead.CadencePhase, lead.CadenceState)
	return lead
}

// PromotePhone re-opens the aggressive contact window after a genuinely new
// viable number lands on a deep-prospect lead.
func PromotePhone(lead Lead, now time.Time) Lead {
	lead.CadencePhase = PhaseBlitz2
	lead.CadenceState = StateActive
	lead.BlitzAttempts = 0
	lead.BlitzStartedAt = &now
	lead.SnoozedUntil = nil
	lead.PausedReason = nil
	setNextAction(&lead, ActionCall, now)
	lead.QueueTier = QueueTierFor(lead.CadencePhase, lead.CadenceState)
	return lead
}

// advanceCadence moves the lead to its next touch after a non-engaged call.
func advanceCadence(lead *Lead, now time.Time) {
	switch lead.CadencePhase {
	case PhaseBlitz1:
		lead.BlitzAttempts++
		if blitzSpent(*lead, now) {
			lead.CadencePhase = PhaseBlitz2
			lead.BlitzAttempts = 0
			lead.BlitzStartedAt = &now
			setNextAction(lead, ActionCall, now.AddDate(0, 0, blitz2RetryDays))
			return
		}
		setNextAction(lead, ActionCall, now.AddDate(0, 0, blitz1RetryDays))

	case PhaseBlitz2:
		lead.BlitzAttempts++
		if blitzSpent(*lead, now) {
			lead.CadencePhase = PhaseTemperature
			enterFamily(lead, CadenceTypeForBand(lead.TemperatureBand, lead.EnrollmentCount > 1), now)
			return
		}
		setNextAction(lead, ActionCall, now.AddDate(0, 0, blitz2RetryDays))

	case PhaseTemperature, PhaseNurture:
		advanceFamilyStep(lead, now)

	case PhaseDeepProspect:
		setNextAction(lead, ActionGetNumbers, now)
	}
}

// blitzSpent reports whether the current blitz phase ran out of attempts or time.
func blitzSpent(lead Lead, now time.Time) bool {
	if lead.BlitzAttempts >= MaxBlitzAttempts {
		return true
	}
	return lead.BlitzStartedAt != nil && now.Sub(*lead.BlitzStartedAt) >= BlitzWindow
}

// advanceFamilyStep consumes the current step and schedules the next one,
// rolling over to the next slower family when the schedule is exhausted:
// TEMPERATURE -> NURTURE/GENTLE -> NURTURE/ANNUAL -> COMPLETED.
func advanceFamilyStep(lead *Lead, now time.Time) {
	family := currentFamily(*lead)
	steps := ScheduleFor(family).Steps()
	next := lead.CadenceStep + 1

	if next < len(steps) {
		lead.CadenceStep = next
		gap := steps[next].OffsetDays - steps[lead.CadenceStep-1].OffsetDays
		if gap < 1 {
			gap = 1
		}
		setNextAction(lead, steps[next].Action, now.AddDate(0, 0, gap))
		return
	}

	switch {
	case lead.CadencePhase == PhaseTemperature:
		lead.CadencePhase = PhaseNurture
		enterFamily(lead, CadenceGentle, now)
	case family == CadenceGentle:
		enterFamily(lead, CadenceAnnual, now)
	default:
		lead.CadencePhase = PhaseCompleted
		lead.NextActionDue = nil
		lead.NextActionType = nil
	}
}

// enterFamily positions the lead at the start of a new schedule family. The
// first touch is scheduled a full first-gap out because the lead was just
// contacted on the way in.
func enterFamily(lead *Lead, family CadenceType, now time.Time) {
	lead.CadenceType = &family
	lead.CadenceStep = 0
	lead.CadenceStartDate = &now

	steps := ScheduleFor(family).Steps()
	gap := 1
	if len(steps) > 1 {
		gap = steps[1].OffsetDays
	}
	setNextAction(lead, steps[0].Action, now.AddDate(0, 0, gap))
}

func escalateToDeepProspect(lead *Lead, now time.Time) {
	lead.CadencePhase = PhaseDeepProspect
	setNextAction(lead, ActionGetNumbers, now)
}

func currentFamily(lead Lead) CadenceType {
	if lead.CadenceType != nil {
		return *lead.CadenceType
	}
	return CadenceTypeForBand(lead.TemperatureBand, lead.EnrollmentCount > 1)
}

func setNextAction(lead *Lead, action ActionType, due time.Time) {
	lead.NextActionDue = &due
	lead.NextActionType = &action
}
