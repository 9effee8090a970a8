package domain

import (
	"testing"
	"time"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func activeLead(phase CadencePhase, family CadenceType) Lead {
	started := now.AddDate(0, 0, -1)
	return Lead{
		TemperatureBand:  BandWarm,
		CadencePhase:     phase,
		CadenceState:     StateActive,
		CadenceType:      &family,
		CadenceStartDate: &started,
		EnrollmentCount:  1,
		BlitzStartedAt:   &started,
	}
}

func TestEnrollWithValidPhoneStartsBlitz(t *testing.T) {
	lead := Enroll(Lead{}, true, BandHot, now)

	if lead.CadencePhase != PhaseBlitz1 {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseBlitz1)
	}
	if lead.CadenceState != StateActive {
		t.Fatalf("state = %s, want %s", lead.CadenceState, StateActive)
	}
	if lead.CadenceType == nil || *lead.CadenceType != CadenceHot {
		t.Fatalf("cadence type = %v, want %s", lead.CadenceType, CadenceHot)
	}
	if lead.NextActionDue == nil || !lead.NextActionDue.Equal(now) {
		t.Fatalf("next action due = %v, want %v", lead.NextActionDue, now)
	}
	if lead.NextActionType == nil || *lead.NextActionType != ActionCall {
		t.Fatalf("next action = %v, want %s", lead.NextActionType, ActionCall)
	}
	if lead.QueueTier != 3 {
		t.Fatalf("queue tier = %d, want 3", lead.QueueTier)
	}
	if lead.EnrollmentCount != 1 {
		t.Fatalf("enrollment count = %d, want 1", lead.EnrollmentCount)
	}
}

func TestEnrollWithoutPhoneGoesToDeepProspect(t *testing.T) {
	lead := Enroll(Lead{}, false, BandWarm, now)

	if lead.CadencePhase != PhaseDeepProspect {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseDeepProspect)
	}
	if lead.NextActionType == nil || *lead.NextActionType != ActionGetNumbers {
		t.Fatalf("next action = %v, want %s", lead.NextActionType, ActionGetNumbers)
	}
	if lead.QueueTier != 7 {
		t.Fatalf("queue tier = %d, want 7", lead.QueueTier)
	}
}

func TestReEnrollmentDemotesColdToIce(t *testing.T) {
	prior := Lead{EnrollmentCount: 1}
	lead := Enroll(prior, true, BandCold, now)

	if lead.CadenceType == nil || *lead.CadenceType != CadenceIce {
		t.Fatalf("cadence type = %v, want %s", lead.CadenceType, CadenceIce)
	}
	if lead.EnrollmentCount != 2 {
		t.Fatalf("enrollment count = %d, want 2", lead.EnrollmentCount)
	}
}

func TestEngagedOutcomeEndsCadence(t *testing.T) {
	lead := ApplyCallOutcome(activeLead(PhaseBlitz1, CadenceWarm), OutcomeInterested, false, nil, now)

	if lead.CadencePhase != PhaseEngaged {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseEngaged)
	}
	if !lead.HasEngaged {
		t.Fatal("expected HasEngaged")
	}
	if lead.NextActionDue != nil || lead.NextActionType != nil {
		t.Fatalf("expected next action cleared, got %v %v", lead.NextActionDue, lead.NextActionType)
	}
	if lead.NoResponseStreak != 0 {
		t.Fatalf("no-response streak = %d, want 0", lead.NoResponseStreak)
	}
	if lead.QueueTier != 9 {
		t.Fatalf("queue tier = %d, want 9", lead.QueueTier)
	}
}

func TestCallbackPreemptsCadenceSchedule(t *testing.T) {
	callback := now.AddDate(0, 0, 3)
	lead := ApplyCallOutcome(activeLead(PhaseBlitz1, CadenceWarm), OutcomeCallbackSet, false, &callback, now)

	if lead.CadencePhase != PhaseEngaged {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseEngaged)
	}
	if lead.CallbackAt == nil || !lead.CallbackAt.Equal(callback) {
		t.Fatalf("callback at = %v, want %v", lead.CallbackAt, callback)
	}
	if lead.NextActionDue == nil || !lead.NextActionDue.Equal(callback) {
		t.Fatalf("next action due = %v, want %v", lead.NextActionDue, callback)
	}
}

func TestNoAnswerInBlitzSchedulesRetry(t *testing.T) {
	lead := ApplyCallOutcome(activeLead(PhaseBlitz1, CadenceWarm), OutcomeNoAnswer, false, nil, now)

	if lead.CadencePhase != PhaseBlitz1 {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseBlitz1)
	}
	if lead.BlitzAttempts != 1 {
		t.Fatalf("blitz attempts = %d, want 1", lead.BlitzAttempts)
	}
	if lead.NoResponseStreak != 1 {
		t.Fatalf("no-response streak = %d, want 1", lead.NoResponseStreak)
	}
	want := now.AddDate(0, 0, 1)
	if lead.NextActionDue == nil || !lead.NextActionDue.Equal(want) {
		t.Fatalf("next action due = %v, want %v", lead.NextActionDue, want)
	}
}

func TestBlitz1EscalatesAfterMaxAttempts(t *testing.T) {
	start := activeLead(PhaseBlitz1, CadenceWarm)
	start.BlitzAttempts = MaxBlitzAttempts - 1

	lead := ApplyCallOutcome(start, OutcomeVoicemail, false, nil, now)

	if lead.CadencePhase != PhaseBlitz2 {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseBlitz2)
	}
	if lead.BlitzAttempts != 0 {
		t.Fatalf("blitz attempts = %d, want 0 after escalation", lead.BlitzAttempts)
	}
	if lead.BlitzStartedAt == nil || !lead.BlitzStartedAt.Equal(now) {
		t.Fatalf("blitz started at = %v, want %v", lead.BlitzStartedAt, now)
	}
}

func TestBlitz1EscalatesAfterWindowElapsed(t *testing.T) {
	start := activeLead(PhaseBlitz1, CadenceWarm)
	old := now.Add(-BlitzWindow - time.Hour)
	start.BlitzStartedAt = &old
	start.BlitzAttempts = 1

	lead := ApplyCallOutcome(start, OutcomeBusy, false, nil, now)

	if lead.CadencePhase != PhaseBlitz2 {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseBlitz2)
	}
}

func TestBlitz2EscalatesIntoTemperatureCadence(t *testing.T) {
	start := activeLead(PhaseBlitz2, CadenceWarm)
	start.BlitzAttempts = MaxBlitzAttempts - 1

	lead := ApplyCallOutcome(start, OutcomeNoAnswer, false, nil, now)

	if lead.CadencePhase != PhaseTemperature {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseTemperature)
	}
	if lead.CadenceType == nil || *lead.CadenceType != CadenceWarm {
		t.Fatalf("cadence type = %v, want %s", lead.CadenceType, CadenceWarm)
	}
	if lead.CadenceStep != 0 {
		t.Fatalf("cadence step = %d, want 0", lead.CadenceStep)
	}
	// Warm schedule's second touch sits 2 days after the first.
	want := now.AddDate(0, 0, 2)
	if lead.NextActionDue == nil || !lead.NextActionDue.Equal(want) {
		t.Fatalf("next action due = %v, want %v", lead.NextActionDue, want)
	}
	if lead.QueueTier != 5 {
		t.Fatalf("queue tier = %d, want 5", lead.QueueTier)
	}
}

func TestTemperatureStepAdvancesBySpacing(t *testing.T) {
	start := activeLead(PhaseTemperature, CadenceWarm)
	start.CadenceStep = 1

	lead := ApplyCallOutcome(start, OutcomeNoAnswer, false, nil, now)

	if lead.CadenceStep != 2 {
		t.Fatalf("cadence step = %d, want 2", lead.CadenceStep)
	}
	// Warm offsets 2 -> 5: three days between touches.
	want := now.AddDate(0, 0, 3)
	if lead.NextActionDue == nil || !lead.NextActionDue.Equal(want) {
		t.Fatalf("next action due = %v, want %v", lead.NextActionDue, want)
	}
}

func TestTemperatureExhaustedRollsIntoNurture(t *testing.T) {
	start := activeLead(PhaseTemperature, CadenceWarm)
	start.CadenceStep = len(WarmCadence{}.Steps()) - 1

	lead := ApplyCallOutcome(start, OutcomeNoAnswer, false, nil, now)

	if lead.CadencePhase != PhaseNurture {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseNurture)
	}
	if lead.CadenceType == nil || *lead.CadenceType != CadenceGentle {
		t.Fatalf("cadence type = %v, want %s", lead.CadenceType, CadenceGentle)
	}
	if lead.QueueTier != 9 {
		t.Fatalf("queue tier = %d, want 9", lead.QueueTier)
	}
}

func TestAnnualExhaustedCompletes(t *testing.T) {
	start := activeLead(PhaseNurture, CadenceAnnual)
	start.CadenceStep = len(AnnualCadence{}.Steps()) - 1

	lead := ApplyCallOutcome(start, OutcomeNoAnswer, false, nil, now)

	if lead.CadencePhase != PhaseCompleted {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseCompleted)
	}
	if lead.NextActionDue != nil {
		t.Fatalf("expected next action cleared, got %v", lead.NextActionDue)
	}
}

func TestExhaustedLedgerForcesDeepProspect(t *testing.T) {
	lead := ApplyCallOutcome(activeLead(PhaseBlitz1, CadenceWarm), OutcomeDisconnected, true, nil, now)

	if lead.CadencePhase != PhaseDeepProspect {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseDeepProspect)
	}
	if lead.NextActionType == nil || *lead.NextActionType != ActionGetNumbers {
		t.Fatalf("next action = %v, want %s", lead.NextActionType, ActionGetNumbers)
	}
	if lead.QueueTier != 7 {
		t.Fatalf("queue tier = %d, want 7", lead.QueueTier)
	}
}

func TestEngagementBeatsExhaustion(t *testing.T) {
	lead := ApplyCallOutcome(activeLead(PhaseBlitz2, CadenceWarm), OutcomeConnected, true, nil, now)

	if lead.CadencePhase != PhaseEngaged {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseEngaged)
	}
}

func TestNotInterestedResetsStreakButAdvances(t *testing.T) {
	start := activeLead(PhaseBlitz1, CadenceWarm)
	start.NoResponseStreak = 3

	lead := ApplyCallOutcome(start, OutcomeNotInterested, false, nil, now)

	if lead.NoResponseStreak != 0 {
		t.Fatalf("no-response streak = %d, want 0", lead.NoResponseStreak)
	}
	if lead.CadencePhase != PhaseBlitz1 {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseBlitz1)
	}
	if lead.HasEngaged {
		t.Fatal("NOT_INTERESTED must not mark the lead engaged")
	}
}

func TestSnoozeAndResume(t *testing.T) {
	until := now.AddDate(0, 0, 5)
	lead := Snooze(activeLead(PhaseTemperature, CadenceWarm), until)

	if lead.CadenceState != StateSnoozed {
		t.Fatalf("state = %s, want %s", lead.CadenceState, StateSnoozed)
	}
	if lead.SnoozedUntil == nil || !lead.SnoozedUntil.Equal(until) {
		t.Fatalf("snoozed until = %v, want %v", lead.SnoozedUntil, until)
	}
	if lead.QueueTier != 9 {
		t.Fatalf("queue tier = %d, want 9 while snoozed", lead.QueueTier)
	}

	resumed := Resume(lead, now)
	if resumed.CadenceState != StateActive {
		t.Fatalf("state = %s, want %s", resumed.CadenceState, StateActive)
	}
	if resumed.SnoozedUntil != nil {
		t.Fatalf("snoozed until = %v, want nil", resumed.SnoozedUntil)
	}
	if resumed.NextActionDue == nil || !resumed.NextActionDue.Equal(now) {
		t.Fatalf("next action due = %v, want %v", resumed.NextActionDue, now)
	}
	if resumed.QueueTier != 5 {
		t.Fatalf("queue tier = %d, want 5", resumed.QueueTier)
	}
}

func TestPauseRecordsReason(t *testing.T) {
	lead := Pause(activeLead(PhaseBlitz1, CadenceWarm), "client request")

	if lead.CadenceState != StatePaused {
		t.Fatalf("state = %s, want %s", lead.CadenceState, StatePaused)
	}
	if lead.PausedReason == nil || *lead.PausedReason != "client request" {
		t.Fatalf("paused reason = %v, want client request", lead.PausedReason)
	}
}

func TestPromotePhoneReopensBlitz2(t *testing.T) {
	start := activeLead(PhaseDeepProspect, CadenceWarm)
	start.BlitzAttempts = 4

	lead := PromotePhone(start, now)

	if lead.CadencePhase != PhaseBlitz2 {
		t.Fatalf("phase = %s, want %s", lead.CadencePhase, PhaseBlitz2)
	}
	if lead.BlitzAttempts != 0 {
		t.Fatalf("blitz attempts = %d, want 0", lead.BlitzAttempts)
	}
	if lead.NextActionDue == nil || !lead.NextActionDue.Equal(now) {
		t.Fatalf("next action due = %v, want %v", lead.NextActionDue, now)
	}
	if lead.QueueTier != 3 {
		t.Fatalf("queue tier = %d, want 3", lead.QueueTier)
	}
}
