// Package domain provides core business rules for the cadence engine:
// the lead lifecycle model, cadence step schedules, and the pure phase
// transition functions applied by the service layer.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TemperatureBand is the coarse urgency classification of a lead.
type TemperatureBand string

const (
	BandHot  TemperatureBand = "HOT"
	BandWarm TemperatureBand = "WARM"
	BandCold TemperatureBand = "COLD"
)

// ConfidenceLevel expresses how much signal backs the current score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// CadencePhase is the position of a lead in the contact lifecycle.
type CadencePhase string

const (
	PhaseNew          CadencePhase = "NEW"
	PhaseBlitz1       CadencePhase = "BLITZ_1"
	PhaseBlitz2       CadencePhase = "BLITZ_2"
	PhaseTemperature  CadencePhase = "TEMPERATURE"
	PhaseDeepProspect CadencePhase = "DEEP_PROSPECT"
	PhaseNurture      CadencePhase = "NURTURE"
	PhaseEngaged      CadencePhase = "ENGAGED"
	PhaseCompleted    CadencePhase = "COMPLETED"
)

// CadenceState is the enrollment state orthogonal to the phase.
type CadenceState string

const (
	StateNotEnrolled CadenceState = "NOT_ENROLLED"
	StateActive      CadenceState = "ACTIVE"
	StateSnoozed     CadenceState = "SNOOZED"
	StatePaused      CadenceState = "PAUSED"
)

// CadenceType selects the step schedule family a lead follows.
type CadenceType string

const (
	CadenceHot    CadenceType = "HOT"
	CadenceWarm   CadenceType = "WARM"
	CadenceCold   CadenceType = "COLD"
	CadenceIce    CadenceType = "ICE"
	CadenceGentle CadenceType = "GENTLE"
	CadenceAnnual CadenceType = "ANNUAL"
)

// ActionType is the kind of contact attempt the engine schedules next.
type ActionType string

const (
	ActionCall       ActionType = "CALL"
	ActionSMS        ActionType = "SMS"
	ActionMail       ActionType = "MAIL"
	ActionEmail      ActionType = "EMAIL"
	ActionGetNumbers ActionType = "GET_NUMBERS"
)

// Engine constants. The no-answer ceiling and staleness window are deliberate
// defaults; both are referenced from tests so a change here is visible.
const (
	// NoAnswerCeiling is the consecutive no-answer count after which a phone
	// no longer counts as viable for exhaustion purposes.
	NoAnswerCeiling = 4

	// StalenessWindow is how long an active lead may sit untouched before the
	// reconciliation job surfaces it as stale.
	StalenessWindow = 7 * 24 * time.Hour

	// MaxBlitzAttempts bounds attempts within a single blitz phase.
	MaxBlitzAttempts = 6

	// BlitzWindow bounds the duration of a single blitz phase.
	BlitzWindow = 5 * 24 * time.Hour

	blitz1RetryDays = 1
	blitz2RetryDays = 2
)

// Lead is the single versioned lead record the engine reads and writes.
// Version backs optimistic writes; a stale save surfaces as a Conflict.
type Lead struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	PriorityScore   int
	TemperatureBand TemperatureBand
	ConfidenceLevel ConfidenceLevel
	CadencePhase    CadencePhase
	CadenceState    CadenceState
	CadenceType     *CadenceType
	CadenceStep     int
	CadenceStartDate *time.Time
	NextActionDue   *time.Time
	NextActionType  *ActionType
	BlitzAttempts   int
	BlitzStartedAt  *time.Time
	EnrollmentCount int
	SnoozedUntil    *time.Time
	PausedReason    *string
	QueueTier       int
	CallAttempts    int
	LastContactedAt *time.Time
	HasEngaged      bool
	NoResponseStreak int
	Motivations     []string
	CallbackAt      *time.Time
	HasOverdueTask  bool
	HasDueTodayTask bool
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasCallback reports whether a pending callback pre-empts the cadence.
func (l Lead) HasCallback() bool {
	return l.CallbackAt != nil
}

// IsTerminalPhase reports whether no further cadence scheduling applies.
func IsTerminalPhase(phase CadencePhase) bool {
	return phase == PhaseEngaged || phase == PhaseCompleted
}

// QueueTierFor derives the coarse queue tier from phase and state.
// Lower tier = higher operator priority.
func QueueTierFor(phase CadencePhase, state CadenceState) int {
	if state != StateActive && state != StateNotEnrolled {
		return 9
	}
	switch phase {
	case PhaseBlitz1, PhaseBlitz2:
		return 3
	case PhaseNew:
		return 2
	case PhaseTemperature:
		return 5
	case PhaseDeepProspect:
		return 7
	default:
		return 9
	}
}

// ValidCadenceType reports whether the value names a known cadence family.
func ValidCadenceType(t CadenceType) bool {
	switch t {
	case CadenceHot, CadenceWarm, CadenceCold, CadenceIce, CadenceGentle, CadenceAnnual:
		return true
	}
	return false
}
