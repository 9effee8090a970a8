package domain

import (
	"time"

	"github.com/google/uuid"
)

// PhoneStatus is the viability classification of a phone number.
type PhoneStatus string

const (
	PhoneValid        PhoneStatus = "VALID"
	PhoneUnverified   PhoneStatus = "UNVERIFIED"
	PhoneWrong        PhoneStatus = "WRONG"
	PhoneDisconnected PhoneStatus = "DISCONNECTED"
	PhoneDNC          PhoneStatus = "DNC"
)

// IsViable reports whether the status still allows contact attempts.
func (s PhoneStatus) IsViable() bool {
	return s == PhoneValid || s == PhoneUnverified
}

// IsTerminal reports whether the status permanently rules the number out.
func (s PhoneStatus) IsTerminal() bool {
	return s == PhoneWrong || s == PhoneDisconnected || s == PhoneDNC
}

// Phone is one contact number belonging to exactly one lead. Attempt counters
// are mutated only by the call-logging operation; rows referenced by activity
// history are soft-removed, never deleted.
type Phone struct {
	ID                 uuid.UUID
	LeadID             uuid.UUID
	Number             string
	Type               string
	Status             PhoneStatus
	IsPrimary          bool
	AttemptCount       int
	LastAttemptAt      *time.Time
	LastOutcome        *CallOutcome
	ConsecutiveNoAnswer int
	RemovedAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CallOutcome is the disposition of a single call attempt.
type CallOutcome string

const (
	OutcomeConnected     CallOutcome = "CONNECTED"
	OutcomeInterested    CallOutcome = "INTERESTED"
	OutcomeCallbackSet   CallOutcome = "CALLBACK_SET"
	OutcomeNotInterested CallOutcome = "NOT_INTERESTED"
	OutcomeNoAnswer      CallOutcome = "NO_ANSWER"
	OutcomeVoicemail     CallOutcome = "VOICEMAIL"
	OutcomeBusy          CallOutcome = "BUSY"
	OutcomeWrongNumber   CallOutcome = "WRONG_NUMBER"
	OutcomeDisconnected  CallOutcome = "DISCONNECTED"
	OutcomeDoNotCall     CallOutcome = "DO_NOT_CALL"
)

// ValidOutcome reports whether the value names a known call outcome.
func ValidOutcome(o CallOutcome) bool {
	switch o {
	case OutcomeConnected, OutcomeInterested, OutcomeCallbackSet, OutcomeNotInterested,
		OutcomeNoAnswer, OutcomeVoicemail, OutcomeBusy,
		OutcomeWrongNumber, OutcomeDisconnected, OutcomeDoNotCall:
		return true
	}
	return false
}

// IsLiveContact reports whether a human answered; live contact resets the
// consecutive no-answer counter.
func (o CallOutcome) IsLiveContact() bool {
	switch o {
	case OutcomeConnected, OutcomeInterested, OutcomeCallbackSet, OutcomeNotInterested:
		return true
	}
	return false
}

// IsEngaged reports whether the outcome counts as a positive response.
func (o CallOutcome) IsEngaged() bool {
	switch o {
	case OutcomeConnected, OutcomeInterested, OutcomeCallbackSet:
		return true
	}
	return false
}

// PhoneStatusAfter returns the phone status implied by an outcome, or the
// current status when the outcome carries no status information.
func PhoneStatusAfter(current PhoneStatus, outcome CallOutcome) PhoneStatus {
	switch outcome {
	case OutcomeWrongNumber:
		return PhoneWrong
	case OutcomeDisconnected:
		return PhoneDisconnected
	case OutcomeDoNotCall:
		return PhoneDNC
	}
	// A live contact proves an unverified number reaches its owner.
	if outcome.IsLiveContact() && current == PhoneUnverified {
		return PhoneValid
	}
	return current
}
