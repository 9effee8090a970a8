// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"outreach_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Cadence Domain Events
// =============================================================================

// LeadEnrolled is published when a lead enters (or re-enters) a cadence.
type LeadEnrolled struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	OwnerID         uuid.UUID `json:"ownerId"`
	CadencePhase    string    `json:"cadencePhase"`
	CadenceType     string    `json:"cadenceType"`
	TemperatureBand string    `json:"temperatureBand"`
	EnrollmentCount int       `json:"enrollmentCount"`
}

func (e LeadEnrolled) EventName() string { return "cadence.lead.enrolled" }

// CallLogged is published after a call attempt has been committed.
type CallLogged struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	OwnerID uuid.UUID `json:"ownerId"`
	PhoneID uuid.UUID `json:"phoneId"`
	Outcome string    `json:"outcome"`
	Notes   *string   `json:"notes,omitempty"`
}

func (e CallLogged) EventName() string { return "cadence.call.logged" }

// PhaseChanged is published whenever an operation moves a lead between
// cadence phases or states.
type PhaseChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OwnerID   uuid.UUID `json:"ownerId"`
	FromPhase string    `json:"fromPhase"`
	ToPhase   string    `json:"toPhase"`
	FromState string    `json:"fromState"`
	ToState   string    `json:"toState"`
	Source    string    `json:"source"`
}

func (e PhaseChanged) EventName() string { return "cadence.lead.phase_changed" }

// PhoneAdded is published when a new number lands on a lead's ledger.
type PhoneAdded struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	OwnerID uuid.UUID `json:"ownerId"`
	PhoneID uuid.UUID `json:"phoneId"`
	Number  string    `json:"number"`
	Status  string    `json:"status"`
}

func (e PhoneAdded) EventName() string { return "cadence.phone.added" }

// LeadRescored is published after the scorer persists a changed score.
type LeadRescored struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	OwnerID  uuid.UUID `json:"ownerId"`
	OldScore int       `json:"oldScore"`
	NewScore int       `json:"newScore"`
	Band     string    `json:"band"`
}

func (e LeadRescored) EventName() string { return "cadence.lead.rescored" }

// ReconcileCompleted is published after a reconciliation run finishes.
type ReconcileCompleted struct {
	BaseEvent
	Status           string        `json:"status"`
	RecordsProcessed int           `json:"recordsProcessed"`
	IssuesFound      int           `json:"issuesFound"`
	IssuesFixed      int           `json:"issuesFixed"`
	Duration         time.Duration `json:"duration"`
}

func (e ReconcileCompleted) EventName() string { return "cadence.reconcile.completed" }
