package transport

import (
	"time"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/internal/cadence/queue"
	"outreach_backend/internal/cadence/scoring"
	"outreach_backend/internal/cadence/service"

	"github.com/google/uuid"
)

// EnrollRequest is the request body for enrolling a lead in a cadence.
type EnrollRequest struct {
	TemperatureBand *string `json:"temperatureBand,omitempty" validate:"omitempty,oneof=HOT WARM COLD"`
}

// AddPhoneRequest is the request body for the phone-added hook.
type AddPhoneRequest struct {
	Number    string `json:"number" validate:"required,min=7,max=20"`
	Type      string `json:"type,omitempty" validate:"omitempty,oneof=MOBILE LANDLINE WORK OTHER"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=VALID UNVERIFIED"`
	IsPrimary bool   `json:"isPrimary"`
}

// LogCallRequest is the request body for recording a call attempt.
type LogCallRequest struct {
	PhoneID    *uuid.UUID `json:"phoneId,omitempty"`
	Outcome    string     `json:"outcome" validate:"required"`
	Notes      *string    `json:"notes,omitempty" validate:"omitempty,max=4000"`
	CallbackAt *time.Time `json:"callbackAt,omitempty"`
}

// SnoozeRequest is the request body for snoozing a lead.
type SnoozeRequest struct {
	Days int `json:"days" validate:"required,min=1,max=365"`
}

// PauseRequest is the request body for pausing a lead.
type PauseRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// ReconcileRequest optionally bounds a manually triggered reconciliation run.
type ReconcileRequest struct {
	BatchSize *int `json:"batchSize,omitempty" validate:"omitempty,min=1,max=1000"`
}

// QueueRequest is the query for the operator queue.
type QueueRequest struct {
	Section string `form:"section" validate:"omitempty,oneof=OVERDUE DUE_TODAY TASKS_DUE VERIFY_FIRST GET_NUMBERS UPCOMING"`
}

// PhoneResponse is the wire shape of one ledger row.
type PhoneResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Number              string     `json:"number"`
	Type                string     `json:"type,omitempty"`
	Status              string     `json:"phoneStatus"`
	IsPrimary           bool       `json:"isPrimary"`
	AttemptCount        int        `json:"attemptCount"`
	LastAttemptAt       *time.Time `json:"lastAttemptAt,omitempty"`
	LastOutcome         *string    `json:"lastOutcome,omitempty"`
	ConsecutiveNoAnswer int        `json:"consecutiveNoAnswer"`
}

// LeadResponse is the wire shape of a lead's cadence state.
type LeadResponse struct {
	ID               uuid.UUID  `json:"id"`
	PriorityScore    int        `json:"priorityScore"`
	TemperatureBand  string     `json:"temperatureBand"`
	ConfidenceLevel  string     `json:"confidenceLevel,omitempty"`
	CadencePhase     string     `json:"cadencePhase"`
	CadenceState     string     `json:"cadenceState"`
	CadenceType      *string    `json:"cadenceType,omitempty"`
	CadenceStep      int        `json:"cadenceStep"`
	CadenceStartDate *time.Time `json:"cadenceStartDate,omitempty"`
	NextActionDue    *time.Time `json:"nextActionDue,omitempty"`
	NextActionType   *string    `json:"nextActionType,omitempty"`
	BlitzAttempts    int        `json:"blitzAttempts"`
	EnrollmentCount  int        `json:"enrollmentCount"`
	SnoozedUntil     *time.Time `json:"snoozedUntil,omitempty"`
	PausedReason     *string    `json:"pausedReason,omitempty"`
	QueueTier        int        `json:"queueTier"`
	CallAttempts     int        `json:"callAttempts"`
	LastContactedAt  *time.Time `json:"lastContactedAt,omitempty"`
	HasEngaged       bool       `json:"hasEngaged"`
	NoResponseStreak int        `json:"noResponseStreak"`
	CallbackAt       *time.Time `json:"callbackAt,omitempty"`
	Version          int        `json:"version"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// StatusResponse is the progress view returned by the status endpoint.
// LiveScore is the freshly computed score; the lead carries the stored one.
type StatusResponse struct {
	Lead       LeadResponse    `json:"lead"`
	Phones     []PhoneResponse `json:"phones"`
	TotalSteps int             `json:"totalSteps"`
	Exhausted  bool            `json:"exhausted"`
	LiveScore  ScoreResponse   `json:"liveScore"`
}

// ScoreResponse is the wire shape of a scoring result.
type ScoreResponse struct {
	Score       int                `json:"score"`
	Band        string             `json:"temperatureBand"`
	Confidence  string             `json:"confidenceLevel"`
	NextAction  string             `json:"nextAction"`
	Reasons     []string           `json:"reasons"`
	TopReason   string             `json:"topReason"`
	Suggestions []string           `json:"suggestions"`
	Flags       []string           `json:"flags"`
	Factors     map[string]float64 `json:"factors"`
	Version     string             `json:"version"`
}

// FromLead maps a domain lead to its wire shape.
func FromLead(l domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:               l.ID,
		PriorityScore:    l.PriorityScore,
		TemperatureBand:  string(l.TemperatureBand),
		ConfidenceLevel:  string(l.ConfidenceLevel),
		CadencePhase:     string(l.CadencePhase),
		CadenceState:     string(l.CadenceState),
		CadenceStep:      l.CadenceStep,
		CadenceStartDate: l.CadenceStartDate,
		NextActionDue:    l.NextActionDue,
		BlitzAttempts:    l.BlitzAttempts,
		EnrollmentCount:  l.EnrollmentCount,
		SnoozedUntil:     l.SnoozedUntil,
		PausedReason:     l.PausedReason,
		QueueTier:        l.QueueTier,
		CallAttempts:     l.CallAttempts,
		LastContactedAt:  l.LastContactedAt,
		HasEngaged:       l.HasEngaged,
		NoResponseStreak: l.NoResponseStreak,
		CallbackAt:       l.CallbackAt,
		Version:          l.Version,
		UpdatedAt:        l.UpdatedAt,
	}
	if l.CadenceType != nil {
		s := string(*l.CadenceType)
		resp.CadenceType = &s
	}
	if l.NextActionType != nil {
		s := string(*l.NextActionType)
		resp.NextActionType = &s
	}
	return resp
}

// FromPhone maps a ledger row to its wire shape.
func FromPhone(p domain.Phone) PhoneResponse {
	resp := PhoneResponse{
		ID:                  p.ID,
		Number:              p.Number,
		Type:                p.Type,
		Status:              string(p.Status),
		IsPrimary:           p.IsPrimary,
		AttemptCount:        p.AttemptCount,
		LastAttemptAt:       p.LastAttemptAt,
		ConsecutiveNoAnswer: p.ConsecutiveNoAnswer,
	}
	if p.LastOutcome != nil {
		s := string(*p.LastOutcome)
		resp.LastOutcome = &s
	}
	return resp
}

// FromStatus maps the service progress view to its wire shape.
func FromStatus(s service.Status) StatusResponse {
	phones := make([]PhoneResponse, 0, len(s.Phones))
	for _, p := range s.Phones {
		phones = append(phones, FromPhone(p))
	}
	return StatusResponse{
		Lead:       FromLead(s.Lead),
		Phones:     phones,
		TotalSteps: s.TotalSteps,
		Exhausted:  s.Exhausted,
		LiveScore:  FromScore(s.LiveScore),
	}
}

// FromScore maps a scoring result to its wire shape.
func FromScore(r scoring.Result) ScoreResponse {
	return ScoreResponse{
		Score:       r.Score,
		Band:        string(r.Band),
		Confidence:  string(r.Confidence),
		NextAction:  string(r.NextAction),
		Reasons:     r.Reasons,
		TopReason:   r.TopReason,
		Suggestions: r.Suggestions,
		Flags:       r.Flags,
		Factors:     r.Factors,
		Version:     r.Version,
	}
}

// QueueResponse wraps the sectioned queue.
type QueueResponse struct {
	Sections map[queue.Section][]queue.Entry `json:"sections"`
}
