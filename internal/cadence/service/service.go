// Package service wires the cadence engine together: it loads state through
// the repository, runs the pure domain transitions, commits the result and
// publishes domain events. All operations are scoped to one owner; a lead
// outside the caller's scope is indistinguishable from a missing one.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/internal/cadence/phoneledger"
	"outreach_backend/internal/cadence/repository"
	"outreach_backend/internal/cadence/scoring"
	"outreach_backend/internal/events"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	store  repository.Store
	scorer *scoring.Service
	bus    events.Bus
	log    *logger.Logger
	now    func() time.Time
}

func New(store repository.Store, scorer *scoring.Service, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		scorer: scorer,
		bus:    bus,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Enroll moves a lead into a cadence. A nil band keeps the lead's current
// temperature classification. Re-enrolling a COMPLETED or NURTURE lead is
// allowed and counts separately; enrolling a lead already active in an
// earlier phase is a validation error.
func (s *Service) Enroll(ctx context.Context, ownerScope uuid.UUID, leadID uuid.UUID, band *domain.TemperatureBand) (domain.Lead, error) {
	lead, err := s.findLead(ctx, leadID, ownerScope)
	if err != nil {
		return domain.Lead{}, err
	}

	if lead.CadenceState == domain.StateActive && !reEnrollablePhase(lead.CadencePhase) {
		return domain.Lead{}, apperr.Validation(fmt.Sprintf("lead is already active in phase %s", lead.CadencePhase))
	}

	phones, err := s.store.ListPhones(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}

	targetBand := lead.TemperatureBand
	if band != nil {
		targetBand = *band
	}
	if targetBand == "" {
		targetBand = domain.BandCold
	}

	before := lead
	updated := domain.Enroll(lead, phoneledger.HasViableNumber(phones), targetBand, s.now())

	saved, err := s.store.SaveLead(ctx, updated)
	if err != nil {
		return domain.Lead{}, s.mapStoreErr(err)
	}

	s.bus.Publish(ctx, events.LeadEnrolled{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          saved.ID,
		OwnerID:         saved.OwnerID,
		CadencePhase:    string(saved.CadencePhase),
		CadenceType:     cadenceTypeName(saved.CadenceType),
		TemperatureBand: string(saved.TemperatureBand),
		EnrollmentCount: saved.EnrollmentCount,
	})
	s.publishPhaseChange(ctx, before, saved, "enroll")

	return saved, nil
}

// AddPhoneParams carries a new number for a lead's ledger.
type AddPhoneParams struct {
	Number    string
	Type      string
	Status    domain.PhoneStatus
	IsPrimary bool
}

// HandlePhoneAdded registers a new number and applies its cadence effect: a
// genuinely new viable channel on a deep-prospect lead re-opens the blitz
// window with reset counters.
func (s *Service) HandlePhoneAdded(ctx context.Context, ownerScope uuid.UUID, leadID uuid.UUID, params AddPhoneParams) (domain.Lead, domain.Phone, error) {
	lead, err := s.findLead(ctx, leadID, ownerScope)
	if err != nil {
		return domain.Lead{}, domain.Phone{}, err
	}

	normalized := phone.NormalizeE164(params.Number)
	if normalized == "" {
		return domain.Lead{}, domain.Phone{}, apperr.Validation("phone number is required")
	}

	status := params.Status
	if status == "" {
		status = domain.PhoneUnverified
	}
	if !status.IsViable() && !status.IsTerminal() {
		return domain.Lead{}, domain.Phone{}, apperr.Validation(fmt.Sprintf("unknown phone status %q", status))
	}

	existing, err := s.store.ListPhones(ctx, leadID)
	if err != nil {
		return domain.Lead{}, domain.Phone{}, err
	}
	hadViable := phoneledger.HasViableNumber(existing)

	newPhone := domain.Phone{
		LeadID:    leadID,
		Number:    normalized,
		Type:      params.Type,
		Status:    status,
		IsPrimary: params.IsPrimary || !hadViable,
	}
	created, err := s.store.CreatePhone(ctx, newPhone)
	if err != nil {
		return domain.Lead{}, domain.Phone{}, err
	}

	saved := lead
	if status.IsViable() && lead.CadencePhase == domain.PhaseDeepProspect {
		before := lead
		updated := domain.PromotePhone(lead, s.now())
		saved, err = s.store.SaveLead(ctx, updated)
		if err != nil {
			return domain.Lead{}, domain.Phone{}, s.mapStoreErr(err)
		}
		s.publishPhaseChange(ctx, before, saved, "phone_added")
	}

	s.bus.Publish(ctx, events.PhoneAdded{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		OwnerID:   ownerScope,
		PhoneID:   created.ID,
		Number:    created.Number,
		Status:    string(created.Status),
	})

	return saved, created, nil
}

// LogCallParams carries one call attempt.
type LogCallParams struct {
	PhoneID    *uuid.UUID
	Outcome    domain.CallOutcome
	Notes      *string
	CallbackAt *time.Time
}

// LogCall records a live attempt. The ledger update, the lead transition and
// the audit row commit as one transaction; a failure leaves no partial state.
func (s *Service) LogCall(ctx context.Context, ownerScope uuid.UUID, leadID uuid.UUID, params LogCallParams) (domain.Lead, error) {
	if !domain.ValidOutcome(params.Outcome) {
		return domain.Lead{}, apperr.Validation(fmt.Sprintf("unknown call outcome %q", params.Outcome))
	}
	if params.CallbackAt != nil && params.CallbackAt.Before(s.now()) {
		return domain.Lead{}, apperr.Validation("callback time must be in the future")
	}

	lead, err := s.findLead(ctx, leadID, ownerScope)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.CadenceState != domain.StateActive {
		return domain.Lead{}, apperr.Validation(fmt.Sprintf("cannot log a call on a %s lead", lead.CadenceState))
	}

	phones, err := s.store.ListPhones(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}

	target, err := pickPhone(phones, params.PhoneID)
	if err != nil {
		return domain.Lead{}, err
	}

	now := s.now()
	dialed := phoneledger.RecordAttempt(target, params.Outcome, now)

	// Evaluate exhaustion against the ledger as it will be after this commit.
	after := make([]domain.Phone, len(phones))
	copy(after, phones)
	for i := range after {
		if after[i].ID == dialed.ID {
			after[i] = dialed
		}
	}
	exhausted := phoneledger.IsExhausted(after)

	before := lead
	updated := domain.ApplyCallOutcome(lead, params.Outcome, exhausted, params.CallbackAt, now)

	saved, err := s.store.CommitCallOutcome(ctx, updated, dialed, repository.ActivityEntry{
		LeadID:   leadID,
		Action:   "CALL_LOGGED",
		Field:    "last_outcome",
		OldValue: lastOutcomeName(target.LastOutcome),
		NewValue: string(params.Outcome),
		Source:   "cadence_engine",
		Notes:    params.Notes,
	})
	if err != nil {
		return domain.Lead{}, s.mapStoreErr(err)
	}

	s.bus.Publish(ctx, events.CallLogged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		OwnerID:   ownerScope,
		PhoneID:   dialed.ID,
		Outcome:   string(params.Outcome),
		Notes:     params.Notes,
	})
	s.publishPhaseChange(ctx, before, saved, "log_call")

	return saved, nil
}

// Snooze parks an active lead for the given number of days.
func (s *Service) Snooze(ctx context.Context, ownerScope uuid.UUID, leadID uuid.UUID, days int) (domain.Lead, error) {
	if days <= 0 {
		return domain.Lead{}, apperr.Validation("snooze days must be positive")
	}

	lead, err := s.findLead(ctx, leadID, ownerScope)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.CadenceState != domain.StateActive {
		return domain.Lead{}, apperr.Validation(fmt.Sprintf("cannot snooze a %s lead", lead.CadenceState))
	}

	before := lead
	updated := domain.Snooze(lead, s.now().AddDate(0, 0, days))

	saved, err := s.store.SaveLead(ctx, updated)
	if err != nil {
		return domain.Lead{}, s.mapStoreErr(err)
	}
	s.publishPhaseChange(ctx, before, saved, "snooze")
	return saved, nil
}

// Pause takes a lead out of circulation until explicitly resumed.
func (s *Service) Pause(ctx context.Context, ownerScope uuid.UUID, leadID uuid.UUID, reason string) (domain.Lead, error) {
	if reason == "" {
		return domain.Lead{}, apperr.Validation("pause reason is required")
	}

	lead, err := s.findLead(ctx, leadID, ownerScope)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.CadenceState == domain.StatePaused {
		return lead, nil
	}
	if lead.CadenceState == domain.StateNotEnrolled {
		return domain.Lead{}, apperr.Validation("cannot pause a lead that is not enrolled")
	}

	before := lead
	updated := domain.Pause(lead, reason)

	saved, err := s.store.SaveLead(ctx, updated)
	if err != nil {
		return domain.Lead{}, s.mapStoreErr(err)
	}
	s.publishPhaseChange(ctx, before, saved, "pause")
	return saved, nil
}

// Resume reactivates a snoozed or paused lead with a fresh due date.
func (s *Service) Resume(ctx context.Context, ownerScope uuid.UUID, leadID uuid.UUID) (domain.Lead, error) {
	lead, err := s.findLead(ctx, leadID, ownerScope)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.CadenceState != domain.StateSnoozed && lead.CadenceState != domain.StatePaused {
		return domain.Lead{}, apperr.Validation(fmt.Sprintf("cannot resume a %s lead", lead.CadenceState))
	}

	before := lead
	updated := domain.Resume(lead, s.now())

	saved, err := s.store.SaveLead(ctx, updated)
	if err != nil {
		return domain.Lead{}, s.mapStoreErr(err)
	}
	s.publishPhaseChange(ctx, before, saved, "resume")
	return saved, nil
}

// Score recomputes and persists the lead's priority score.
func (s *Service) Score(ctx context.Context, ownerScope uuid.UUID, leadID uuid.UUID) (scoring.Result, error) {
	lead, err := s.findLead(ctx, leadID, ownerScope)
	if err != nil {
		return scoring.Result{}, err
	}

	result, err := s.scorer.ScoreRecord(ctx, leadID, ownerScope)
	if err != nil {
		return scoring.Result{}, s.mapStoreErr(err)
	}

	if result.Score != lead.PriorityScore {
		s.bus.Publish(ctx, events.LeadRescored{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			OwnerID:   ownerScope,
			OldScore:  lead.PriorityScore,
			NewScore:  result.Score,
			Band:      string(result.Band),
		})
	}
	return result, nil
}

// Status is the progress view of one lead's cadence. LiveScore is recomputed
// for the view and never persisted; the stored score may lag behind it until
// the next Score call.
type Status struct {
	Lead       domain.Lead
	Phones     []domain.Phone
	TotalSteps int
	Exhausted  bool
	LiveScore  scoring.Result
}

// GetStatus returns the lead with its ledger and cadence progress.
func (s *Service) GetStatus(ctx context.Context, ownerScope uuid.UUID, leadID uuid.UUID) (Status, error) {
	lead, err := s.findLead(ctx, leadID, ownerScope)
	if err != nil {
		return Status{}, err
	}
	phones, err := s.store.ListPhones(ctx, leadID)
	if err != nil {
		return Status{}, err
	}

	live, err := s.scorer.Recalculate(ctx, leadID, ownerScope)
	if err != nil {
		return Status{}, s.mapStoreErr(err)
	}

	totalSteps := 0
	if lead.CadenceType != nil {
		totalSteps = domain.TotalSteps(*lead.CadenceType)
	}

	return Status{
		Lead:       lead,
		Phones:     phones,
		TotalSteps: totalSteps,
		Exhausted:  phoneledger.IsExhausted(phones),
		LiveScore:  live,
	}, nil
}

func (s *Service) findLead(ctx context.Context, leadID uuid.UUID, ownerScope uuid.UUID) (domain.Lead, error) {
	lead, err := s.store.FindLead(ctx, leadID, ownerScope)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

func (s *Service) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("lead not found")
	case errors.Is(err, repository.ErrPhoneNotFound):
		return apperr.NotFound("phone not found")
	default:
		return err
	}
}

func (s *Service) publishPhaseChange(ctx context.Context, before, after domain.Lead, source string) {
	if before.CadencePhase == after.CadencePhase && before.CadenceState == after.CadenceState {
		return
	}
	s.bus.Publish(ctx, events.PhaseChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    after.ID,
		OwnerID:   after.OwnerID,
		FromPhase: string(before.CadencePhase),
		ToPhase:   string(after.CadencePhase),
		FromState: string(before.CadenceState),
		ToState:   string(after.CadenceState),
		Source:    source,
	})
}

// pickPhone resolves the dialed number: an explicit id, else the primary,
// else the first viable number on the ledger.
func pickPhone(phones []domain.Phone, phoneID *uuid.UUID) (domain.Phone, error) {
	if phoneID != nil {
		for _, p := range phones {
			if p.ID == *phoneID {
				return p, nil
			}
		}
		return domain.Phone{}, apperr.NotFound("phone not found")
	}
	for _, p := range phones {
		if p.IsPrimary && p.RemovedAt == nil && p.Status.IsViable() {
			return p, nil
		}
	}
	viable := phoneledger.Viable(phones)
	if len(viable) > 0 {
		return viable[0], nil
	}
	return domain.Phone{}, apperr.Validation("lead has no viable phone number to dial")
}

func reEnrollablePhase(phase domain.CadencePhase) bool {
	return phase == domain.PhaseCompleted || phase == domain.PhaseNurture || phase == domain.PhaseEngaged
}

func cadenceTypeName(ct *domain.CadenceType) string {
	if ct == nil {
		return ""
	}
	return string(*ct)
}

func lastOutcomeName(o *domain.CallOutcome) string {
	if o == nil {
		return ""
	}
	return string(*o)
}
