package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/internal/cadence/repository"
	"outreach_backend/internal/cadence/scoring"
	"outreach_backend/internal/events"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// memStore is an in-memory repository.Store for service tests.
type memStore struct {
	mu          sync.Mutex
	leads       map[uuid.UUID]domain.Lead
	phones      map[uuid.UUID][]domain.Phone
	activities  []repository.ActivityEntry
	reconLogs   []repository.ReconciliationEntry
	commitCalls int
}

func newMemStore() *memStore {
	return &memStore{
		leads:  make(map[uuid.UUID]domain.Lead),
		phones: make(map[uuid.UUID][]domain.Phone),
	}
}

func (m *memStore) FindLead(_ context.Context, id uuid.UUID, ownerScope uuid.UUID) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok || lead.OwnerID != ownerScope {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (m *memStore) ListActiveLeads(_ context.Context, ownerScope uuid.UUID) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lead
	for _, l := range m.leads {
		if l.OwnerID == ownerScope && l.CadenceState == domain.StateActive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) SaveLead(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.leads[lead.ID]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	if current.Version != lead.Version {
		return domain.Lead{}, apperr.Conflict("lead was modified concurrently, retry the operation")
	}
	lead.Version++
	lead.UpdatedAt = testNow
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *memStore) UpdateScore(_ context.Context, id uuid.UUID, ownerScope uuid.UUID, score int, band domain.TemperatureBand, confidence domain.ConfidenceLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok || lead.OwnerID != ownerScope {
		return repository.ErrNotFound
	}
	lead.PriorityScore = score
	lead.TemperatureBand = band
	lead.ConfidenceLevel = confidence
	m.leads[id] = lead
	return nil
}

func (m *memStore) ListPhones(_ context.Context, leadID uuid.UUID) ([]domain.Phone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Phone(nil), m.phones[leadID]...), nil
}

func (m *memStore) ListPhonesForLeads(_ context.Context, leadIDs []uuid.UUID) (map[uuid.UUID][]domain.Phone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID][]domain.Phone)
	for _, id := range leadIDs {
		out[id] = append([]domain.Phone(nil), m.phones[id]...)
	}
	return out, nil
}

func (m *memStore) FindPhone(_ context.Context, id uuid.UUID, leadID uuid.UUID) (domain.Phone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.phones[leadID] {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Phone{}, repository.ErrPhoneNotFound
}

func (m *memStore) CreatePhone(_ context.Context, phone domain.Phone) (domain.Phone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if phone.IsPrimary {
		for i := range m.phones[phone.LeadID] {
			m.phones[phone.LeadID][i].IsPrimary = false
		}
	}
	phone.ID = uuid.New()
	phone.CreatedAt = testNow
	m.phones[phone.LeadID] = append(m.phones[phone.LeadID], phone)
	return phone, nil
}

func (m *memStore) SavePhone(_ context.Context, phone domain.Phone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.phones[phone.LeadID] {
		if p.ID == phone.ID {
			m.phones[phone.LeadID][i] = phone
			return nil
		}
	}
	return repository.ErrPhoneNotFound
}

func (m *memStore) CommitCallOutcome(ctx context.Context, lead domain.Lead, phone domain.Phone, activity repository.ActivityEntry) (domain.Lead, error) {
	m.mu.Lock()
	m.commitCalls++
	m.mu.Unlock()
	if err := m.SavePhone(ctx, phone); err != nil {
		return domain.Lead{}, err
	}
	saved, err := m.SaveLead(ctx, lead)
	if err != nil {
		return domain.Lead{}, err
	}
	m.mu.Lock()
	m.activities = append(m.activities, activity)
	m.mu.Unlock()
	return saved, nil
}

func (m *memStore) AppendActivity(_ context.Context, entry repository.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, entry)
	return nil
}

func (m *memStore) ListExpiredSnoozes(_ context.Context, now time.Time, limit int) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lead
	for _, l := range m.leads {
		if l.CadenceState == domain.StateSnoozed && l.SnoozedUntil != nil && !l.SnoozedUntil.After(now) {
			out = append(out, l)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) ListReactivatableDeepProspects(_ context.Context, limit int) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lead
	for id, l := range m.leads {
		if l.CadencePhase != domain.PhaseDeepProspect || l.CadenceState != domain.StateActive {
			continue
		}
		for _, p := range m.phones[id] {
			if p.RemovedAt == nil && p.Status.IsViable() && p.AttemptCount == 0 {
				out = append(out, l)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) CountStaleActive(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, l := range m.leads {
		if l.CadenceState == domain.StateActive && l.UpdatedAt.Before(olderThan) &&
			l.NextActionDue != nil && l.NextActionDue.Before(olderThan) {
			count++
		}
	}
	return count, nil
}

func (m *memStore) AppendReconciliationLog(_ context.Context, entry repository.ReconciliationEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconLogs = append(m.reconLogs, entry)
	return nil
}

func newTestService(store *memStore) *Service {
	log := logger.New("test")
	svc := New(store, scoring.New(store, log), events.NewInMemoryBus(log), log)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedLead(store *memStore, mutate func(*domain.Lead)) domain.Lead {
	lead := domain.Lead{
		ID:              uuid.New(),
		OwnerID:         uuid.New(),
		TemperatureBand: domain.BandWarm,
		CadencePhase:    domain.PhaseNew,
		CadenceState:    domain.StateNotEnrolled,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}
	if mutate != nil {
		mutate(&lead)
	}
	store.leads[lead.ID] = lead
	return lead
}

func seedPhone(store *memStore, leadID uuid.UUID, status domain.PhoneStatus) domain.Phone {
	p := domain.Phone{
		ID:        uuid.New(),
		LeadID:    leadID,
		Number:    "+15555550100",
		Status:    status,
		IsPrimary: len(store.phones[leadID]) == 0,
	}
	store.phones[leadID] = append(store.phones[leadID], p)
	return p
}

func TestEnrollWithPhoneEntersBlitz(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, nil)
	seedPhone(store, lead.ID, domain.PhoneValid)
	svc := newTestService(store)

	saved, err := svc.Enroll(context.Background(), lead.OwnerID, lead.ID, nil)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if saved.CadencePhase != domain.PhaseBlitz1 {
		t.Fatalf("phase = %s, want %s", saved.CadencePhase, domain.PhaseBlitz1)
	}
	if saved.Version != 1 {
		t.Fatalf("version = %d, want 1", saved.Version)
	}
}

func TestEnrollUnknownLeadIsNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	_, err := svc.Enroll(context.Background(), uuid.New(), uuid.New(), nil)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestEnrollOutOfScopeLeadIsNotFound(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, nil)
	svc := newTestService(store)

	_, err := svc.Enroll(context.Background(), uuid.New(), lead.ID, nil)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want NotFound for out-of-scope lead", err)
	}
}

func TestEnrollActiveLeadRejected(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadencePhase = domain.PhaseBlitz1
		l.CadenceState = domain.StateActive
	})
	svc := newTestService(store)

	_, err := svc.Enroll(context.Background(), lead.OwnerID, lead.ID, nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want Validation", err)
	}
}

func TestLogCallCommitsAtomically(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadencePhase = domain.PhaseBlitz1
		l.CadenceState = domain.StateActive
		started := testNow.AddDate(0, 0, -1)
		l.BlitzStartedAt = &started
	})
	phone := seedPhone(store, lead.ID, domain.PhoneValid)
	svc := newTestService(store)

	saved, err := svc.LogCall(context.Background(), lead.OwnerID, lead.ID, LogCallParams{
		PhoneID: &phone.ID,
		Outcome: domain.OutcomeNoAnswer,
	})
	if err != nil {
		t.Fatalf("LogCall: %v", err)
	}

	if saved.CallAttempts != 1 {
		t.Fatalf("call attempts = %d, want 1", saved.CallAttempts)
	}
	if store.commitCalls != 1 {
		t.Fatalf("commit calls = %d, want 1 (single transactional commit)", store.commitCalls)
	}
	if len(store.activities) != 1 || store.activities[0].Action != "CALL_LOGGED" {
		t.Fatalf("activities = %+v, want one CALL_LOGGED row", store.activities)
	}

	phones, _ := store.ListPhones(context.Background(), lead.ID)
	if phones[0].AttemptCount != 1 || phones[0].ConsecutiveNoAnswer != 1 {
		t.Fatalf("phone row = %+v, want attempt and streak recorded", phones[0])
	}
}

func TestLogCallInvalidOutcomeRejected(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadenceState = domain.StateActive
		l.CadencePhase = domain.PhaseBlitz1
	})
	seedPhone(store, lead.ID, domain.PhoneValid)
	svc := newTestService(store)

	_, err := svc.LogCall(context.Background(), lead.OwnerID, lead.ID, LogCallParams{Outcome: "SHOUTED"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want Validation", err)
	}
	if store.commitCalls != 0 {
		t.Fatalf("commit calls = %d, want 0 on validation failure", store.commitCalls)
	}
}

func TestLogCallExhaustionEscalates(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadencePhase = domain.PhaseBlitz1
		l.CadenceState = domain.StateActive
		l.BlitzAttempts = 3
		started := testNow.AddDate(0, 0, -1)
		l.BlitzStartedAt = &started
	})
	phone := seedPhone(store, lead.ID, domain.PhoneValid)
	svc := newTestService(store)

	saved, err := svc.LogCall(context.Background(), lead.OwnerID, lead.ID, LogCallParams{
		PhoneID: &phone.ID,
		Outcome: domain.OutcomeDisconnected,
	})
	if err != nil {
		t.Fatalf("LogCall: %v", err)
	}
	if saved.CadencePhase != domain.PhaseDeepProspect {
		t.Fatalf("phase = %s, want %s after only phone disconnected", saved.CadencePhase, domain.PhaseDeepProspect)
	}
	if saved.QueueTier != 7 {
		t.Fatalf("queue tier = %d, want 7", saved.QueueTier)
	}
}

func TestLogCallCallbackPreempts(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadencePhase = domain.PhaseTemperature
		l.CadenceState = domain.StateActive
		ct := domain.CadenceWarm
		l.CadenceType = &ct
	})
	seedPhone(store, lead.ID, domain.PhoneValid)
	svc := newTestService(store)

	callback := testNow.AddDate(0, 0, 2)
	saved, err := svc.LogCall(context.Background(), lead.OwnerID, lead.ID, LogCallParams{
		Outcome:    domain.OutcomeCallbackSet,
		CallbackAt: &callback,
	})
	if err != nil {
		t.Fatalf("LogCall: %v", err)
	}
	if saved.NextActionDue == nil || !saved.NextActionDue.Equal(callback) {
		t.Fatalf("next action due = %v, want callback %v", saved.NextActionDue, callback)
	}
	if saved.NextActionType == nil || *saved.NextActionType != domain.ActionCall {
		t.Fatalf("next action = %v, want %s", saved.NextActionType, domain.ActionCall)
	}
}

func TestSnoozeRejectsNonPositiveDays(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadenceState = domain.StateActive
		l.CadencePhase = domain.PhaseTemperature
	})
	svc := newTestService(store)

	for _, days := range []int{0, -3} {
		if _, err := svc.Snooze(context.Background(), lead.OwnerID, lead.ID, days); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("Snooze(%d) err = %v, want Validation", days, err)
		}
	}
}

func TestSnoozeThenResume(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadenceState = domain.StateActive
		l.CadencePhase = domain.PhaseTemperature
	})
	svc := newTestService(store)

	snoozed, err := svc.Snooze(context.Background(), lead.OwnerID, lead.ID, 5)
	if err != nil {
		t.Fatalf("Snooze: %v", err)
	}
	want := testNow.AddDate(0, 0, 5)
	if snoozed.SnoozedUntil == nil || !snoozed.SnoozedUntil.Equal(want) {
		t.Fatalf("snoozed until = %v, want %v", snoozed.SnoozedUntil, want)
	}

	resumed, err := svc.Resume(context.Background(), lead.OwnerID, lead.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.CadenceState != domain.StateActive || resumed.SnoozedUntil != nil {
		t.Fatalf("resumed = %s/%v, want ACTIVE with snooze cleared", resumed.CadenceState, resumed.SnoozedUntil)
	}
	if resumed.NextActionDue == nil || !resumed.NextActionDue.Equal(testNow) {
		t.Fatalf("next action due = %v, want recomputed from now", resumed.NextActionDue)
	}
}

func TestPauseRequiresReason(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadenceState = domain.StateActive
		l.CadencePhase = domain.PhaseBlitz1
	})
	svc := newTestService(store)

	if _, err := svc.Pause(context.Background(), lead.OwnerID, lead.ID, ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want Validation for empty reason", err)
	}
}

func TestHandlePhoneAddedPromotesDeepProspect(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadencePhase = domain.PhaseDeepProspect
		l.CadenceState = domain.StateActive
		l.BlitzAttempts = 5
	})
	svc := newTestService(store)

	saved, created, err := svc.HandlePhoneAdded(context.Background(), lead.OwnerID, lead.ID, AddPhoneParams{
		Number: "+1 555 555 0134",
		Status: domain.PhoneValid,
	})
	if err != nil {
		t.Fatalf("HandlePhoneAdded: %v", err)
	}
	if saved.CadencePhase != domain.PhaseBlitz2 {
		t.Fatalf("phase = %s, want %s", saved.CadencePhase, domain.PhaseBlitz2)
	}
	if saved.BlitzAttempts != 0 {
		t.Fatalf("blitz attempts = %d, want 0", saved.BlitzAttempts)
	}
	if !created.IsPrimary {
		t.Fatal("first viable number should become primary")
	}
}

func TestHandlePhoneAddedDemotesExistingPrimary(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadencePhase = domain.PhaseTemperature
		l.CadenceState = domain.StateActive
	})
	old := seedPhone(store, lead.ID, domain.PhoneValid)
	svc := newTestService(store)

	_, created, err := svc.HandlePhoneAdded(context.Background(), lead.OwnerID, lead.ID, AddPhoneParams{
		Number:    "+15555550136",
		Status:    domain.PhoneValid,
		IsPrimary: true,
	})
	if err != nil {
		t.Fatalf("HandlePhoneAdded: %v", err)
	}
	if !created.IsPrimary {
		t.Fatal("requested primary number should be primary")
	}

	phones, _ := store.ListPhones(context.Background(), lead.ID)
	primaries := 0
	for _, p := range phones {
		if p.IsPrimary {
			primaries++
			if p.ID == old.ID {
				t.Fatal("old primary was not demoted")
			}
		}
	}
	if primaries != 1 {
		t.Fatalf("primary count = %d, want exactly 1", primaries)
	}
}

func TestHandlePhoneAddedOutsideDeepProspectKeepsPhase(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadencePhase = domain.PhaseTemperature
		l.CadenceState = domain.StateActive
	})
	seedPhone(store, lead.ID, domain.PhoneValid)
	svc := newTestService(store)

	saved, _, err := svc.HandlePhoneAdded(context.Background(), lead.OwnerID, lead.ID, AddPhoneParams{
		Number: "+15555550135",
	})
	if err != nil {
		t.Fatalf("HandlePhoneAdded: %v", err)
	}
	if saved.CadencePhase != domain.PhaseTemperature {
		t.Fatalf("phase = %s, want unchanged %s", saved.CadencePhase, domain.PhaseTemperature)
	}
}

func TestGetStatusReturnsProgress(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadencePhase = domain.PhaseTemperature
		l.CadenceState = domain.StateActive
		ct := domain.CadenceWarm
		l.CadenceType = &ct
		l.CadenceStep = 2
	})
	seedPhone(store, lead.ID, domain.PhoneValid)
	svc := newTestService(store)

	status, err := svc.GetStatus(context.Background(), lead.OwnerID, lead.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.TotalSteps != 7 {
		t.Fatalf("total steps = %d, want 7 for the warm schedule", status.TotalSteps)
	}
	if status.Exhausted {
		t.Fatal("lead with a fresh valid phone is not exhausted")
	}
	if len(status.Phones) != 1 {
		t.Fatalf("phones = %d, want 1", len(status.Phones))
	}
	if status.LiveScore.Score == 0 || status.LiveScore.Band == "" {
		t.Fatalf("live score = %+v, want a computed result", status.LiveScore)
	}
	if saved, _ := store.FindLead(context.Background(), lead.ID, lead.OwnerID); saved.PriorityScore != lead.PriorityScore {
		t.Fatal("status query must not persist the recomputed score")
	}
}

func TestConcurrentSaveConflictSurfaces(t *testing.T) {
	store := newMemStore()
	lead := seedLead(store, func(l *domain.Lead) {
		l.CadenceState = domain.StateActive
		l.CadencePhase = domain.PhaseTemperature
	})
	svc := newTestService(store)

	// Simulate another writer bumping the version after our read.
	stale := store.leads[lead.ID]
	bumped := stale
	bumped.Version++
	store.leads[lead.ID] = bumped

	stale.CadenceState = domain.StateSnoozed
	_, err := store.SaveLead(context.Background(), stale)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}

	// The service surfaces the conflict unchanged.
	if _, err := svc.Snooze(context.Background(), lead.OwnerID, lead.ID, 1); err != nil {
		// Snooze re-reads the fresh version, so this succeeds.
		t.Fatalf("Snooze after conflict: %v", err)
	}
}
