package queue

import (
	"testing"
	"time"

	"outreach_backend/internal/cadence/domain"

	"github.com/google/uuid"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func activeLead(due *time.Time) domain.Lead {
	return domain.Lead{
		ID:            uuid.New(),
		CadenceState:  domain.StateActive,
		NextActionDue: due,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestBuildIsAPartitionOfActiveLeads(t *testing.T) {
	leads := []domain.Lead{
		activeLead(timePtr(now.AddDate(0, 0, -2))), // overdue
		activeLead(timePtr(now)),                   // due today
		activeLead(timePtr(now.AddDate(0, 0, 3))),  // upcoming
		activeLead(nil),                            // no due date, no phones -> get numbers
	}
	withTask := activeLead(timePtr(now.AddDate(0, 0, 5)))
	withTask.HasOverdueTask = true
	leads = append(leads, withTask)

	snoozed := activeLead(timePtr(now))
	snoozed.CadenceState = domain.StateSnoozed
	leads = append(leads, snoozed)

	phones := map[uuid.UUID][]domain.Phone{
		leads[2].ID: {{Status: domain.PhoneValid}},
		withTask.ID: {{Status: domain.PhoneValid}},
	}

	sections := Build(leads, phones, now, 0)

	total := 0
	for _, s := range Sections() {
		total += len(sections[s])
	}
	if total != 5 {
		t.Fatalf("entries = %d, want 5 (snoozed lead excluded)", total)
	}
	if len(sections[SectionOverdue]) != 1 {
		t.Fatalf("overdue = %d, want 1", len(sections[SectionOverdue]))
	}
	if len(sections[SectionDueToday]) != 1 {
		t.Fatalf("due today = %d, want 1", len(sections[SectionDueToday]))
	}
	if len(sections[SectionTasksDue]) != 1 {
		t.Fatalf("tasks due = %d, want 1", len(sections[SectionTasksDue]))
	}
	if len(sections[SectionGetNumbers]) != 1 {
		t.Fatalf("get numbers = %d, want 1", len(sections[SectionGetNumbers]))
	}
	if len(sections[SectionUpcoming]) != 1 {
		t.Fatalf("upcoming = %d, want 1", len(sections[SectionUpcoming]))
	}
}

func TestDueAtMidnightIsDueTodayNotOverdue(t *testing.T) {
	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	leads := []domain.Lead{activeLead(&midnight)}

	sections := Build(leads, nil, now, 0)

	if len(sections[SectionDueToday]) != 1 {
		t.Fatalf("due today = %d, want 1", len(sections[SectionDueToday]))
	}
	if len(sections[SectionOverdue]) != 0 {
		t.Fatalf("overdue = %d, want 0", len(sections[SectionOverdue]))
	}
}

func TestVerifyFirstBeforeGetNumbers(t *testing.T) {
	unverifiedOnly := activeLead(timePtr(now.AddDate(0, 0, 2)))
	noViable := activeLead(timePtr(now.AddDate(0, 0, 2)))

	phones := map[uuid.UUID][]domain.Phone{
		unverifiedOnly.ID: {{Status: domain.PhoneUnverified}},
		noViable.ID:       {{Status: domain.PhoneWrong}},
	}

	sections := Build([]domain.Lead{unverifiedOnly, noViable}, phones, now, 0)

	if len(sections[SectionVerifyFirst]) != 1 || sections[SectionVerifyFirst][0].LeadID != unverifiedOnly.ID {
		t.Fatalf("verify first section wrong: %+v", sections[SectionVerifyFirst])
	}
	if len(sections[SectionGetNumbers]) != 1 || sections[SectionGetNumbers][0].LeadID != noViable.ID {
		t.Fatalf("get numbers section wrong: %+v", sections[SectionGetNumbers])
	}
}

func TestSectionOrderingCallbackScoreDue(t *testing.T) {
	early := timePtr(now.AddDate(0, 0, -3))
	late := timePtr(now.AddDate(0, 0, -1))
	callback := timePtr(now.AddDate(0, 0, 1))

	lowWithCallback := activeLead(early)
	lowWithCallback.PriorityScore = 30
	lowWithCallback.CallbackAt = callback

	highScore := activeLead(late)
	highScore.PriorityScore = 90

	midEarlyDue := activeLead(early)
	midEarlyDue.PriorityScore = 60

	midLateDue := activeLead(late)
	midLateDue.PriorityScore = 60

	sections := Build([]domain.Lead{midLateDue, highScore, lowWithCallback, midEarlyDue}, nil, now, 0)
	got := sections[SectionOverdue]
	if len(got) != 4 {
		t.Fatalf("overdue = %d, want 4", len(got))
	}

	want := []uuid.UUID{lowWithCallback.ID, highScore.ID, midEarlyDue.ID, midLateDue.ID}
	for i, id := range want {
		if got[i].LeadID != id {
			t.Fatalf("position %d = %s, want %s", i, got[i].LeadID, id)
		}
	}
}

func TestEqualScoreAndDueFallsBackToLeadTieBreaks(t *testing.T) {
	due := timePtr(now.AddDate(0, 0, -2))

	recentlyTouched := activeLead(due)
	recentlyTouched.PriorityScore = 60
	recentlyTouched.LastContactedAt = timePtr(now.AddDate(0, 0, -1))

	longestIdle := activeLead(due)
	longestIdle.PriorityScore = 60
	longestIdle.LastContactedAt = timePtr(now.AddDate(0, 0, -30))

	withOverdueTask := activeLead(due)
	withOverdueTask.PriorityScore = 60
	withOverdueTask.HasOverdueTask = true
	withOverdueTask.LastContactedAt = timePtr(now.AddDate(0, 0, -1))

	sections := Build([]domain.Lead{recentlyTouched, longestIdle, withOverdueTask}, nil, now, 0)
	got := sections[SectionOverdue]
	if len(got) != 3 {
		t.Fatalf("overdue = %d, want 3", len(got))
	}

	want := []uuid.UUID{withOverdueTask.ID, longestIdle.ID, recentlyTouched.ID}
	for i, id := range want {
		if got[i].LeadID != id {
			t.Fatalf("position %d = %s, want %s", i, got[i].LeadID, id)
		}
	}
}

func TestSectionCapBoundsResults(t *testing.T) {
	var leads []domain.Lead
	for i := 0; i < 10; i++ {
		leads = append(leads, activeLead(timePtr(now.AddDate(0, 0, -1))))
	}

	sections := Build(leads, nil, now, 3)

	if len(sections[SectionOverdue]) != 3 {
		t.Fatalf("overdue = %d, want cap of 3", len(sections[SectionOverdue]))
	}
}

func TestFlattenKeepsSectionPriorityOrder(t *testing.T) {
	overdue := activeLead(timePtr(now.AddDate(0, 0, -1)))
	upcoming := activeLead(timePtr(now.AddDate(0, 0, 3)))

	phones := map[uuid.UUID][]domain.Phone{
		upcoming.ID: {{Status: domain.PhoneValid}},
	}

	flat := Flatten(Build([]domain.Lead{upcoming, overdue}, phones, now, 0))

	if len(flat) != 2 {
		t.Fatalf("flat = %d, want 2", len(flat))
	}
	if flat[0].LeadID != overdue.ID {
		t.Fatalf("first = %s, want overdue lead %s", flat[0].LeadID, overdue.ID)
	}
}
