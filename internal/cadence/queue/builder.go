// Package queue projects the active lead population into the ordered,
// sectioned work queue operators dial from. The projection is recomputed on
// every query and never persisted.
package queue

import (
	"sort"
	"time"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/internal/cadence/phoneledger"
	"outreach_backend/internal/cadence/scoring"

	"github.com/google/uuid"
)

// Section identifies one bucket of the operator queue, in priority order.
type Section string

const (
	SectionOverdue     Section = "OVERDUE"
	SectionDueToday    Section = "DUE_TODAY"
	SectionTasksDue    Section = "TASKS_DUE"
	SectionVerifyFirst Section = "VERIFY_FIRST"
	SectionGetNumbers  Section = "GET_NUMBERS"
	SectionUpcoming    Section = "UPCOMING"
)

// Sections lists every section in display order.
func Sections() []Section {
	return []Section{
		SectionOverdue, SectionDueToday, SectionTasksDue,
		SectionVerifyFirst, SectionGetNumbers, SectionUpcoming,
	}
}

// ValidSection reports whether s names a known queue section.
func ValidSection(s Section) bool {
	for _, known := range Sections() {
		if s == known {
			return true
		}
	}
	return false
}

// Entry is the per-lead queue projection.
type Entry struct {
	LeadID          uuid.UUID              `json:"leadId"`
	Section         Section                `json:"queueSection"`
	Reason          string                 `json:"queueReason"`
	Score           int                    `json:"score"`
	TemperatureBand domain.TemperatureBand `json:"temperatureBand"`
	CadenceStep     int                    `json:"cadenceStep"`
	NextActionDue   *time.Time             `json:"nextActionDue,omitempty"`
	HasCallback     bool                   `json:"hasCallback"`
	HasOverdueTask  bool                   `json:"hasOverdueTask"`
	HasDueTodayTask bool                   `json:"hasDueTodayTask"`
	Motivations     []string               `json:"motivations"`
	Phones          []domain.Phone         `json:"phones"`

	lead domain.Lead
}

// Build partitions active leads into sections and orders each section. Each
// lead lands in the first section whose predicate matches, so the sections
// are a partition of the active population. sectionCap bounds each section;
// zero means unbounded.
func Build(leads []domain.Lead, phonesByLead map[uuid.UUID][]domain.Phone, now time.Time, sectionCap int) map[Section][]Entry {
	out := make(map[Section][]Entry, 6)
	for _, s := range Sections() {
		out[s] = []Entry{}
	}

	for _, lead := range leads {
		if lead.CadenceState != domain.StateActive {
			continue
		}
		phones := phonesByLead[lead.ID]
		section, reason := classify(lead, phones, now)
		out[section] = append(out[section], entryFor(lead, phones, section, reason))
	}

	for s := range out {
		sortSection(out[s])
		if sectionCap > 0 && len(out[s]) > sectionCap {
			out[s] = out[s][:sectionCap]
		}
	}
	return out
}

// Flatten concatenates sections in priority order into one ranked list.
func Flatten(sections map[Section][]Entry) []Entry {
	var out []Entry
	for _, s := range Sections() {
		out = append(out, sections[s]...)
	}
	return out
}

// classify assigns a lead to the first matching section.
func classify(lead domain.Lead, phones []domain.Phone, now time.Time) (Section, string) {
	due := lead.NextActionDue
	switch {
	case due != nil && due.Before(startOfDay(now)):
		return SectionOverdue, "next action past due"
	case due != nil && !due.After(endOfDay(now)):
		return SectionDueToday, "next action due today"
	case lead.HasOverdueTask || lead.HasDueTodayTask:
		return SectionTasksDue, "attached task needs attention"
	case onlyUnverifiedNumbers(phones):
		return SectionVerifyFirst, "numbers need verification"
	case !phoneledger.HasViableNumber(phones):
		return SectionGetNumbers, "no viable phone number"
	default:
		return SectionUpcoming, "scheduled ahead"
	}
}

func onlyUnverifiedNumbers(phones []domain.Phone) bool {
	sawUnverified := false
	for _, p := range phones {
		if p.RemovedAt != nil || p.Status.IsTerminal() {
			continue
		}
		if p.Status == domain.PhoneValid {
			return false
		}
		if p.Status == domain.PhoneUnverified {
			sawUnverified = true
		}
	}
	return sawUnverified
}

func entryFor(lead domain.Lead, phones []domain.Phone, section Section, reason string) Entry {
	return Entry{
		LeadID:          lead.ID,
		Section:         section,
		Reason:          reason,
		Score:           lead.PriorityScore,
		TemperatureBand: lead.TemperatureBand,
		CadenceStep:     lead.CadenceStep,
		NextActionDue:   lead.NextActionDue,
		HasCallback:     lead.HasCallback(),
		HasOverdueTask:  lead.HasOverdueTask,
		HasDueTodayTask: lead.HasDueTodayTask,
		Motivations:     lead.Motivations,
		Phones:          phones,
		lead:            lead,
	}
}

// sortSection orders entries: callbacks first, then score descending, then
// due date ascending. Entries still tied fall through to the scorer's lead
// ordering (overdue task first, then longest untouched, then lead id).
func sortSection(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.HasCallback != b.HasCallback {
			return a.HasCallback
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.NextActionDue == nil && b.NextActionDue != nil:
			return false
		case a.NextActionDue != nil && b.NextActionDue == nil:
			return true
		case a.NextActionDue != nil && b.NextActionDue != nil && !a.NextActionDue.Equal(*b.NextActionDue):
			return a.NextActionDue.Before(*b.NextActionDue)
		}
		return scoring.Less(a.lead, b.lead)
	})
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
