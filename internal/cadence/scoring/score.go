package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/internal/cadence/phoneledger"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"

	// Base score - leads start at 50 and factors add/subtract from this.
	baseScore = 50.0

	// Band thresholds applied to the final clamped score.
	hotThreshold  = 70
	warmThreshold = 40

	// Maximum contribution from the motivation factor.
	maxMotivationContribution = 12.0
)

// Result holds scoring output and factor details.
type Result struct {
	Score       int
	Band        domain.TemperatureBand
	Confidence  domain.ConfidenceLevel
	NextAction  domain.ActionType
	Reasons     []string
	TopReason   string
	Suggestions []string
	Flags       []string
	Factors     map[string]float64
	Version     string
	ComputedAt  time.Time
}

// Compute produces the priority score for one lead. It is deterministic given
// its inputs; now is injected so repeated calls within a request agree.
func Compute(lead domain.Lead, phones []domain.Phone, now time.Time) Result {
	score := baseScore
	factors := map[string]float64{}
	var reasons []weightedReason
	var suggestions, flags []string

	// Temperature band: the operator's own urgency classification.
	bandScore := scoreBand(lead.TemperatureBand)
	score += addFactor(factors, "temperature_band", bandScore)
	reasons = append(reasons, weightedReason{bandScore, fmt.Sprintf("%s temperature band", lead.TemperatureBand)})

	// Engagement: a live response at any point is the strongest signal.
	if lead.HasEngaged {
		score += addFactor(factors, "engagement", 15)
		reasons = append(reasons, weightedReason{15, "has engaged on a previous contact"})
	}

	// Motivations: each recorded buying motivation adds a little intent.
	if n := len(lead.Motivations); n > 0 {
		motivation := math.Min(float64(n)*3, maxMotivationContribution)
		score += addFactor(factors, "motivations", motivation)
		reasons = append(reasons, weightedReason{motivation, fmt.Sprintf("%d recorded motivation(s)", n)})
	}

	// Recency: untouched leads rise, recently-worked leads settle.
	recency, recencyReason := scoreRecency(lead.LastContactedAt, now)
	score += addFactor(factors, "recency", recency)
	if recencyReason != "" {
		reasons = append(reasons, weightedReason{recency, recencyReason})
	}

	// Callback: a concrete commitment from the prospect.
	if lead.HasCallback() {
		score += addFactor(factors, "callback", 20)
		reasons = append(reasons, weightedReason{20, "callback scheduled"})
	}

	// Task urgency.
	if lead.HasOverdueTask {
		score += addFactor(factors, "overdue_task", 10)
		reasons = append(reasons, weightedReason{10, "overdue task attached"})
		flags = append(flags, "OVERDUE_TASK")
	} else if lead.HasDueTodayTask {
		score += addFactor(factors, "due_today_task", 5)
		reasons = append(reasons, weightedReason{5, "task due today"})
	}

	// No-response streak: repeated silence cools the lead down.
	streak := scoreStreak(lead.NoResponseStreak)
	if streak != 0 {
		score += addFactor(factors, "no_response_streak", streak)
		reasons = append(reasons, weightedReason{streak, fmt.Sprintf("%d attempts without a response", lead.NoResponseStreak)})
	}

	// Phone coverage: a lead we cannot dial cannot convert.
	switch {
	case !phoneledger.HasViableNumber(phones):
		score += addFactor(factors, "phone_coverage", -15)
		reasons = append(reasons, weightedReason{-15, "no viable phone number"})
		flags = append(flags, "NO_VIABLE_PHONE")
		suggestions = append(suggestions, "run number research before the next attempt")
	case !phoneledger.HasValidNumber(phones):
		score += addFactor(factors, "phone_coverage", -5)
		reasons = append(reasons, weightedReason{-5, "only unverified phone numbers"})
		suggestions = append(suggestions, "verify the primary number on the next call")
	}

	if phoneledger.IsExhausted(phones) {
		flags = append(flags, "PHONE_EXHAUSTED")
	}

	final := clampScore(score)
	band := bandFor(final)

	sort.SliceStable(reasons, func(i, j int) bool {
		return math.Abs(reasons[i].weight) > math.Abs(reasons[j].weight)
	})
	reasonTexts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		reasonTexts = append(reasonTexts, r.text)
	}
	topReason := ""
	if len(reasonTexts) > 0 {
		topReason = reasonTexts[0]
	}

	return Result{
		Score:       final,
		Band:        band,
		Confidence:  confidenceFor(lead, phones),
		NextAction:  nextActionFor(lead, phones),
		Reasons:     reasonTexts,
		TopReason:   topReason,
		Suggestions: suggestions,
		Flags:       flags,
		Factors:     factors,
		Version:     scoreVersion,
		ComputedAt:  now,
	}
}

// Less orders two leads for equal-score tie-breaking: callback first, then
// overdue task, then longest-untouched first.
func Less(a, b domain.Lead) bool {
	if a.PriorityScore != b.PriorityScore {
		return a.PriorityScore > b.PriorityScore
	}
	if a.HasCallback() != b.HasCallback() {
		return a.HasCallback()
	}
	if a.HasOverdueTask != b.HasOverdueTask {
		return a.HasOverdueTask
	}
	switch {
	case a.LastContactedAt == nil && b.LastContactedAt != nil:
		return true
	case a.LastContactedAt != nil && b.LastContactedAt == nil:
		return false
	case a.LastContactedAt != nil && b.LastContactedAt != nil && !a.LastContactedAt.Equal(*b.LastContactedAt):
		return a.LastContactedAt.Before(*b.LastContactedAt)
	}
	return a.ID.String() < b.ID.String()
}

type weightedReason struct {
	weight float64
	text   string
}

// scoreBand maps the operator's temperature classification to a base boost.
func scoreBand(band domain.TemperatureBand) float64 {
	switch band {
	case domain.BandHot:
		return 25
	case domain.BandWarm:
		return 15
	case domain.BandCold:
		return 5
	default:
		return 0
	}
}

// scoreRecency rewards leads that have waited longest since the last touch.
func scoreRecency(last *time.Time, now time.Time) (float64, string) {
	if last == nil {
		return 8, "never contacted"
	}
	days := now.Sub(*last).Hours() / 24
	switch {
	case days >= 14:
		return 8, "untouched for two weeks or more"
	case days >= 7:
		return 5, "untouched for over a week"
	case days >= 3:
		return 2, ""
	case days < 1:
		return -4, "contacted within the last day"
	default:
		return 0, ""
	}
}

// scoreStreak penalizes repeated silence, but gently - the cadence machine
// already slows these leads down.
func scoreStreak(streak int) float64 {
	switch {
	case streak >= 8:
		return -10
	case streak >= 5:
		return -6
	case streak >= 3:
		return -3
	default:
		return 0
	}
}

func bandFor(score int) domain.TemperatureBand {
	switch {
	case score >= hotThreshold:
		return domain.BandHot
	case score >= warmThreshold:
		return domain.BandWarm
	default:
		return domain.BandCold
	}
}

// confidenceFor reflects how much signal backs the score, not the score itself.
func confidenceFor(lead domain.Lead, phones []domain.Phone) domain.ConfidenceLevel {
	signals := 0
	if lead.HasEngaged {
		signals += 2
	}
	if len(lead.Motivations) > 0 {
		signals++
	}
	if lead.LastContactedAt != nil {
		signals++
	}
	if lead.HasCallback() {
		signals += 2
	}
	if phoneledger.HasValidNumber(phones) {
		signals++
	}
	switch {
	case signals >= 4:
		return domain.ConfidenceHigh
	case signals >= 2:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// nextActionFor recommends the immediate move for the operator.
func nextActionFor(lead domain.Lead, phones []domain.Phone) domain.ActionType {
	if !phoneledger.HasViableNumber(phones) {
		return domain.ActionGetNumbers
	}
	if lead.NextActionType != nil {
		return *lead.NextActionType
	}
	return domain.ActionCall
}

func addFactor(factors map[string]float64, key string, value float64) float64 {
	if math.Abs(value) < 0.01 {
		return 0
	}
	factors[key] = math.Round(value*10) / 10
	return value
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
