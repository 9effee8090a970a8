// Package phoneledger derives contactability from a lead's phone numbers.
// The ledger never deletes a number; terminal statuses and soft removal keep
// the attempt history intact.
package phoneledger

import (
	"time"

	"outreach_backend/internal/cadence/domain"
)

// HasViableNumber reports whether at least one number can still be dialed.
func HasViableNumber(phones []domain.Phone) bool {
	for _, p := range phones {
		if p.RemovedAt == nil && p.Status.IsViable() {
			return true
		}
	}
	return false
}

// HasValidNumber reports whether at least one number has been confirmed live.
func HasValidNumber(phones []domain.Phone) bool {
	for _, p := range phones {
		if p.RemovedAt == nil && p.Status == domain.PhoneValid {
			return true
		}
	}
	return false
}

// IsExhausted reports whether the lead has no number worth dialing: every
// number is terminal, removed, or has hit the consecutive no-answer ceiling.
func IsExhausted(phones []domain.Phone) bool {
	for _, p := range phones {
		if p.RemovedAt != nil || p.Status.IsTerminal() {
			continue
		}
		if p.ConsecutiveNoAnswer < domain.NoAnswerCeiling {
			return false
		}
	}
	return true
}

// RecordAttempt applies one call outcome to the dialed number: attempt
// counters, the no-answer streak, and any status change the outcome implies.
func RecordAttempt(phone domain.Phone, outcome domain.CallOutcome, now time.Time) domain.Phone {
	phone.AttemptCount++
	phone.LastAttemptAt = &now
	phone.LastOutcome = &outcome

	if outcome == domain.OutcomeNoAnswer || outcome == domain.OutcomeVoicemail || outcome == domain.OutcomeBusy {
		phone.ConsecutiveNoAnswer++
	} else {
		phone.ConsecutiveNoAnswer = 0
	}

	phone.Status = domain.PhoneStatusAfter(phone.Status, outcome)
	return phone
}

// Viable returns the numbers still worth dialing, in ledger order.
func Viable(phones []domain.Phone) []domain.Phone {
	out := make([]domain.Phone, 0, len(phones))
	for _, p := range phones {
		if p.RemovedAt == nil && p.Status.IsViable() && p.ConsecutiveNoAnswer < domain.NoAnswerCeiling {
			out = append(out, p)
		}
	}
	return out
}
