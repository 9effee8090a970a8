package scoring

import (
	"context"
	"testing"
	"time"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	lead    domain.Lead
	phones  []domain.Phone
	updates int
}

func (f *fakeStore) FindLead(_ context.Context, _ uuid.UUID, _ uuid.UUID) (domain.Lead, error) {
	return f.lead, nil
}

func (f *fakeStore) ListPhones(_ context.Context, _ uuid.UUID) ([]domain.Phone, error) {
	return f.phones, nil
}

func (f *fakeStore) UpdateScore(_ context.Context, _ uuid.UUID, _ uuid.UUID, score int, band domain.TemperatureBand, confidence domain.ConfidenceLevel) error {
	f.lead.PriorityScore = score
	f.lead.TemperatureBand = band
	f.lead.ConfidenceLevel = confidence
	f.updates++
	return nil
}

func TestScoreRecordIsIdempotent(t *testing.T) {
	contacted := now.AddDate(0, 0, -2)
	store := &fakeStore{
		lead: domain.Lead{
			ID:              uuid.New(),
			OwnerID:         uuid.New(),
			TemperatureBand: domain.BandWarm,
			LastContactedAt: &contacted,
		},
		phones: []domain.Phone{{Status: domain.PhoneValid}},
	}
	svc := New(store, logger.New("test"))
	svc.now = func() time.Time { return now }

	first, err := svc.ScoreRecord(context.Background(), store.lead.ID, store.lead.OwnerID)
	if err != nil {
		t.Fatalf("first ScoreRecord: %v", err)
	}
	if store.updates != 1 {
		t.Fatalf("updates after first call = %d, want 1", store.updates)
	}
	if first.Band != domain.BandWarm {
		t.Fatalf("band = %s, want %s", first.Band, domain.BandWarm)
	}

	second, err := svc.ScoreRecord(context.Background(), store.lead.ID, store.lead.OwnerID)
	if err != nil {
		t.Fatalf("second ScoreRecord: %v", err)
	}
	if second.Score != first.Score || second.Band != first.Band {
		t.Fatalf("second call diverged: %d/%s vs %d/%s", second.Score, second.Band, first.Score, first.Band)
	}
	if store.updates != 1 {
		t.Fatalf("updates after second call = %d, want 1 (no-op write expected)", store.updates)
	}
}
