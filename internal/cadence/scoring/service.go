package scoring

import (
	"context"
	"time"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadStore is the slice of the repository the scorer needs.
type LeadStore interface {
	FindLead(ctx context.Context, id uuid.UUID, ownerScope uuid.UUID) (domain.Lead, error)
	ListPhones(ctx context.Context, leadID uuid.UUID) ([]domain.Phone, error)
	UpdateScore(ctx context.Context, id uuid.UUID, ownerScope uuid.UUID, score int, band domain.TemperatureBand, confidence domain.ConfidenceLevel) error
}

// Service computes and persists lead priority scores.
type Service struct {
	store LeadStore
	log   *logger.Logger
	now   func() time.Time
}

func New(store LeadStore, log *logger.Logger) *Service {
	return &Service{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Recalculate computes the score for a lead without persisting it.
func (s *Service) Recalculate(ctx context.Context, leadID uuid.UUID, ownerScope uuid.UUID) (Result, error) {
	lead, err := s.store.FindLead(ctx, leadID, ownerScope)
	if err != nil {
		return Result{}, err
	}
	phones, err := s.store.ListPhones(ctx, leadID)
	if err != nil {
		return Result{}, err
	}
	return Compute(lead, phones, s.now()), nil
}

// ScoreRecord recomputes and persists score, band and confidence. The write
// is skipped when nothing changed, so back-to-back calls are idempotent.
func (s *Service) ScoreRecord(ctx context.Context, leadID uuid.UUID, ownerScope uuid.UUID) (Result, error) {
	lead, err := s.store.FindLead(ctx, leadID, ownerScope)
	if err != nil {
		return Result{}, err
	}
	phones, err := s.store.ListPhones(ctx, leadID)
	if err != nil {
		return Result{}, err
	}

	result := Compute(lead, phones, s.now())
	if result.Score == lead.PriorityScore &&
		result.Band == lead.TemperatureBand &&
		result.Confidence == lead.ConfidenceLevel {
		return result, nil
	}

	if err := s.store.UpdateScore(ctx, leadID, ownerScope, result.Score, result.Band, result.Confidence); err != nil {
		return Result{}, err
	}
	s.log.Debug("lead rescored", "lead_id", leadID, "score", result.Score, "band", result.Band)
	return result, nil
}
