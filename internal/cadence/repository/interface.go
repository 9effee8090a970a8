package repository

import (
	"context"
	"time"

	"outreach_backend/internal/cadence/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to leads within an owner scope.
type LeadReader interface {
	FindLead(ctx context.Context, id uuid.UUID, ownerScope uuid.UUID) (domain.Lead, error)
	ListActiveLeads(ctx context.Context, ownerScope uuid.UUID) ([]domain.Lead, error)
}

// LeadWriter persists lead state. SaveLead is version-checked: writing a lead
// whose version no longer matches the stored row fails with a Conflict.
type LeadWriter interface {
	SaveLead(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	UpdateScore(ctx context.Context, id uuid.UUID, ownerScope uuid.UUID, score int, band domain.TemperatureBand, confidence domain.ConfidenceLevel) error
}

// PhoneStore manages the phone ledger rows of a lead. A lead has at most one
// primary number; CreatePhone demotes the current primary when the new row
// takes over.
type PhoneStore interface {
	ListPhones(ctx context.Context, leadID uuid.UUID) ([]domain.Phone, error)
	ListPhonesForLeads(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID][]domain.Phone, error)
	FindPhone(ctx context.Context, id uuid.UUID, leadID uuid.UUID) (domain.Phone, error)
	CreatePhone(ctx context.Context, phone domain.Phone) (domain.Phone, error)
	SavePhone(ctx context.Context, phone domain.Phone) error
}

// CallCommitter applies all effects of one logged call atomically: the phone
// ledger row, the lead row, and the call activity row commit or roll back
// together.
type CallCommitter interface {
	CommitCallOutcome(ctx context.Context, lead domain.Lead, phone domain.Phone, activity ActivityEntry) (domain.Lead, error)
}

// ActivityAppender records audit rows. Failures must not block engine
// transitions; callers treat appends as fire-and-forget.
type ActivityAppender interface {
	AppendActivity(ctx context.Context, entry ActivityEntry) error
}

// ReconciliationStore serves the periodic repair pass.
type ReconciliationStore interface {
	ListExpiredSnoozes(ctx context.Context, now time.Time, limit int) ([]domain.Lead, error)
	ListReactivatableDeepProspects(ctx context.Context, limit int) ([]domain.Lead, error)
	CountStaleActive(ctx context.Context, olderThan time.Time) (int, error)
	AppendReconciliationLog(ctx context.Context, entry ReconciliationEntry) error
}

// Store aggregates every repository capability the engine uses.
type Store interface {
	LeadReader
	LeadWriter
	PhoneStore
	CallCommitter
	ActivityAppender
	ReconciliationStore
}

// ActivityEntry is one audit-trail row.
type ActivityEntry struct {
	LeadID   uuid.UUID
	Action   string
	Field    string
	OldValue string
	NewValue string
	Source   string
	Notes    *string
}

// ReconciliationEntry summarizes one reconciliation run.
type ReconciliationEntry struct {
	RunType          string
	Status           string
	RecordsProcessed int
	IssuesFound      int
	IssuesFixed      int
	Details          map[string]any
	CreatedAt        time.Time
}
