package repository

import (
	"context"
	"errors"
	"time"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	id, owner_id, priority_score, temperature_band, confidence_level,
	cadence_phase, cadence_state, cadence_type, cadence_step, cadence_start_date,
	next_action_due, next_action_type, blitz_attempts, blitz_started_at,
	enrollment_count, snoozed_until, paused_reason, queue_tier,
	call_attempts, last_contacted_at, has_engaged, no_response_streak,
	motivations, callback_at, has_overdue_task, has_due_today_task,
	version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (domain.Lead, error) {
	var l domain.Lead
	var cadenceType, nextActionType *string
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.PriorityScore, &l.TemperatureBand, &l.ConfidenceLevel,
		&l.CadencePhase, &l.CadenceState, &cadenceType, &l.CadenceStep, &l.CadenceStartDate,
		&l.NextActionDue, &nextActionType, &l.BlitzAttempts, &l.BlitzStartedAt,
		&l.EnrollmentCount, &l.SnoozedUntil, &l.PausedReason, &l.QueueTier,
		&l.CallAttempts, &l.LastContactedAt, &l.HasEngaged, &l.NoResponseStreak,
		&l.Motivations, &l.CallbackAt, &l.HasOverdueTask, &l.HasDueTodayTask,
		&l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	if cadenceType != nil {
		ct := domain.CadenceType(*cadenceType)
		l.CadenceType = &ct
	}
	if nextActionType != nil {
		at := domain.ActionType(*nextActionType)
		l.NextActionType = &at
	}
	return l, nil
}

func (r *Repository) FindLead(ctx context.Context, id uuid.UUID, ownerScope uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND owner_id = $2
	`, id, ownerScope)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

func (r *Repository) ListActiveLeads(ctx context.Context, ownerScope uuid.UUID) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE owner_id = $1 AND cadence_state = $2
		ORDER BY queue_tier ASC, priority_score DESC, next_action_due ASC NULLS LAST
	`, ownerScope, domain.StateActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// SaveLead writes the full cadence state of a lead. The WHERE clause pins the
// version the caller read; a mismatch means someone else committed first.
func (r *Repository) SaveLead(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	return r.saveLeadTx(ctx, r.pool, lead)
}

type execQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repository) saveLeadTx(ctx context.Context, q execQuerier, lead domain.Lead) (domain.Lead, error) {
	var cadenceType, nextActionType *string
	if lead.CadenceType != nil {
		s := string(*lead.CadenceType)
		cadenceType = &s
	}
	if lead.NextActionType != nil {
		s := string(*lead.NextActionType)
		nextActionType = &s
	}

	row := q.QueryRow(ctx, `
		UPDATE leads SET
			priority_score = $3, temperature_band = $4, confidence_level = $5,
			cadence_phase = $6, cadence_state = $7, cadence_type = $8,
			cadence_step = $9, cadence_start_date = $10, next_action_due = $11,
			next_action_type = $12, blitz_attempts = $13, blitz_started_at = $14,
			enrollment_count = $15, snoozed_until = $16, paused_reason = $17,
			queue_tier = $18, call_attempts = $19, last_contacted_at = $20,
			has_engaged = $21, no_response_streak = $22, callback_at = $23,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND version = $24
		RETURNING `+leadColumns+`
	`,
		lead.ID, lead.OwnerID, lead.PriorityScore, lead.TemperatureBand, lead.ConfidenceLevel,
		lead.CadencePhase, lead.CadenceState, cadenceType,
		lead.CadenceStep, lead.CadenceStartDate, lead.NextActionDue,
		nextActionType, lead.BlitzAttempts, lead.BlitzStartedAt,
		lead.EnrollmentCount, lead.SnoozedUntil, lead.PausedReason,
		lead.QueueTier, lead.CallAttempts, lead.LastContactedAt,
		lead.HasEngaged, lead.NoResponseStreak, lead.CallbackAt,
		lead.Version,
	)

	saved, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a vanished row from a lost race.
		if _, findErr := r.FindLead(ctx, lead.ID, lead.OwnerID); findErr != nil {
			return domain.Lead{}, ErrNotFound
		}
		return domain.Lead{}, apperr.Conflict("lead was modified concurrently, retry the operation")
	}
	if err != nil {
		return domain.Lead{}, err
	}
	return saved, nil
}

func (r *Repository) UpdateScore(ctx context.Context, id uuid.UUID, ownerScope uuid.UUID, score int, band domain.TemperatureBand, confidence domain.ConfidenceLevel) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			priority_score = $3, temperature_band = $4, confidence_level = $5,
			updated_at = now()
		WHERE id = $1 AND owner_id = $2
	`, id, ownerScope, score, band, confidence)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CommitCallOutcome persists all effects of one logged call in a single
// transaction: ledger attempt, lead transition, and the audit row.
func (r *Repository) CommitCallOutcome(ctx context.Context, lead domain.Lead, phone domain.Phone, activity ActivityEntry) (domain.Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := savePhoneTx(ctx, tx, phone); err != nil {
		return domain.Lead{}, err
	}

	saved, err := r.saveLeadTx(ctx, tx, lead)
	if err != nil {
		return domain.Lead{}, err
	}

	if err := appendActivityTx(ctx, tx, activity); err != nil {
		return domain.Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, err
	}
	return saved, nil
}

// ListExpiredSnoozes returns snoozed leads whose snooze window has passed.
func (r *Repository) ListExpiredSnoozes(ctx context.Context, now time.Time, limit int) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE cadence_state = $1 AND snoozed_until <= $2
		ORDER BY snoozed_until ASC
		LIMIT $3
	`, domain.StateSnoozed, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

// ListReactivatableDeepProspects returns deep-prospect leads holding a viable
// phone that has never been dialed.
func (r *Repository) ListReactivatableDeepProspects(ctx context.Context, limit int) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads l
		WHERE l.cadence_phase = $1 AND l.cadence_state = $2
		  AND EXISTS (
			SELECT 1 FROM phone_numbers p
			WHERE p.lead_id = l.id
			  AND p.removed_at IS NULL
			  AND p.phone_status IN ($3, $4)
			  AND p.attempt_count = 0
		  )
		ORDER BY l.updated_at ASC
		LIMIT $5
	`, domain.PhaseDeepProspect, domain.StateActive, domain.PhoneValid, domain.PhoneUnverified, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

// CountStaleActive counts active leads whose due date and last update have
// both drifted past the staleness window. Surfaced, never auto-fixed.
func (r *Repository) CountStaleActive(ctx context.Context, olderThan time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM leads
		WHERE cadence_state = $1
		  AND updated_at < $2
		  AND next_action_due IS NOT NULL AND next_action_due < $2
	`, domain.StateActive, olderThan).Scan(&count)
	return count, err
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// rowExecer is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
