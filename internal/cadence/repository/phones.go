package repository

import (
	"context"
	"errors"

	"outreach_backend/internal/cadence/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrPhoneNotFound = errors.New("phone not found")

const phoneColumns = `
	id, lead_id, number, type, phone_status, is_primary,
	attempt_count, last_attempt_at, last_outcome, consecutive_no_answer,
	removed_at, created_at, updated_at`

func scanPhone(row rowScanner) (domain.Phone, error) {
	var p domain.Phone
	var lastOutcome *string
	err := row.Scan(
		&p.ID, &p.LeadID, &p.Number, &p.Type, &p.Status, &p.IsPrimary,
		&p.AttemptCount, &p.LastAttemptAt, &lastOutcome, &p.ConsecutiveNoAnswer,
		&p.RemovedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Phone{}, err
	}
	if lastOutcome != nil {
		o := domain.CallOutcome(*lastOutcome)
		p.LastOutcome = &o
	}
	return p, nil
}

func (r *Repository) ListPhones(ctx context.Context, leadID uuid.UUID) ([]domain.Phone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+phoneColumns+`
		FROM phone_numbers
		WHERE lead_id = $1
		ORDER BY is_primary DESC, created_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	phones := make([]domain.Phone, 0)
	for rows.Next() {
		p, err := scanPhone(rows)
		if err != nil {
			return nil, err
		}
		phones = append(phones, p)
	}
	return phones, rows.Err()
}

func (r *Repository) ListPhonesForLeads(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID][]domain.Phone, error) {
	out := make(map[uuid.UUID][]domain.Phone, len(leadIDs))
	if len(leadIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+phoneColumns+`
		FROM phone_numbers
		WHERE lead_id = ANY($1)
		ORDER BY lead_id, is_primary DESC, created_at ASC
	`, leadIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPhone(rows)
		if err != nil {
			return nil, err
		}
		out[p.LeadID] = append(out[p.LeadID], p)
	}
	return out, rows.Err()
}

func (r *Repository) FindPhone(ctx context.Context, id uuid.UUID, leadID uuid.UUID) (domain.Phone, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+phoneColumns+`
		FROM phone_numbers
		WHERE id = $1 AND lead_id = $2
	`, id, leadID)

	phone, err := scanPhone(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Phone{}, ErrPhoneNotFound
	}
	if err != nil {
		return domain.Phone{}, err
	}
	return phone, nil
}

// CreatePhone inserts a new ledger row. A lead holds at most one primary
// number, so inserting a primary demotes the current one in the same
// transaction.
func (r *Repository) CreatePhone(ctx context.Context, phone domain.Phone) (domain.Phone, error) {
	var lastOutcome *string
	if phone.LastOutcome != nil {
		s := string(*phone.LastOutcome)
		lastOutcome = &s
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Phone{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if phone.IsPrimary {
		_, err = tx.Exec(ctx, `
			UPDATE phone_numbers SET is_primary = FALSE, updated_at = now()
			WHERE lead_id = $1 AND is_primary
		`, phone.LeadID)
		if err != nil {
			return domain.Phone{}, err
		}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO phone_numbers (
			lead_id, number, type, phone_status, is_primary,
			attempt_count, last_attempt_at, last_outcome, consecutive_no_answer
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+phoneColumns+`
	`, phone.LeadID, phone.Number, phone.Type, phone.Status, phone.IsPrimary,
		phone.AttemptCount, phone.LastAttemptAt, lastOutcome, phone.ConsecutiveNoAnswer)
	created, err := scanPhone(row)
	if err != nil {
		return domain.Phone{}, err
	}
	return created, tx.Commit(ctx)
}

func (r *Repository) SavePhone(ctx context.Context, phone domain.Phone) error {
	return savePhoneTx(ctx, r.pool, phone)
}

func savePhoneTx(ctx context.Context, q rowExecer, phone domain.Phone) error {
	var lastOutcome *string
	if phone.LastOutcome != nil {
		s := string(*phone.LastOutcome)
		lastOutcome = &s
	}
	tag, err := q.Exec(ctx, `
		UPDATE phone_numbers SET
			phone_status = $3, is_primary = $4, attempt_count = $5,
			last_attempt_at = $6, last_outcome = $7, consecutive_no_answer = $8,
			removed_at = $9, updated_at = now()
		WHERE id = $1 AND lead_id = $2
	`, phone.ID, phone.LeadID, phone.Status, phone.IsPrimary, phone.AttemptCount,
		phone.LastAttemptAt, lastOutcome, phone.ConsecutiveNoAnswer, phone.RemovedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPhoneNotFound
	}
	return nil
}
