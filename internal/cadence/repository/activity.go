package repository

import (
	"context"
	"encoding/json"
	"time"
)

// AppendActivity writes one audit row. Callers publish these via the event
// bus, so a failure here never blocks a transition.
func (r *Repository) AppendActivity(ctx context.Context, entry ActivityEntry) error {
	return appendActivityTx(ctx, r.pool, entry)
}

func appendActivityTx(ctx context.Context, q rowExecer, entry ActivityEntry) error {
	_, err := q.Exec(ctx, `
		INSERT INTO activity_log (lead_id, action, field, old_value, new_value, source, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.LeadID, entry.Action, entry.Field, entry.OldValue, entry.NewValue, entry.Source, entry.Notes)
	return err
}

// AppendReconciliationLog writes the append-only summary row for one run.
func (r *Repository) AppendReconciliationLog(ctx context.Context, entry ReconciliationEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		details = []byte("{}")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO reconciliation_logs (run_type, status, records_processed, issues_found, issues_fixed, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.RunType, entry.Status, entry.RecordsProcessed, entry.IssuesFound, entry.IssuesFixed, details, createdAt)
	return err
}
