package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
	domain "github.com/bryanwahyu/reviewgate/internal/domain/reviews"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save insert/update RunRecord. The per-analyzer sub-status map (including
// finding snapshots) lives in a JSON column.
func (r *RunRepository) Save(ctx context.Context, rec *domain.RunRecord) error {
	const q = `
INSERT INTO review_runs
(id, item_type, item_id, item_rev, profile_id, fingerprint, actor, executed_at,
 status, high, medium, low, findings_total, max_severity,
 error_message, provider_id, model, analyzer_states)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 fingerprint=VALUES(fingerprint), actor=VALUES(actor), executed_at=VALUES(executed_at),
 status=VALUES(status),
 high=VALUES(high), medium=VALUES(medium), low=VALUES(low),
 findings_total=VALUES(findings_total), max_severity=VALUES(max_severity),
 error_message=VALUES(error_message),
 provider_id=VALUES(provider_id), model=VALUES(model),
 analyzer_states=VALUES(analyzer_states);
`
	executed := rec.ExecutedAt
	if executed.IsZero() {
		executed = time.Now()
	}
	maxSev := rec.MaxSeverity
	if maxSev == "" {
		maxSev = findings.SeverityNone
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, stringOrDash(rec.ItemType), stringOrDash(rec.ItemID), rec.ItemRev,
		stringOrDash(rec.ProfileID), rec.Fingerprint, rec.Actor, executed,
		stringOrDash(string(rec.Status)),
		rec.Counts.High, rec.Counts.Medium, rec.Counts.Low, rec.Counts.Total, string(maxSev),
		rec.Error, rec.ProviderID, rec.Model, jsonOrEmpty(rec.Analyzers),
	)
	return err
}

const runColumns = `id, item_type, item_id, item_rev, profile_id, fingerprint, actor, executed_at,
       status, high, medium, low, findings_total, max_severity,
       error_message, provider_id, model, analyzer_states`

func scanRun(row interface{ Scan(...any) error }) (*domain.RunRecord, error) {
	var rec domain.RunRecord
	var hi, med, lo, tot int
	var maxSev, states string
	if err := row.Scan(
		&rec.ID, &rec.ItemType, &rec.ItemID, &rec.ItemRev, &rec.ProfileID, &rec.Fingerprint,
		&rec.Actor, &rec.ExecutedAt,
		&rec.Status, &hi, &med, &lo, &tot, &maxSev,
		&rec.Error, &rec.ProviderID, &rec.Model, &states,
	); err != nil {
		return nil, err
	}
	rec.Counts = findings.SeverityCounts{High: hi, Medium: med, Low: lo, Total: tot}
	rec.MaxSeverity = findings.Severity(maxSev)
	if states != "" && states != "{}" {
		if err := json.Unmarshal([]byte(states), &rec.Analyzers); err != nil {
			return nil, fmt.Errorf("decode analyzer states for run %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func (r *RunRepository) Get(ctx context.Context, id domain.RunID) (*domain.RunRecord, error) {
	q := `SELECT ` + runColumns + ` FROM review_runs WHERE id=? LIMIT 1;`
	rec, err := scanRun(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Latest run for (itemType, itemID, profileID), nil when none
func (r *RunRepository) Latest(ctx context.Context, itemType, itemID, profileID string) (*domain.RunRecord, error) {
	q := `SELECT ` + runColumns + `
FROM review_runs
WHERE item_type=? AND item_id=? AND profile_id=?
ORDER BY executed_at DESC, id DESC
LIMIT 1;`
	rec, err := scanRun(r.db.QueryRowContext(ctx, q, itemType, itemID, profileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// ListByItem recent runs for an item across profiles
func (r *RunRepository) ListByItem(ctx context.Context, itemType, itemID string, limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + runColumns + `
FROM review_runs
WHERE item_type=? AND item_id=?
ORDER BY executed_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, itemType, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
