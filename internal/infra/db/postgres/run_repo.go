package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
	domain "github.com/bryanwahyu/reviewgate/internal/domain/reviews"
)

type RunRepository struct{ db *sql.DB }

func NewRunRepository(db *sql.DB) *RunRepository { return &RunRepository{db: db} }

func (r *RunRepository) Save(ctx context.Context, rec *domain.RunRecord) error {
	const q = `
INSERT INTO review_runs
(id, item_type, item_id, item_rev, profile_id, fingerprint, actor, executed_at,
 status, high, medium, low, findings_total, max_severity,
 error_message, provider_id, model, analyzer_states)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,
        $9,$10,$11,$12,$13,$14,
        $15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
 fingerprint = EXCLUDED.fingerprint,
 actor = EXCLUDED.actor,
 executed_at = EXCLUDED.executed_at,
 status = EXCLUDED.status,
 high = EXCLUDED.high,
 medium = EXCLUDED.medium,
 low = EXCLUDED.low,
 findings_total = EXCLUDED.findings_total,
 max_severity = EXCLUDED.max_severity,
 error_message = EXCLUDED.error_message,
 provider_id = EXCLUDED.provider_id,
 model = EXCLUDED.model,
 analyzer_states = EXCLUDED.analyzer_states;`

	executed := rec.ExecutedAt
	if executed.IsZero() {
		executed = time.Now()
	}
	maxSev := rec.MaxSeverity
	if maxSev == "" {
		maxSev = findings.SeverityNone
	}
	states, err := json.Marshal(rec.Analyzers)
	if err != nil {
		states = []byte("{}")
	}
	_, err = r.db.ExecContext(ctx, q,
		rec.ID, stringOrDash(rec.ItemType), stringOrDash(rec.ItemID), rec.ItemRev,
		stringOrDash(rec.ProfileID), rec.Fingerprint, rec.Actor, executed,
		stringOrDash(string(rec.Status)),
		rec.Counts.High, rec.Counts.Medium, rec.Counts.Low, rec.Counts.Total, string(maxSev),
		rec.Error, rec.ProviderID, rec.Model, string(states),
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
	q := `SELECT ` + runColumns + ` FROM review_runs WHERE id=$1 LIMIT 1;`
	rec, err := scanRun(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (r *RunRepository) Latest(ctx context.Context, itemType, itemID, profileID string) (*domain.RunRecord, error) {
	q := `SELECT ` + runColumns + `
FROM review_runs
WHERE item_type=$1 AND item_id=$2 AND profile_id=$3
ORDER BY executed_at DESC, id DESC
LIMIT 1;`
	rec, err := scanRun(r.db.QueryRowContext(ctx, q, itemType, itemID, profileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (r *RunRepository) ListByItem(ctx context.Context, itemType, itemID string, limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + runColumns + `
FROM review_runs
WHERE item_type=$1 AND item_id=$2
ORDER BY executed_at DESC, id DESC
LIMIT $3;`
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

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
