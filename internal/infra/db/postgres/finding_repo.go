package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/reviewgate/internal/domain/findings"
)

type FindingRepository struct{ db *sql.DB }

func NewFindingRepository(db *sql.DB) *FindingRepository { return &FindingRepository{db: db} }

const findingColumns = `id, run_id, analyzer_id, category, severity, title, summary,
       source_field, excerpt, start_offset, end_offset, suggestion,
       acked, acked_by, acked_at, ack_note, created_at`

func scanFinding(row interface{ Scan(...any) error }) (*domain.Finding, error) {
	var f domain.Finding
	var field, excerpt sql.NullString
	var start, end sql.NullInt64
	var ackedAt sql.NullTime
	if err := row.Scan(
		&f.ID, &f.RunID, &f.AnalyzerID, &f.Category, &f.Severity, &f.Title, &f.Summary,
		&field, &excerpt, &start, &end, &f.Suggestion,
		&f.Acked, &f.AckedBy, &ackedAt, &f.AckNote, &f.CreatedAt,
	); err != nil {
		return nil, err
	}
	if field.Valid || excerpt.Valid {
		f.Evidence = &domain.Evidence{
			Field:   field.String,
			Excerpt: excerpt.String,
			Start:   int(start.Int64),
			End:     int(end.Int64),
		}
	}
	if ackedAt.Valid {
		t := ackedAt.Time
		f.AckedAt = &t
	}
	return &f, nil
}

func (r *FindingRepository) Get(ctx context.Context, id domain.FindingID) (*domain.Finding, error) {
	q := `SELECT ` + findingColumns + ` FROM review_findings WHERE id=$1 LIMIT 1;`
	return scanFinding(r.db.QueryRowContext(ctx, q, id))
}

func (r *FindingRepository) ListByRun(ctx context.Context, runID string) ([]*domain.Finding, error) {
	q := `SELECT ` + findingColumns + `
FROM review_findings
WHERE run_id=$1
ORDER BY analyzer_id ASC, created_at ASC, id ASC;`
	return r.list(ctx, q, runID)
}

func (r *FindingRepository) ListByRunAnalyzer(ctx context.Context, runID, analyzerID string) ([]*domain.Finding, error) {
	q := `SELECT ` + findingColumns + `
FROM review_findings
WHERE run_id=$1 AND analyzer_id=$2
ORDER BY created_at ASC, id ASC;`
	return r.list(ctx, q, runID, analyzerID)
}

func (r *FindingRepository) list(ctx context.Context, q string, args ...any) ([]*domain.Finding, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FindingRepository) ReplaceForAnalyzer(ctx context.Context, runID, analyzerID string, fs []*domain.Finding) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM review_findings WHERE run_id=$1 AND analyzer_id=$2;`, runID, analyzerID); err != nil {
		return fmt.Errorf("delete findings for %s/%s: %w", runID, analyzerID, err)
	}

	const ins = `
INSERT INTO review_findings
(id, run_id, analyzer_id, category, severity, title, summary,
 source_field, excerpt, start_offset, end_offset, suggestion,
 acked, acked_by, acked_at, ack_note, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17);`
	for _, f := range fs {
		var field, excerpt sql.NullString
		var start, end sql.NullInt64
		if f.Evidence != nil {
			field = sql.NullString{String: f.Evidence.Field, Valid: true}
			excerpt = sql.NullString{String: f.Evidence.Excerpt, Valid: true}
			start = sql.NullInt64{Int64: int64(f.Evidence.Start), Valid: true}
			end = sql.NullInt64{Int64: int64(f.Evidence.End), Valid: true}
		}
		var ackedAt sql.NullTime
		if f.AckedAt != nil {
			ackedAt = sql.NullTime{Time: *f.AckedAt, Valid: true}
		}
		created := f.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		if _, err := tx.ExecContext(ctx, ins,
			f.ID, runID, analyzerID, stringOrDash(f.Category), string(f.Severity),
			stringOrDash(f.Title), f.Summary,
			field, excerpt, start, end, f.Suggestion,
			f.Acked, f.AckedBy, ackedAt, f.AckNote, created,
		); err != nil {
			return fmt.Errorf("insert finding %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

func (r *FindingRepository) Acknowledge(ctx context.Context, id domain.FindingID, actor, note string, at time.Time) error {
	const q = `
UPDATE review_findings
SET acked=true, acked_by=$1, acked_at=$2, ack_note=$3
WHERE id=$4;`
	res, err := r.db.ExecContext(ctx, q, actor, at, note, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
