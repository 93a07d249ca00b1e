package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/reviewgate/internal/domain/tasks"
)

// TaskRepository backs the deferred-task transport with a table. Claiming
// uses UPDATE ... RETURNING would be nicer on postgres, but the two-step
// claim keeps the flavor identical to mysql and the at-least-once contract
// is the same either way.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository { return &TaskRepository{db: db} }

func (r *TaskRepository) Enqueue(ctx context.Context, t domain.Task) error {
	const q = `
INSERT INTO review_tasks
  (id, kind, run_id, item_type, item_id, profile_id, analyzer_id, actor, retry, deliver_after, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);
`
	_, err := r.db.ExecContext(ctx, q,
		t.ID, string(t.Kind), t.RunID, t.ItemType, t.ItemID, t.ProfileID,
		t.AnalyzerID, t.Actor, t.Retry, t.DelayUntil, time.Now(),
	)
	return err
}

func (r *TaskRepository) ClaimDue(ctx context.Context, now time.Time, staleAfter time.Duration, limit int) ([]domain.Task, error) {
	if limit <= 0 {
		limit = 10
	}
	const sel = `
SELECT id, kind, run_id, item_type, item_id, profile_id, analyzer_id, actor, retry, deliver_after
FROM review_tasks
WHERE deliver_after <= $1
  AND (claimed_at IS NULL OR claimed_at < $2)
ORDER BY deliver_after ASC
LIMIT $3;`
	rows, err := r.db.QueryContext(ctx, sel, now, now.Add(-staleAfter), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.Task
	for rows.Next() {
		var t domain.Task
		var kind string
		if err := rows.Scan(&t.ID, &kind, &t.RunID, &t.ItemType, &t.ItemID,
			&t.ProfileID, &t.AnalyzerID, &t.Actor, &t.Retry, &t.DelayUntil); err != nil {
			return nil, err
		}
		t.Kind = domain.Kind(kind)
		candidates = append(candidates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var claimed []domain.Task
	for _, t := range candidates {
		res, err := r.db.ExecContext(ctx,
			`UPDATE review_tasks SET claimed_at=$1 WHERE id=$2 AND (claimed_at IS NULL OR claimed_at < $3);`,
			now, t.ID, now.Add(-staleAfter))
		if err != nil {
			return claimed, err
		}
		if n, _ := res.RowsAffected(); n == 1 {
			claimed = append(claimed, t)
		}
	}
	return claimed, nil
}

func (r *TaskRepository) Complete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM review_tasks WHERE id=$1;`, id)
	return err
}

func (r *TaskRepository) Release(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE review_tasks SET claimed_at=NULL WHERE id=$1;`, id)
	return err
}
