package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/reviewgate/internal/domain/profiles"
)

// ProfileRepository stores profiles as one JSON document per row. Profiles
// are edited rarely and read whole; a document column keeps the schema out
// of the way of settings churn.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	const q = `SELECT config_json FROM review_profiles WHERE id=? LIMIT 1;`
	var raw string
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&raw); err != nil {
		return nil, err
	}
	return decodeProfile(id, raw)
}

func (r *ProfileRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	const q = `SELECT id, config_json FROM review_profiles ORDER BY id ASC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Profile
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		p, err := decodeProfile(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProfileRepository) Save(ctx context.Context, p *domain.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO review_profiles (id, name, config_json, updated_at)
VALUES (?,?,?,?)
ON DUPLICATE KEY UPDATE
 name=VALUES(name), config_json=VALUES(config_json), updated_at=VALUES(updated_at);
`
	_, err = r.db.ExecContext(ctx, q, p.ID, stringOrDash(p.Name), string(raw), time.Now())
	return err
}

// decodeProfile unmarshals and validates, so callers never see a profile with
// unapplied defaults.
func decodeProfile(id, raw string) (*domain.Profile, error) {
	var p domain.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	if p.ID == "" {
		p.ID = id
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	return &p, nil
}
