package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Overrides stores admin-edited screen texts keyed by (lang, screen).
type Overrides struct {
	db *sqlx.DB
}

// NewOverrides builds the content override repository.
func NewOverrides(db *sqlx.DB) *Overrides {
	return &Overrides{db: db}
}

// Get returns the override for (lang, screen), or nil when none is stored.
func (r *Overrides) Get(ctx context.Context, lang, screen string) (*Override, error) {
	var o Override
	err := r.db.GetContext(ctx, &o,
		`SELECT lang, screen, title, body FROM content_overrides WHERE lang = $1 AND screen = $2`,
		lang, screen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get override %s/%s: %w", lang, screen, err)
	}
	return &o, nil
}

// SetTitle upserts the title override; the body column is left untouched.
func (r *Overrides) SetTitle(ctx context.Context, lang, screen, title string) error {
	return r.upsert(ctx, lang, screen, "title", title)
}

// SetBody upserts the body override; the title column is left untouched.
func (r *Overrides) SetBody(ctx context.Context, lang, screen, body string) error {
	return r.upsert(ctx, lang, screen, "body", body)
}

func (r *Overrides) upsert(ctx context.Context, lang, screen, column, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO content_overrides (lang, screen, %[1]s) VALUES ($1, $2, $3)
		ON CONFLICT (lang, screen) DO UPDATE SET %[1]s = EXCLUDED.%[1]s`, column)
	if _, err := r.db.ExecContext(ctx, query, lang, screen, sql.NullString{String: value, Valid: value != ""}); err != nil {
		return fmt.Errorf("set override %s/%s %s: %w", lang, screen, column, err)
	}
	return nil
}
