package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Config is a key-value store for admin-editable runtime settings.
// Values live in the app_config table; missing keys fall back to the caller's
// default, so the table only holds explicit admin edits.
type Config struct {
	db *sqlx.DB
}

// NewConfig builds the runtime configuration repository.
func NewConfig(db *sqlx.DB) *Config {
	return &Config{db: db}
}

// Get returns the stored value for key and whether it exists.
func (r *Config) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.GetContext(ctx, &v, `SELECT value FROM app_config WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("config get %s: %w", key, err)
	}
	return v, true, nil
}

// Set upserts the value for key.
func (r *Config) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("config set %s: %w", key, err)
	}
	return nil
}

// SetDefault stores the value only if the key is not present yet.
// Used by seeding so admin edits survive restarts.
func (r *Config) SetDefault(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING`,
		key, value)
	if err != nil {
		return fmt.Errorf("config set default %s: %w", key, err)
	}
	return nil
}
