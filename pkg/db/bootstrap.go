package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Defaults written on first run.
const (
	DefaultProfile    = "default"
	DefaultBackendURL = "http://localhost:8000"
	DefaultAPIHost    = "0.0.0.0"
	DefaultAPIPort    = 8080
)

// NeedsBootstrap reports whether the database has no profiles yet.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// Bootstrap creates the active default profile pointing at the loopback
// backend. It does nothing once any profile exists.
func (db *DB) Bootstrap(ctx context.Context) error {
	needed, err := db.NeedsBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to check profiles: %w", err)
	}
	if !needed {
		return nil
	}

	return db.Tx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (name, backend_url, is_active)
			VALUES (?, ?, 1)
		`, DefaultProfile, DefaultBackendURL)
		if err != nil {
			return fmt.Errorf("failed to create default profile: %w", err)
		}

		profileID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get profile ID: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO api_servers (profile_id, host, port)
			VALUES (?, ?, ?)
		`, profileID, DefaultAPIHost, DefaultAPIPort); err != nil {
			return fmt.Errorf("failed to create default API server: %w", err)
		}
		return nil
	})
}
