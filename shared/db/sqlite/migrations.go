package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
)

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

// wordpressMigrations is the ordered list of bootstrap migrations. They create the subset of the
// WordPress schema that mediasweep reads and writes, with {prefix} replaced by the table prefix.
var wordpressMigrations = []migration{
	{
		version: 1,
		name:    "create_posts_table",
		up: `
			CREATE TABLE IF NOT EXISTS {prefix}posts (
				ID INTEGER PRIMARY KEY AUTOINCREMENT,
				post_author INTEGER NOT NULL DEFAULT 0,
				post_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				post_date_gmt TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				post_content TEXT NOT NULL DEFAULT '',
				post_title TEXT NOT NULL DEFAULT '',
				post_excerpt TEXT NOT NULL DEFAULT '',
				post_status TEXT NOT NULL DEFAULT 'publish',
				post_name TEXT NOT NULL DEFAULT '',
				post_parent INTEGER NOT NULL DEFAULT 0,
				guid TEXT NOT NULL DEFAULT '',
				post_type TEXT NOT NULL DEFAULT 'post',
				post_mime_type TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX IF NOT EXISTS {prefix}idx_posts_type_status_date
			ON {prefix}posts(post_type, post_status, post_date, ID);
		`,
	},
	{
		version: 2,
		name:    "create_postmeta_table",
		up: `
			CREATE TABLE IF NOT EXISTS {prefix}postmeta (
				meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
				post_id INTEGER NOT NULL DEFAULT 0,
				meta_key TEXT,
				meta_value TEXT
			);

			CREATE INDEX IF NOT EXISTS {prefix}idx_postmeta_post_id ON {prefix}postmeta(post_id);
			CREATE INDEX IF NOT EXISTS {prefix}idx_postmeta_meta_key ON {prefix}postmeta(meta_key);
		`,
	},
	{
		version: 3,
		name:    "create_options_table",
		up: `
			CREATE TABLE IF NOT EXISTS {prefix}options (
				option_id INTEGER PRIMARY KEY AUTOINCREMENT,
				option_name TEXT NOT NULL UNIQUE,
				option_value TEXT NOT NULL,
				autoload TEXT NOT NULL DEFAULT 'yes'
			);
		`,
	},
}

// runMigrations executes all pending bootstrap migrations
func runMigrations(db *sql.DB, prefix string) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range wordpressMigrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
		}

		_, err = tx.Exec(strings.ReplaceAll(m.up, "{prefix}", prefix))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			m.version,
			m.name,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
