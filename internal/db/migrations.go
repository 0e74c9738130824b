package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_chore_events",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "unique_activation_per_chore",
		Up:      migrationV2,
	},
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// RunMigrations executes all pending migrations
func RunMigrations(db *sql.DB) error {
	if err := createVersionTable(db); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// Get current schema version
	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the chore_events table.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS chore_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			chore_id INTEGER NOT NULL,
			related_id INTEGER,
			from_status TEXT,
			to_status TEXT,
			actor TEXT,
			detail TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chore_events_chore ON chore_events(chore_id);
		CREATE INDEX IF NOT EXISTS idx_chore_events_kind ON chore_events(kind);
	`)
	return err
}

// migrationV2 drops duplicate activation events, keeping the earliest, and
// enforces one activation per chore from then on.
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DELETE FROM chore_events
		WHERE kind = 'activation'
		  AND seq NOT IN (SELECT MIN(seq) FROM chore_events WHERE kind = 'activation' GROUP BY chore_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_chore_events_activation ON chore_events(chore_id) WHERE kind = 'activation';
	`)
	return err
}
