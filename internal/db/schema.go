package db

import "database/sql"

// SchemaSQL is the complete modern schema for fresh journal databases.
// This schema reflects the current state after all migrations.
//
// Tests load it through GetSchemaSQL() instead of hardcoding CREATE TABLE
// statements, so a column referenced by the repository but missing here fails
// immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Chore lifecycle events (immutable audit records)
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

-- A chore activates its successor at most once.
CREATE UNIQUE INDEX IF NOT EXISTS idx_chore_events_activation ON chore_events(chore_id) WHERE kind = 'activation';
`

// InitSchema creates the database schema.
func InitSchema(db *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		var oldTableCount int
		err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = 'chore_events'").Scan(&oldTableCount)
		if err != nil {
			return err
		}
		if oldTableCount > 0 {
			// Journal predates versioning - run migrations to upgrade
			return RunMigrations(db)
		}

		// Completely fresh install - create modern schema directly
		// and mark every migration as applied.
		if _, err := db.Exec(SchemaSQL); err != nil {
			return err
		}
		if err := createVersionTable(db); err != nil {
			return err
		}
		for _, m := range migrations {
			if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return err
			}
		}
		return nil
	}

	// schema_version table exists - run any pending migrations
	return RunMigrations(db)
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
