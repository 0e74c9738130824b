package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the event journal database at path, creating its directory and
// bringing the schema up to date. Use ":memory:" for a throwaway database.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single writer process; one connection keeps :memory: databases shared
	// and avoids SQLITE_BUSY between our own goroutines.
	database.SetMaxOpenConns(1)

	if _, err := database.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := InitSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// DefaultPath returns the journal path inside the chore home directory.
func DefaultPath(homeDir string) string {
	return filepath.Join(homeDir, "events.db")
}
