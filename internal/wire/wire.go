// Package wire provides dependency injection for the chore application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	cliadapter "github.com/example/chore/internal/adapters/cli"
	"github.com/example/chore/internal/adapters/jsonl"
	"github.com/example/chore/internal/adapters/sqlite"
	"github.com/example/chore/internal/app"
	"github.com/example/chore/internal/config"
	"github.com/example/chore/internal/core/idgen"
	"github.com/example/chore/internal/db"
	"github.com/example/chore/internal/logging"
	"github.com/example/chore/internal/ports/primary"
	"github.com/example/chore/internal/schedule"
)

var (
	cfg              *config.Config
	logger           *slog.Logger
	logCloser        io.Closer
	database         *sql.DB
	choreService     primary.ChoreService
	integrityService primary.IntegrityService
	eventService     primary.EventService
	initErr          error
	once             sync.Once
)

// ChoreService returns the singleton ChoreService instance.
func ChoreService() (primary.ChoreService, error) {
	once.Do(initServices)
	return choreService, initErr
}

// IntegrityService returns the singleton IntegrityService instance.
func IntegrityService() (primary.IntegrityService, error) {
	once.Do(initServices)
	return integrityService, initErr
}

// EventService returns the singleton EventService instance.
func EventService() (primary.EventService, error) {
	once.Do(initServices)
	return eventService, initErr
}

// Logger returns the application logger.
func Logger() *slog.Logger {
	once.Do(initServices)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	loaded, err := config.Load()
	if err != nil {
		initErr = fmt.Errorf("failed to load config: %w", err)
		return
	}
	cfg = loaded

	logger, logCloser, err = logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	})
	if err != nil {
		initErr = fmt.Errorf("failed to initialize logging: %w", err)
		return
	}

	// Create store and journal adapters (secondary ports)
	store, err := jsonl.Open(cfg.DataPath, cfg.CompletedPath)
	if err != nil {
		initErr = fmt.Errorf("failed to open chore store: %w", err)
		return
	}
	database, err = db.Open(cfg.EventsDB)
	if err != nil {
		initErr = fmt.Errorf("failed to open event journal: %w", err)
		return
	}
	journal := sqlite.NewEventRepository(database)

	ids, err := idgen.New(cfg.NodeID)
	if err != nil {
		initErr = fmt.Errorf("failed to create id generator: %w", err)
		return
	}

	// Create services (primary ports implementation)
	choreService = app.NewChoreService(store, journal, ids, app.ChoreServiceOptions{
		Logger:      logging.Component(logger, "chores"),
		ReplaceInfo: cfg.ReplaceInfo(),
	})
	integrityService = app.NewIntegrityService(store, journal, logging.Component(logger, "integrity"))
	eventService = app.NewEventService(journal)
}

// Config returns the loaded configuration.
func Config() (*config.Config, error) {
	once.Do(initServices)
	if cfg == nil {
		return nil, initErr
	}
	return cfg, nil
}

// ChoreAdapter returns a new ChoreAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ChoreAdapter() (*cliadapter.ChoreAdapter, error) {
	return ChoreAdapterWithOutput(os.Stdout)
}

// ChoreAdapterWithOutput returns a new ChoreAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func ChoreAdapterWithOutput(out io.Writer) (*cliadapter.ChoreAdapter, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return cliadapter.NewChoreAdapter(choreService, integrityService, eventService, out, cfg.Colors), nil
}

// Scheduler returns a validation scheduler on the configured schedule.
func Scheduler(repair bool, onReport func(*primary.IntegrityReport)) (*schedule.Scheduler, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return schedule.NewScheduler(schedule.Config{
		Validator: integrityService,
		Spec:      cfg.ValidateSchedule,
		Repair:    repair,
		Logger:    logging.Component(logger, "schedule"),
		OnReport:  onReport,
	})
}

// Close releases the journal database and the log file.
func Close() error {
	var errs []error
	if database != nil {
		errs = append(errs, database.Close())
	}
	if logCloser != nil {
		errs = append(errs, logCloser.Close())
	}
	return errors.Join(errs...)
}
