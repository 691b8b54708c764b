// Package journal records render runs and their stages in a SQLite database.
package journal

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/goprotelemetry/internal/chain"
	"github.com/banshee-data/goprotelemetry/internal/timeutil"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Journal is a chain.Observer that persists one run at a time.
type Journal struct {
	db    *sql.DB
	runID string
	clock timeutil.Clock
	log   zerolog.Logger
}

// Open opens or creates the journal database at path and migrates it to the
// latest schema.
func Open(path string, clock timeutil.Clock, log zerolog.Logger) (*Journal, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure journal: %w", err)
	}

	j := &Journal{db: db, clock: clock, log: log}
	if err := j.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load journal migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(j.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{log: j.log}
	// m is not closed: that would close the journal's connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("journal migration failed: %w", err)
	}
	return nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// BeginRun starts recording a run. Later events are attached to it.
func (j *Journal) BeginRun(id, input string) error {
	_, err := j.db.Exec(
		`INSERT INTO runs (id, input, started_at, status) VALUES (?, ?, ?, ?)`,
		id, input, j.clock.Now().UTC(), RunRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	j.runID = id
	return nil
}

// StageFinished records one evaluated plugin.
func (j *Journal) StageFinished(ev chain.StageEvent) {
	if j.runID == "" {
		return
	}
	_, err := j.db.Exec(
		`INSERT INTO stages (run_id, idx, label, plugin, output, status, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, ev.Index, ev.Label, ev.Plugin, ev.Output, string(ev.Status),
		ev.Duration.Milliseconds(), errText(ev.Err),
	)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to journal stage")
	}
}

// ChainFinished closes the current run.
func (j *Journal) ChainFinished(_ chain.Result, runErr error) {
	j.Finish(runErr)
}

// Finish marks the current run finished. It also covers runs that stop
// before the chain starts.
func (j *Journal) Finish(runErr error) {
	if j.runID == "" {
		return
	}
	status := RunSucceeded
	if runErr != nil {
		status = RunFailed
	}
	_, err := j.db.Exec(
		`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		j.clock.Now().UTC(), status, errText(runErr), j.runID,
	)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to journal run result")
	}
	j.runID = ""
}

// Run is a journaled run.
type Run struct {
	ID         string
	Input      string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string
	Error      sql.NullString
}

// Stage is a journaled stage.
type Stage struct {
	Index      int
	Label      string
	Plugin     string
	Output     string
	Status     string
	DurationMS int64
	Error      sql.NullString
}

// Runs returns the most recent runs for input, newest first.
func (j *Journal) Runs(input string, limit int) ([]Run, error) {
	rows, err := j.db.Query(
		`SELECT id, input, started_at, finished_at, status, error
		 FROM runs WHERE input = ? ORDER BY started_at DESC LIMIT ?`,
		input, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Input, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Stages returns the stages of a run in evaluation order.
func (j *Journal) Stages(runID string) ([]Stage, error) {
	rows, err := j.db.Query(
		`SELECT idx, label, plugin, COALESCE(output, ''), status, duration_ms, error
		 FROM stages WHERE run_id = ? ORDER BY rowid`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []Stage
	for rows.Next() {
		var s Stage
		if err := rows.Scan(&s.Index, &s.Label, &s.Plugin, &s.Output, &s.Status, &s.DurationMS, &s.Error); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func errText(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}

// migrateLogger implements migrate.Logger on top of the journal logger.
type migrateLogger struct {
	log zerolog.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Msgf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
