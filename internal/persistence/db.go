// Package persistence provides the SQLite catalogue of sweeps and their runs.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/metrics"
	"github.com/talgya/swarmsim/internal/runner"
)

// ErrNotFound is returned when a sweep or run ID does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection for result storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path, creating parent
// directories as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sweeps (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		runs INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		summary_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		sweep_id TEXT NOT NULL REFERENCES sweeps(id),
		idx INTEGER NOT NULL,
		name TEXT NOT NULL,
		swarm_size INTEGER NOT NULL,
		complexity REAL NOT NULL,
		seed INTEGER NOT NULL,
		policy TEXT NOT NULL,
		kind TEXT NOT NULL,
		error TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_sweep ON runs(sweep_id, idx);
	CREATE INDEX IF NOT EXISTS idx_sweeps_created ON sweeps(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Sweep is a stored sweep header.
type Sweep struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	CreatedAt   string `db:"created_at" json:"created_at"` // RFC 3339, UTC
	Runs        int    `db:"runs" json:"runs"`
	Failed      int    `db:"failed" json:"failed"`
	SummaryJSON string `db:"summary_json" json:"-"`
}

// Run is a stored sweep entry. Kind and Error are empty for successful runs.
type Run struct {
	ID        string `db:"id" json:"id"`
	SweepID   string `db:"sweep_id" json:"sweep_id"`
	Index     int    `db:"idx" json:"index"`
	config.Key
	Kind       string `db:"kind" json:"kind,omitempty"`
	Error      string `db:"error" json:"error,omitempty"`
	ElapsedMS  int64  `db:"elapsed_ms" json:"elapsed_ms"`
	ConfigJSON string `db:"config_json" json:"-"`
	ResultJSON string `db:"result_json" json:"-"`
}

// Config decodes the stored experiment.
func (r Run) Config() (config.Experiment, error) {
	var cfg config.Experiment
	err := json.Unmarshal([]byte(r.ConfigJSON), &cfg)
	return cfg, err
}

// Result decodes the stored metric record. Failed runs decode to an empty record.
func (r Run) Result() (metrics.Result, error) {
	var res metrics.Result
	err := json.Unmarshal([]byte(r.ResultJSON), &res)
	return res, err
}

// SaveSweep stores a sweep and all of its outcomes in one transaction. summary is any
// JSON-encodable value describing the sweep as a whole.
func (db *DB) SaveSweep(name string, outcomes []runner.Outcome, summary any) (Sweep, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return Sweep{}, fmt.Errorf("encode summary: %w", err)
	}
	sw := Sweep{
		ID:          uuid.NewString(),
		Name:        name,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Runs:        len(outcomes),
		SummaryJSON: string(summaryJSON),
	}
	for _, o := range outcomes {
		if !o.OK() {
			sw.Failed++
		}
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return Sweep{}, err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`INSERT INTO sweeps (id, name, created_at, runs, failed, summary_json)
		VALUES (:id, :name, :created_at, :runs, :failed, :summary_json)`, sw); err != nil {
		return Sweep{}, fmt.Errorf("insert sweep: %w", err)
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO runs
		(id, sweep_id, idx, name, swarm_size, complexity, seed, policy,
		 kind, error, elapsed_ms, config_json, result_json)
		VALUES (:id, :sweep_id, :idx, :name, :swarm_size, :complexity, :seed, :policy,
		 :kind, :error, :elapsed_ms, :config_json, :result_json)`)
	if err != nil {
		return Sweep{}, err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		r, err := newRun(sw.ID, o)
		if err != nil {
			return Sweep{}, err
		}
		if _, err := stmt.Exec(r); err != nil {
			return Sweep{}, fmt.Errorf("insert run %d: %w", o.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Sweep{}, err
	}
	slog.Info("sweep saved", "id", sw.ID, "name", name, "runs", sw.Runs, "failed", sw.Failed)
	return sw, nil
}

func newRun(sweepID string, o runner.Outcome) (Run, error) {
	cfgJSON, err := json.Marshal(o.Config)
	if err != nil {
		return Run{}, fmt.Errorf("encode config %d: %w", o.Index, err)
	}
	resJSON := []byte("{}")
	if o.OK() {
		if resJSON, err = json.Marshal(o.Result); err != nil {
			return Run{}, fmt.Errorf("encode result %d: %w", o.Index, err)
		}
	}
	r := Run{
		ID:         uuid.NewString(),
		SweepID:    sweepID,
		Index:      o.Index,
		Key:        o.Config.Key(),
		Kind:       o.Kind(),
		ElapsedMS:  o.Elapsed.Milliseconds(),
		ConfigJSON: string(cfgJSON),
		ResultJSON: string(resJSON),
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	return r, nil
}

// ListSweeps returns the most recent sweeps, newest first.
func (db *DB) ListSweeps(limit int) ([]Sweep, error) {
	var out []Sweep
	err := db.conn.Select(&out,
		"SELECT id, name, created_at, runs, failed, summary_json FROM sweeps ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return out, err
}

// GetSweep returns one sweep header.
func (db *DB) GetSweep(id string) (Sweep, error) {
	var sw Sweep
	err := db.conn.Get(&sw, "SELECT id, name, created_at, runs, failed, summary_json FROM sweeps WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Sweep{}, fmt.Errorf("sweep %s: %w", id, ErrNotFound)
	}
	return sw, err
}

const runColumns = `id, sweep_id, idx, name, swarm_size, complexity, seed, policy,
	kind, error, elapsed_ms, config_json, result_json`

// ListRuns returns the runs of a sweep in sweep order.
func (db *DB) ListRuns(sweepID string) ([]Run, error) {
	var out []Run
	err := db.conn.Select(&out, "SELECT "+runColumns+" FROM runs WHERE sweep_id = ? ORDER BY idx", sweepID)
	return out, err
}

// GetRun returns one run.
func (db *DB) GetRun(id string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return r, err
}

// SaveMeta stores a key-value pair in the catalogue metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %s: %w", key, ErrNotFound)
	}
	return value, err
}
