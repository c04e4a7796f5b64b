package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/netscout/internal/model"
)

// SQLite persists records into a queryable database shared across runs.
// The schema keeps runs, hosts, ports, and banners in separate tables
// so history questions ("when did this port first open?") are joins,
// not log greps.
//
// Design decision: We use a single database file for all runs rather
// than one file per run. Cross-run queries are the whole point of the
// SQLite sink; per-run files would push the join work onto the user.
type SQLite struct {
	db     *sql.DB
	dbPath string
}

// SQLiteOptions configures the SQLite sink.
type SQLiteOptions struct {
	// CreateIfNotExists creates the database file and directory.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended: readers can
	// query mid-run without blocking the writer.
	EnableWAL bool
}

// DefaultSQLiteOptions returns the default sink options.
func DefaultSQLiteOptions() SQLiteOptions {
	return SQLiteOptions{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
  run_id        TEXT PRIMARY KEY,
  started_at    INTEGER NOT NULL,
  finished_at   INTEGER,
  host_count    INTEGER DEFAULT 0,
  probe_count   INTEGER DEFAULT 0,
  attempt_count INTEGER DEFAULT 0,
  error_count   INTEGER DEFAULT 0,
  achieved_qps  REAL DEFAULT 0.0,
  cancelled     INTEGER NOT NULL CHECK (cancelled IN (0,1)) DEFAULT 0
);

CREATE TABLE IF NOT EXISTS hosts (
  host_id  INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id   TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  address  TEXT NOT NULL,
  hostname TEXT,
  UNIQUE (run_id, address)
);

CREATE TABLE IF NOT EXISTS ports (
  port_id       INTEGER PRIMARY KEY AUTOINCREMENT,
  host_id       INTEGER NOT NULL REFERENCES hosts(host_id) ON DELETE CASCADE,
  transport     TEXT NOT NULL CHECK (transport IN ('tcp','udp')),
  port          INTEGER NOT NULL CHECK (port BETWEEN 1 AND 65535),
  state         TEXT NOT NULL CHECK (state IN ('open','closed','filtered','open|filtered')),
  reason        TEXT,
  service_name  TEXT,
  confidence    REAL DEFAULT 0.0,
  attempts      INTEGER DEFAULT 1,
  failed        INTEGER NOT NULL CHECK (failed IN (0,1)) DEFAULT 0,
  first_seen_ms INTEGER NOT NULL,
  last_seen_ms  INTEGER NOT NULL,
  UNIQUE (host_id, transport, port)
);

CREATE TABLE IF NOT EXISTS banners (
  banner_id    INTEGER PRIMARY KEY AUTOINCREMENT,
  port_id      INTEGER NOT NULL REFERENCES ports(port_id) ON DELETE CASCADE,
  protocol     TEXT,
  banner       TEXT,
  collected_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hosts_run ON hosts(run_id);
CREATE INDEX IF NOT EXISTS idx_ports_host ON ports(host_id);
CREATE INDEX IF NOT EXISTS idx_ports_lookup ON ports(transport, port, state);
CREATE INDEX IF NOT EXISTS idx_banners_port ON banners(port_id);
`

// OpenSQLite opens or creates the results database at dbDir/netscout.db.
func OpenSQLite(dbDir string, opts SQLiteOptions) (*SQLite, error) {
	dbPath := filepath.Join(dbDir, "netscout.db")

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("sink: create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("sink: database not found at %s: %w", dbPath, err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sink: open database: %w", err)
	}

	// SQLite supports one writer; funneling everything through a single
	// connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sink: enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sink: enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sink: create schema: %w", err)
	}

	return &SQLite{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.dbPath
}

// Write implements the engine's Sink. Each record upserts its host row,
// upserts the port row, and appends a banner row when a banner was
// captured, all in one transaction.
func (s *SQLite) Write(ctx context.Context, record model.ResultRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sink: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at) VALUES (?, ?)
		 ON CONFLICT(run_id) DO NOTHING`,
		record.RunID, record.FirstSeenMS,
	); err != nil {
		return fmt.Errorf("sink: upsert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO hosts (run_id, address, hostname) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, address) DO UPDATE SET hostname = excluded.hostname`,
		record.RunID, record.Address, nullable(record.Hostname),
	); err != nil {
		return fmt.Errorf("sink: upsert host: %w", err)
	}

	var hostID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT host_id FROM hosts WHERE run_id = ? AND address = ?`,
		record.RunID, record.Address,
	).Scan(&hostID); err != nil {
		return fmt.Errorf("sink: resolve host id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ports (host_id, transport, port, state, reason, service_name,
		                    confidence, attempts, failed, first_seen_ms, last_seen_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(host_id, transport, port) DO UPDATE SET
		   state = excluded.state,
		   reason = excluded.reason,
		   service_name = excluded.service_name,
		   confidence = excluded.confidence,
		   attempts = excluded.attempts,
		   failed = excluded.failed,
		   last_seen_ms = excluded.last_seen_ms`,
		hostID, string(record.Transport), record.Port, string(record.State),
		nullable(record.Reason), nullable(record.Protocol), record.Confidence,
		record.Attempts, boolInt(record.Failed), record.FirstSeenMS, record.LastSeenMS,
	); err != nil {
		return fmt.Errorf("sink: upsert port: %w", err)
	}

	if record.Banner != "" {
		var portID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT port_id FROM ports WHERE host_id = ? AND transport = ? AND port = ?`,
			hostID, string(record.Transport), record.Port,
		).Scan(&portID); err != nil {
			return fmt.Errorf("sink: resolve port id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO banners (port_id, protocol, banner, collected_ms) VALUES (?, ?, ?, ?)`,
			portID, nullable(record.Protocol), record.Banner, record.LastSeenMS,
		); err != nil {
			return fmt.Errorf("sink: insert banner: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sink: commit record: %w", err)
	}
	return nil
}

// Flush implements the engine's Sink. Committed transactions are
// already durable; flush is a no-op kept for the Sink contract.
func (s *SQLite) Flush(context.Context) error {
	return nil
}

// FinalizeRun stores the finalized summary on the run row.
func (s *SQLite) FinalizeRun(ctx context.Context, summary *model.RunSummary) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, host_count, probe_count,
		                   attempt_count, error_count, achieved_qps, cancelled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
		   finished_at = excluded.finished_at,
		   host_count = excluded.host_count,
		   probe_count = excluded.probe_count,
		   attempt_count = excluded.attempt_count,
		   error_count = excluded.error_count,
		   achieved_qps = excluded.achieved_qps,
		   cancelled = excluded.cancelled`,
		summary.RunID, model.EpochMillis(summary.StartedAt),
		model.EpochMillis(summary.FinishedAt), summary.HostCount,
		summary.ProbeCount, summary.AttemptCount, summary.ErrorCount,
		summary.AchievedQPS, boolInt(summary.Cancelled),
	); err != nil {
		return fmt.Errorf("sink: finalize run: %w", err)
	}
	return nil
}

// OpenPorts returns the open-state port rows recorded for a run,
// ordered by address then port.
func (s *SQLite) OpenPorts(ctx context.Context, runID string) ([]model.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT h.address, COALESCE(h.hostname, ''), p.transport, p.port, p.state,
		        COALESCE(p.reason, ''), COALESCE(p.service_name, ''), p.confidence,
		        p.attempts, p.failed, p.first_seen_ms, p.last_seen_ms
		 FROM ports p JOIN hosts h ON h.host_id = p.host_id
		 WHERE h.run_id = ? AND p.state = 'open'
		 ORDER BY h.address, p.port`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("sink: query open ports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.ResultRecord
	for rows.Next() {
		var (
			r      model.ResultRecord
			failed int
		)
		r.RunID = runID
		if err := rows.Scan(&r.Address, &r.Hostname, &r.Transport, &r.Port,
			&r.State, &r.Reason, &r.Protocol, &r.Confidence,
			&r.Attempts, &failed, &r.FirstSeenMS, &r.LastSeenMS); err != nil {
			return nil, fmt.Errorf("sink: scan port row: %w", err)
		}
		r.Failed = failed != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sink: iterate port rows: %w", err)
	}
	return records, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// boolInt maps a bool to the 0/1 CHECK columns.
func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
