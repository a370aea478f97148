package db

import (
	"database/sql"
	"fmt"

	"procur/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS audit_rounds (
				request_id   TEXT NOT NULL,
				vendor_id    TEXT NOT NULL,
				round_number INTEGER NOT NULL,
				moves_json   TEXT NOT NULL DEFAULT '[]',
				updated_at   TEXT NOT NULL,
				PRIMARY KEY (request_id, vendor_id, round_number)
			);

			CREATE TABLE IF NOT EXISTS audit_events (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				request_id  TEXT NOT NULL,
				vendor_id   TEXT,
				kind        TEXT NOT NULL,
				fields_json TEXT NOT NULL DEFAULT '{}',
				timestamp   TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_events_request ON audit_events(request_id);

			CREATE TABLE IF NOT EXISTS negotiation_memories (
				request_id  TEXT NOT NULL,
				vendor_id   TEXT NOT NULL,
				memory_json TEXT NOT NULL,
				outcome     TEXT,
				savings     REAL NOT NULL DEFAULT 0,
				updated_at  TEXT NOT NULL,
				PRIMARY KEY (request_id, vendor_id)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	if version < 2 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS run_results (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				request_id TEXT NOT NULL,
				status     TEXT NOT NULL,
				elapsed_ms INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_runs_request ON run_results(request_id);

			CREATE TABLE IF NOT EXISTS run_outcomes (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id     INTEGER NOT NULL REFERENCES run_results(id),
				vendor_id  TEXT NOT NULL,
				state      TEXT NOT NULL,
				reason     TEXT,
				rounds     INTEGER NOT NULL DEFAULT 0,
				unit_price REAL,
				tco        REAL,
				savings    REAL NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_outcomes_run ON run_outcomes(run_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logger.Info("DB", "Applied migration v2 (run results)")
	}

	return nil
}

// SqlDB returns the underlying *sql.DB.
func (d *DB) SqlDB() *sql.DB {
	return d.sql
}
