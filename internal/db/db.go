package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/suitecov/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// FileName is the database file inside the base directory.
const FileName = "suitecov.db"

// Init initializes the SQLite database at baseDir/suitecov.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.suitecov.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	exportsDir := filepath.Join(baseDir, "exports")
	if err := os.MkdirAll(exportsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}
	_ = os.Chmod(exportsDir, 0700)

	// Pragmas in the DSN apply to every pooled connection
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS test_cases (
		  id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		  guid                TEXT NOT NULL UNIQUE,
		  name                TEXT NOT NULL,
		  description         TEXT,
		  tags                TEXT,
		  relative_path       TEXT NOT NULL,
		  has_test_data_links INTEGER NOT NULL DEFAULT 0,
		  has_variables       INTEGER NOT NULL DEFAULT 0,
		  updated_at          INTEGER,
		  run_id              TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_test_cases_path ON test_cases(relative_path);

		CREATE TABLE IF NOT EXISTS tags (
		  id       INTEGER PRIMARY KEY AUTOINCREMENT,
		  tag_name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS test_case_tags (
		  test_case_id INTEGER NOT NULL REFERENCES test_cases(id) ON DELETE CASCADE,
		  tag_id       INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		  PRIMARY KEY (test_case_id, tag_id)
		);

		CREATE TABLE IF NOT EXISTS test_suites (
		  id                       INTEGER PRIMARY KEY AUTOINCREMENT,
		  guid                     TEXT NOT NULL UNIQUE,
		  name                     TEXT NOT NULL,
		  description              TEXT,
		  tags                     TEXT,
		  relative_path            TEXT NOT NULL,
		  kind                     TEXT NOT NULL,
		  filtering_text           TEXT,
		  is_rerun                 INTEGER NOT NULL DEFAULT 0,
		  mail_recipient           TEXT,
		  number_of_rerun          INTEGER NOT NULL DEFAULT 0,
		  page_load_timeout        INTEGER NOT NULL DEFAULT 30,
		  rerun_failed_only        INTEGER NOT NULL DEFAULT 0,
		  rerun_immediately        INTEGER NOT NULL DEFAULT 0,
		  execution_mode           TEXT,
		  max_concurrent_instances INTEGER NOT NULL DEFAULT 0,
		  delay_between_instances  INTEGER NOT NULL DEFAULT 0,
		  updated_at               INTEGER,
		  run_id                   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_test_suites_kind ON test_suites(kind);

		CREATE TABLE IF NOT EXISTS test_suite_case_links (
		  id              INTEGER PRIMARY KEY AUTOINCREMENT,
		  test_suite_id   INTEGER NOT NULL REFERENCES test_suites(id) ON DELETE CASCADE,
		  link_guid       TEXT,
		  test_case_ref   TEXT NOT NULL,
		  test_case_id    INTEGER REFERENCES test_cases(id) ON DELETE SET NULL,
		  is_reuse_driver INTEGER NOT NULL DEFAULT 0,
		  is_run          INTEGER NOT NULL DEFAULT 1
		);

		CREATE INDEX IF NOT EXISTS idx_case_links_suite ON test_suite_case_links(test_suite_id);
		CREATE INDEX IF NOT EXISTS idx_case_links_case ON test_suite_case_links(test_case_id)
		WHERE test_case_id IS NOT NULL;

		CREATE TABLE IF NOT EXISTS test_suite_collection_links (
		  id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		  collection_id        INTEGER NOT NULL REFERENCES test_suites(id) ON DELETE CASCADE,
		  position             INTEGER NOT NULL,
		  suite_path           TEXT NOT NULL,
		  run_enabled          INTEGER NOT NULL DEFAULT 1,
		  group_name           TEXT,
		  profile_name         TEXT,
		  require_config_data  INTEGER NOT NULL DEFAULT 0,
		  run_configuration_id TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_collection_links_collection
		ON test_suite_collection_links(collection_id, position);

		CREATE TABLE IF NOT EXISTS ingest_runs (
		  id          TEXT PRIMARY KEY,
		  root        TEXT NOT NULL,
		  started_at  INTEGER NOT NULL,
		  finished_at INTEGER NOT NULL,
		  test_cases  INTEGER NOT NULL,
		  test_suites INTEGER NOT NULL,
		  warnings    INTEGER NOT NULL,
		  pruned      INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
