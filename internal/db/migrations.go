package db

import (
	"database/sql"
	"fmt"
)

// currentVersion is the schema version created by initializeSchema
const currentVersion = 1

// RunMigrations executes all database migrations
func RunMigrations(db *DB) error {
	var tableExists bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	}

	if !tableExists {
		if err := initializeSchema(db); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		return nil
	}

	var version int
	err = db.QueryRow(`
		SELECT version FROM schema_version
		ORDER BY version DESC LIMIT 1
	`).Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	if version < 1 || version > currentVersion {
		return fmt.Errorf("invalid schema version: %d", version)
	}

	return nil
}

// initializeSchema creates all tables for a new database
func initializeSchema(db *DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		schemaVersionTable,
		hostsTable,
		recordsTable,
		recordsIndexes,
		sansTable,
		notificationsTable,
		notificationsIndexes,
	} {
		if err := execSQL(tx, stmt); err != nil {
			return err
		}
	}

	if err := execSQL(tx, fmt.Sprintf(`INSERT INTO schema_version (version) VALUES (%d)`, currentVersion)); err != nil {
		return err
	}

	return tx.Commit()
}

// execSQL executes a SQL statement
func execSQL(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}

// Schema definitions
const (
	schemaVersionTable = `
CREATE TABLE schema_version (
    version INTEGER NOT NULL,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	hostsTable = `
CREATE TABLE hosts (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    common_name TEXT NOT NULL UNIQUE,
    duration    INTEGER NOT NULL CHECK (duration > 0 AND duration <= 36500),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	recordsTable = `
CREATE TABLE records (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    host_id   INTEGER NOT NULL,
    timestamp DATETIME NOT NULL,
    provider  TEXT,
    duration  INTEGER NOT NULL CHECK (duration > 0 AND duration <= 36500),

    FOREIGN KEY (host_id) REFERENCES hosts(id)
)`

	recordsIndexes = `
CREATE INDEX idx_records_host_id ON records(host_id);
CREATE INDEX idx_records_timestamp ON records(timestamp)`

	sansTable = `
CREATE TABLE sans (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    record_id INTEGER NOT NULL,
    value     TEXT NOT NULL,

    UNIQUE (record_id, value),
    FOREIGN KEY (record_id) REFERENCES records(id)
)`

	notificationsTable = `
CREATE TABLE notifications (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    sent_at       DATETIME NOT NULL,
    sink          TEXT NOT NULL,
    expired_count INTEGER NOT NULL,
    due_count     INTEGER NOT NULL,
    hosts         TEXT NOT NULL,
    success       INTEGER NOT NULL,
    error_msg     TEXT
)`

	notificationsIndexes = `
CREATE INDEX idx_notifications_sent_at ON notifications(sent_at)`
)
