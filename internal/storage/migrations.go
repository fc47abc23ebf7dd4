package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					started_at DATETIME NOT NULL,
					finished_at DATETIME NOT NULL,
					taxpayer_name TEXT NOT NULL,
					spouse_name TEXT,
					state TEXT,
					standards_version TEXT NOT NULL,
					methodology_version TEXT NOT NULL,
					document_count INTEGER NOT NULL,
					failed_count INTEGER NOT NULL,
					rcp_lump_sum TEXT NOT NULL,
					rcp_periodic TEXT NOT NULL,
					qualifies_cnc INTEGER NOT NULL,
					confidence REAL NOT NULL,
					result_json TEXT NOT NULL,
					form_json TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_runs_started_at ON runs(started_at)`,

				`CREATE TABLE IF NOT EXISTS provenance (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL,
					seq INTEGER NOT NULL,
					field_path TEXT NOT NULL,
					value TEXT NOT NULL,
					source_file TEXT NOT NULL,
					raw_text TEXT,
					method TEXT NOT NULL,
					confidence REAL NOT NULL,
					extracted_at DATETIME NOT NULL,
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_provenance_run_field ON provenance(run_id, field_path)`,

				`CREATE TABLE IF NOT EXISTS audit_entries (
					run_id TEXT NOT NULL,
					seq INTEGER NOT NULL,
					step TEXT NOT NULL,
					input TEXT NOT NULL,
					output TEXT NOT NULL,
					citation TEXT,
					notes TEXT,
					form_line TEXT,
					recorded_at DATETIME NOT NULL,
					PRIMARY KEY (run_id, seq),
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add per-document outcomes and exclusions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS run_documents (
					run_id TEXT NOT NULL,
					seq INTEGER NOT NULL,
					file TEXT NOT NULL,
					type TEXT NOT NULL,
					owner TEXT,
					error TEXT,
					PRIMARY KEY (run_id, seq),
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
				`CREATE TABLE IF NOT EXISTS excluded_documents (
					run_id TEXT NOT NULL,
					file TEXT NOT NULL,
					owner_name TEXT,
					reason TEXT NOT NULL,
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_excluded_documents_run ON excluded_documents(run_id)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add run messages",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS run_messages (
					run_id TEXT NOT NULL,
					kind TEXT NOT NULL CHECK (kind IN ('warning', 'error', 'calculation_warning', 'recommendation')),
					seq INTEGER NOT NULL,
					text TEXT NOT NULL,
					PRIMARY KEY (run_id, kind, seq),
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
			})
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
