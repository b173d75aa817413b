package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: records, targets, patterns",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS records (
					id TEXT PRIMARY KEY,
					sender TEXT NOT NULL DEFAULT '',
					domain TEXT NOT NULL DEFAULT '',
					subject TEXT NOT NULL DEFAULT '',
					thread_id TEXT,
					body TEXT NOT NULL DEFAULT '',
					timestamp DATETIME NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_records_thread ON records(thread_id)`,
				`CREATE INDEX idx_records_sender ON records(sender)`,

				`CREATE TABLE IF NOT EXISTS targets (
					type TEXT NOT NULL,
					id TEXT NOT NULL,
					code TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (type, id)
				)`,
				`CREATE INDEX idx_targets_code ON targets(code)`,

				`CREATE TABLE IF NOT EXISTS patterns (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					type TEXT NOT NULL,
					key TEXT NOT NULL,
					target_type TEXT NOT NULL,
					target_id TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					times_used INTEGER NOT NULL DEFAULT 0,
					times_correct INTEGER NOT NULL DEFAULT 0,
					active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					last_used_at DATETIME,
					UNIQUE (type, key, target_type, target_id)
				)`,
				`CREATE INDEX idx_patterns_lookup ON patterns(type, key) WHERE active = 1`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Suggestion queue and batches",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS batches (
					id TEXT PRIMARY KEY,
					group_key TEXT NOT NULL,
					target_type TEXT NOT NULL,
					target_id TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_batches_group ON batches(group_key, target_type, target_id)`,

				`CREATE TABLE IF NOT EXISTS suggestions (
					id TEXT PRIMARY KEY,
					type TEXT NOT NULL,
					record_id TEXT NOT NULL REFERENCES records(id),
					target_type TEXT NOT NULL,
					target_id TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					method TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL,
					evidence TEXT NOT NULL DEFAULT '',
					pattern_ids TEXT NOT NULL DEFAULT '',
					batch_id TEXT REFERENCES batches(id),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					decided_at DATETIME
				)`,
				`CREATE INDEX idx_suggestions_status ON suggestions(status)`,
				`CREATE INDEX idx_suggestions_batch ON suggestions(batch_id)`,
				// Atomic check-and-insert: two concurrent matcher runs over
				// the same record cannot both create a pending suggestion
				// for the same target.
				`CREATE UNIQUE INDEX idx_suggestions_pending_unique
					ON suggestions(record_id, target_type, target_id)
					WHERE status = 'pending'`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Links with one-active-per-target-type invariant",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS links (
					id TEXT PRIMARY KEY,
					record_id TEXT NOT NULL REFERENCES records(id),
					target_type TEXT NOT NULL,
					target_id TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					method TEXT NOT NULL DEFAULT '',
					active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					unlinked_at DATETIME
				)`,
				`CREATE INDEX idx_links_record ON links(record_id)`,
				// A record holds at most one active link per target type.
				// Retried applies hit this index instead of duplicating.
				`CREATE UNIQUE INDEX idx_links_active_unique
					ON links(record_id, target_type)
					WHERE active = 1`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// SchemaVersion returns the current schema version of the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending schema migrations.
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
