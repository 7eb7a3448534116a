package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version the application
// expects. Failing to migrate to it is fatal.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Registries and pending queue",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS entities (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					registry_key TEXT NOT NULL,
					canonical_name TEXT NOT NULL,
					normalized_name TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					mcc_code TEXT NOT NULL DEFAULT '',
					payment_network TEXT NOT NULL DEFAULT '',
					business_deductible INTEGER,
					personal_deductible INTEGER,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(registry_key, normalized_name)
				)`,
				`CREATE INDEX idx_entities_registry ON entities(registry_key)`,

				`CREATE TABLE IF NOT EXISTS entity_variations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					entity_id INTEGER NOT NULL,
					variation TEXT NOT NULL,
					normalized TEXT NOT NULL,
					UNIQUE(entity_id, normalized),
					FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_variations_entity ON entity_variations(entity_id)`,

				`CREATE TABLE IF NOT EXISTS pending_classifications (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					normalized_text TEXT NOT NULL,
					original_text TEXT NOT NULL,
					provenance TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'pending',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE UNIQUE INDEX idx_pending_unique_open
					ON pending_classifications(normalized_text)
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
		Version:     2,
		Description: "Enriched transaction fact log",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS enriched_transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					beneficiary_name TEXT NOT NULL DEFAULT '',
					source_file TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL,
					txn_type TEXT NOT NULL,
					direction TEXT NOT NULL,
					clean_merchant TEXT NOT NULL DEFAULT '',
					is_clean INTEGER NOT NULL DEFAULT 0,
					merchant_canonical TEXT NOT NULL DEFAULT '',
					needs_manual_classification INTEGER NOT NULL DEFAULT 0,
					flow_type TEXT NOT NULL,
					account_category TEXT NOT NULL,
					account_subcategory TEXT NOT NULL,
					debit_credit TEXT NOT NULL,
					merchant_category TEXT NOT NULL,
					mcc_code TEXT NOT NULL DEFAULT '',
					budget_category TEXT NOT NULL,
					budget_subcategory TEXT NOT NULL,
					tax_category TEXT NOT NULL,
					business_deductible INTEGER NOT NULL DEFAULT 0,
					personal_deductible INTEGER NOT NULL DEFAULT 0,
					payment_method TEXT NOT NULL,
					payment_network TEXT NOT NULL DEFAULT '',
					confidence REAL NOT NULL DEFAULT 0,
					category_confidence REAL NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_enriched_date ON enriched_transactions(date)`,
				`CREATE INDEX idx_enriched_merchant ON enriched_transactions(merchant_canonical)`,
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

// Migrate brings the database up to the expected schema version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.withTx(ctx, func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
			}
			if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.Version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
			}
			return nil
		}); err != nil {
			return err
		}
		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
