package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations is the ordered schema history. Each group runs in one
// transaction; its version is the 1-based index.
var migrations = [][]string{
	// 1: users and leads
	{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX users_email_key ON users (lower(email))`,
		`CREATE INDEX idx_users_role ON users (role)`,

		`CREATE TABLE leads (
			id TEXT PRIMARY KEY,
			client_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			phone_key TEXT NOT NULL,
			address TEXT NOT NULL,
			business_type TEXT NOT NULL,
			has_website TEXT NOT NULL,
			website_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			added_by_id TEXT NOT NULL,
			added_by_name TEXT NOT NULL,
			assigned_to_id TEXT,
			assigned_to_name TEXT,
			called BOOLEAN NOT NULL DEFAULT FALSE,
			called_at TIMESTAMPTZ,
			called_by_id TEXT,
			called_by_name TEXT,
			interest_status TEXT,
			notes JSONB NOT NULL DEFAULT '[]',
			activity_log JSONB NOT NULL DEFAULT '[]',
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at TIMESTAMPTZ,
			deleted_by TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			revision BIGINT NOT NULL DEFAULT 1
		)`,
		`CREATE UNIQUE INDEX leads_active_phone_key ON leads (phone_key) WHERE deleted = FALSE`,
		`CREATE INDEX idx_leads_added_by ON leads (added_by_id, deleted, created_at DESC)`,
		`CREATE INDEX idx_leads_assigned_to ON leads (assigned_to_id, deleted, created_at DESC)`,
		`CREATE INDEX idx_leads_created_at ON leads (created_at DESC)`,
	},
	// 2: the called flag is one-way at the storage layer too
	{
		`CREATE FUNCTION leads_called_is_final() RETURNS trigger AS $$
		BEGIN
			IF OLD.called AND NOT NEW.called THEN
				RAISE EXCEPTION 'called flag cannot be reset' USING ERRCODE = 'check_violation';
			END IF;
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`CREATE TRIGGER leads_called_is_final
			BEFORE UPDATE ON leads
			FOR EACH ROW EXECUTE FUNCTION leads_called_is_final()`,
	},
}

// Migrate applies every migration newer than the recorded schema version.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		if err := applyMigration(ctx, db, version, migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, version int, statements []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return err
	}
	return tx.Commit()
}
