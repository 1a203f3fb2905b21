package postgres

import (
	"database/sql"
	"fmt"
)

// Statements run in order and are individually idempotent, so Migrate can be
// re-run against an already-migrated database.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS projects (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		owner_id    TEXT NOT NULL,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects (owner_id)`,

	`CREATE TABLE IF NOT EXISTS files (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		project_id UUID NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		file_name  TEXT NOT NULL,
		file_url   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_files_project_id ON files (project_id)`,
}

// Migrate applies the schema. Row timestamps are maintained by the
// application, not triggers, so this is the whole DDL surface.
func Migrate(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
