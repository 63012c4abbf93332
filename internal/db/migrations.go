package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,

	// One profile per user. The snapshot column carries the full vehicle
	// questionnaire so partial updates merge server-side.
	`CREATE TABLE IF NOT EXISTS diag_profiles (
		id              UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id         UUID NOT NULL,
		snapshot        JSONB NOT NULL,
		photo_key       TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_diag_profiles_user_id ON diag_profiles(user_id);`,

	// Every completed diagnosis is kept verbatim: the snapshot that was
	// scored, the resulting assessment, and the advisory text if one was
	// generated.
	`CREATE TABLE IF NOT EXISTS diag_assessments (
		id                   UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id              UUID NOT NULL,
		vehicle_class        TEXT NOT NULL,
		risk_score           INT NOT NULL,
		risk_level           TEXT NOT NULL,
		snapshot             JSONB NOT NULL,
		contributing_factors JSONB,
		due_parts            JSONB,
		flags                JSONB,
		advisory             TEXT,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_diag_assessments_user_id ON diag_assessments(user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_diag_assessments_user_time ON diag_assessments(user_id, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_diag_assessments_risk_level ON diag_assessments(risk_level);`,

	// photo_key arrived after the first deploy, keep the ALTER for
	// databases created before it.
	`ALTER TABLE diag_profiles ADD COLUMN IF NOT EXISTS photo_key TEXT;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
