package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS scans (
		id                 UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		filename           TEXT,
		detector           TEXT NOT NULL,
		threshold          NUMERIC(4,3) NOT NULL,
		is_healthy         BOOLEAN NOT NULL,
		health_score       INT NOT NULL,
		risk_tier          TEXT NOT NULL,
		diagnosis          TEXT NOT NULL,
		matched_key        TEXT,
		average_confidence NUMERIC(5,1),
		predictions        JSONB,
		result             JSONB,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_scans_diagnosis ON scans(diagnosis);`,
	`CREATE INDEX IF NOT EXISTS idx_scans_is_healthy ON scans(is_healthy);`,
}

// RunMigrations applies the schema. Every statement is idempotent.
func RunMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
