package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate creates the directory and scan audit tables. Every statement is
// idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS patients (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            emergency_contact TEXT NOT NULL DEFAULT '',
            blood_group TEXT NOT NULL DEFAULT '',
            allergies TEXT[] NOT NULL DEFAULT '{}',
            doctor_id TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'active',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_patients_doctor_id ON patients (doctor_id)`,
		`CREATE TABLE IF NOT EXISTS facilities (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            department TEXT NOT NULL DEFAULT '',
            location TEXT NOT NULL DEFAULT '',
            contact TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS qr_scan_events (
            id UUID PRIMARY KEY,
            scanned_by TEXT NOT NULL,
            kind TEXT NOT NULL,
            subject_id TEXT NOT NULL DEFAULT '',
            valid BOOLEAN NOT NULL,
            errors TEXT[] NOT NULL DEFAULT '{}',
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_qr_scan_events_subject ON qr_scan_events (subject_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_qr_scan_events_created_at ON qr_scan_events (created_at)`,
		`ALTER TABLE qr_scan_events ADD COLUMN IF NOT EXISTS request_id TEXT NOT NULL DEFAULT ''`,
	}

	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
