package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate bootstraps the schema. Statements are idempotent so the
// server can run them unconditionally at startup.
func Migrate(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			age INTEGER NOT NULL CHECK (age >= 1 AND age <= 120),
			gender CHAR(1) NOT NULL CHECK (gender IN ('M', 'F', 'O')),
			phone VARCHAR(15) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			address TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tests (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC(10,2) NOT NULL CHECK (price > 0),
			duration_hours INTEGER NOT NULL DEFAULT 1 CHECK (duration_hours BETWEEN 1 AND 24),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id UUID PRIMARY KEY,
			patient_id UUID NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
			test_id UUID NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
			booking_date DATE NOT NULL,
			booking_time VARCHAR(5) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_patient ON bookings (patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_slot ON bookings (test_id, booking_date, booking_time)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot
			ON bookings (test_id, booking_date, booking_time)
			WHERE status IN ('pending', 'confirmed')`,
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(100) NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'admin',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
