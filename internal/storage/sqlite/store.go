// Package sqlite opens and prepares the embedded medical records store.
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the database at path and prepares it
// for use. Pass ":memory:" or a file: URI for tests.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// busy_timeout makes a writer wait for the lock instead of failing
	// immediately when another connection holds it.
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func initSchema(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			age INTEGER,
			gender TEXT,
			address TEXT,
			phone TEXT,
			notes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			patient_id INTEGER NOT NULL,
			date TEXT,
			diagnosis TEXT,
			doctor TEXT,
			FOREIGN KEY (patient_id) REFERENCES patients(id)
		)`,
		`CREATE TABLE IF NOT EXISTS prescriptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visit_id INTEGER NOT NULL,
			medication TEXT NOT NULL,
			dosage TEXT,
			FOREIGN KEY (visit_id) REFERENCES visits(id)
		)`,
		`CREATE TABLE IF NOT EXISTS billing (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			patient_id INTEGER NOT NULL,
			amount REAL,
			status TEXT,
			date TEXT,
			FOREIGN KEY (patient_id) REFERENCES patients(id)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			operation TEXT NOT NULL,
			old_value TEXT,
			new_value TEXT,
			actor TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_patient ON visits(patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_prescriptions_visit ON prescriptions(visit_id)`,
		`CREATE INDEX IF NOT EXISTS idx_billing_patient ON billing(patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// Seed loads the demo dataset if the store is empty. It is a no-op on a
// store that already has patients, so restarts do not duplicate rows.
func Seed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM patients"); err != nil {
		return fmt.Errorf("failed to check seed state: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`INSERT INTO patients (name, age, gender, address, phone, notes) VALUES
			('John Smith', 45, 'male', '12 Oak Lane', '555-0101', 'hypertension'),
			('Maria Garcia', 38, 'female', '98 Elm Street', '555-0102', ''),
			('Wei Chen', 62, 'male', '7 Maple Court', '555-0103', 'type 2 diabetes'),
			('Aisha Okafor', 29, 'female', '210 Birch Road', '555-0104', '')`,
		`INSERT INTO visits (patient_id, date, diagnosis, doctor) VALUES
			(1, '2026-07-02', 'hypertension follow-up', 'Dr. Patel'),
			(2, '2026-07-15', 'seasonal allergies', 'Dr. Nguyen'),
			(3, '2026-08-01', 'diabetes check', 'Dr. Patel'),
			(1, '2026-08-10', 'annual physical', 'Dr. Nguyen')`,
		`INSERT INTO prescriptions (visit_id, medication, dosage) VALUES
			(1, 'Lisinopril', '10mg daily'),
			(2, 'Loratadine', '10mg daily'),
			(3, 'Metformin', '500mg twice daily')`,
		`INSERT INTO billing (patient_id, amount, status, date) VALUES
			(1, 150.00, 'paid', '2026-07-02'),
			(2, 85.50, 'pending', '2026-07-15'),
			(3, 220.00, 'pending', '2026-08-01'),
			(1, 310.00, 'pending', '2026-08-10')`,
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}
	}

	return tx.Commit()
}
