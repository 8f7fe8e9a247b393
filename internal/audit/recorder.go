// Package audit appends immutable records of accepted mutations.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicops/medagent/internal/domain"
)

// Recorder writes to the append-only audit_log table. Entries are never
// updated or deleted by the system.
type Recorder struct {
	db      *sqlx.DB
	writeMu *sync.Mutex
}

// NewRecorder creates a recorder over the given database handle.
// writeMu is the store's process-wide write gate, shared with the
// execution engine: the audit insert is itself a write transaction and
// must queue behind in-flight mutations.
func NewRecorder(db *sqlx.DB, writeMu *sync.Mutex) *Recorder {
	return &Recorder{db: db, writeMu: writeMu}
}

var _ domain.AuditRecorder = (*Recorder)(nil)

// Record appends one entry. ID and Timestamp are assigned when unset.
// The write runs outside the domain transaction (which has already
// committed) but under the shared write gate, so a concurrent request's
// mutation transaction cannot make it fail busy; a failure here is the
// caller's AuditWriteFailed case.
func (r *Recorder) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	query := `INSERT INTO audit_log (id, timestamp, operation, old_value, new_value, actor)
	          VALUES (?, ?, ?, ?, ?, ?)`

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Timestamp, entry.Operation,
		nullable(entry.OldValue), nullable(entry.NewValue), entry.Actor)
	if err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	return nil
}

// List returns the most recent entries, newest first.
func (r *Recorder) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, timestamp, operation, old_value, new_value, actor
	          FROM audit_log ORDER BY timestamp DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var oldVal, newVal sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Operation, &oldVal, &newVal, &e.Actor); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.OldValue = oldVal.String
		e.NewValue = newVal.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// nullable maps the empty string to NULL: INSERT has no pre-image and
// DELETE has no post-image.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
