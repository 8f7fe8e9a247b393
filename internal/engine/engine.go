// Package engine executes validated statements against the store.
// Each statement runs in its own transaction; mutations additionally
// capture pre- and post-images of the affected rows for the audit log.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/clinicops/medagent/internal/domain"
)

// Engine runs statements against a single embedded store. SQLite allows
// one writer at a time, so write transactions are serialized
// process-wide through writeMu; reads run concurrently under WAL.
type Engine struct {
	db      *sqlx.DB
	writeMu *sync.Mutex
	logger  *slog.Logger
}

// New creates an engine over the given database handle. writeMu is the
// store's process-wide write gate; every other writer against the same
// store (the audit recorder) must share it so their inserts queue
// behind mutation transactions instead of failing busy.
func New(db *sqlx.DB, writeMu *sync.Mutex, logger *slog.Logger) *Engine {
	return &Engine{db: db, writeMu: writeMu, logger: logger}
}

var _ domain.Executor = (*Engine)(nil)

// Execute runs one accepted statement. On any execution error the
// transaction is rolled back and a *domain.ExecutionError is returned;
// no partial effect is observable.
func (e *Engine) Execute(ctx context.Context, stmt *domain.CandidateStatement) (*domain.ExecutionOutcome, error) {
	if stmt.Op.Mutating() {
		return e.mutate(ctx, stmt)
	}
	return e.query(ctx, stmt)
}

func (e *Engine) query(ctx context.Context, stmt *domain.CandidateStatement) (*domain.ExecutionOutcome, error) {
	rows, err := scanRows(ctx, e.db, stmt.SQL)
	if err != nil {
		return nil, wrapExecError(err)
	}

	table := ""
	if len(stmt.Tables) > 0 {
		table = stmt.Tables[0]
	}

	return &domain.ExecutionOutcome{
		Op:           stmt.Op,
		Table:        table,
		Rows:         rows,
		RowsAffected: int64(len(rows)),
	}, nil
}

func (e *Engine) mutate(ctx context.Context, stmt *domain.CandidateStatement) (*domain.ExecutionOutcome, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapExecError(err)
	}
	defer tx.Rollback()

	table := stmt.Tables[0]
	outcome := &domain.ExecutionOutcome{Op: stmt.Op, Table: table}

	// Pre-image: the rows the statement is about to touch, read with the
	// statement's own predicate inside the same transaction.
	if stmt.Op == domain.OpUpdate || stmt.Op == domain.OpDelete {
		pre, err := scanRows(ctx, tx, fmt.Sprintf("SELECT * FROM %s WHERE %s", table, stmt.Where))
		if err != nil {
			return nil, wrapExecError(err)
		}
		outcome.PreImage = pre
	}

	res, err := tx.ExecContext(ctx, stmt.SQL)
	if err != nil {
		return nil, wrapExecError(err)
	}
	outcome.RowsAffected, _ = res.RowsAffected()

	switch stmt.Op {
	case domain.OpInsert:
		id, err := res.LastInsertId()
		if err == nil {
			outcome.LastInsertID = id
			post, err := scanRows(ctx, tx, fmt.Sprintf("SELECT * FROM %s WHERE id = ?", table), id)
			if err != nil {
				return nil, wrapExecError(err)
			}
			outcome.PostImage = post
		}
	case domain.OpUpdate:
		post, err := e.reselect(ctx, tx, table, stmt.Where, outcome.PreImage)
		if err != nil {
			return nil, wrapExecError(err)
		}
		outcome.PostImage = post
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapExecError(err)
	}

	return outcome, nil
}

// reselect re-reads updated rows by the ids captured in the pre-image.
// The original predicate cannot be reused: the update may have changed
// the very columns it filtered on.
func (e *Engine) reselect(ctx context.Context, tx *sqlx.Tx, table, where string, pre []domain.Row) ([]domain.Row, error) {
	ids := make([]any, 0, len(pre))
	for _, row := range pre {
		if id, ok := row["id"]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return scanRows(ctx, tx, fmt.Sprintf("SELECT * FROM %s WHERE %s", table, where))
	}

	query, args, err := sqlx.In(fmt.Sprintf("SELECT * FROM %s WHERE id IN (?)", table), ids)
	if err != nil {
		return nil, err
	}
	return scanRows(ctx, tx, query, args...)
}

// queryer is the common surface of *sqlx.DB and *sqlx.Tx we need.
type queryer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

func scanRows(ctx context.Context, q queryer, query string, args ...any) ([]domain.Row, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		row := domain.Row{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		out = append(out, normalizeRow(row))
	}
	return out, rows.Err()
}

// normalizeRow converts driver byte slices to strings so rows serialize
// as JSON text rather than base64.
func normalizeRow(row domain.Row) domain.Row {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}

// wrapExecError maps driver errors to an ExecutionError with an
// actionable hint where one is known.
func wrapExecError(err error) error {
	msg := err.Error()
	hint := ""
	switch {
	case strings.Contains(msg, "UNIQUE constraint"):
		hint = "A record with this information already exists. Use different values or update the existing record."
	case strings.Contains(msg, "FOREIGN KEY constraint"):
		hint = "This operation references a record that does not exist."
	case strings.Contains(msg, "no such column"):
		hint = "The statement references an unknown column. Check the field names."
	case strings.Contains(msg, "no such table"):
		hint = "The statement references an unknown table."
	}
	return &domain.ExecutionError{Cause: err, Hint: hint}
}
