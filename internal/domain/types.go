// Package domain provides the canonical types for the request pipeline.
package domain

import "time"

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	// IntentQuery is a read-only request (SELECT).
	IntentQuery Intent = "QUERY"
	// IntentUpdate is a single mutating request (INSERT, UPDATE, DELETE).
	IntentUpdate Intent = "UPDATE"
	// IntentUnknown is ambiguous or non-database input. It short-circuits
	// the pipeline to a clarification response.
	IntentUnknown Intent = "UNKNOWN"
)

// OpKind identifies the operation kind of a SQL statement.
type OpKind string

const (
	OpSelect OpKind = "SELECT"
	OpInsert OpKind = "INSERT"
	OpUpdate OpKind = "UPDATE"
	OpDelete OpKind = "DELETE"
	OpOther  OpKind = "OTHER"
)

// Mutating reports whether the operation writes to the store.
func (k OpKind) Mutating() bool {
	switch k {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Turn is one utterance/reply pair in a conversation session.
type Turn struct {
	Utterance string    `json:"utterance"`
	Reply     string    `json:"reply"`
	At        time.Time `json:"at"`
}

// CandidateStatement is a synthesized SQL statement plus the facts the
// validator needs: declared target tables, operation kind, the filtering
// predicate (if any), and the column identifiers referenced in checkable
// positions. Rejected candidates never reach execution.
type CandidateStatement struct {
	SQL     string
	Op      OpKind
	Tables  []string
	Where   string
	Columns []string

	// MultiStatement is set when the text contains more than one statement.
	MultiStatement bool

	// Destructive is set for schema-destructive text (DROP, ALTER,
	// TRUNCATE) anywhere in the statement.
	Destructive bool
}

// Row is one result row keyed by column name.
type Row = map[string]any

// ExecutionOutcome captures the effect of one executed statement.
type ExecutionOutcome struct {
	Op           OpKind
	Table        string
	RowsAffected int64
	LastInsertID int64

	// Rows holds the result set for read-only statements.
	Rows []Row

	// PreImage and PostImage hold the affected rows before and after a
	// mutation. PreImage is nil for INSERT, PostImage is nil for DELETE.
	PreImage  []Row
	PostImage []Row
}

// AuditEntry is one immutable row in the append-only audit log.
type AuditEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	Actor     string    `json:"actor"`
}

// ChangeEvent notifies observers that a table's contents changed. It is
// ephemeral: broadcast once, never persisted.
type ChangeEvent struct {
	Table   string `json:"table"`
	Action  string `json:"action"`
	Summary string `json:"message"`
}

// ChangeActionRefresh is the only action currently broadcast.
const ChangeActionRefresh = "refresh"

// ResponseType tags the structured reply union.
type ResponseType string

const (
	// ResponseSuccess reports a committed mutation.
	ResponseSuccess ResponseType = "success"
	// ResponseTable carries a query result set.
	ResponseTable ResponseType = "table"
	// ResponseError reports a validation rejection or execution failure.
	ResponseError ResponseType = "error"
	// ResponseClarification asks the user for more detail.
	ResponseClarification ResponseType = "clarification"
)

// Response is the sole observable output of the pipeline for one request.
// Exactly one is produced per request.
type Response struct {
	Type       ResponseType `json:"type"`
	Message    string       `json:"message"`
	Rows       []Row        `json:"rows,omitempty"`
	RowCount   int          `json:"row_count,omitempty"`
	TableName  string       `json:"table_name,omitempty"`
	Suggestion string       `json:"suggestion,omitempty"`

	// Statement is the SQL that was executed, recorded into session
	// history so follow-up utterances can resolve prior row ids.
	Statement string `json:"-"`
}
