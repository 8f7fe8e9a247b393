package domain

import (
	"errors"
	"fmt"
)

// ValidationRule identifies which safety rule rejected a statement.
type ValidationRule string

const (
	// RuleSchemaDestructive rejects DROP/ALTER/TRUNCATE unconditionally.
	// This gate is checked before every other rule.
	RuleSchemaDestructive ValidationRule = "schema_destructive"

	// RuleSingleTable rejects multi-statement text and statements that do
	// not target exactly one known table.
	RuleSingleTable ValidationRule = "single_table"

	// RuleUnboundedMutation rejects UPDATE/DELETE without a filtering
	// condition.
	RuleUnboundedMutation ValidationRule = "unbounded_mutation"

	// RuleUnknownColumn rejects statements referencing columns not present
	// in the schema registry for the target table.
	RuleUnknownColumn ValidationRule = "unknown_column"
)

// RejectionError is returned by the safety validator. It carries enough
// detail for the response composer to offer an actionable suggestion.
// A rejection is not a write: it produces no audit entry and no event.
type RejectionError struct {
	Rule       ValidationRule
	Reason     string
	Suggestion string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("statement rejected (%s): %s", e.Rule, e.Reason)
}

// IsRejection reports whether err is a validator rejection.
func IsRejection(err error) bool {
	var r *RejectionError
	return errors.As(err, &r)
}

// ErrCannotSynthesize signals that no statement could be produced
// confidently for the utterance. The pipeline converts it into a
// clarification response.
var ErrCannotSynthesize = errors.New("cannot synthesize statement")

// ExecutionError wraps a statement execution failure after rollback.
// Hint, when set, is a remediation suggestion derived from the cause.
type ExecutionError struct {
	Cause error
	Hint  string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %v", e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// AuditWriteError reports that the domain mutation committed but the
// audit entry could not be written. It is surfaced distinctly so
// operators can reconcile rather than mistaking it for a failed request.
type AuditWriteError struct {
	Err error
}

func (e *AuditWriteError) Error() string {
	return fmt.Sprintf("audit write failed after commit: %v", e.Err)
}

func (e *AuditWriteError) Unwrap() error { return e.Err }
