package pipeline

import (
	"errors"
	"fmt"

	"github.com/clinicops/medagent/internal/domain"
)

// clarifyResponse asks the user to restate their request.
func clarifyResponse(message string) *domain.Response {
	return &domain.Response{
		Type:    domain.ResponseClarification,
		Message: message,
	}
}

// errorResponse reports a failure with an optional remediation hint.
func errorResponse(message, suggestion string) *domain.Response {
	return &domain.Response{
		Type:       domain.ResponseError,
		Message:    message,
		Suggestion: suggestion,
	}
}

// rejectionResponse maps a validator rejection to an error response.
// The rejection's reason and suggestion are user-facing text.
func rejectionResponse(rej *domain.RejectionError) *domain.Response {
	return errorResponse(rej.Reason, rej.Suggestion)
}

// executionResponse maps an execution failure to an error response,
// surfacing the driver-derived hint when one exists.
func executionResponse(err error) *domain.Response {
	var execErr *domain.ExecutionError
	if errors.As(err, &execErr) {
		return errorResponse("The operation could not be completed.", execErr.Hint)
	}
	return errorResponse("The operation could not be completed.", "")
}

// auditFailureResponse reports a mutation that committed but could not
// be audited. This is distinct from an execution failure: the change is
// live and the audit trail has a gap.
func auditFailureResponse(outcome *domain.ExecutionOutcome, sql string) *domain.Response {
	return &domain.Response{
		Type: domain.ResponseError,
		Message: fmt.Sprintf("The change to %s was applied, but it could not be recorded in the audit log.",
			outcome.Table),
		Suggestion: "Contact an administrator to reconcile the audit trail.",
		TableName:  outcome.Table,
		Statement:  sql,
	}
}

// tableResponse carries a query result set.
func tableResponse(outcome *domain.ExecutionOutcome, sql string) *domain.Response {
	message := fmt.Sprintf("Found %d record(s).", len(outcome.Rows))
	if len(outcome.Rows) == 0 {
		message = "No matching records found."
	}
	return &domain.Response{
		Type:      domain.ResponseTable,
		Message:   message,
		Rows:      outcome.Rows,
		RowCount:  len(outcome.Rows),
		TableName: outcome.Table,
		Statement: sql,
	}
}

// successResponse reports a committed, audited mutation.
func successResponse(outcome *domain.ExecutionOutcome, sql string) *domain.Response {
	return &domain.Response{
		Type:      domain.ResponseSuccess,
		Message:   successMessage(outcome),
		RowCount:  int(outcome.RowsAffected),
		TableName: outcome.Table,
		Statement: sql,
	}
}

// successMessage phrases the mutation outcome. A mutation that matched
// no rows still committed and is still reported as a success.
func successMessage(outcome *domain.ExecutionOutcome) string {
	if outcome.RowsAffected == 0 {
		return fmt.Sprintf("No records in %s matched, so nothing was changed.", outcome.Table)
	}
	switch outcome.Op {
	case domain.OpInsert:
		if outcome.LastInsertID > 0 {
			return fmt.Sprintf("Created record %d in %s.", outcome.LastInsertID, outcome.Table)
		}
		return fmt.Sprintf("Created %d record(s) in %s.", outcome.RowsAffected, outcome.Table)
	case domain.OpUpdate:
		return fmt.Sprintf("Updated %d record(s) in %s.", outcome.RowsAffected, outcome.Table)
	case domain.OpDelete:
		return fmt.Sprintf("Deleted %d record(s) from %s.", outcome.RowsAffected, outcome.Table)
	}
	return fmt.Sprintf("Changed %d record(s) in %s.", outcome.RowsAffected, outcome.Table)
}
