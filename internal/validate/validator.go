// Package validate is the safety gate between synthesized intent and
// database effect. It statically inspects candidate statements and either
// passes them through or rejects them with the rule that fired.
package validate

import (
	"fmt"
	"strings"

	"github.com/clinicops/medagent/internal/domain"
	"github.com/clinicops/medagent/internal/schema"
)

// Validator applies the safety rules against the schema registry.
type Validator struct {
	registry *schema.Registry
}

// New creates a validator over the given registry.
func New(registry *schema.Registry) *Validator {
	return &Validator{registry: registry}
}

var _ domain.Validator = (*Validator)(nil)

// Validate accepts (nil) or rejects (*domain.RejectionError) a candidate
// statement. The schema-destructive gate runs first and is not
// overridable: a statement that is both destructive and multi-table is
// rejected for being destructive.
func (v *Validator) Validate(stmt *domain.CandidateStatement) error {
	if stmt.Destructive || stmt.Op == domain.OpOther {
		return &domain.RejectionError{
			Rule:       domain.RuleSchemaDestructive,
			Reason:     "schema-changing operations (DROP, ALTER, TRUNCATE) are not allowed",
			Suggestion: "Only SELECT, INSERT, UPDATE and DELETE against existing tables are supported.",
		}
	}

	if stmt.MultiStatement {
		return &domain.RejectionError{
			Rule:       domain.RuleSingleTable,
			Reason:     "only one statement may run per request",
			Suggestion: "Break this into separate requests, one operation at a time.",
		}
	}

	if len(stmt.Tables) != 1 {
		return &domain.RejectionError{
			Rule:       domain.RuleSingleTable,
			Reason:     fmt.Sprintf("statement must target exactly one table, found %d", len(stmt.Tables)),
			Suggestion: fmt.Sprintf("Ask about one of: %s.", strings.Join(v.registry.TableNames(), ", ")),
		}
	}

	table := stmt.Tables[0]
	decl, known := v.registry.Table(table)
	if !known {
		return &domain.RejectionError{
			Rule:       domain.RuleSingleTable,
			Reason:     fmt.Sprintf("unknown table %q", table),
			Suggestion: fmt.Sprintf("Available tables: %s.", strings.Join(v.registry.TableNames(), ", ")),
		}
	}

	if (stmt.Op == domain.OpUpdate || stmt.Op == domain.OpDelete) && stmt.Where == "" {
		return &domain.RejectionError{
			Rule:       domain.RuleUnboundedMutation,
			Reason:     fmt.Sprintf("%s without a filtering condition would affect every row in %s", stmt.Op, table),
			Suggestion: "Specify which records to change, for example by id or name.",
		}
	}

	for _, col := range stmt.Columns {
		if !decl.HasColumn(col) {
			return &domain.RejectionError{
				Rule:       domain.RuleUnknownColumn,
				Reason:     fmt.Sprintf("table %s has no column %q", table, col),
				Suggestion: fmt.Sprintf("Columns of %s: %s.", table, strings.Join(v.registry.Columns(table), ", ")),
			}
		}
	}

	return nil
}
