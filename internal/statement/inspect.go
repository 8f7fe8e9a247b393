// Package statement statically inspects SQL text. It extracts the facts
// the safety validator needs without executing anything: operation kind,
// referenced tables, the filtering predicate, and the column identifiers
// that appear in checkable positions.
package statement

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clinicops/medagent/internal/domain"
)

var (
	tableRefPattern    = regexp.MustCompile(`(?i)\b(?:from|into|update|join)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	wherePattern       = regexp.MustCompile(`(?i)\bwhere\b`)
	insertColsPattern  = regexp.MustCompile(`(?is)^insert\s+into\s+[a-zA-Z_][a-zA-Z0-9_]*\s*\(([^)]*)\)`)
	updateSetPattern   = regexp.MustCompile(`(?is)\bset\b(.*)$`)
	selectListPattern  = regexp.MustCompile(`(?is)^select\s+(?:distinct\s+)?(.*?)\sfrom\b`)
	identPattern       = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)?`)
	destructivePattern = regexp.MustCompile(`(?i)\b(?:drop|alter|truncate)\b`)
)

// sqlKeywords are identifiers that never name a column.
var sqlKeywords = map[string]struct{}{
	"and": {}, "or": {}, "not": {}, "null": {}, "like": {}, "in": {},
	"is": {}, "between": {}, "exists": {}, "select": {}, "from": {},
	"where": {}, "case": {}, "when": {}, "then": {}, "else": {},
	"end": {}, "asc": {}, "desc": {}, "order": {}, "by": {},
	"group": {}, "having": {}, "limit": {}, "offset": {}, "distinct": {},
	"as": {}, "on": {}, "join": {}, "inner": {}, "left": {}, "right": {},
	"outer": {}, "true": {}, "false": {}, "values": {}, "set": {},
	"into": {}, "insert": {}, "update": {}, "delete": {},
}

// Inspect parses one SQL statement into a candidate statement.
// It never rejects anything itself; judgment is the validator's job.
func Inspect(sql string) (*domain.CandidateStatement, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return nil, fmt.Errorf("empty statement")
	}

	masked := maskLiterals(trimmed)

	// Strip a single trailing terminator before multi-statement detection.
	trimmed = strings.TrimRight(trimmed, "; \t\n")
	masked = strings.TrimRight(masked, "; \t\n")
	if trimmed == "" {
		return nil, fmt.Errorf("empty statement")
	}

	stmt := &domain.CandidateStatement{
		SQL:            trimmed,
		Op:             opKind(masked),
		MultiStatement: strings.Contains(masked, ";"),
		Destructive:    destructivePattern.MatchString(masked),
	}

	for _, m := range tableRefPattern.FindAllStringSubmatch(masked, -1) {
		stmt.Tables = appendUnique(stmt.Tables, strings.ToLower(m[1]))
	}

	if loc := wherePattern.FindStringIndex(masked); loc != nil {
		stmt.Where = strings.TrimSpace(trimmed[loc[1]:])
	}

	stmt.Columns = referencedColumns(masked, stmt)

	return stmt, nil
}

func opKind(masked string) domain.OpKind {
	fields := strings.Fields(strings.ToLower(masked))
	if len(fields) == 0 {
		return domain.OpOther
	}
	switch fields[0] {
	case "select":
		return domain.OpSelect
	case "insert":
		return domain.OpInsert
	case "update":
		return domain.OpUpdate
	case "delete":
		return domain.OpDelete
	default:
		return domain.OpOther
	}
}

// referencedColumns collects column identifiers from the positions we can
// read without a full parser: the INSERT column list, UPDATE SET
// assignment targets, the SELECT output list, and the WHERE clause.
func referencedColumns(masked string, stmt *domain.CandidateStatement) []string {
	var cols []string

	switch stmt.Op {
	case domain.OpInsert:
		if m := insertColsPattern.FindStringSubmatch(masked); m != nil {
			for _, part := range strings.Split(m[1], ",") {
				cols = appendColumn(cols, part, stmt.Tables)
			}
		}
	case domain.OpUpdate:
		if m := updateSetPattern.FindStringSubmatch(masked); m != nil {
			setClause := m[1]
			if loc := wherePattern.FindStringIndex(setClause); loc != nil {
				setClause = setClause[:loc[0]]
			}
			for _, assign := range strings.Split(setClause, ",") {
				name, _, ok := strings.Cut(assign, "=")
				if ok {
					cols = appendColumn(cols, name, stmt.Tables)
				}
			}
		}
	case domain.OpSelect:
		if m := selectListPattern.FindStringSubmatch(masked); m != nil {
			for _, part := range strings.Split(m[1], ",") {
				part = strings.TrimSpace(part)
				// Skip wildcards, expressions, and function calls.
				if part == "*" || strings.HasSuffix(part, ".*") || strings.ContainsAny(part, "(+-/") {
					continue
				}
				// "col AS alias": only the source identifier is a column.
				if name, _, ok := cutKeyword(part, "as"); ok {
					part = name
				}
				cols = appendColumn(cols, part, stmt.Tables)
			}
		}
	}

	if stmt.Where != "" {
		if loc := wherePattern.FindStringIndex(masked); loc != nil {
			cols = append(cols, whereColumns(masked[loc[1]:], stmt.Tables)...)
		}
	}

	return dedupe(cols)
}

// whereColumns extracts column identifiers from a masked WHERE clause,
// skipping keywords, table qualifiers, and function names.
func whereColumns(clause string, tables []string) []string {
	var cols []string
	for _, loc := range identPattern.FindAllStringIndex(clause, -1) {
		ident := clause[loc[0]:loc[1]]
		// A call like LOWER(name) contributes name, not lower.
		if isFunctionCall(clause, loc[1]) {
			continue
		}
		cols = appendColumn(cols, ident, tables)
	}
	return cols
}

func isFunctionCall(s string, end int) bool {
	for i := end; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n':
			continue
		case '(':
			return true
		default:
			return false
		}
	}
	return false
}

// appendColumn normalizes one identifier and appends it unless it is a
// keyword, a referenced table name, or empty. Qualified names keep only
// the column part.
func appendColumn(cols []string, ident string, tables []string) []string {
	ident = strings.ToLower(strings.TrimSpace(ident))
	if idx := strings.LastIndex(ident, "."); idx >= 0 {
		ident = ident[idx+1:]
	}
	if ident == "" || !identPattern.MatchString(ident) {
		return cols
	}
	if _, kw := sqlKeywords[ident]; kw {
		return cols
	}
	for _, t := range tables {
		if ident == t {
			return cols
		}
	}
	return appendUnique(cols, ident)
}

// cutKeyword splits s around a case-insensitive keyword surrounded by
// whitespace.
func cutKeyword(s, keyword string) (before, after string, found bool) {
	lower := strings.ToLower(s)
	idx := strings.Index(lower, " "+keyword+" ")
	if idx < 0 {
		return s, "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+len(keyword)+2:]), true
}

// maskLiterals blanks the contents of single-quoted string literals so
// pattern matching never reads user data as SQL.
func maskLiterals(s string) string {
	out := []byte(s)
	inLiteral := false
	for i := 0; i < len(out); i++ {
		switch {
		case out[i] == '\'':
			inLiteral = !inLiteral
		case inLiteral:
			out[i] = ' '
		}
	}
	return string(out)
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func dedupe(list []string) []string {
	var out []string
	for _, v := range list {
		out = appendUnique(out, v)
	}
	return out
}
