// Package synth turns an utterance into one candidate SQL statement.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clinicops/medagent/internal/domain"
	"github.com/clinicops/medagent/internal/llm"
	"github.com/clinicops/medagent/internal/schema"
	"github.com/clinicops/medagent/internal/statement"
)

// cannotMarker is what the model is told to answer when it cannot
// produce a statement from the declared schema alone.
const cannotMarker = "CANNOT"

// Synthesizer asks the model for exactly one SQL statement grounded in
// the schema registry. It may consult only declared tables and columns;
// when it cannot produce a statement confidently it returns
// domain.ErrCannotSynthesize rather than a guess.
type Synthesizer struct {
	completer llm.Completer
	registry  *schema.Registry
	logger    *slog.Logger
}

// New creates a synthesizer.
func New(completer llm.Completer, registry *schema.Registry, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{completer: completer, registry: registry, logger: logger}
}

var _ domain.Synthesizer = (*Synthesizer)(nil)

// Synthesize produces one candidate statement for a QUERY or UPDATE
// intent.
func (s *Synthesizer) Synthesize(ctx context.Context, intent domain.Intent, utterance string, history []domain.Turn) (*domain.CandidateStatement, error) {
	if intent != domain.IntentQuery && intent != domain.IntentUpdate {
		return nil, fmt.Errorf("%w: intent %s is not synthesizable", domain.ErrCannotSynthesize, intent)
	}

	req := &llm.Request{
		System:      s.systemPrompt(intent),
		Messages:    llm.HistoryMessages(history, utterance),
		Temperature: 0.1,
	}

	raw, err := s.completer.Complete(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: completion failed: %v", domain.ErrCannotSynthesize, err)
	}

	sql, ok := scrub(raw)
	if !ok {
		s.logger.Debug("synthesizer produced no usable statement", slog.String("raw", raw))
		return nil, fmt.Errorf("%w: model declined or produced no SQL", domain.ErrCannotSynthesize)
	}

	stmt, err := statement.Inspect(sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCannotSynthesize, err)
	}

	return stmt, nil
}

func (s *Synthesizer) systemPrompt(intent domain.Intent) string {
	var op string
	switch intent {
	case domain.IntentQuery:
		op = "a single SELECT statement"
	case domain.IntentUpdate:
		op = "a single INSERT, UPDATE or DELETE statement"
	}

	return fmt.Sprintf(`You generate SQLite SQL for a medical records database.

DATABASE SCHEMA:
%s
Conversation history may contain "[SQL: ...]" markers recording statements
already executed; use them to resolve references like "the one you just
updated" or "the rest" (WHERE id != <previously changed id>).

RULES:
1. Produce %s. Exactly ONE statement: no semicolons separating statements,
   no markdown, no explanation.
2. Use only the tables and columns declared in the schema above. Never
   invent names.
3. Never include the id column in INSERT statements; it is auto-generated.
4. UPDATE and DELETE must carry a WHERE clause naming the affected rows.
5. If the request cannot be answered from the declared schema, or you are
   not confident, reply with the single word %s.`, s.registry.Describe(), op, cannotMarker)
}

// scrub reduces a model reply to one bare SQL statement. It strips
// markdown fences, keeps the first line that looks like SQL, and cuts
// everything after the first semicolon.
func scrub(raw string) (string, bool) {
	text := llm.StripFences(raw)
	if text == "" || strings.EqualFold(strings.TrimSpace(text), cannotMarker) {
		return "", false
	}

	sql := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "INSERT") ||
			strings.HasPrefix(upper, "UPDATE") || strings.HasPrefix(upper, "DELETE") {
			sql = line
			break
		}
	}
	if sql == "" {
		return "", false
	}

	if idx := strings.Index(sql, ";"); idx >= 0 {
		sql = strings.TrimSpace(sql[:idx])
	}
	return sql, sql != ""
}
