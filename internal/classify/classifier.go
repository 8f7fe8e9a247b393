// Package classify maps a user utterance to an intent.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clinicops/medagent/internal/domain"
	"github.com/clinicops/medagent/internal/llm"
	"github.com/clinicops/medagent/internal/schema"
)

// minConfidence is the threshold below which the model's own verdict is
// discarded in favor of the conservative keyword fallback.
const minConfidence = 0.6

// Classifier asks the model for an intent verdict and falls back to
// keyword scanning when the model cannot be trusted. Anything still
// ambiguous is IntentUnknown: the classifier never guesses QUERY or
// UPDATE for input that is not clearly about the database.
type Classifier struct {
	completer llm.Completer
	registry  *schema.Registry
	logger    *slog.Logger
}

// New creates a classifier.
func New(completer llm.Completer, registry *schema.Registry, logger *slog.Logger) *Classifier {
	return &Classifier{completer: completer, registry: registry, logger: logger}
}

var _ domain.Classifier = (*Classifier)(nil)

type verdict struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Classify returns the intent for an utterance. Only a context error is
// returned as an error; every other failure degrades to the fallback.
func (c *Classifier) Classify(ctx context.Context, utterance string, history []domain.Turn) (domain.Intent, error) {
	req := &llm.Request{
		System:      c.systemPrompt(),
		Messages:    llm.HistoryMessages(history, utterance),
		Temperature: 0.1,
	}

	raw, err := c.completer.Complete(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.IntentUnknown, ctx.Err()
		}
		c.logger.Warn("classifier completion failed, using keyword fallback",
			slog.String("error", err.Error()))
		return fallback(utterance), nil
	}

	var v verdict
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &v); err != nil {
		c.logger.Warn("classifier returned unparseable verdict, using keyword fallback",
			slog.String("raw", raw))
		return fallback(utterance), nil
	}

	intent := domain.Intent(strings.ToUpper(strings.TrimSpace(v.Intent)))
	switch intent {
	case domain.IntentQuery, domain.IntentUpdate:
		if v.Confidence < minConfidence {
			return fallback(utterance), nil
		}
		return intent, nil
	case domain.IntentUnknown:
		return domain.IntentUnknown, nil
	default:
		return fallback(utterance), nil
	}
}

func (c *Classifier) systemPrompt() string {
	return fmt.Sprintf(`You classify requests against a medical records database.

TABLES:
%s
Respond with a JSON object only, no other text:
{"intent": "QUERY" | "UPDATE" | "UNKNOWN", "confidence": 0.0 to 1.0}

- "QUERY": read operations (show, list, find, count, search, display).
- "UPDATE": a single insert, update or delete of records.
- "UNKNOWN": greetings, smalltalk, or anything not clearly about the data.

When in doubt, answer UNKNOWN rather than guessing.`, c.registry.Describe())
}

var (
	queryWords  = []string{"show", "list", "get", "find", "search", "display", "how many", "count", "what is", "which"}
	updateWords = []string{"add", "insert", "create", "update", "change", "set", "mark", "delete", "remove", "rename"}
)

// fallback is the conservative keyword classifier used when the model's
// verdict is unusable. It requires an explicit read or write verb.
func fallback(utterance string) domain.Intent {
	lower := strings.ToLower(utterance)
	for _, w := range queryWords {
		if strings.Contains(lower, w) {
			return domain.IntentQuery
		}
	}
	for _, w := range updateWords {
		if strings.Contains(lower, w) {
			return domain.IntentUpdate
		}
	}
	return domain.IntentUnknown
}
