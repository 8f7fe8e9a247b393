package llm

import (
	"strings"

	"github.com/clinicops/medagent/internal/domain"
)

// HistoryMessages renders recent conversation turns as alternating chat
// messages with the current utterance appended last.
func HistoryMessages(history []domain.Turn, utterance string) []Message {
	msgs := make([]Message, 0, len(history)*2+1)
	for _, t := range history {
		msgs = append(msgs,
			Message{Role: "user", Content: t.Utterance},
			Message{Role: "assistant", Content: t.Reply},
		)
	}
	return append(msgs, Message{Role: "user", Content: utterance})
}

// StripFences removes a surrounding markdown code fence, if present.
// Models wrap structured output in fences despite instructions not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
