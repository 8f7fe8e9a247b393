package llm

import (
	"testing"

	"github.com/clinicops/medagent/internal/domain"
)

func TestHistoryMessages(t *testing.T) {
	history := []domain.Turn{
		{Utterance: "show patients", Reply: "Found 4 record(s)."},
		{Utterance: "mark bill 2 as paid", Reply: "Updated 1 record(s) in billing. [SQL: UPDATE billing SET status = 'paid' WHERE id = 2]"},
	}

	msgs := HistoryMessages(history, "now the rest")
	if len(msgs) != 5 {
		t.Fatalf("len = %d, want 5", len(msgs))
	}
	for i, want := range []string{"user", "assistant", "user", "assistant", "user"} {
		if msgs[i].Role != want {
			t.Errorf("msgs[%d].Role = %q, want %q", i, msgs[i].Role, want)
		}
	}
	if msgs[4].Content != "now the rest" {
		t.Errorf("last message = %q, want the current utterance", msgs[4].Content)
	}
}

func TestHistoryMessagesEmptyHistory(t *testing.T) {
	msgs := HistoryMessages(nil, "hello")
	if len(msgs) != 1 || msgs[0].Role != "user" || msgs[0].Content != "hello" {
		t.Errorf("msgs = %v, want single user message", msgs)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"```sql\nSELECT 1\n```", "SELECT 1"},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\nplain\n```", "plain"},
		{"  ```sql\nSELECT 1\n```  ", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
