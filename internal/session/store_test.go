package session

import (
	"fmt"
	"testing"
)

// wordCounter charges one token per whitespace-separated word.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}

func TestHistoryCreatesSession(t *testing.T) {
	s := NewStore(wordCounter{}, 100)

	if got := s.History("s1"); len(got) != 0 {
		t.Errorf("new session history = %v, want empty", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1 after first reference", s.Len())
	}
}

func TestAppendAndHistoryOrder(t *testing.T) {
	s := NewStore(wordCounter{}, 100)

	s.Append("s1", "first question", "first answer")
	s.Append("s1", "second question", "second answer")

	got := s.History("s1")
	if len(got) != 2 {
		t.Fatalf("history length = %d, want 2", len(got))
	}
	if got[0].Utterance != "first question" || got[1].Utterance != "second question" {
		t.Errorf("history out of order: %v", got)
	}
	if got[0].At.IsZero() {
		t.Error("turn timestamp not set")
	}
}

func TestHistoryTokenWindow(t *testing.T) {
	// Each turn costs 5 tokens; a budget of 10 fits the two newest turns.
	s := NewStore(wordCounter{}, 10)

	for i := 1; i <= 4; i++ {
		s.Append("s1", fmt.Sprintf("question number %d here", i%10), "ok")
	}

	got := s.History("s1")
	if len(got) != 2 {
		t.Fatalf("window length = %d, want 2", len(got))
	}
	if got[0].Utterance != "question number 3 here" {
		t.Errorf("window starts at %q, want third turn", got[0].Utterance)
	}
	if got[1].Utterance != "question number 4 here" {
		t.Errorf("window ends at %q, want fourth turn", got[1].Utterance)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewStore(wordCounter{}, 100)
	s.Append("s1", "question", "answer")

	got := s.History("s1")
	got[0].Reply = "mutated"

	if fresh := s.History("s1"); fresh[0].Reply != "answer" {
		t.Error("History exposed internal state")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewStore(wordCounter{}, 100)
	s.Append("a", "question for a", "answer")
	s.Append("b", "question for b", "answer")

	if got := s.History("a"); len(got) != 1 || got[0].Utterance != "question for a" {
		t.Errorf("session a history = %v", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestClear(t *testing.T) {
	s := NewStore(wordCounter{}, 100)
	s.Append("s1", "question", "answer")

	s.Clear("s1")
	if s.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", s.Len())
	}
	if got := s.History("s1"); len(got) != 0 {
		t.Errorf("history after Clear = %v, want empty", got)
	}

	// Clearing a session that never existed is fine.
	s.Clear("nope")
}
