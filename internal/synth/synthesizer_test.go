package synth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/clinicops/medagent/internal/domain"
	"github.com/clinicops/medagent/internal/llm"
	"github.com/clinicops/medagent/internal/schema"
)

type fakeCompleter struct {
	reply string
	err   error

	lastReq *llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req *llm.Request) (string, error) {
	f.lastReq = req
	return f.reply, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSynthesizeStatement(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantSQL string
		wantOp  domain.OpKind
	}{
		{
			name:    "bare statement",
			reply:   "SELECT * FROM patients",
			wantSQL: "SELECT * FROM patients",
			wantOp:  domain.OpSelect,
		},
		{
			name:    "fenced statement",
			reply:   "```sql\nUPDATE billing SET status = 'paid' WHERE id = 2\n```",
			wantSQL: "UPDATE billing SET status = 'paid' WHERE id = 2",
			wantOp:  domain.OpUpdate,
		},
		{
			name:    "statement with trailing prose",
			reply:   "SELECT name FROM patients WHERE age > 40; -- the seniors",
			wantSQL: "SELECT name FROM patients WHERE age > 40",
			wantOp:  domain.OpSelect,
		},
		{
			name:    "preamble before statement",
			reply:   "Here is the query:\nSELECT * FROM visits",
			wantSQL: "SELECT * FROM visits",
			wantOp:  domain.OpSelect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeCompleter{reply: tt.reply}, schema.Default(), testLogger())
			stmt, err := s.Synthesize(context.Background(), domain.IntentQuery, "anything", nil)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if stmt.SQL != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", stmt.SQL, tt.wantSQL)
			}
			if stmt.Op != tt.wantOp {
				t.Errorf("Op = %s, want %s", stmt.Op, tt.wantOp)
			}
		})
	}
}

func TestSynthesizeCannot(t *testing.T) {
	for _, reply := range []string{"CANNOT", "cannot", "  CANNOT  ", "I'm not sure what you mean."} {
		s := New(&fakeCompleter{reply: reply}, schema.Default(), testLogger())
		_, err := s.Synthesize(context.Background(), domain.IntentQuery, "gibberish", nil)
		if !errors.Is(err, domain.ErrCannotSynthesize) {
			t.Errorf("reply %q: err = %v, want ErrCannotSynthesize", reply, err)
		}
	}
}

func TestSynthesizeRejectsNonActionableIntent(t *testing.T) {
	fc := &fakeCompleter{reply: "SELECT * FROM patients"}
	s := New(fc, schema.Default(), testLogger())

	_, err := s.Synthesize(context.Background(), domain.IntentUnknown, "hello", nil)
	if !errors.Is(err, domain.ErrCannotSynthesize) {
		t.Fatalf("err = %v, want ErrCannotSynthesize", err)
	}
	if fc.lastReq != nil {
		t.Error("completer was called for a non-actionable intent")
	}
}

func TestSynthesizeCompleterFailure(t *testing.T) {
	s := New(&fakeCompleter{err: errors.New("upstream down")}, schema.Default(), testLogger())
	_, err := s.Synthesize(context.Background(), domain.IntentQuery, "show patients", nil)
	if !errors.Is(err, domain.ErrCannotSynthesize) {
		t.Errorf("err = %v, want ErrCannotSynthesize", err)
	}
}

func TestSynthesizeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(&fakeCompleter{err: context.Canceled}, schema.Default(), testLogger())
	_, err := s.Synthesize(ctx, domain.IntentQuery, "show patients", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, domain.ErrCannotSynthesize) {
		t.Error("context cancellation misreported as synthesis failure")
	}
}

func TestSynthesizePromptMentionsIntent(t *testing.T) {
	fc := &fakeCompleter{reply: "SELECT * FROM patients"}
	s := New(fc, schema.Default(), testLogger())

	if _, err := s.Synthesize(context.Background(), domain.IntentQuery, "show patients", nil); err != nil {
		t.Fatal(err)
	}
	if fc.lastReq.System == "" {
		t.Fatal("request carries no system prompt")
	}
}
