// Package llm defines the narrow completion capability the pipeline
// consumes. Keeping the contract small (messages in, text out) isolates
// the core's testable logic from any specific external model; tests
// substitute a deterministic fake.
package llm

import "context"

// Message is one chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion request.
type Request struct {
	System      string
	Messages    []Message
	Temperature float32
}

// Completer produces one text completion for a request.
type Completer interface {
	Complete(ctx context.Context, req *Request) (string, error)
}
