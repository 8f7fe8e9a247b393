// Package tokens provides token counting for prompt budgeting.
package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Counter counts tokens with a fixed tiktoken encoding. The session
// store uses it to bound the conversation window fed to the model.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter creates a counter using the cl100k_base encoding, which is
// close enough for window budgeting across the chat models we target.
func NewCounter() (*Counter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer encoding: %w", err)
	}
	return &Counter{codec: codec}, nil
}

// Count returns the token count of text. On encoding failure it falls
// back to a bytes/4 estimate rather than failing the request.
func (c *Counter) Count(text string) int {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}
