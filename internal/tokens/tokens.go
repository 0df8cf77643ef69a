// Package tokens estimates how many model tokens a prompt costs.
package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Counter counts tokens in text.
type Counter interface {
	Count(text string) int
}

// BPE counts tokens with a byte-pair-encoding vocabulary.
type BPE struct {
	codec tokenizer.Codec
}

// NewCL100K returns a counter using the cl100k_base vocabulary.
func NewCL100K() (*BPE, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("loading cl100k_base: %w", err)
	}
	return &BPE{codec: codec}, nil
}

// Count returns the number of tokens in text. Text the codec cannot encode
// counts as zero tokens.
func (b *BPE) Count(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := b.codec.Encode(text)
	if err != nil {
		return 0
	}
	return len(ids)
}

// Nop counts nothing; it stands in when token counting is disabled.
type Nop struct{}

// Count always returns 0.
func (Nop) Count(string) int { return 0 }
