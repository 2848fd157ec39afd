package adapter

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates how many tokens a text occupies.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with the cl100k_base encoding.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

var (
	defaultCounterOnce sync.Once
	defaultCounter     TokenCounter
)

// DefaultTokenCounter returns a shared tiktoken counter, or the word-based
// approximation if the encoding cannot be loaded.
func DefaultTokenCounter() TokenCounter {
	defaultCounterOnce.Do(func() {
		c, err := NewTiktokenCounter()
		if err != nil {
			defaultCounter = WordCounter{}
			return
		}
		defaultCounter = c
	})
	return defaultCounter
}

// NewTiktokenCounter loads the cl100k_base encoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{codec: codec}, nil
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return WordCounter{}.Count(text)
	}
	return len(ids)
}

// WordCounter approximates tokens as 1.3 per whitespace-separated word.
type WordCounter struct{}

// Count returns the approximate number of tokens in text.
func (WordCounter) Count(text string) int {
	words := 0
	inWord := false
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				words++
				inWord = true
			}
		}
	}
	return int(float64(words) * 1.3)
}
