// Package tokens provides token counting and truncation using tiktoken.
package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// Estimator counts and truncates text by tokens
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.Mutex
}

// DefaultEncoding is cl100k_base, used by GPT-4-class models
const DefaultEncoding = "cl100k_base"

// charsPerToken is the fallback ratio when the encoding can't be loaded.
const charsPerToken = 4

var (
	globalEstimator     *Estimator
	globalEstimatorOnce sync.Once
)

// Get returns the global token estimator (singleton)
func Get() *Estimator {
	globalEstimatorOnce.Do(func() {
		var err error
		globalEstimator, err = New()
		if err != nil {
			L_warn("tokens: failed to load encoding, using character estimate", "error", err)
			globalEstimator = &Estimator{}
		}
	})
	return globalEstimator
}

// New creates a new token estimator
func New() (*Estimator, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, err
	}
	return &Estimator{encoding: enc}, nil
}

// Count returns the token count for a string.
// Falls back to chars/4 if tiktoken unavailable.
func (e *Estimator) Count(text string) int {
	if e == nil || e.encoding == nil {
		return len(text) / charsPerToken
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.encoding.Encode(text, nil, nil))
}

// Truncate returns the longest prefix of text that fits in maxTokens.
// Every token covers at least one byte, so text no longer than maxTokens
// bytes is returned without encoding.
func (e *Estimator) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || len(text) <= maxTokens {
		return text
	}

	if e == nil || e.encoding == nil {
		runes := []rune(text)
		if limit := maxTokens * charsPerToken; len(runes) > limit {
			return string(runes[:limit])
		}
		return text
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	ids := e.encoding.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return text
	}
	// A cut can land inside a multi-byte rune.
	return strings.ToValidUTF8(e.encoding.Decode(ids[:maxTokens]), "")
}
