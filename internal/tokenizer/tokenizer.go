// Package tokenizer estimates token counts for exported content.
package tokenizer

import (
	"errors"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// EncodingName is the tiktoken encoding used for all token estimates.
const EncodingName = "o200k_base"

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// NewCounter returns a Counter backed by the o200k_base tiktoken encoding.
// Callers treat a failure as "token counting unavailable" and fall back to
// zero counts rather than aborting the run.
func NewCounter() (Counter, error) {
	encoding, encodingError := tiktoken.GetEncoding(EncodingName)
	if encodingError != nil {
		return nil, fmt.Errorf("initialize tokenizer %s: %w", EncodingName, encodingError)
	}
	return openAICounter{encoding: encoding, name: EncodingName}, nil
}

type openAICounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter openAICounter) Name() string {
	return counter.name
}

func (counter openAICounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	tokenIDs := counter.encoding.Encode(input, nil, nil)
	return len(tokenIDs), nil
}
