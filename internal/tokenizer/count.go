package tokenizer

import (
	"bytes"
	"errors"
	"unicode/utf8"
)

const binarySniffLength = 8000

// CountResult captures the outcome of counting a byte slice.
type CountResult struct {
	Tokens  int
	Counted bool
}

// CountBytes estimates tokens for the provided data using counter.
// Binary or non UTF-8 data is reported as not counted.
func CountBytes(counter Counter, data []byte) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errors.New("nil tokenizer counter")
	}
	if len(data) == 0 {
		tokens, err := counter.CountString("")
		if err != nil {
			return CountResult{}, err
		}
		return CountResult{Tokens: tokens, Counted: true}, nil
	}
	if looksBinary(data) || !utf8.Valid(data) {
		return CountResult{Counted: false}, nil
	}
	tokens, err := counter.CountString(string(data))
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}

// CountString estimates tokens for text using counter.
func CountString(counter Counter, text string) (CountResult, error) {
	return CountBytes(counter, []byte(text))
}

func looksBinary(data []byte) bool {
	sample := data
	if len(sample) > binarySniffLength {
		sample = sample[:binarySniffLength]
	}
	return bytes.IndexByte(sample, 0) >= 0
}
