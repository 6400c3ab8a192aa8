package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJSON is returned when the task input does not parse.
var ErrInvalidJSON = errors.New("invalid JSON input")

// InputError describes a task input that could not be parsed.
type InputError struct {
	Line   int
	Column int
	Err    error
}

func (e *InputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v at line %d, column %d: %v", ErrInvalidJSON, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrInvalidJSON, e.Err)
}

func (e *InputError) Unwrap() []error {
	return []error{ErrInvalidJSON, e.Err}
}

// ParseInput trims raw text and checks that it is a single JSON value. The
// value itself is not inspected; its shape is the service's business.
func ParseInput(raw string) (json.RawMessage, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &InputError{Err: errors.New("input is empty")}
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		ie := &InputError{Err: err}
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			ie.Line, ie.Column = position(text, syn.Offset)
		}
		return nil, ie
	}
	return json.RawMessage(text), nil
}

// position converts a syntax error offset into a 1-based line and column.
// The offset counts the offending byte, so the walk stops just before it.
func position(text string, offset int64) (line, col int) {
	offset--
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}
	line, col = 1, 1
	for _, r := range text[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
