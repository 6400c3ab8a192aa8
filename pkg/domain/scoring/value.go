// Package scoring holds the task shapes exchanged with the scoring service
// and the priority tiers derived from a score.
package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Missing is the display text for an absent field.
const Missing = "-"

// Value is a raw JSON value taken from a backend response. It never fails to
// decode, so a task with unexpected field types still renders.
type Value struct {
	raw json.RawMessage
}

// NewValue wraps a raw JSON value. A nil or empty input is treated as absent.
func NewValue(raw json.RawMessage) Value {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Value{}
	}
	return Value{raw: append(json.RawMessage(nil), raw...)}
}

// IsSet reports whether the field was present in the response.
func (v Value) IsSet() bool {
	return len(v.raw) > 0
}

// Raw returns the underlying JSON text.
func (v Value) Raw() json.RawMessage {
	return v.raw
}

// String returns the display text: strings are unquoted, numbers and other
// JSON values are shown as written, absent values as Missing.
func (v Value) String() string {
	if !v.IsSet() {
		return Missing
	}
	if v.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(v.raw, &s); err == nil {
			return s
		}
	}
	return string(v.raw)
}

// Float converts the value to a number. JSON numbers and numeric strings
// convert; everything else reports false.
func (v Value) Float() (float64, bool) {
	if !v.IsSet() {
		return 0, false
	}
	switch v.raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v.raw, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		return parseNumber(s)
	case '{', '[', 't', 'f', 'n':
		return 0, false
	}
	return parseNumber(string(v.raw))
}

// parseNumber parses s as a float. Out of range values keep the ±Inf or zero
// that ParseFloat rounds them to, so 1e400 still compares above any threshold.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// Truthy reports whether the value would pass a loose boolean check:
// absent, null, false, 0 and "" are falsy; everything else is truthy,
// including empty arrays and objects.
func (v Value) Truthy() bool {
	if !v.IsSet() {
		return false
	}
	switch v.raw[0] {
	case 'n', 'f':
		return false
	case '"':
		return string(v.raw) != `""`
	case '{', '[', 't':
		return true
	}
	f, err := strconv.ParseFloat(string(v.raw), 64)
	return err != nil || f != 0
}

// MarshalJSON writes the raw value back, or null when absent.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsSet() {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// UnmarshalJSON keeps the raw bytes.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = NewValue(data)
	return nil
}
