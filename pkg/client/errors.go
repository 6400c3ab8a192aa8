package client

import (
	"errors"
	"fmt"
)

// ErrNonJSONResponse is returned when the service answers with a body that is
// not JSON.
var ErrNonJSONResponse = errors.New("triage: response is not JSON")

// TransportError is a failure to obtain a JSON response at all: the request
// could not be sent, or the body could not be read or parsed.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("triage: %s (status %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("triage: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
