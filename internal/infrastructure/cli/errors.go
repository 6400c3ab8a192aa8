package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/triage/internal/infrastructure/config"
	"github.com/felixgeelhaar/triage/internal/infrastructure/dispatch"
	"github.com/felixgeelhaar/triage/pkg/client"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var inputErr *dispatch.InputError
	if errors.As(err, &inputErr) {
		return NewCLIError(
			"invalid task input",
			`The input must be valid JSON, e.g. [{"title": "Write report", "due_date": "2025-01-31"}]`,
			err,
		)
	}

	var transErr *client.TransportError
	if errors.As(err, &transErr) {
		if errors.Is(err, client.ErrNonJSONResponse) {
			return NewCLIError(
				"the scoring service returned a non-JSON response",
				"Check that --base-url points at the task analyzer API",
				err,
			)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return NewCLIError(
				"the scoring service did not answer in time",
				"Raise --timeout or set TRIAGE_TIMEOUT",
				err,
			)
		}
		return NewCLIError(
			"could not reach the scoring service",
			"Is the backend running? Set base_url in .triage/config.yaml, TRIAGE_BASE_URL or --base-url",
			err,
		)
	}

	switch {
	case errors.Is(err, config.ErrConfigExists):
		return NewCLIError("config file already exists", "Run 'triage config init --force' to overwrite it", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewCLIError("request timed out", "Raise --timeout or set TRIAGE_TIMEOUT", err)
	}

	return err
}
