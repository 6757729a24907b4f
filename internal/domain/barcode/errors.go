package barcode

import (
	"github.com/go-faster/errors"
)

// ErrMissingInput is returned when no input spreadsheet was given.
var ErrMissingInput = errors.New("input spreadsheet required")

// ErrRunNotFound is returned when no journaled run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// AuthenticationError indicates the registry refused the credentials or could
// not be reached. It aborts the whole batch.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return "authentication failed"
	}
	return "authentication failed: " + e.Err.Error()
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Failure is the structured failure indicator handed to hosts when a batch
// cannot run at all.
type Failure struct {
	Message string
	Error   bool
}

// Describe converts a batch-fatal error into a Failure.
func Describe(err error) Failure {
	var authErr *AuthenticationError
	switch {
	case errors.As(err, &authErr):
		return Failure{Message: "authentication failed", Error: true}
	case errors.Is(err, ErrMissingInput):
		return Failure{Message: err.Error(), Error: true}
	default:
		return Failure{Message: "batch failed: " + err.Error(), Error: true}
	}
}
