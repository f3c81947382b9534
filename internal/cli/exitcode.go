package cli

import (
	"errors"

	"github.com/ralt/metasync/internal/models"
)

// PartialFailureError reports a run that finished but left fields failed
// or diverging
type PartialFailureError struct {
	Summary string
}

func (e *PartialFailureError) Error() string {
	return e.Summary
}

// ExitCode maps the error returned by a command to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return models.ExitSuccess
	}
	var partial *PartialFailureError
	if errors.As(err, &partial) {
		return models.ExitPartial
	}
	if models.IsFatal(err) {
		return models.ExitFatal
	}
	return models.ExitPartial
}
