package github

import (
	"fmt"
	"net/http"

	"github.com/ralt/metasync/internal/models"
)

// StatusError is a non-2xx response from the GitHub API
type StatusError struct {
	Method      string
	URL         string
	StatusCode  int
	Message     string
	RateLimited bool
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// classifyStatus maps an HTTP status onto the reconcile error taxonomy
func classifyStatus(field models.Field, err *StatusError) error {
	switch {
	case err.StatusCode == http.StatusNotFound:
		return models.NewError(models.ErrRemoteNotFound, field, err)
	case err.StatusCode == http.StatusTooManyRequests,
		err.StatusCode == http.StatusForbidden && err.RateLimited:
		return models.NewError(models.ErrRemoteUnavailable, field, err)
	case err.StatusCode == http.StatusUnauthorized, err.StatusCode == http.StatusForbidden:
		return models.NewError(models.ErrRemoteUnauthorized, field, err)
	case err.StatusCode >= 500:
		return models.NewError(models.ErrRemoteUnavailable, field, err)
	default:
		// 422 and friends: the platform rejected the value
		return models.NewError(models.ErrRemoteRejected, field, err)
	}
}
