// Package remote defines the port between the reconciler and a repository
// hosting platform.
package remote

import (
	"context"

	"github.com/ralt/metasync/internal/models"
)

// Platform interface for repository hosting platforms
type Platform interface {
	// Name identifies the platform in logs and reports
	Name() string

	// FetchMetadata returns the live metadata of the repository. Errors are
	// ReconcileErrors of type RemoteNotFound, RemoteUnauthorized or
	// RemoteUnavailable.
	FetchMetadata(ctx context.Context, identifier string) (*models.RemoteMetadata, error)

	// UpdateField writes a single field. Topic updates only add topics.
	UpdateField(ctx context.Context, identifier string, update models.FieldUpdate) error
}
