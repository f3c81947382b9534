// Package reconciler detects and corrects drift between canonical metadata
// and a hosting platform: fetch, diff, apply, verify.
package reconciler

import (
	"context"
	"time"

	"github.com/ralt/metasync/internal/models"
	"github.com/ralt/metasync/internal/remote"
	"github.com/sirupsen/logrus"
)

// Defaults for Options
const (
	DefaultWorkers        = 4
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 8 * time.Second
	DefaultGracePeriod    = 5 * time.Second
	DefaultPollInterval   = 250 * time.Millisecond
)

// Options tunes a Reconciler. Zero values take the defaults above.
type Options struct {
	Workers        int           // Concurrent field updates
	MaxAttempts    int           // Attempts per remote call on RemoteUnavailable
	InitialBackoff time.Duration // First retry delay, doubled per attempt
	MaxBackoff     time.Duration
	GracePeriod    time.Duration // How long verify waits for propagation
	PollInterval   time.Duration // First verify re-poll delay, doubled per poll

	// NoGracePeriod verifies once with no waiting. GracePeriod 0 otherwise
	// means DefaultGracePeriod.
	NoGracePeriod bool
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = DefaultInitialBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = DefaultMaxBackoff
	}
	if o.GracePeriod <= 0 && !o.NoGracePeriod {
		o.GracePeriod = DefaultGracePeriod
	}
	if o.NoGracePeriod {
		o.GracePeriod = 0
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// Reconciler runs the reconcile pipeline against one platform. It holds no
// state between runs.
type Reconciler struct {
	platform remote.Platform
	opts     Options
}

// New creates a Reconciler
func New(platform remote.Platform, opts Options) *Reconciler {
	return &Reconciler{
		platform: platform,
		opts:     opts.withDefaults(),
	}
}

// Options returns the effective options
func (r *Reconciler) Options() Options {
	return r.opts
}

// Fetch reads the live metadata, retrying transient failures
func (r *Reconciler) Fetch(ctx context.Context, identifier string) (*models.RemoteMetadata, error) {
	var meta *models.RemoteMetadata
	attempts, err := r.retry(ctx, "", func(ctx context.Context) error {
		var err error
		meta, err = r.platform.FetchMetadata(ctx, identifier)
		return err
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"repository": identifier,
		"platform":   r.platform.Name(),
		"attempts":   attempts,
	}).Debug("Fetched remote metadata")
	return meta, nil
}
