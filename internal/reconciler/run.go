package reconciler

import (
	"context"
	"time"

	"github.com/ralt/metasync/internal/models"
	"github.com/sirupsen/logrus"
)

// RunOptions selects what a Run does
type RunOptions struct {
	Identifier string         // Overrides canonical.Identifier when set
	DryRun     bool           // Stop after diff; no remote writes
	Fields     []models.Field // Restrict the managed fields; empty means all
}

// Run executes fetch, diff, apply and verify for canonical. A returned error
// is fatal (the remote could not be read); per-field failures are recorded
// in the result and reflected by RunResult.ExitCode.
func (r *Reconciler) Run(ctx context.Context, canonical *models.CanonicalMetadata, opts RunOptions) (*models.RunResult, error) {
	identifier := opts.Identifier
	if identifier == "" {
		identifier = canonical.Identifier
	}

	result := &models.RunResult{
		Identifier: identifier,
		Platform:   r.platform.Name(),
		DryRun:     opts.DryRun,
		Canonical:  canonical,
		StartedAt:  time.Now().UTC(),
	}
	defer func() { result.FinishedAt = time.Now().UTC() }()

	log := logrus.WithField("repository", identifier)

	log.Infof("Fetching remote metadata from %s", r.platform.Name())
	remote, err := r.Fetch(ctx, identifier)
	if err != nil {
		return nil, err
	}
	result.Remote = remote

	result.Warnings = identityWarnings(canonical, remote)
	for _, w := range result.Warnings {
		log.Warn(w)
	}

	result.Diff = Diff(canonical, remote, opts.Fields...)
	if result.Diff.Empty() {
		log.Info("No drift detected")
	} else {
		log.Infof("Detected drift in %d field(s)", len(result.Diff))
	}

	if opts.DryRun {
		log.Info("Dry run: not applying changes")
		return result, nil
	}

	managed := managedFields(canonical, opts.Fields)
	result.Apply = r.Apply(ctx, result.Diff, identifier, managed...)
	if result.Diff.Empty() {
		return result, nil
	}

	log.Infof("Verifying (grace period %s)", r.opts.GracePeriod)
	verify, err := r.Verify(ctx, identifier, canonical, result.Apply, opts.Fields...)
	if err != nil {
		log.Errorf("Verification failed: %v", err)
		result.VerifyError = err.Error()
		return result, nil
	}
	result.Verify = verify

	return result, nil
}
