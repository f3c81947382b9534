package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/ralt/metasync/internal/models"
	"github.com/sirupsen/logrus"
)

// Verify re-fetches the remote and re-diffs it against canonical. Platforms
// are eventually consistent, so it polls, starting immediately and backing
// off from PollInterval, until every field awaited has converged or
// GracePeriod runs out. With a nil applied report every diverging field is
// awaited; otherwise only fields applied successfully are, and fields whose
// apply failed are reported with that failure. fields restricts the
// comparison as in Diff.
func (r *Reconciler) Verify(ctx context.Context, identifier string, canonical *models.CanonicalMetadata, applied *models.ApplyReport, fields ...models.Field) (*models.VerifyReport, error) {
	start := time.Now()
	deadline := start.Add(r.opts.GracePeriod)
	interval := r.opts.PollInterval

	var (
		last    models.DiffResult
		lastErr error
		polls   int
	)
	for {
		polls++
		remote, err := r.platform.FetchMetadata(ctx, identifier)
		switch {
		case err == nil:
			last = Diff(canonical, remote, fields...)
			lastErr = nil
			if settled(last, applied) {
				return r.verifyReport(canonical, last, applied, fields, polls, time.Since(start)), nil
			}
		case !models.IsRetryable(err):
			return nil, err
		default:
			lastErr = err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 || ctx.Err() != nil {
			break
		}
		wait := interval
		if wait > remaining {
			wait = remaining
		}
		logrus.WithFields(logrus.Fields{
			"repository": identifier,
			"poll":       polls,
			"wait":       wait,
		}).Debug("Waiting for remote propagation")
		if err := sleep(ctx, wait); err != nil {
			break
		}
		interval *= 2
	}

	if last == nil {
		if lastErr == nil {
			lastErr = ctx.Err()
		}
		return nil, unavailable("", lastErr)
	}
	return r.verifyReport(canonical, last, applied, fields, polls, time.Since(start)), nil
}

// settled reports whether polling can stop: nothing awaited still diverges
func settled(diff models.DiffResult, applied *models.ApplyReport) bool {
	if applied == nil {
		return diff.Empty()
	}
	for field := range diff {
		if res, ok := applied.Result(field); !ok || res.Status != models.StatusFailed {
			return false
		}
	}
	return true
}

func (r *Reconciler) verifyReport(canonical *models.CanonicalMetadata, diff models.DiffResult, applied *models.ApplyReport, fields []models.Field, polls int, elapsed time.Duration) *models.VerifyReport {
	report := &models.VerifyReport{Polls: polls, Elapsed: elapsed}
	for _, field := range managedFields(canonical, fields) {
		entry, diverging := diff[field]
		if !diverging {
			report.Fields = append(report.Fields, models.FieldVerification{
				Field:  field,
				Status: models.VerifyConverged,
			})
			continue
		}

		reason := models.NewError(models.ErrPropagationTimeout, field,
			fmt.Errorf("still diverging after %s", r.opts.GracePeriod)).Error()
		if res, ok := applied.Result(field); ok && res.Status == models.StatusFailed {
			reason = "apply failed: " + res.Reason
		}
		report.Fields = append(report.Fields, models.FieldVerification{
			Field:  field,
			Status: models.VerifyDiverging,
			Reason: reason,
			Diff:   &entry,
		})
	}
	return report
}
