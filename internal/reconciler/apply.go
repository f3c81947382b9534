package reconciler

import (
	"context"

	"github.com/ralt/metasync/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Apply writes every diffing field to the platform. Fields are updated
// independently and concurrently, bounded by Options.Workers; one field's
// failure never stops the others. managed lists the fields to report as
// skipped when they have no diff entry.
func (r *Reconciler) Apply(ctx context.Context, diff models.DiffResult, identifier string, managed ...models.Field) *models.ApplyReport {
	entries := diff.Entries()
	results := make([]models.FieldResult, len(entries))

	// Errors are recorded per field; the group never fails so siblings
	// are never canceled.
	var g errgroup.Group
	g.SetLimit(r.opts.Workers)

	for i, entry := range entries {
		g.Go(func() error {
			results[i] = r.applyField(ctx, identifier, entry)
			return nil
		})
	}
	_ = g.Wait()

	report := &models.ApplyReport{}
	byField := make(map[models.Field]models.FieldResult, len(results))
	for _, res := range results {
		byField[res.Field] = res
	}
	for _, f := range models.ReconcilableFields {
		if res, ok := byField[f]; ok {
			report.Results = append(report.Results, res)
		} else if containsField(managed, f) {
			report.Results = append(report.Results, models.FieldResult{
				Field:  f,
				Status: models.StatusSkipped,
				Reason: "unchanged",
			})
		}
	}
	return report
}

func (r *Reconciler) applyField(ctx context.Context, identifier string, entry models.FieldDiff) models.FieldResult {
	log := logrus.WithFields(logrus.Fields{
		"repository": identifier,
		"field":      entry.Field,
	})
	log.Debug("Applying field")

	update := entry.Update()
	attempts, err := r.retry(ctx, entry.Field, func(ctx context.Context) error {
		return r.platform.UpdateField(ctx, identifier, update)
	})
	if err != nil {
		log.Warnf("Failed to apply %s after %d attempt(s): %v", entry.Field, attempts, err)
		return models.FieldResult{
			Field:    entry.Field,
			Status:   models.StatusFailed,
			Reason:   err.Error(),
			Attempts: attempts,
			Err:      err,
		}
	}

	log.Infof("Applied %s", entry.Field)
	return models.FieldResult{
		Field:    entry.Field,
		Status:   models.StatusApplied,
		Attempts: attempts,
	}
}
