package reconciler

import (
	"strings"

	"github.com/ralt/metasync/internal/models"
)

// Diff compares canonical and remote field by field. Only fields the
// canonical metadata manages, restricted to fields when non-empty, are
// compared. Scalars differ on any string inequality; topics differ only
// when canonical topics are missing remotely.
func Diff(canonical *models.CanonicalMetadata, remote *models.RemoteMetadata, fields ...models.Field) models.DiffResult {
	diff := make(models.DiffResult)
	for _, field := range managedFields(canonical, fields) {
		switch field {
		case models.FieldTopics:
			missing := remote.Topics.Missing(canonical.Topics)
			if len(missing) == 0 {
				continue
			}
			diff[field] = models.FieldDiff{
				Field:     field,
				Canonical: canonical.Value(field),
				Remote:    remote.Value(field),
				Missing:   missing,
			}
		default:
			want, got := canonical.Value(field), remote.Value(field)
			if want == got {
				continue
			}
			diff[field] = models.FieldDiff{Field: field, Canonical: want, Remote: got}
		}
	}
	return diff
}

// managedFields returns the reconcilable fields the descriptor sets,
// filtered by only when non-empty, in report order
func managedFields(canonical *models.CanonicalMetadata, only []models.Field) []models.Field {
	var out []models.Field
	for _, f := range models.ReconcilableFields {
		if !canonical.Manages(f) {
			continue
		}
		if len(only) > 0 && !containsField(only, f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func containsField(fields []models.Field, f models.Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

// identityWarnings reports identity fields that differ. They are never
// written, so drift is only surfaced.
func identityWarnings(canonical *models.CanonicalMetadata, remote *models.RemoteMetadata) []string {
	var warnings []string
	if remote.RepositoryURL != "" && !strings.EqualFold(strings.TrimSuffix(remote.RepositoryURL, "/"), canonical.RepositoryURL) {
		warnings = append(warnings, "remote repository URL "+remote.RepositoryURL+
			" differs from descriptor "+canonical.RepositoryURL+" (renamed or transferred?)")
	}
	return warnings
}
