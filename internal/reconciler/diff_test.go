package reconciler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ralt/metasync/internal/models"
)

func TestDiff(t *testing.T) {
	canonical := &models.CanonicalMetadata{
		Name:          "widget",
		Homepage:      "https://acme.dev",
		Description:   "Widgets",
		RepositoryURL: "https://github.com/acme/widget",
		Topics:        models.NewTopicSet("b", "c"),
		Identifier:    "acme/widget",
	}

	tests := []struct {
		name   string
		remote models.RemoteMetadata
		fields []models.Field
		want   models.DiffResult
	}{
		{
			name: "in sync",
			remote: models.RemoteMetadata{
				Homepage:    "https://acme.dev",
				Description: "Widgets",
				Topics:      models.NewTopicSet("b", "c"),
			},
			want: models.DiffResult{},
		},
		{
			name: "extra remote topics are not drift",
			remote: models.RemoteMetadata{
				Homepage:    "https://acme.dev",
				Description: "Widgets",
				Topics:      models.NewTopicSet("a", "b", "c"),
			},
			want: models.DiffResult{},
		},
		{
			name: "only missing topics are reported",
			remote: models.RemoteMetadata{
				Homepage:    "https://acme.dev",
				Description: "Widgets",
				Topics:      models.NewTopicSet("a", "b"),
			},
			want: models.DiffResult{
				models.FieldTopics: {Field: models.FieldTopics, Canonical: "b,c", Remote: "a,b", Missing: []string{"c"}},
			},
		},
		{
			name: "scalars compare exactly",
			remote: models.RemoteMetadata{
				Homepage:    "https://acme.dev/",
				Description: "widgets",
				Topics:      models.NewTopicSet("b", "c"),
			},
			want: models.DiffResult{
				models.FieldHomepage:    {Field: models.FieldHomepage, Canonical: "https://acme.dev", Remote: "https://acme.dev/"},
				models.FieldDescription: {Field: models.FieldDescription, Canonical: "Widgets", Remote: "widgets"},
			},
		},
		{
			name:   "field filter",
			remote: models.RemoteMetadata{Topics: models.NewTopicSet()},
			fields: []models.Field{models.FieldDescription},
			want: models.DiffResult{
				models.FieldDescription: {Field: models.FieldDescription, Canonical: "Widgets", Remote: ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(canonical, &tt.remote, tt.fields...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffIgnoresUnmanagedFields(t *testing.T) {
	canonical := &models.CanonicalMetadata{Name: "widget", Identifier: "acme/widget"}
	remote := &models.RemoteMetadata{
		Homepage:    "https://elsewhere.dev",
		Description: "curated by hand",
		Topics:      models.NewTopicSet("x"),
	}

	if got := Diff(canonical, remote); !got.Empty() {
		t.Errorf("Diff() = %v, want empty: absent descriptor fields are unmanaged", got)
	}
}

func TestIdentityWarnings(t *testing.T) {
	canonical := &models.CanonicalMetadata{RepositoryURL: "https://github.com/acme/widget"}

	if w := identityWarnings(canonical, &models.RemoteMetadata{RepositoryURL: "https://github.com/Acme/Widget"}); len(w) != 0 {
		t.Errorf("case-only difference should not warn: %v", w)
	}
	if w := identityWarnings(canonical, &models.RemoteMetadata{RepositoryURL: "https://github.com/acme/gadget"}); len(w) != 1 {
		t.Errorf("expected one warning, got %v", w)
	}
}
