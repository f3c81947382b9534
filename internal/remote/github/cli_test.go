package github

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ralt/metasync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	calls  []string
	stdout string
	stderr string
	err    error
}

func (r *recordingRunner) run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	return []byte(r.stdout), []byte(r.stderr), r.err
}

func TestCLIFetchMetadata(t *testing.T) {
	runner := &recordingRunner{stdout: `{"name":"widget","full_name":"acme/widget","description":null,"homepage":"https://acme.dev","html_url":"https://github.com/acme/widget","topics":["go"]}`}
	p := NewCLIPlatform("/usr/bin/gh", runner.run)

	meta, err := p.FetchMetadata(context.Background(), "acme/widget")
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/gh api repos/acme/widget"}, runner.calls)
	assert.Equal(t, "", meta.Description)
	assert.Equal(t, "https://acme.dev", meta.Homepage)
	assert.True(t, meta.Topics.Has("go"))
}

func TestCLIUpdateField(t *testing.T) {
	runner := &recordingRunner{}
	p := NewCLIPlatform("", runner.run)
	ctx := context.Background()

	require.NoError(t, p.UpdateField(ctx, "acme/widget", models.FieldUpdate{Field: models.FieldHomepage, Value: "https://acme.dev"}))
	require.NoError(t, p.UpdateField(ctx, "acme/widget", models.FieldUpdate{Field: models.FieldDescription, Value: "Widgets"}))
	require.NoError(t, p.UpdateField(ctx, "acme/widget", models.FieldUpdate{Field: models.FieldTopics, AddTopics: []string{"go", "cli"}}))
	require.NoError(t, p.UpdateField(ctx, "acme/widget", models.FieldUpdate{Field: models.FieldTopics}))

	assert.Equal(t, []string{
		"gh repo edit acme/widget --homepage https://acme.dev",
		"gh repo edit acme/widget --description Widgets",
		"gh repo edit acme/widget --add-topic go --add-topic cli",
	}, runner.calls)
}

func TestCLIErrorClassification(t *testing.T) {
	tests := []struct {
		stderr string
		want   models.ErrorType
	}{
		{"HTTP 404: Not Found (https://api.github.com/repos/acme/widget)", models.ErrRemoteNotFound},
		{"GraphQL: Could not resolve to a Repository with the name 'acme/widget'.", models.ErrRemoteNotFound},
		{"To get started with GitHub CLI, please run:  gh auth login", models.ErrRemoteUnauthorized},
		{"HTTP 403: Resource not accessible by integration", models.ErrRemoteUnauthorized},
		{"HTTP 403: API rate limit exceeded", models.ErrRemoteUnavailable},
		{"HTTP 422: Validation Failed", models.ErrRemoteRejected},
		{"error connecting to api.github.com", models.ErrRemoteUnavailable},
	}

	for _, tt := range tests {
		runner := &recordingRunner{stderr: tt.stderr, err: errors.New("exit status 1")}
		p := NewCLIPlatform("", runner.run)
		_, err := p.FetchMetadata(context.Background(), "acme/widget")
		require.Error(t, err)
		assert.True(t, models.IsErrorType(err, tt.want), "%q: got %v", tt.stderr, err)
	}
}

func TestCLIMissingBinary(t *testing.T) {
	p := NewCLIPlatform("metasync-no-such-gh-binary", nil)
	_, err := p.FetchMetadata(context.Background(), "acme/widget")
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrInvalidConfig), "got %v", err)
}
