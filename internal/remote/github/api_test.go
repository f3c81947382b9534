package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/ralt/metasync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub serves a single repository and records writes
type fakeGitHub struct {
	mu          sync.Mutex
	description string
	homepage    string
	topics      []string
	requests    []string
	patches     []map[string]string
	gzip        bool
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		switch r.Method {
		case http.MethodGet:
			f.mu.Lock()
			desc, home := f.description, f.homepage
			body := map[string]any{
				"name":        "widget",
				"full_name":   "acme/widget",
				"description": desc,
				"homepage":    home,
				"html_url":    "https://github.com/acme/widget",
				"topics":      f.topics,
			}
			gz := f.gzip
			f.mu.Unlock()
			writeJSON(t, w, body, gz)
		case http.MethodPatch:
			var patch map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
			f.mu.Lock()
			f.patches = append(f.patches, patch)
			if v, ok := patch["description"]; ok {
				f.description = v
			}
			if v, ok := patch["homepage"]; ok {
				f.homepage = v
			}
			f.mu.Unlock()
			writeJSON(t, w, map[string]any{"name": "widget"}, false)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/repos/acme/widget/topics", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		switch r.Method {
		case http.MethodGet:
			f.mu.Lock()
			names := append([]string(nil), f.topics...)
			f.mu.Unlock()
			writeJSON(t, w, topicsPayload{Names: names}, false)
		case http.MethodPut:
			var body topicsPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.mu.Lock()
			f.topics = body.Names
			f.mu.Unlock()
			writeJSON(t, w, body, false)
		}
	})
	return mux
}

func (f *fakeGitHub) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any, compress bool) {
	w.Header().Set("Content-Type", "application/json")
	var out io.Writer = w
	if compress {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		out = gz
	}
	require.NoError(t, json.NewEncoder(out).Encode(v))
}

func newTestPlatform(t *testing.T, fake *fakeGitHub) *APIPlatform {
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return NewAPIPlatform(srv.URL, "secret", srv.Client())
}

func TestAPIFetchMetadata(t *testing.T) {
	for _, gz := range []bool{false, true} {
		fake := &fakeGitHub{description: "Widgets", homepage: "https://acme.dev", topics: []string{"go", "cli"}, gzip: gz}
		p := newTestPlatform(t, fake)

		meta, err := p.FetchMetadata(context.Background(), "acme/widget")
		require.NoError(t, err)
		assert.Equal(t, "acme/widget", meta.Identifier)
		assert.Equal(t, "widget", meta.Name)
		assert.Equal(t, "Widgets", meta.Description)
		assert.Equal(t, "https://acme.dev", meta.Homepage)
		assert.Equal(t, "https://github.com/acme/widget", meta.RepositoryURL)
		assert.Equal(t, []string{"cli", "go"}, meta.Topics.Sorted())
	}
}

func TestAPIUpdateScalarFields(t *testing.T) {
	fake := &fakeGitHub{}
	p := newTestPlatform(t, fake)
	ctx := context.Background()

	require.NoError(t, p.UpdateField(ctx, "acme/widget", models.FieldUpdate{Field: models.FieldHomepage, Value: "https://acme.dev"}))
	require.NoError(t, p.UpdateField(ctx, "acme/widget", models.FieldUpdate{Field: models.FieldDescription, Value: "Widgets"}))

	assert.Equal(t, []map[string]string{
		{"homepage": "https://acme.dev"},
		{"description": "Widgets"},
	}, fake.patches)
}

func TestAPIAddTopicsKeepsExisting(t *testing.T) {
	fake := &fakeGitHub{topics: []string{"a", "b"}}
	p := newTestPlatform(t, fake)

	err := p.UpdateField(context.Background(), "acme/widget", models.FieldUpdate{
		Field:     models.FieldTopics,
		AddTopics: []string{"c"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, fake.topics)
	assert.Equal(t, []string{"GET /repos/acme/widget/topics", "PUT /repos/acme/widget/topics"}, fake.requests)
}

func TestAPIAddNoTopicsIsNoop(t *testing.T) {
	fake := &fakeGitHub{}
	p := newTestPlatform(t, fake)

	require.NoError(t, p.UpdateField(context.Background(), "acme/widget", models.FieldUpdate{Field: models.FieldTopics}))
	assert.Empty(t, fake.requests)
}

func TestAPIStatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		want    models.ErrorType
	}{
		{"not found", http.StatusNotFound, nil, models.ErrRemoteNotFound},
		{"unauthorized", http.StatusUnauthorized, nil, models.ErrRemoteUnauthorized},
		{"forbidden", http.StatusForbidden, nil, models.ErrRemoteUnauthorized},
		{"rate limited", http.StatusForbidden, map[string]string{"X-RateLimit-Remaining": "0"}, models.ErrRemoteUnavailable},
		{"too many requests", http.StatusTooManyRequests, nil, models.ErrRemoteUnavailable},
		{"server error", http.StatusBadGateway, nil, models.ErrRemoteUnavailable},
		{"validation failed", http.StatusUnprocessableEntity, nil, models.ErrRemoteRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message": "nope"}`))
			}))
			defer srv.Close()

			p := NewAPIPlatform(srv.URL, "secret", srv.Client())
			_, err := p.FetchMetadata(context.Background(), "acme/widget")
			require.Error(t, err)
			assert.True(t, models.IsErrorType(err, tt.want), "got %v", err)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestAPIUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewAPIPlatform(url, "", nil)
	_, err := p.FetchMetadata(context.Background(), "acme/widget")
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrRemoteUnavailable))
}
