package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ralt/metasync/internal/models"
	"github.com/ralt/metasync/internal/remote"
	"github.com/sirupsen/logrus"
)

// APIPlatform implements remote.Platform over the GitHub REST API
type APIPlatform struct {
	client *client
}

var _ remote.Platform = (*APIPlatform)(nil)

// NewAPIPlatform creates a REST platform. An empty baseURL means
// DefaultAPIURL; a nil httpClient gets a pooled default.
func NewAPIPlatform(baseURL, token string, httpClient *http.Client) *APIPlatform {
	return &APIPlatform{client: newClient(baseURL, token, httpClient)}
}

// Name implements remote.Platform
func (p *APIPlatform) Name() string {
	return "github"
}

// FetchMetadata implements remote.Platform
func (p *APIPlatform) FetchMetadata(ctx context.Context, identifier string) (*models.RemoteMetadata, error) {
	var repo repositoryPayload
	if err := p.client.do(ctx, http.MethodGet, "/repos/"+identifier, "", nil, &repo); err != nil {
		return nil, err
	}
	return repo.metadata(identifier), nil
}

// UpdateField implements remote.Platform
func (p *APIPlatform) UpdateField(ctx context.Context, identifier string, update models.FieldUpdate) error {
	switch update.Field {
	case models.FieldHomepage:
		return p.patch(ctx, identifier, update.Field, map[string]string{"homepage": update.Value})
	case models.FieldDescription:
		return p.patch(ctx, identifier, update.Field, map[string]string{"description": update.Value})
	case models.FieldTopics:
		return p.addTopics(ctx, identifier, update.AddTopics)
	default:
		return models.NewError(models.ErrRemoteRejected, update.Field, fmt.Errorf("field is not writable"))
	}
}

func (p *APIPlatform) patch(ctx context.Context, identifier string, field models.Field, body map[string]string) error {
	return p.client.do(ctx, http.MethodPatch, "/repos/"+identifier, field, body, nil)
}

// addTopics merges topics into the current remote set. The topics endpoint
// replaces the whole list, so the current list is read first.
func (p *APIPlatform) addTopics(ctx context.Context, identifier string, topics []string) error {
	if len(topics) == 0 {
		return nil
	}

	var current topicsPayload
	if err := p.client.do(ctx, http.MethodGet, "/repos/"+identifier+"/topics", models.FieldTopics, nil, &current); err != nil {
		return err
	}

	merged := models.NewTopicSet(current.Names...)
	merged.Add(topics...)

	logrus.WithFields(logrus.Fields{
		"repository": identifier,
		"existing":   len(current.Names),
		"adding":     len(topics),
	}).Debug("Replacing topic list")

	return p.client.do(ctx, http.MethodPut, "/repos/"+identifier+"/topics", models.FieldTopics,
		topicsPayload{Names: merged.Sorted()}, nil)
}
