package github

import "github.com/ralt/metasync/internal/models"

// repositoryPayload is the subset of GET /repos/{owner}/{repo} we read.
// gh api returns the same document.
type repositoryPayload struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description *string  `json:"description"`
	Homepage    *string  `json:"homepage"`
	HTMLURL     string   `json:"html_url"`
	Topics      []string `json:"topics"`
}

func (p *repositoryPayload) metadata(identifier string) *models.RemoteMetadata {
	meta := &models.RemoteMetadata{
		Identifier:    identifier,
		Name:          p.Name,
		RepositoryURL: p.HTMLURL,
		Topics:        models.NewTopicSet(p.Topics...),
	}
	if p.FullName != "" {
		meta.Identifier = p.FullName
	}
	if p.Description != nil {
		meta.Description = *p.Description
	}
	if p.Homepage != nil {
		meta.Homepage = *p.Homepage
	}
	return meta
}

type topicsPayload struct {
	Names []string `json:"names"`
}
