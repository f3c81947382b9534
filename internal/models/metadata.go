package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// Field names a piece of repository metadata
type Field string

const (
	FieldHomepage    Field = "homepage"
	FieldDescription Field = "description"
	FieldTopics      Field = "topics"

	// Identity fields are compared but never written
	FieldName       Field = "name"
	FieldRepository Field = "repository"
)

// ReconcilableFields lists the fields the reconciler may write, in report order
var ReconcilableFields = []Field{FieldHomepage, FieldDescription, FieldTopics}

// ParseField converts a user supplied field name
func ParseField(s string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ReconcilableFields {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// CanonicalMetadata is the locally authoritative description of a project
type CanonicalMetadata struct {
	Name          string   `json:"name" yaml:"name"`
	Homepage      string   `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	RepositoryURL string   `json:"repositoryUrl" yaml:"repositoryUrl"`
	Topics        TopicSet `json:"topics,omitempty" yaml:"topics,omitempty"`

	// Identifier is the owner/repo derived from RepositoryURL
	Identifier string `json:"identifier" yaml:"identifier"`
	// Source is the descriptor path the metadata was loaded from
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Manages reports whether the descriptor sets a value for field.
// Absent fields are left alone remotely.
func (c *CanonicalMetadata) Manages(field Field) bool {
	switch field {
	case FieldHomepage:
		return c.Homepage != ""
	case FieldDescription:
		return c.Description != ""
	case FieldTopics:
		return len(c.Topics) > 0
	default:
		return false
	}
}

// RemoteMetadata is the live state of a repository on the hosting platform
type RemoteMetadata struct {
	Identifier    string   `json:"identifier" yaml:"identifier"`
	Name          string   `json:"name" yaml:"name"`
	Homepage      string   `json:"homepage" yaml:"homepage"`
	Description   string   `json:"description" yaml:"description"`
	RepositoryURL string   `json:"repositoryUrl" yaml:"repositoryUrl"`
	Topics        TopicSet `json:"topics" yaml:"topics"`
}

// Value returns the scalar value of field
func (r *RemoteMetadata) Value(field Field) string {
	switch field {
	case FieldHomepage:
		return r.Homepage
	case FieldDescription:
		return r.Description
	case FieldTopics:
		return strings.Join(r.Topics.Sorted(), ",")
	case FieldName:
		return r.Name
	case FieldRepository:
		return r.RepositoryURL
	}
	return ""
}

// Value returns the scalar value of field
func (c *CanonicalMetadata) Value(field Field) string {
	switch field {
	case FieldHomepage:
		return c.Homepage
	case FieldDescription:
		return c.Description
	case FieldTopics:
		return strings.Join(c.Topics.Sorted(), ",")
	case FieldName:
		return c.Name
	case FieldRepository:
		return c.RepositoryURL
	}
	return ""
}

// FieldUpdate is a single write against the remote platform
type FieldUpdate struct {
	Field Field
	Value string
	// AddTopics is set for FieldTopics; topics are only ever added
	AddTopics []string
}

// TopicSet is an unordered, deduplicated set of topics
type TopicSet map[string]struct{}

// NewTopicSet builds a set from topics, skipping empty entries
func NewTopicSet(topics ...string) TopicSet {
	s := make(TopicSet, len(topics))
	for _, t := range topics {
		if t == "" {
			continue
		}
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether topic is in the set
func (s TopicSet) Has(topic string) bool {
	_, ok := s[topic]
	return ok
}

// Add inserts topics into the set
func (s TopicSet) Add(topics ...string) {
	for _, t := range topics {
		if t != "" {
			s[t] = struct{}{}
		}
	}
}

// Missing returns the members of want that are absent from s, sorted
func (s TopicSet) Missing(want TopicSet) []string {
	var missing []string
	for t := range want {
		if !s.Has(t) {
			missing = append(missing, t)
		}
	}
	sort.Strings(missing)
	return missing
}

// Sorted returns the topics in lexical order
func (s TopicSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON renders the set as a sorted list
func (s TopicSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON reads a list of topics
func (s *TopicSet) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewTopicSet(list...)
	return nil
}

// MarshalYAML renders the set as a sorted list
func (s TopicSet) MarshalYAML() (any, error) {
	return s.Sorted(), nil
}
