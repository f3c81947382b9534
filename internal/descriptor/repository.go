package descriptor

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const defaultHost = "github.com"

var (
	// git@github.com:owner/repo.git
	scpLike = regexp.MustCompile(`^[A-Za-z0-9._-]+@([A-Za-z0-9.-]+):([^/]+)/([^/]+?)/?$`)
	// owner and repository name segments
	segment = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	// shorthand prefixes understood by npm
	shorthandHosts = map[string]string{
		"github":    "github.com",
		"gitlab":    "gitlab.com",
		"bitbucket": "bitbucket.org",
	}
)

// RepositoryRef identifies a repository on a hosting platform
type RepositoryRef struct {
	Host  string
	Owner string
	Repo  string
}

// Identifier returns the platform identifier, owner/repo
func (r RepositoryRef) Identifier() string {
	return r.Owner + "/" + r.Repo
}

// URL returns the canonical browser URL of the repository
func (r RepositoryRef) URL() string {
	return fmt.Sprintf("https://%s/%s/%s", r.Host, r.Owner, r.Repo)
}

// ParseRepositoryURL understands the repository URL forms found in package
// descriptors: https, git+https, git, ssh and scp-like URLs, npm shorthands
// (github:owner/repo) and bare owner/repo.
func ParseRepositoryURL(raw string) (RepositoryRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return RepositoryRef{}, fmt.Errorf("repository url is empty")
	}

	if m := scpLike.FindStringSubmatch(s); m != nil {
		return newRef(m[1], m[2], m[3])
	}

	if i := strings.Index(s, ":"); i > 0 && !strings.Contains(s[:i], "/") && !strings.Contains(s, "://") {
		host, ok := shorthandHosts[s[:i]]
		if !ok {
			return RepositoryRef{}, fmt.Errorf("unknown repository shorthand %q", s[:i])
		}
		owner, repo, err := splitPath(s[i+1:])
		if err != nil {
			return RepositoryRef{}, err
		}
		return newRef(host, owner, repo)
	}

	if !strings.Contains(s, "://") {
		owner, repo, err := splitPath(s)
		if err != nil {
			return RepositoryRef{}, err
		}
		return newRef(defaultHost, owner, repo)
	}

	u, err := url.Parse(s)
	if err != nil {
		return RepositoryRef{}, fmt.Errorf("invalid repository url: %w", err)
	}
	switch strings.TrimPrefix(u.Scheme, "git+") {
	case "https", "http", "git", "ssh":
	default:
		return RepositoryRef{}, fmt.Errorf("unsupported repository url scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return RepositoryRef{}, fmt.Errorf("repository url has no host")
	}
	owner, repo, err := splitPath(u.Path)
	if err != nil {
		return RepositoryRef{}, err
	}
	return newRef(strings.ToLower(u.Hostname()), owner, repo)
}

func splitPath(p string) (string, string, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("repository path %q is not owner/repo", p)
	}
	return parts[0], parts[1], nil
}

func newRef(host, owner, repo string) (RepositoryRef, error) {
	repo = strings.TrimSuffix(repo, ".git")
	if !segment.MatchString(owner) || !segment.MatchString(repo) {
		return RepositoryRef{}, fmt.Errorf("invalid repository owner/name %q/%q", owner, repo)
	}
	return RepositoryRef{Host: strings.ToLower(host), Owner: owner, Repo: repo}, nil
}

// ValidIdentifier reports whether id has the owner/repo shape
func ValidIdentifier(id string) bool {
	owner, repo, err := splitPath(id)
	return err == nil && segment.MatchString(owner) && segment.MatchString(repo)
}
