package descriptor

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/ralt/metasync/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// npm-style package names, optionally scoped
	packageName = regexp.MustCompile(`^(@[A-Za-z0-9][A-Za-z0-9._~-]*/)?[A-Za-z0-9][A-Za-z0-9._~-]*$`)
	// hosting platform topic grammar
	topicPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,49}$`)
	topicSpaces  = regexp.MustCompile(`[\s_]+`)
)

// Load reads, parses and validates the descriptor at path. path may be a
// directory containing one of WellKnownNames. Every failure is a
// MalformedDescriptor error.
func Load(path string) (*models.CanonicalMetadata, error) {
	file, err := Resolve(path)
	if err != nil {
		return nil, malformed(err)
	}

	format, err := DetectFormat(file)
	if err != nil {
		return nil, malformed(fmt.Errorf("failed to detect format of %s: %w", file, err))
	}
	parse, ok := parsers[format]
	if !ok {
		return nil, malformed(fmt.Errorf("unrecognized descriptor format: %s", file))
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, malformed(fmt.Errorf("failed to read %s: %w", file, err))
	}

	logrus.Debugf("Parsing %s descriptor: %s", format, file)
	d, err := parse(data)
	if err != nil {
		return nil, malformed(fmt.Errorf("failed to parse %s: %w", file, err))
	}

	canonical, err := build(d)
	if err != nil {
		return nil, malformed(fmt.Errorf("%s: %w", file, err))
	}
	canonical.Source = file
	return canonical, nil
}

func build(d *raw) (*models.CanonicalMetadata, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !packageName.MatchString(name) {
		return nil, fmt.Errorf("name %q is not a valid package identifier", name)
	}

	if strings.TrimSpace(d.Repository) == "" {
		return nil, fmt.Errorf("repository.url is required")
	}
	ref, err := ParseRepositoryURL(d.Repository)
	if err != nil {
		return nil, fmt.Errorf("repository.url: %w", err)
	}

	homepage := strings.TrimSpace(d.Homepage)
	if homepage != "" {
		if err := validateHomepage(homepage); err != nil {
			return nil, err
		}
	}

	return &models.CanonicalMetadata{
		Name:          name,
		Homepage:      homepage,
		Description:   strings.TrimSpace(d.Description),
		RepositoryURL: ref.URL(),
		Topics:        NormalizeTopics(d.Topics),
		Identifier:    ref.Identifier(),
	}, nil
}

func validateHomepage(homepage string) error {
	u, err := url.Parse(homepage)
	if err != nil {
		return fmt.Errorf("homepage: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("homepage %q is not an absolute http(s) URL", homepage)
	}
	return nil
}

// NormalizeTopics lowercases topics and joins words with hyphens. Entries
// that still don't fit the platform's topic grammar are dropped.
func NormalizeTopics(topics []string) models.TopicSet {
	set := models.NewTopicSet()
	for _, t := range topics {
		n := strings.ToLower(strings.TrimSpace(t))
		n = topicSpaces.ReplaceAllString(n, "-")
		if n == "" {
			continue
		}
		if !topicPattern.MatchString(n) {
			logrus.Warnf("Dropping topic %q: not a valid repository topic", t)
			continue
		}
		set.Add(n)
	}
	return set
}

func malformed(err error) error {
	return models.NewError(models.ErrMalformedDescriptor, "", err)
}
