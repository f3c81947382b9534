package descriptor

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// repositoryField accepts both `"repository": "url"` and
// `"repository": {"type": "git", "url": "..."}`
type repositoryField struct {
	URL string
}

func (r *repositoryField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.URL = s
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("repository must be a string or an object with url: %w", err)
	}
	r.URL = obj.URL
	return nil
}

func (r *repositoryField) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		r.URL = s
		return nil
	}
	var obj struct {
		URL string `yaml:"url"`
	}
	if err := unmarshal(&obj); err != nil {
		return fmt.Errorf("repository must be a string or a mapping with url: %w", err)
	}
	r.URL = obj.URL
	return nil
}

// parseJSON reads a package.json style descriptor
func parseJSON(data []byte) (*raw, error) {
	var doc struct {
		Name        string          `json:"name"`
		Homepage    string          `json:"homepage"`
		Description string          `json:"description"`
		Repository  repositoryField `json:"repository"`
		Keywords    []string        `json:"keywords"`
		Topics      []string        `json:"topics"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &raw{
		Name:        doc.Name,
		Homepage:    doc.Homepage,
		Description: doc.Description,
		Repository:  doc.Repository.URL,
		Topics:      append(doc.Keywords, doc.Topics...),
	}, nil
}

// parseYAML reads a metadata.yaml descriptor
func parseYAML(data []byte) (*raw, error) {
	var doc struct {
		Name        string          `yaml:"name"`
		Homepage    string          `yaml:"homepage"`
		Description string          `yaml:"description"`
		Repository  repositoryField `yaml:"repository"`
		Topics      []string        `yaml:"topics"`
		Keywords    []string        `yaml:"keywords"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &raw{
		Name:        doc.Name,
		Homepage:    doc.Homepage,
		Description: doc.Description,
		Repository:  doc.Repository.URL,
		Topics:      append(doc.Topics, doc.Keywords...),
	}, nil
}

// parseControl parses the control file format: "Key: value" lines with
// continuation lines starting with whitespace
func parseControl(data []byte) (*raw, error) {
	d := &raw{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var currentKey string
	var currentValue strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		// Handle continuation lines (start with space)
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if currentKey == "" {
				return nil, fmt.Errorf("continuation line without a key: %q", line)
			}
			// A lone "." is a paragraph break
			text := strings.TrimSpace(line)
			if text == "." {
				currentValue.WriteString("\n\n")
				continue
			}
			if s := currentValue.String(); s != "" && !strings.HasSuffix(s, "\n") {
				currentValue.WriteString(" ")
			}
			currentValue.WriteString(text)
			continue
		}

		// Save previous key-value pair
		if currentKey != "" {
			setValue(d, currentKey, currentValue.String())
			currentKey = ""
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		// Parse new key-value pair
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed line: %q", line)
		}
		currentKey = strings.TrimSpace(parts[0])
		currentValue.Reset()
		currentValue.WriteString(strings.TrimSpace(parts[1]))
	}

	// Save last key-value pair
	if currentKey != "" {
		setValue(d, currentKey, currentValue.String())
	}

	return d, scanner.Err()
}

// setValue sets a descriptor field based on the control file key
func setValue(d *raw, key, value string) {
	switch strings.ToLower(key) {
	case "name", "package":
		d.Name = value
	case "homepage":
		d.Homepage = value
	case "description":
		d.Description = value
	case "repository", "vcs-browser":
		if d.Repository == "" || strings.EqualFold(key, "repository") {
			d.Repository = value
		}
	case "topics", "keywords":
		for _, t := range strings.Split(value, ",") {
			d.Topics = append(d.Topics, strings.TrimSpace(t))
		}
	}
}
