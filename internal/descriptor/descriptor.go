// Package descriptor loads canonical repository metadata from a local
// descriptor file.
package descriptor

// Format represents the syntax of a descriptor file
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatYAML
	FormatControl
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatControl:
		return "control"
	default:
		return "unknown"
	}
}

// WellKnownNames are looked up, in order, when the descriptor path is a directory
var WellKnownNames = []string{
	"package.json",
	"metadata.yaml",
	"metadata.yml",
	"control",
}

// raw holds descriptor fields before validation and normalization
type raw struct {
	Name        string
	Homepage    string
	Description string
	Repository  string
	Topics      []string
}

// parser decodes descriptor bytes of one format
type parser func(data []byte) (*raw, error)

var parsers = map[Format]parser{
	FormatJSON:    parseJSON,
	FormatYAML:    parseYAML,
	FormatControl: parseControl,
}
