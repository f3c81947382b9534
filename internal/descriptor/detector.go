package descriptor

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// A control file starts with a "Key: value" line
var controlLine = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*:\s`)

// DetectFormat determines the descriptor format from the file name, falling
// back to the first bytes of the file
func DetectFormat(path string) (Format, error) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case base == "control" || filepath.Ext(base) == ".control":
		return FormatControl, nil
	case filepath.Ext(base) == ".json":
		return FormatJSON, nil
	case filepath.Ext(base) == ".yaml" || filepath.Ext(base) == ".yml":
		return FormatYAML, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	// Read first 512 bytes for sniffing
	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return FormatUnknown, err
	}
	return sniffFormat(header[:n]), nil
}

func sniffFormat(header []byte) Format {
	trimmed := bytes.TrimSpace(header)
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	if trimmed[0] == '{' {
		return FormatJSON
	}

	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	for sc.Scan() {
		first := strings.TrimRight(sc.Text(), " \t")
		if first == "" || strings.HasPrefix(strings.TrimSpace(first), "#") {
			continue
		}
		// Capitalized keys are the control-file convention; YAML keys here are lowercase
		if controlLine.MatchString(first) && first[0] >= 'A' && first[0] <= 'Z' {
			return FormatControl
		}
		break
	}
	return FormatYAML
}
