package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Resolve turns a descriptor path into a file. Directories are searched for
// the first of WellKnownNames.
func Resolve(path string) (string, error) {
	if path == "" {
		path = "."
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot stat descriptor: %w", err)
	}
	if !info.IsDir() {
		return path, nil
	}

	for _, name := range WellKnownNames {
		candidate := filepath.Join(path, name)
		ci, err := os.Stat(candidate)
		if err != nil || ci.IsDir() {
			continue
		}
		logrus.Debugf("Found descriptor: %s", candidate)
		return candidate, nil
	}

	return "", fmt.Errorf("no descriptor found in %s (looked for %s)", path, strings.Join(WellKnownNames, ", "))
}
