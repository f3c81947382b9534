package cli

import (
	"fmt"

	"github.com/ralt/metasync/internal/models"
	"github.com/ralt/metasync/internal/remote"
	"github.com/ralt/metasync/internal/remote/github"
	"github.com/ralt/metasync/internal/remote/memory"
	"github.com/sirupsen/logrus"
)

// PlatformFactory builds the remote platform for a run. identifier is the
// repository the run targets.
type PlatformFactory func(config *models.ReconcileConfig, canonical *models.CanonicalMetadata, identifier string) (remote.Platform, error)

// DefaultPlatform builds the platform named by config.Driver. The memory
// driver starts from an empty repository, so a run against it shows every
// managed field drifting and rehearses the whole pipeline offline.
func DefaultPlatform(config *models.ReconcileConfig, canonical *models.CanonicalMetadata, identifier string) (remote.Platform, error) {
	switch config.Driver {
	case models.DriverAPI:
		logrus.Debugf("Using GitHub REST API at %s", apiURL(config))
		return github.NewAPIPlatform(config.APIURL, config.Token, nil), nil
	case models.DriverGH:
		logrus.Debugf("Using gh command line tool")
		return github.NewCLIPlatform(config.GHPath, github.ExecRunner), nil
	case models.DriverMemory:
		p := memory.New()
		p.Seed(models.RemoteMetadata{
			Identifier:    identifier,
			Name:          canonical.Name,
			RepositoryURL: canonical.RepositoryURL,
		})
		return p, nil
	default:
		return nil, &models.ReconcileError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("unknown driver %q", config.Driver),
		}
	}
}

func apiURL(config *models.ReconcileConfig) string {
	if config.APIURL == "" {
		return github.DefaultAPIURL
	}
	return config.APIURL
}
