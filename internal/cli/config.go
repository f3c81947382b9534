package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ralt/metasync/internal/descriptor"
	"github.com/ralt/metasync/internal/models"
	"github.com/ralt/metasync/internal/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "METASYNC"

// tokenEnv lists the environment variables holding the API token, in
// precedence order
var tokenEnv = []string{"METASYNC_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"}

// initConfig wires .env files, environment variables and the optional
// config file into v. Precedence is flag > env > config file > default.
func initConfig(v *viper.Viper, configFile string) error {
	loadEnvFiles()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(append([]string{"token"}, tokenEnv...)...); err != nil {
		return &models.ReconcileError{Type: models.ErrInvalidConfig, Err: err}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return &models.ReconcileError{
				Type: models.ErrInvalidConfig,
				Err:  fmt.Errorf("failed to read config file %s: %w", configFile, err),
			}
		}
		logrus.Debugf("Using config file: %s", v.ConfigFileUsed())
		return nil
	}

	v.SetConfigName(".metasync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return &models.ReconcileError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("failed to read config file: %w", err),
		}
	}
	logrus.Debugf("Using config file: %s", v.ConfigFileUsed())
	return nil
}

// loadEnvFiles loads .env then .env.local; missing files are ignored
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envFile); err == nil {
			logrus.Debugf("Loaded environment from %s", envFile)
		}
	}
}

// bindFlags makes the parsed flags visible through v
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return &models.ReconcileError{Type: models.ErrInvalidConfig, Err: err}
	}
	return nil
}

// resolveConfig reads and validates a run configuration from v
func resolveConfig(v *viper.Viper) (*models.ReconcileConfig, error) {
	grace := v.GetFloat64("grace-period")
	config := &models.ReconcileConfig{
		DescriptorPath: v.GetString("descriptor"),
		Identifier:     strings.TrimSpace(v.GetString("identifier")),
		Fields:         splitList(v.GetStringSlice("fields")),
		DryRun:         v.GetBool("dry-run"),
		GracePeriod:    time.Duration(grace * float64(time.Second)),
		Timeout:        v.GetDuration("timeout"),
		Driver:         strings.ToLower(v.GetString("driver")),
		APIURL:         v.GetString("api-url"),
		GHPath:         v.GetString("gh-path"),
		Token:          v.GetString("token"),
		Workers:        v.GetInt("workers"),
		MaxAttempts:    v.GetInt("max-attempts"),
		InitialBackoff: v.GetDuration("initial-backoff"),
		Output:         v.GetString("output"),
		ReportFile:     v.GetString("report-file"),
		SignKeyPath:    v.GetString("sign-key"),
		SignPassphrase: v.GetString("sign-passphrase"),
	}

	if err := validateConfig(config, grace); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *models.ReconcileConfig, grace float64) error {
	invalid := func(format string, args ...any) error {
		return &models.ReconcileError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf(format, args...),
		}
	}

	if grace < 0 {
		return invalid("grace-period must not be negative: %v", grace)
	}
	if config.Timeout < 0 {
		return invalid("timeout must not be negative: %s", config.Timeout)
	}
	if config.Workers < 0 {
		return invalid("workers must not be negative: %d", config.Workers)
	}
	if config.MaxAttempts < 0 {
		return invalid("max-attempts must not be negative: %d", config.MaxAttempts)
	}
	if config.Identifier != "" && !descriptor.ValidIdentifier(config.Identifier) {
		return invalid("identifier must be owner/repo: %q", config.Identifier)
	}

	for _, f := range config.Fields {
		if _, ok := models.ParseField(f); !ok {
			return invalid("unknown field %q: must be one of homepage, description, topics", f)
		}
	}

	switch config.Driver {
	case models.DriverAPI, models.DriverGH, models.DriverMemory:
	default:
		return invalid("unknown driver %q: must be one of api, gh, memory", config.Driver)
	}

	if _, err := report.ParseFormat(config.Output); err != nil {
		return invalid("%v", err)
	}

	if config.SignKeyPath != "" && config.ReportFile == "" {
		return invalid("sign-key requires report-file")
	}

	if config.Driver == models.DriverAPI && config.Token == "" {
		logrus.Warnf("No API token found in %s; updates will be rejected", strings.Join(tokenEnv, ", "))
	}
	return nil
}

// fields returns the parsed field filter
func fields(config *models.ReconcileConfig) []models.Field {
	var out []models.Field
	for _, s := range config.Fields {
		if f, ok := models.ParseField(s); ok {
			out = append(out, f)
		}
	}
	return out
}

// splitList flattens comma separated entries, which is how list values
// arrive from environment variables and config files
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
