package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/ralt/metasync/internal/descriptor"
	"github.com/ralt/metasync/internal/models"
	"github.com/ralt/metasync/internal/reconciler"
	"github.com/ralt/metasync/internal/report"
	"github.com/ralt/metasync/internal/signer"
	"github.com/ralt/metasync/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newReconcileCmd creates the reconcile command
func newReconcileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Bring the hosted repository metadata in line with the descriptor",
		Long: `Fetches the repository's live metadata, compares it with the descriptor,
writes every drifted field and re-checks until the changes are visible or
the grace period ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a.v, cmd.Flags()); err != nil {
				return err
			}
			config, err := resolveConfig(a.v)
			if err != nil {
				return err
			}

			logrus.Debugf("Configuration: %+v", redact(*config))
			return a.runReconcile(cmd.Context(), cmd.OutOrStdout(), config)
		},
	}

	addTargetFlags(cmd.Flags())

	// Run mode flags
	cmd.Flags().Bool("dry-run", false, "Report drift without writing")
	cmd.Flags().Float64("grace-period", reconciler.DefaultGracePeriod.Seconds(), "Seconds to wait for writes to become visible (0 checks once)")
	cmd.Flags().Int("workers", reconciler.DefaultWorkers, "Fields updated concurrently")
	cmd.Flags().Duration("initial-backoff", reconciler.DefaultInitialBackoff, "First retry delay, doubled per attempt")

	// Report flags
	cmd.Flags().String("report-file", "", "Write a JSON run report (gzipped when the name ends in .gz)")
	cmd.Flags().String("sign-key", "", "OpenPGP private key for a detached report signature")
	cmd.Flags().String("sign-passphrase", "", "Passphrase of the signing key")

	return cmd
}

// addTargetFlags adds the flags shared by commands that read the descriptor
// and the remote
func addTargetFlags(flags *pflag.FlagSet) {
	flags.StringP("descriptor", "d", ".", "Descriptor file, or a directory containing one")
	flags.String("identifier", "", "Repository as owner/repo (default: from the descriptor's repository URL)")
	flags.StringSlice("fields", nil, "Reconcile only these fields (homepage, description, topics)")
	flags.String("driver", models.DriverAPI, "Remote driver: api, gh or memory")
	flags.String("api-url", "", "GitHub API base URL (default https://api.github.com)")
	flags.String("gh-path", "gh", "Path to the gh binary for the gh driver")
	flags.Duration("timeout", 0, "Overall timeout, e.g. 2m (0 disables)")
	flags.Int("max-attempts", reconciler.DefaultMaxAttempts, "Attempts per remote call on transient failures")
	flags.StringP("output", "o", "", "Output format: table, json or yaml (default: table on a terminal, json otherwise)")
}

func (a *app) runReconcile(ctx context.Context, out io.Writer, config *models.ReconcileConfig) error {
	// Step 1: Load the descriptor; nothing touches the network before it validates
	canonical, err := descriptor.Load(config.DescriptorPath)
	if err != nil {
		return err
	}
	logrus.Infof("Loaded %s from %s", canonical.Name, canonical.Source)

	checksums, err := utils.CalculateChecksums(canonical.Source)
	if err != nil {
		return &models.ReconcileError{
			Type: models.ErrMalformedDescriptor,
			Err:  fmt.Errorf("failed to checksum descriptor: %w", err),
		}
	}

	// Step 2: Initialize the signer so key problems fail before any write
	var reportSigner signer.Signer
	if config.SignKeyPath != "" {
		gpgSigner, err := signer.NewGPGSigner(config.SignKeyPath, config.SignPassphrase)
		if err != nil {
			return err
		}
		reportSigner = gpgSigner
		logrus.Infof("Report signer initialized (key %s)", gpgSigner.Fingerprint())
	}

	// Step 3: Reconcile
	identifier := config.Identifier
	if identifier == "" {
		identifier = canonical.Identifier
	}
	platform, err := a.newPlatform(config, canonical, identifier)
	if err != nil {
		return err
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	rec := reconciler.New(platform, reconciler.Options{
		Workers:        config.Workers,
		MaxAttempts:    config.MaxAttempts,
		InitialBackoff: config.InitialBackoff,
		GracePeriod:    config.GracePeriod,
		NoGracePeriod:  config.GracePeriod == 0,
	})
	result, err := rec.Run(ctx, canonical, reconciler.RunOptions{
		Identifier: identifier,
		DryRun:     config.DryRun,
		Fields:     fields(config),
	})
	if err != nil {
		return err
	}
	result.DescriptorSHA256 = checksums.SHA256
	logrus.WithFields(logrus.Fields{
		"sha256": checksums.SHA256,
		"bytes":  checksums.Size,
	}).Debugf("Descriptor checksum for %s", canonical.Source)

	// Step 4: Report
	formatter := report.NewFormatter(report.DetectFormat(config.Output))
	if err := formatter.Format(out, result); err != nil {
		return &models.ReconcileError{
			Type: models.ErrReportWrite,
			Err:  fmt.Errorf("failed to render result: %w", err),
		}
	}

	if config.ReportFile != "" {
		if err := report.WriteFile(config.ReportFile, result, reportSigner); err != nil {
			return err
		}
	}

	switch result.ExitCode() {
	case models.ExitFatal:
		return result.FatalError()
	case models.ExitPartial:
		return &PartialFailureError{Summary: result.Summary()}
	}
	logrus.Info(result.Summary())
	return nil
}

// redact hides secrets from debug logs
func redact(config models.ReconcileConfig) models.ReconcileConfig {
	if config.Token != "" {
		config.Token = "***"
	}
	if config.SignPassphrase != "" {
		config.SignPassphrase = "***"
	}
	return config
}
