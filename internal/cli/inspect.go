package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// newInspectCmd creates the inspect command
func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show canonical and remote metadata side by side",
		Long: `Loads the descriptor, fetches the repository's live metadata and prints
both with the drift between them. Never writes to the remote.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a.v, cmd.Flags()); err != nil {
				return err
			}
			config, err := resolveConfig(a.v)
			if err != nil {
				return err
			}
			config.DryRun = true

			logrus.Debugf("Configuration: %+v", redact(*config))
			return a.runReconcile(cmd.Context(), cmd.OutOrStdout(), config)
		},
	}

	addTargetFlags(cmd.Flags())

	return cmd
}
