package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every command shares
type app struct {
	v           *viper.Viper
	newPlatform PlatformFactory
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(DefaultPlatform)
}

func newRootCmd(factory PlatformFactory) *cobra.Command {
	a := &app{v: viper.New(), newPlatform: factory}

	rootCmd := &cobra.Command{
		Use:   "metasync",
		Short: "Keep hosted repository metadata in sync with the project descriptor",
		Long: `Metasync reads the project's descriptor (package.json, metadata.yaml or a
control file) and reconciles the repository's homepage, description and
topics on the hosting platform with it.

Topics are only ever added. Fields the descriptor leaves empty are not
touched.

Exit codes:
  0  everything converged (or nothing drifted)
  1  some fields failed to apply or had not propagated in time
  2  fatal: bad descriptor or configuration, remote unreachable`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}

			configFile, _ := cmd.Flags().GetString("config")
			return initConfig(a.v, configFile)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default .metasync.yaml in the working or home directory)")

	// Add subcommands
	rootCmd.AddCommand(newReconcileCmd(a))
	rootCmd.AddCommand(newInspectCmd(a))

	return rootCmd
}
