package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ralt/metasync/internal/cli"
	"github.com/sirupsen/logrus"
)

func main() {
	// Setup logging format
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := cli.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		var partial *cli.PartialFailureError
		if errors.As(err, &partial) {
			logrus.Warn(partial.Summary)
		} else {
			logrus.Error(err)
		}
	}
	stop()
	os.Exit(cli.ExitCode(err))
}
