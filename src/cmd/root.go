// Package cmd wires configuration, stores and services into the
// feedback-api commands.
package cmd

import (
	"feedback-api/src/config"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/spf13/cobra"
)

var logger = loggo.GetLogger("feedback.cmd")

// Context is shared by the sub-commands; it is filled in before any of them runs.
type Context struct {
	Config *config.Config
}

// RootCommand creates and returns the root command. Without a sub-command it serves the API.
func RootCommand() *cobra.Command {
	ctx := &Context{}

	serveCmd := serveCommand(ctx)
	rootCmd := &cobra.Command{
		Use:           "feedback-api",
		Short:         "In-app feedback collection API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.AddCommand(serveCmd, workerCommand(ctx), seedCommand(ctx))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Annotate(err, "loading configuration")
		}
		if err := loggo.ConfigureLoggers(cfg.LogLevel); err != nil {
			return errors.Annotatef(err, "LOG_LEVEL %q", cfg.LogLevel)
		}
		ctx.Config = cfg
		return nil
	}
	return rootCmd
}
