package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"feedback-api/src/jobs"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

func workerCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background stats worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.Config
			if cfg.RedisURI == "" {
				return errors.NotValidf("empty REDIS_URI, the worker needs Redis")
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			flush := initSentry(cfg)
			defer flush()

			svc, cleanup, err := bootstrap(sigCtx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := jobs.NewServer(cfg.RedisURI, cfg.WorkerConcurrency)
			return jobs.Run(sigCtx, srv, jobs.NewServeMux(svc.Feedback))
		},
	}
}
