package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"feedback-api/src/controllers"
	"feedback-api/src/database"
	"feedback-api/src/routes"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

func serveCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), ctx)
		},
	}
}

func serve(parent context.Context, ctx *Context) error {
	if parent == nil {
		parent = context.Background()
	}
	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := ctx.Config
	flush := initSentry(cfg)
	defer flush()

	svc, cleanup, err := bootstrap(sigCtx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	app := routes.NewApp(routes.Handlers{
		Forms:    controllers.NewFormController(svc.Forms, cfg.RequestTimeout),
		Feedback: controllers.NewFeedbackController(svc.Feedback, cfg.RequestTimeout),
		Health:   controllers.NewHealthController(database.Ping, database.PingRedis, cfg.RequestTimeout),
		Metrics:  svc.Metrics,
	}, routes.AppOptions{AllowedOrigins: cfg.AllowedOrigins, AccessLog: true})

	go func() {
		<-sigCtx.Done()
		logger.Infof("shutting down HTTP server")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}()

	logger.Infof("Server is running on port %s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		return errors.Annotate(err, "listening")
	}
	return nil
}
