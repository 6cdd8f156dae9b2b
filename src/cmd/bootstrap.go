package cmd

import (
	"context"
	"time"

	"feedback-api/src/cache"
	"feedback-api/src/config"
	"feedback-api/src/database"
	"feedback-api/src/metrics"
	"feedback-api/src/repository"
	"feedback-api/src/services/feedback"
	"feedback-api/src/services/forms"

	"github.com/getsentry/sentry-go"
	"github.com/juju/errors"
)

const shutdownTimeout = 10 * time.Second

// services holds everything a command needs once the stores are connected.
type services struct {
	Metrics  *metrics.Metrics
	Forms    *forms.Service
	Feedback *feedback.Service
}

func initSentry(cfg *config.Config) func() {
	if cfg.SentryDSN == "" {
		return func() {}
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
		logger.Warningf("sentry disabled: %v", err)
		return func() {}
	}
	logger.Infof("sentry error reporting enabled")
	return func() { sentry.Flush(2 * time.Second) }
}

// bootstrap connects MongoDB (creating the indexes), Redis and the asynq
// client, and builds the services. The returned func closes every connection.
func bootstrap(ctx context.Context, cfg *config.Config) (*services, func(), error) {
	if err := cfg.RequireMongo(); err != nil {
		return nil, nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := database.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDB); err != nil {
		return nil, nil, errors.Trace(err)
	}
	if err := database.EnsureIndexes(connectCtx, database.Database); err != nil {
		return nil, nil, errors.Trace(err)
	}

	if err := database.InitRedis(connectCtx, cfg.RedisURI); err != nil {
		logger.Warningf("⚠️ %v, running without the shared cache", err)
	}
	database.InitAsynq(cfg.RedisURI)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := database.CloseAsynq(); err != nil {
			logger.Warningf("closing asynq client: %v", err)
		}
		if err := database.CloseRedis(); err != nil {
			logger.Warningf("closing Redis: %v", err)
		}
		if err := database.Disconnect(ctx); err != nil {
			logger.Warningf("disconnecting MongoDB: %v", err)
		}
	}

	m := metrics.New()
	c := cache.New(database.RedisClient, cfg.CacheTTL, cfg.LocalCache)

	// a nil *asynq.Client must not end up inside the interface
	var tasks feedback.TaskEnqueuer
	if database.AsynqClient != nil {
		tasks = database.AsynqClient
	}

	formSvc := forms.NewService(
		repository.NewMongoFormRepository(database.Client(), database.FormCollection),
		forms.Options{Cache: c, CacheTTL: cfg.CacheTTL, Metrics: m},
	)
	feedbackSvc := feedback.NewService(
		repository.NewMongoFeedbackRepository(database.FeedbackCollection),
		formSvc,
		feedback.Options{Cache: c, CacheTTL: cfg.CacheTTL, Tasks: tasks, Metrics: m},
	)

	return &services{Metrics: m, Forms: formSvc, Feedback: feedbackSvc}, cleanup, nil
}
