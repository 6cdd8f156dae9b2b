package jobs

import (
	"context"
	"fmt"

	"feedback-api/src/services/feedback"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("feedback.jobs")

// NewServer builds the asynq server that consumes the feedback queue.
func NewServer(redisAddr string, concurrency int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency:  concurrency,
			Logger:       asynqLogger{},
			ErrorHandler: asynq.ErrorHandlerFunc(reportTaskError),
		},
	)
}

// NewServeMux ลงทะเบียน handler ของทุก task
func NewServeMux(fb *feedback.Service) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	feedback.RegisterHandlers(mux, fb)
	return mux
}

// Run starts srv and blocks until ctx is cancelled, then drains in-flight tasks.
func Run(ctx context.Context, srv *asynq.Server, mux *asynq.ServeMux) error {
	if err := srv.Start(mux); err != nil {
		return errors.Annotate(err, "starting asynq worker")
	}
	logger.Infof("🎯 worker started")
	<-ctx.Done()
	srv.Shutdown()
	logger.Infof("worker stopped")
	return nil
}

func reportTaskError(_ context.Context, task *asynq.Task, err error) {
	logger.Errorf("task %s failed: %v", task.Type(), err)
	sentry.CaptureException(errors.Annotatef(err, "task %s", task.Type()))
}

// asynqLogger routes asynq's own log lines into loggo.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.Debugf("%s", fmt.Sprint(args...)) }
func (asynqLogger) Info(args ...interface{})  { logger.Infof("%s", fmt.Sprint(args...)) }
func (asynqLogger) Warn(args ...interface{})  { logger.Warningf("%s", fmt.Sprint(args...)) }
func (asynqLogger) Error(args ...interface{}) { logger.Errorf("%s", fmt.Sprint(args...)) }
func (asynqLogger) Fatal(args ...interface{}) { logger.Criticalf("%s", fmt.Sprint(args...)) }
