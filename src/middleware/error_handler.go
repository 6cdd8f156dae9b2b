package middleware

import (
	"feedback-api/src/utils"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("feedback.middleware")

// ErrorHandler is the fiber.Config ErrorHandler. It writes every error as an
// ErrorResponse; server errors are logged and sent to Sentry, and the client
// only gets a generic message for them.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := utils.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Errorf("%s %s: %s", c.Method(), c.OriginalURL(), errors.ErrorStack(err))
		sentry.CaptureException(err)
	} else {
		logger.Debugf("%s %s: %d %v", c.Method(), c.OriginalURL(), status, err)
	}
	return utils.HandleServiceError(c, err)
}
