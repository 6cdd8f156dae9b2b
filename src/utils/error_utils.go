// error_utils.go
package utils

import (
	"feedback-api/src/models"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"
)

func HandleError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.ErrorResponse{
		Status:  status,
		Message: message,
	})
}

// StatusFor maps the error taxonomy onto HTTP status codes: not valid is a
// 400, not found a 404 and anything else a store or server failure.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, errors.NotValid):
		return fiber.StatusBadRequest
	case errors.Is(err, errors.NotFound):
		return fiber.StatusNotFound
	case errors.As(err, &fe):
		return fe.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// InternalErrorMessage replaces the message of every 5xx response; the
// error itself only goes to the log and Sentry.
const InternalErrorMessage = "Internal Server Error"

// HandleServiceError writes the ErrorResponse for err. Client errors carry
// err's message, server errors only InternalErrorMessage.
func HandleServiceError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		return HandleError(c, status, InternalErrorMessage)
	}
	return HandleError(c, status, err.Error())
}
