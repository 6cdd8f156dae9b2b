package middleware

import (
	"time"

	"feedback-api/src/metrics"
	"feedback-api/src/utils"

	"github.com/gofiber/fiber/v2"
)

// Metrics records the latency of every request under its route pattern, so
// /feedback/:package is one series whatever the package.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = utils.StatusFor(err)
		}
		m.ObserveRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
