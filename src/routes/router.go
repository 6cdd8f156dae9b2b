package routes

import (
	"feedback-api/src/controllers"
	"feedback-api/src/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers รวม controller ทั้งหมดที่ router ต้องใช้
type Handlers struct {
	Forms    *controllers.FormController
	Feedback *controllers.FeedbackController
	Health   *controllers.HealthController
	Metrics  *metrics.Metrics
}

func InitRoutes(app *fiber.App, h Handlers) {
	formRoutes(app, h.Forms)
	feedbackRoutes(app, h.Feedback)

	if h.Health != nil {
		app.Get("/health", h.Health.Health)
	}
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	// Route เช็คว่า API ทำงานอยู่
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("✅ Feedback API is running...")
	})
}
