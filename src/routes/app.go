package routes

import (
	"feedback-api/src/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// AppOptions configures NewApp.
type AppOptions struct {
	AllowedOrigins string
	AccessLog      bool
}

// NewApp สร้าง fiber app พร้อม middleware และ route ทั้งหมด
func NewApp(h Handlers, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "feedback-api",
		ErrorHandler: middleware.ErrorHandler,
	})

	origins := opts.AllowedOrigins
	if origins == "" {
		origins = "*"
	}

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false, // ต้องเป็น false ถ้าใช้ "*"
	}))
	if opts.AccessLog {
		app.Use(logger.New())
	}
	if h.Metrics != nil {
		app.Use(middleware.Metrics(h.Metrics))
	}

	InitRoutes(app, h)
	return app
}
