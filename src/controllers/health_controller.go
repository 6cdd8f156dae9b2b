package controllers

import (
	"context"
	"time"

	"feedback-api/src/models"

	"github.com/gofiber/fiber/v2"
)

// HealthController answers /health from the store and cache checks it is given.
type HealthController struct {
	base
	pingMongo   func(ctx context.Context) error
	redisStatus func(ctx context.Context) string
}

func NewHealthController(pingMongo func(ctx context.Context) error, redisStatus func(ctx context.Context) string, timeout time.Duration) *HealthController {
	return &HealthController{base: newBase(timeout), pingMongo: pingMongo, redisStatus: redisStatus}
}

// Health godoc
// @Summary      Health check
// @Description  Pings MongoDB and reports the Redis state
// @Tags         health
// @Produce      json
// @Success      200  {object}  models.HealthResponse
// @Failure      503  {object}  models.HealthResponse
// @Router       /health [get]
func (hc *HealthController) Health(c *fiber.Ctx) error {
	ctx, cancel := hc.requestContext(c)
	defer cancel()

	resp := models.HealthResponse{Status: "ok", Mongo: "up", Redis: "disabled"}
	if hc.redisStatus != nil {
		resp.Redis = hc.redisStatus(ctx)
	}
	if err := hc.pingMongo(ctx); err != nil {
		logger.Warningf("health: MongoDB ping failed: %v", err)
		resp.Status = "degraded"
		resp.Mongo = "down"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	if resp.Redis == "down" {
		resp.Status = "degraded"
	}
	return c.JSON(resp)
}
