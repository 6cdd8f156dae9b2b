package controllers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"
)

// requestContext bounds every store call of one request.
func (b base) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), b.timeout)
}

// parseActive reads ?active=true|false, falling back to the older
// ?status=active|inactive. Neither present means no filter.
func parseActive(c *fiber.Ctx) (*bool, error) {
	var active bool
	if raw := c.Query("active"); raw != "" {
		switch strings.ToLower(raw) {
		case "true":
			active = true
		case "false":
			active = false
		default:
			return nil, errors.NotValidf("active=%q, expected true or false", raw)
		}
		return &active, nil
	}
	if raw := c.Query("status"); raw != "" {
		switch strings.ToLower(raw) {
		case "active":
			active = true
		case "inactive":
			active = false
		default:
			return nil, errors.NotValidf("status=%q, expected active or inactive", raw)
		}
		return &active, nil
	}
	return nil, nil
}

// parseLimit returns 0 when ?limit is absent.
func parseLimit(c *fiber.Ctx) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.NotValidf("limit=%q, expected a positive integer", raw)
	}
	return n, nil
}
