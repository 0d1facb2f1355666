package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unims-go-api/internal/middleware"
	"github.com/noah-isme/unims-go-api/internal/service"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func callerIdentityFromContext(c *fiber.Ctx) service.Identity {
	identity := service.Identity{}

	if v := c.Locals("user_email"); v != nil {
		if email, ok := v.(string); ok {
			identity.Email = strings.TrimSpace(email)
		}
	}
	if v := c.Locals("email_confirmed"); v != nil {
		if confirmed, ok := v.(bool); ok {
			identity.EmailConfirmed = confirmed
		}
	}

	return identity
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}
