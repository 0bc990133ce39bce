package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RouteLogger logs one line per request with status and duration. Health
// polling is not logged; 4xx log at warn and 5xx at error.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || strings.HasPrefix(path, "/health") {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		logger := zerolog.Ctx(c.UserContext())
		if logger.GetLevel() == zerolog.Disabled {
			logger = &log.Logger
		}
		ev := logger.Info()
		switch {
		case status >= 500:
			ev = logger.Error().Err(err)
		case status >= 400:
			ev = logger.Warn()
		}
		ev.Str("method", c.Method()).Str("path", path).Int("status", status).
			Int64("ms", time.Since(start).Milliseconds()).Msg("request")
		return err
	}
}
