package middleware

import (
	"errors"

	"inmuebles-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler renders any error that escaped a handler in the standard
// envelope. Unexpected errors are logged and get a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code)
	}
	log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
	return response.Error(c, "Error interno. Inténtalo de nuevo.", fiber.StatusInternalServerError)
}
