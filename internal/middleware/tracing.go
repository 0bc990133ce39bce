package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const traceIDHeader = "X-Trace-Id"
const traceIDLocal = "trace_id"

// maxTraceIDLen bounds an inbound trace id before it is echoed and logged.
const maxTraceIDLen = 64

// Tracing tags the request with a trace ID, reusing a well-formed inbound
// X-Trace-Id from the edge. The ID is echoed on the response and carried by
// a request-scoped logger in the user context (zerolog.Ctx).
func Tracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(traceIDHeader)
		if !validTraceID(traceID) {
			traceID = uuid.NewString()
		}
		c.Locals(traceIDLocal, traceID)
		c.Set(traceIDHeader, traceID)
		logger := log.With().Str("trace_id", traceID).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext()))
		return c.Next()
	}
}

func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for _, r := range id {
		ok := r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !ok {
			return false
		}
	}
	return true
}

// GetTraceID returns the trace ID from context.
func GetTraceID(c *fiber.Ctx) string {
	if id, ok := c.Locals(traceIDLocal).(string); ok {
		return id
	}
	return ""
}
