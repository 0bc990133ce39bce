package middleware

import (
	"strings"

	"inmuebles-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig holds CORS configuration (suffix + dev password). AllowLocalhost
// admits http://localhost and http://127.0.0.1 origins; keep it off in production.
type CORSConfig struct {
	AllowedSuffix  string
	DevPassword    string
	AllowLocalhost bool
}

// CORS allows origins ending with AllowedSuffix, localhost when enabled, or
// requests with the correct dev-password header.
// Credentials are allowed so the admin session cookie travels.
func CORS(cfg CORSConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		// No origin (e.g. same-origin or tools): allow
		if origin == "" {
			return c.Next()
		}
		allowed := (cfg.AllowLocalhost && isLocalOrigin(origin)) ||
			(cfg.AllowedSuffix != "" && strings.HasSuffix(strings.ToLower(origin), strings.ToLower(cfg.AllowedSuffix))) ||
			(cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword)
		if !allowed {
			return response.Error(c, "Origen no permitido.", fiber.StatusForbidden)
		}
		setCORSHeaders(c, origin)
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set("Access-Control-Allow-Origin", origin)
	c.Set("Access-Control-Allow-Credentials", "true")
	c.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, dev-password")
	c.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Set("Vary", "Origin")
}
