package middleware

import (
	"context"
	"errors"
	"strings"

	"inmuebles-backend/internal/application/auth"
	"inmuebles-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const adminLocal = "admin"

// SessionVerifier checks a session artifact and returns its claims.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// SessionToken returns the artifact from the __session cookie, falling back
// to an Authorization: Bearer header.
func SessionToken(c *fiber.Ctx) string {
	if tok := c.Cookies(auth.CookieName); tok != "" {
		return tok
	}
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAdmin lets the request through only with a valid, unexpired,
// unrevoked artifact carrying the admin claim. Every rejection looks the same
// to the caller; the reason is logged.
func RequireAdmin(verifier SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := verifier.Verify(c.UserContext(), SessionToken(c))
		if err != nil {
			ev := log.Info()
			if !isGateRejection(err) {
				ev = log.Error()
			}
			ev.Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("admin gate: rejected")
			return response.Unauthorized(c)
		}
		c.Locals(adminLocal, claims)
		return c.Next()
	}
}

// GetAdmin returns the verified claims stored by RequireAdmin, or nil.
func GetAdmin(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(adminLocal).(*auth.Claims)
	return claims
}

// AdminUID is GetAdmin(c).UID, or "" outside the gate.
func AdminUID(c *fiber.Ctx) string {
	if claims := GetAdmin(c); claims != nil {
		return claims.UID
	}
	return ""
}

func isGateRejection(err error) bool {
	return errors.Is(err, auth.ErrMissingSession) ||
		errors.Is(err, auth.ErrInvalidSession) ||
		errors.Is(err, auth.ErrSessionExpired) ||
		errors.Is(err, auth.ErrSessionRevoked) ||
		errors.Is(err, auth.ErrNotAdmin)
}
