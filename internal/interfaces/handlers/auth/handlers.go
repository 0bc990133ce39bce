package auth

import (
	"errors"
	"time"

	authsvc "inmuebles-backend/internal/application/auth"
	"inmuebles-backend/internal/middleware"
	"inmuebles-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Sessions *authsvc.Sessions
	// Secure marks the session cookie Secure (production).
	Secure bool
}

// LoginRequest body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/session: checks credentials, requires the admin
// claim and sets the httpOnly __session cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest)
	}

	token, claims, err := h.Sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailPasswordRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest)
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			return response.Error(c, err.Error(), fiber.StatusUnauthorized)
		case errors.Is(err, authsvc.ErrNotAdmin):
			log.Info().Str("email", req.Email).Msg("auth: login without admin claim")
			return response.Unauthorized(c)
		default:
			log.Error().Err(err).Str("email", req.Email).Msg("auth: login failed")
			return response.Error(c, "No se pudo iniciar sesión. Inténtalo de nuevo.", fiber.StatusInternalServerError)
		}
	}

	c.Cookie(h.cookie(token, claims.ExpiresAt.Time))
	log.Info().Str("uid", claims.UID).Msg("auth: admin session started")
	return response.Success(c, fiber.Map{
		"uid":      claims.UID,
		"email":    claims.Email,
		"expiraEn": claims.ExpiresAt.Time,
	})
}

// Logout POST /api/v1/auth/logout: revokes the current session (if any) and
// clears the cookie. Always succeeds.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if tok := middleware.SessionToken(c); tok != "" {
		if claims, err := h.Sessions.Verify(c.UserContext(), tok); err == nil {
			if err := h.Sessions.Revoke(c.UserContext(), claims); err != nil {
				log.Error().Err(err).Str("uid", claims.UID).Msg("auth: failed to revoke session")
			}
		}
	}
	c.Cookie(h.cookie("", time.Unix(0, 0)))
	return response.Success(c, nil)
}

// Me GET /api/v1/auth/me (behind RequireAdmin).
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims := middleware.GetAdmin(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	return response.Success(c, fiber.Map{
		"uid":      claims.UID,
		"email":    claims.Email,
		"admin":    claims.Admin,
		"expiraEn": claims.ExpiresAt.Time,
	})
}

func (h *Handlers) cookie(value string, expires time.Time) *fiber.Cookie {
	maxAge := int(time.Until(expires).Seconds())
	if value == "" || maxAge < 0 {
		maxAge = -1
	}
	return &fiber.Cookie{
		Name:     authsvc.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   h.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
