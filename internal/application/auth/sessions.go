package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inmuebles-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the httpOnly cookie carrying the session token.
	CookieName = "__session"
	// DefaultTTL is how long a session stays valid after login.
	DefaultTTL = 24 * time.Hour

	revokedPrefix = "session_revoked:"
)

// Claims carried by a session token. ID (jti) is the session id used for revocation.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies signed session tokens. Rdb is optional; without
// it revocation is not enforced.
type Sessions struct {
	Secret []byte
	TTL    time.Duration
	Rdb    *redis.Client
	Finder AdminFinder
	Now    func() time.Time
}

func (s *Sessions) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Sessions) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultTTL
}

// Login checks credentials and issues a session for an admin account.
func (s *Sessions) Login(ctx context.Context, email, password string) (string, *Claims, error) {
	if s.Finder == nil {
		return "", nil, errors.New("auth: no admin finder configured")
	}
	admin, err := s.Finder.FindByEmailAndPassword(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	if !admin.IsAdmin {
		return "", nil, ErrNotAdmin
	}
	return s.Issue(admin)
}

// Issue signs a new HS256 session token for admin.
func (s *Sessions) Issue(admin *domain.Admin) (string, *Claims, error) {
	if len(s.Secret) == 0 {
		return "", nil, errors.New("auth: SESSION_SECRET is not set")
	}
	now := s.now()
	claims := &Claims{
		UID:   admin.UID.String(),
		Email: admin.Email,
		Admin: admin.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   admin.UID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl())),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign session: %w", err)
	}
	return token, claims, nil
}

// Verify checks signature, algorithm, expiry, revocation and the admin claim,
// in that order. Every failure is one of the package's gate errors.
func (s *Sessions) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingSession
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.ID == "" || claims.UID == "" {
		return nil, ErrInvalidSession
	}
	if s.Rdb != nil {
		n, err := s.Rdb.Exists(ctx, revokedPrefix+claims.ID).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: revocation check: %v", ErrInvalidSession, err)
		}
		if n > 0 {
			return nil, ErrSessionRevoked
		}
	}
	if !claims.Admin {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

// Revoke marks the session id as revoked until the token would expire anyway.
func (s *Sessions) Revoke(ctx context.Context, claims *Claims) error {
	if s.Rdb == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Time.Sub(s.now()); left > ttl {
			ttl = left
		}
	}
	return s.Rdb.Set(ctx, revokedPrefix+claims.ID, "1", ttl).Err()
}
