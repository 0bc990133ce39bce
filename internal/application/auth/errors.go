package auth

import "errors"

// Login errors are shown to the admin; gate errors are logged only, the
// caller always gets the same "No autorizado." reply.
var (
	ErrEmailPasswordRequired = errors.New("Correo y contraseña son obligatorios.")
	ErrInvalidCredentials    = errors.New("Correo o contraseña incorrectos.")
	ErrNotAdmin              = errors.New("missing admin claim")

	ErrMissingSession = errors.New("missing session")
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired")
	ErrSessionRevoked = errors.New("session revoked")
)
