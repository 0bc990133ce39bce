package domain

import "errors"

// Conflict and lookup errors surfaced to admin callers. The messages are the
// user-facing text.
var (
	ErrSlugTaken        = errors.New("El slug ya está en uso. Modifícalo antes de guardar.")
	ErrCodeTaken        = errors.New("El código de propiedad ya está en uso.")
	ErrPropertyNotFound = errors.New("La propiedad no existe o fue eliminada.")
	ErrUnauthorized     = errors.New("No autorizado.")

	ErrLeadNotFound       = errors.New("El lead no existe.")
	ErrImageNotInProperty = errors.New("La imagen no pertenece a esta propiedad.")
	ErrStorageDelete      = errors.New("No se pudo borrar la imagen del servidor. Inténtalo de nuevo.")
	ErrImageOrphaned      = errors.New("Imagen borrada del servidor, pero falló la actualización de la base de datos. Guarda el formulario para sincronizar.")
)

// Codes for the closed conflict set, returned alongside the message so clients
// can branch without matching text.
const (
	CodeSlugTaken        = "SLUG_EN_USO"
	CodeCodeTaken        = "CODIGO_EN_USO"
	CodePropertyNotFound = "PROPIEDAD_NO_ENCONTRADA"
)

// ErrorCode maps a conflict error to its stable code, or "".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSlugTaken):
		return CodeSlugTaken
	case errors.Is(err, ErrCodeTaken):
		return CodeCodeTaken
	case errors.Is(err, ErrPropertyNotFound):
		return CodePropertyNotFound
	}
	return ""
}

// ValidationError is a caller-fixable input problem on one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
