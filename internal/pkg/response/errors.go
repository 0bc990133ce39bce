package response

import (
	"errors"

	"inmuebles-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// FromError maps a service error onto the envelope. Validation and domain
// errors carry their own user-facing text; anything else gets fallback.
// Services log unexpected errors before returning them.
func FromError(c *fiber.Ctx, err error, fallback string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return FieldError(c, verr.Field, verr.Message)
	case errors.Is(err, domain.ErrSlugTaken), errors.Is(err, domain.ErrCodeTaken):
		return Conflict(c, domain.ErrorCode(err), messageOf(err), fiber.StatusConflict)
	case errors.Is(err, domain.ErrPropertyNotFound):
		return Conflict(c, domain.CodePropertyNotFound, domain.ErrPropertyNotFound.Error(), fiber.StatusNotFound)
	case errors.Is(err, domain.ErrLeadNotFound):
		return Error(c, domain.ErrLeadNotFound.Error(), fiber.StatusNotFound)
	case errors.Is(err, domain.ErrImageNotInProperty):
		return Error(c, domain.ErrImageNotInProperty.Error(), fiber.StatusBadRequest)
	case errors.Is(err, domain.ErrStorageDelete):
		return Error(c, domain.ErrStorageDelete.Error(), fiber.StatusBadGateway)
	case errors.Is(err, domain.ErrImageOrphaned):
		return Error(c, domain.ErrImageOrphaned.Error(), fiber.StatusInternalServerError)
	case errors.Is(err, domain.ErrUnauthorized):
		return Unauthorized(c)
	}
	if fallback == "" {
		fallback = GenericMessage
	}
	return Error(c, fallback, fiber.StatusInternalServerError)
}

// messageOf returns the sentinel text without any wrapping context.
func messageOf(err error) string {
	for _, s := range []error{domain.ErrSlugTaken, domain.ErrCodeTaken} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}
