package response

import (
	"github.com/gofiber/fiber/v2"
)

// SuccessBody is the success envelope: {"ok":true,"data":...}.
type SuccessBody struct {
	OK   bool        `json:"ok"`
	Data interface{} `json:"data,omitempty"`
}

// ErrorBody is the failure envelope: {"ok":false,"error":"..."}. Field and
// Code are set only for validation and conflict errors.
type ErrorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Code  string `json:"code,omitempty"`
}

// UnauthorizedMessage is the only text a rejected caller ever sees.
const UnauthorizedMessage = "No autorizado."

// GenericMessage is returned for unexpected failures.
const GenericMessage = "Error al guardar la propiedad. Inténtalo de nuevo."

// Success sends 200 with data.
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(SuccessBody{OK: true, Data: data})
}

// SuccessCreated sends 201 with data.
func SuccessCreated(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(SuccessBody{OK: true, Data: data})
}

// Error sends statusCode with the failure envelope.
func Error(c *fiber.Ctx, message string, statusCode int) error {
	return c.Status(statusCode).JSON(ErrorBody{OK: false, Error: message})
}

// FieldError sends 400 naming the offending field.
func FieldError(c *fiber.Ctx, field, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorBody{OK: false, Error: message, Field: field})
}

// Conflict sends statusCode with a stable machine code next to the message.
func Conflict(c *fiber.Ctx, code, message string, statusCode int) error {
	return c.Status(statusCode).JSON(ErrorBody{OK: false, Error: message, Code: code})
}

// Unauthorized sends 401 with the fixed message; the reason is never exposed.
func Unauthorized(c *fiber.Ctx) error {
	return Error(c, UnauthorizedMessage, fiber.StatusUnauthorized)
}
