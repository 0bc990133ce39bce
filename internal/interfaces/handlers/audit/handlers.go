package audit

import (
	"context"

	"inmuebles-backend/internal/domain"
	"inmuebles-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Lister reads the audit trail, newest first.
type Lister interface {
	List(ctx context.Context, entityID string, limit int) ([]domain.AuditEvent, error)
}

type Handlers struct {
	Events Lister
}

// List GET /api/v1/admin/auditoria?entidad=&limite=
func (h *Handlers) List(c *fiber.Ctx) error {
	entity := c.Query("entidad")
	if entity != "" {
		id, err := uuid.Parse(entity)
		if err != nil {
			return response.FieldError(c, "entidad", "Identificador inválido.")
		}
		entity = id.String()
	}
	limit := c.QueryInt("limite", 0)
	if limit < 0 {
		return response.FieldError(c, "limite", "El límite debe ser positivo.")
	}
	events, err := h.Events.List(c.UserContext(), entity, limit)
	if err != nil {
		log.Error().Err(err).Str("entidad", entity).Msg("audit: list failed")
		return response.Error(c, "No se pudo cargar la auditoría.", fiber.StatusInternalServerError)
	}
	return response.Success(c, events)
}
