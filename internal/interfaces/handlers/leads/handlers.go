package leads

import (
	"context"

	leadsvc "inmuebles-backend/internal/application/leads"
	"inmuebles-backend/internal/domain"
	"inmuebles-backend/internal/middleware"
	"inmuebles-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// PropertyLookup resolves the public slug of a detail-page lead to the
// property it belongs to.
type PropertyLookup interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Property, error)
}

// Handlers holds dependencies for lead capture and the admin lead inbox.
type Handlers struct {
	Service    *leadsvc.Service
	Properties PropertyLookup
}

const createFailed = "No se pudo enviar tu mensaje. Inténtalo de nuevo."

// DetailForm POST /api/v1/propiedades/:slug/leads. The property is taken
// from the stored listing, never from the body.
func (h *Handlers) DetailForm(c *fiber.Ctx) error {
	var in leadsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Datos inválidos.", fiber.StatusBadRequest)
	}
	prop, err := h.Properties.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return response.FromError(c, err, createFailed)
	}
	lead, err := h.Service.Create(c.UserContext(), domain.OriginDetailForm, prop.Slug, prop.Code, in, "")
	if err != nil {
		return response.FromError(c, err, createFailed)
	}
	return response.SuccessCreated(c, fiber.Map{"id": lead.ID})
}

// Contact POST /api/v1/contacto
func (h *Handlers) Contact(c *fiber.Ctx) error {
	var in leadsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Datos inválidos.", fiber.StatusBadRequest)
	}
	lead, err := h.Service.Create(c.UserContext(), domain.OriginContactForm, "", "", in, "")
	if err != nil {
		return response.FromError(c, err, createFailed)
	}
	return response.SuccessCreated(c, fiber.Map{"id": lead.ID})
}

// ManualRequest is a lead typed in by an admin, optionally tied to a property.
type ManualRequest struct {
	leadsvc.CreateInput
	PropertySlug string `json:"slugPropiedad"`
	PropertyCode string `json:"codigoPropiedad"`
}

// List GET /api/v1/admin/leads?estado=
func (h *Handlers) List(c *fiber.Ctx) error {
	leads, err := h.Service.List(c.UserContext(), domain.LeadStatus(c.Query("estado")))
	if err != nil {
		return response.FromError(c, err, "No se pudieron cargar los leads.")
	}
	return response.Success(c, leads)
}

// Create POST /api/v1/admin/leads
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req ManualRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Datos inválidos.", fiber.StatusBadRequest)
	}
	lead, err := h.Service.Create(c.UserContext(), domain.OriginManualAdmin, req.PropertySlug, req.PropertyCode, req.CreateInput, middleware.AdminUID(c))
	if err != nil {
		return response.FromError(c, err, "No se pudo crear el lead.")
	}
	return response.SuccessCreated(c, lead)
}

// Update PATCH /api/v1/admin/leads/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.FromError(c, domain.ErrLeadNotFound, "")
	}
	var in leadsvc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Datos inválidos.", fiber.StatusBadRequest)
	}
	lead, err := h.Service.UpdateStatus(c.UserContext(), middleware.AdminUID(c), id, in)
	if err != nil {
		return response.FromError(c, err, "No se pudo actualizar el lead.")
	}
	return response.Success(c, lead)
}
