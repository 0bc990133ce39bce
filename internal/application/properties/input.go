package properties

import (
	"strings"

	"inmuebles-backend/internal/domain"
	"inmuebles-backend/internal/pkg/slug"
	"inmuebles-backend/internal/pkg/validation"

	"gorm.io/datatypes"
)

// PropertyInput is the editable part of a property as submitted by the admin
// form. Server-managed fields (estado, vistas, timestamps) are not accepted.
type PropertyInput struct {
	Slug         string              `json:"slug" validate:"required,max=100"`
	Code         string              `json:"codigoPropiedad" validate:"required,max=30"`
	Title        string              `json:"titulo" validate:"required,min=5,max=200"`
	Description  string              `json:"descripcion" validate:"max=20000"`
	Type         domain.PropertyType `json:"tipo" validate:"required,oneof=casa apartamento apartaestudio finca local oficina terreno bodega"`
	BusinessMode domain.BusinessMode `json:"modoNegocio" validate:"required,oneof=venta alquiler venta_alquiler"`
	Condition    domain.Condition    `json:"condicion" validate:"required,oneof=nuevo usado sobre_planos"`
	Price        domain.Price        `json:"precio"`
	Location     domain.Location     `json:"ubicacion"`
	Features     domain.Features     `json:"caracteristicas"`
	Images       []string            `json:"imagenes" validate:"max=40,dive,required,url"`
	CoverImage   string              `json:"imagenPrincipal" validate:"omitempty,url"`
	VirtualTour  string              `json:"tourVirtual" validate:"omitempty,url"`
	VideoURL     string              `json:"videoUrl" validate:"omitempty,url"`
	SEO          *domain.SEO         `json:"seo"`
	Agent        *domain.Agent       `json:"agente"`
	Featured     bool                `json:"destacado"`
	Tags         []string            `json:"tags" validate:"max=30,dive,max=40"`
}

// UpdateInput carries the client's view of the previous slug and code. They
// are hints only: the stored document is the source of truth.
type UpdateInput struct {
	PropertyInput
	PreviousSlug string `json:"slugAnterior"`
	PreviousCode string `json:"codigoAnterior"`
}

var messages = validation.Messages{
	"slug":                    "El slug es obligatorio (máximo 100 caracteres).",
	"codigoPropiedad":         "El código de propiedad es obligatorio (máximo 30 caracteres).",
	"titulo":                  "El título es inválido (5–200 caracteres).",
	"precio.valor":            "El precio debe ser mayor a 0.",
	"precio.moneda":           "La moneda debe ser COP, USD o EUR.",
	"caracteristicas.estrato": "El estrato debe estar entre 1 y 6.",
	"imagenes":                "Máximo 40 imágenes por propiedad.",
}

// NormalizeSlug trims and lowercases a slug.
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeCode trims and uppercases a property code.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalize trims the free-text fields. An empty slug is derived from the title.
func (in *PropertyInput) normalize() {
	in.Slug = NormalizeSlug(in.Slug)
	in.Code = NormalizeCode(in.Code)
	in.Title = strings.TrimSpace(in.Title)
	if in.Slug == "" {
		in.Slug = slug.Generate(in.Title)
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Location.City = strings.TrimSpace(in.Location.City)
	in.CoverImage = strings.TrimSpace(in.CoverImage)
	in.Images = dedupe(in.Images)
	if in.CoverImage == "" && len(in.Images) > 0 {
		in.CoverImage = in.Images[0]
	}
}

func (in *PropertyInput) validate() error {
	if err := validation.Struct(in, messages); err != nil {
		return err
	}
	if slug.Generate(in.Slug) != in.Slug {
		return domain.NewValidationError("slug", "El slug solo admite letras minúsculas sin tildes, números y guiones.")
	}
	if in.CoverImage != "" && !contains(in.Images, in.CoverImage) {
		return domain.NewValidationError("imagenPrincipal", "La imagen principal debe estar en la galería.")
	}
	return nil
}

// apply copies the editable fields onto p.
func (in *PropertyInput) apply(p *domain.Property) {
	p.Slug = in.Slug
	p.Code = in.Code
	p.Title = in.Title
	p.Description = in.Description
	p.Type = in.Type
	p.BusinessMode = in.BusinessMode
	p.Condition = in.Condition
	p.Price = in.Price
	p.Location = in.Location
	p.Features = in.Features
	if p.Features.Amenities == nil {
		p.Features.Amenities = datatypes.JSONSlice[string]{}
	}
	p.Images = datatypes.JSONSlice[string](orEmpty(in.Images))
	p.CoverImage = in.CoverImage
	p.VirtualTour = in.VirtualTour
	p.VideoURL = in.VideoURL
	p.SEO = in.SEO
	p.Agent = in.Agent
	p.Featured = in.Featured
	p.Tags = datatypes.JSONSlice[string](orEmpty(in.Tags))
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
