package properties

import (
	"context"
	"fmt"
	"io"

	"inmuebles-backend/internal/application/catalog"
	"inmuebles-backend/internal/application/gallery"
	propsvc "inmuebles-backend/internal/application/properties"
	"inmuebles-backend/internal/domain"
	"inmuebles-backend/internal/middleware"
	"inmuebles-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxUploadFileSize bounds one multipart image before recompression.
const MaxUploadFileSize = 20 << 20

// Handlers holds dependencies for the public catalog and the admin property endpoints.
type Handlers struct {
	Service  *propsvc.Service
	Catalog  *catalog.Service
	Uploader gallery.Uploader
	// Compress overrides gallery.Compress (tests).
	Compress func([]byte) ([]byte, error)
}

// Search GET /api/v1/propiedades: public catalog with query-string filters.
func (h *Handlers) Search(c *fiber.Ctx) error {
	criteria := catalog.ParseCriteria(func(key string) string { return c.Query(key) })
	props, err := h.Catalog.Search(c.UserContext(), criteria)
	if err != nil {
		return response.Error(c, "No se pudieron cargar las propiedades.", fiber.StatusInternalServerError)
	}
	return response.Success(c, fiber.Map{
		"propiedades": catalog.Listings(props, criteria.Currency),
		"total":       len(props),
		"moneda":      criteria.Currency,
		"orden":       criteria.Sort,
	})
}

// Detail GET /api/v1/propiedades/:slug: an active property; counts one view.
func (h *Handlers) Detail(c *fiber.Ctx) error {
	prop, err := h.Service.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return response.FromError(c, err, "No se pudo cargar la propiedad.")
	}
	if err := h.Service.RegisterView(c.UserContext(), prop.Slug); err == nil {
		prop.Views++
	}
	return response.Success(c, prop)
}

// List GET /api/v1/admin/propiedades: every property, any state.
func (h *Handlers) List(c *fiber.Ctx) error {
	props, err := h.Service.ListAdmin(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("properties: admin list failed")
		return response.Error(c, "No se pudieron cargar las propiedades.", fiber.StatusInternalServerError)
	}
	return response.Success(c, props)
}

// SlugAvailable GET /api/v1/admin/propiedades/slug-disponible?slug=&id=
func (h *Handlers) SlugAvailable(c *fiber.Ctx) error {
	var current uuid.UUID
	if raw := c.Query("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.FieldError(c, "id", "Identificador inválido.")
		}
		current = id
	}
	ok, err := h.Service.SlugAvailable(c.UserContext(), c.Query("slug"), current)
	if err != nil {
		return response.FromError(c, err, "No se pudo verificar el slug.")
	}
	return response.Success(c, fiber.Map{"disponible": ok})
}

// Create POST /api/v1/admin/propiedades
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in propsvc.PropertyInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Datos inválidos.", fiber.StatusBadRequest)
	}
	res, err := h.Service.Create(c.UserContext(), middleware.AdminUID(c), in)
	if err != nil {
		return response.FromError(c, err, response.GenericMessage)
	}
	return response.SuccessCreated(c, res)
}

// Get GET /api/v1/admin/propiedades/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.FromError(c, domain.ErrPropertyNotFound, "")
	}
	prop, err := h.Service.GetAdmin(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, "No se pudo cargar la propiedad.")
	}
	return response.Success(c, prop)
}

// Update PUT /api/v1/admin/propiedades/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.FromError(c, domain.ErrPropertyNotFound, "")
	}
	var in propsvc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Datos inválidos.", fiber.StatusBadRequest)
	}
	res, err := h.Service.Update(c.UserContext(), middleware.AdminUID(c), id, in)
	if err != nil {
		return response.FromError(c, err, response.GenericMessage)
	}
	return response.Success(c, res)
}

// StatusRequest body for ChangeStatus.
type StatusRequest struct {
	Status domain.PublicationStatus `json:"estadoPublicacion"`
}

// ChangeStatus PATCH /api/v1/admin/propiedades/:id/estado
func (h *Handlers) ChangeStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.FromError(c, domain.ErrPropertyNotFound, "")
	}
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Datos inválidos.", fiber.StatusBadRequest)
	}
	prop, err := h.Service.ChangeStatus(c.UserContext(), middleware.AdminUID(c), id, req.Status)
	if err != nil {
		return response.FromError(c, err, "No se pudo cambiar el estado.")
	}
	return response.Success(c, prop)
}

// UploadImages POST /api/v1/admin/propiedades/:id/imagenes (multipart "imagenes").
// Files beyond the gallery cap are dropped, including ones that lost the race
// to a concurrent upload; each accepted file is reported with its own outcome.
func (h *Handlers) UploadImages(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.FromError(c, domain.ErrPropertyNotFound, "")
	}
	if h.Uploader == nil {
		return response.Error(c, "El almacenamiento de imágenes no está configurado.", fiber.StatusServiceUnavailable)
	}
	form, err := c.MultipartForm()
	if err != nil || len(form.File["imagenes"]) == 0 {
		return response.FieldError(c, "imagenes", "Selecciona al menos una imagen.")
	}

	prop, err := h.Service.GetAdmin(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, "No se pudo cargar la propiedad.")
	}

	files := make([]gallery.File, 0, len(form.File["imagenes"]))
	for _, fh := range form.File["imagenes"] {
		if fh.Size > MaxUploadFileSize {
			return response.FieldError(c, "imagenes", fmt.Sprintf("La imagen %s supera el tamaño máximo de 20 MB.", fh.Filename))
		}
		f, err := fh.Open()
		if err != nil {
			return response.Error(c, "No se pudo leer la imagen.", fiber.StatusBadRequest)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return response.Error(c, "No se pudo leer la imagen.", fiber.StatusBadRequest)
		}
		files = append(files, gallery.File{Name: fh.Filename, Data: data})
	}

	g := gallery.New(gallery.Config{
		Storage:  h.Uploader,
		Code:     prop.Code,
		Existing: prop.Images,
		Cover:    prop.CoverImage,
		Compress: h.Compress,
	})
	accepted := g.Add(c.UserContext(), files)
	g.Wait()

	discarded := len(files) - len(accepted)
	results, uploaded := outcomes(g.Snapshot(), accepted)
	if len(uploaded) > 0 {
		updated, dropped, err := h.Service.AddImages(context.WithoutCancel(c.UserContext()), middleware.AdminUID(c), id, uploaded, g.Cover())
		if err != nil {
			return response.FromError(c, err, "Imágenes subidas, pero no se pudo actualizar la propiedad. Guarda el formulario para sincronizar.")
		}
		prop = updated
		discarded += len(dropped)
	}
	return response.Success(c, fiber.Map{
		"propiedad":   prop,
		"imagenes":    results,
		"descartadas": discarded,
	})
}

// outcomes returns the final state of the accepted entries and the URLs of
// those that finished.
func outcomes(snap gallery.Snapshot, accepted []gallery.Entry) ([]gallery.Entry, []string) {
	byID := make(map[string]gallery.Entry, len(snap.Entries))
	for _, e := range snap.Entries {
		byID[e.ID] = e
	}
	results := make([]gallery.Entry, 0, len(accepted))
	var urls []string
	for _, a := range accepted {
		e, ok := byID[a.ID]
		if !ok {
			continue
		}
		results = append(results, e)
		if e.State == gallery.StateDone {
			urls = append(urls, e.URL)
		}
	}
	return results, urls
}

// DeleteImageRequest body for DeleteImage.
type DeleteImageRequest struct {
	URL string `json:"url"`
}

// DeleteImage DELETE /api/v1/admin/propiedades/:id/imagenes removes a
// persisted image from storage and then from the document.
func (h *Handlers) DeleteImage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.FromError(c, domain.ErrPropertyNotFound, "")
	}
	var req DeleteImageRequest
	_ = c.BodyParser(&req)
	if req.URL == "" {
		req.URL = c.Query("url")
	}
	prop, err := h.Service.DeleteImage(c.UserContext(), middleware.AdminUID(c), id, req.URL)
	if err != nil {
		return response.FromError(c, err, "No se pudo eliminar la imagen.")
	}
	return response.Success(c, prop)
}
