package properties

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inmuebles-backend/internal/application/gallery"
	"inmuebles-backend/internal/domain"
	"inmuebles-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdminListLimit caps the admin listing.
const AdminListLimit = 500

// serverManaged are the columns Update never writes; ChangeStatus and
// RegisterView own them.
var serverManaged = []string{"estado_publicacion", "vistas", "creado_en", "publicado_en"}

// AuditRecorder receives best-effort audit events.
type AuditRecorder interface {
	Record(ev domain.AuditEvent)
}

// BlobStore is the part of object storage needed to delete gallery images.
type BlobStore interface {
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, error)
}

// Service owns the property documents and the slug/code reservations.
type Service struct {
	DB      *gorm.DB
	Storage BlobStore
	Audit   AuditRecorder
	Now     func() time.Time
}

// SaveResult is returned by Create and Update.
type SaveResult struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) record(action domain.AuditAction, id uuid.UUID, adminUID, description string) {
	if s.Audit == nil {
		return
	}
	s.Audit.Record(domain.AuditEvent{
		Action:      action,
		EntityID:    id,
		EntityType:  domain.EntityProperty,
		AdminUID:    adminUID,
		Description: description,
		CreatedAt:   s.now(),
	})
}

// Create validates in, reserves its slug and code and writes a new draft
// property, all in one transaction. Either everything is written or nothing.
func (s *Service) Create(ctx context.Context, adminUID string, in PropertyInput) (*SaveResult, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	prop := domain.Property{
		ID:        uuid.New(),
		Status:    domain.StatusDraft,
		Views:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(&prop)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := slugOwner(tx, prop.Slug)
		if err != nil {
			return err
		}
		if owner != uuid.Nil {
			return domain.ErrSlugTaken
		}
		owner, err = codeOwner(tx, prop.Code)
		if err != nil {
			return err
		}
		if owner != uuid.Nil {
			return domain.ErrCodeTaken
		}
		if err := reserveSlug(tx, prop.Slug, prop.ID); err != nil {
			return err
		}
		if err := reserveCode(tx, prop.Code, prop.ID); err != nil {
			return err
		}
		return tx.Create(&prop).Error
	})
	if err != nil {
		return nil, s.wrap("create", prop.Slug, err)
	}

	s.record(domain.ActionPropertyCreated, prop.ID, adminUID, fmt.Sprintf("Propiedad creada: %s (%s)", prop.Slug, prop.Code))
	return &SaveResult{ID: prop.ID, Slug: prop.Slug}, nil
}

// Update replaces the editable fields of property id. The previous slug and
// code are read from the stored document inside the transaction; only a
// changed pair touches the reservations. The row is locked for the length of
// the transaction and the server-managed columns are never written.
func (s *Service) Update(ctx context.Context, adminUID string, id uuid.UUID, in UpdateInput) (*SaveResult, error) {
	in.normalize()
	if err := in.PropertyInput.validate(); err != nil {
		return nil, err
	}

	var saved domain.Property
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.Property
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPropertyNotFound
			}
			return err
		}
		s.checkHints(id, current, in)

		if in.Slug != current.Slug {
			owner, err := slugOwner(tx, in.Slug)
			if err != nil {
				return err
			}
			if owner != uuid.Nil && owner != id {
				return domain.ErrSlugTaken
			}
			if err := tx.Where("slug = ? AND propiedad_id = ?", current.Slug, id).Delete(&domain.SlugReservation{}).Error; err != nil {
				return err
			}
			if owner == uuid.Nil {
				if err := reserveSlug(tx, in.Slug, id); err != nil {
					return err
				}
			}
		}
		if in.Code != current.Code {
			owner, err := codeOwner(tx, in.Code)
			if err != nil {
				return err
			}
			if owner != uuid.Nil && owner != id {
				return domain.ErrCodeTaken
			}
			if err := tx.Where("codigo = ? AND propiedad_id = ?", current.Code, id).Delete(&domain.CodeReservation{}).Error; err != nil {
				return err
			}
			if owner == uuid.Nil {
				if err := reserveCode(tx, in.Code, id); err != nil {
					return err
				}
			}
		}

		saved = current
		in.apply(&saved)
		saved.UpdatedAt = s.now()
		return tx.Omit(serverManaged...).Save(&saved).Error
	})
	if err != nil {
		return nil, s.wrap("update", in.Slug, err)
	}

	s.record(domain.ActionPropertyEdited, id, adminUID, fmt.Sprintf("Propiedad editada: %s (%s)", saved.Slug, saved.Code))
	return &SaveResult{ID: id, Slug: saved.Slug}, nil
}

// checkHints logs when the client's idea of the previous slug/code disagrees
// with the stored document, which means the form was stale.
func (s *Service) checkHints(id uuid.UUID, current domain.Property, in UpdateInput) {
	if hint := NormalizeSlug(in.PreviousSlug); hint != "" && hint != current.Slug {
		log.Warn().Str("propiedad_id", id.String()).Str("slug_anterior", hint).Str("slug_actual", current.Slug).
			Msg("properties: stale previous slug from client, using stored value")
	}
	if hint := NormalizeCode(in.PreviousCode); hint != "" && hint != current.Code {
		log.Warn().Str("propiedad_id", id.String()).Str("codigo_anterior", hint).Str("codigo_actual", current.Code).
			Msg("properties: stale previous code from client, using stored value")
	}
}

// SlugAvailable reports whether slug is free or already reserved by currentID.
func (s *Service) SlugAvailable(ctx context.Context, slug string, currentID uuid.UUID) (bool, error) {
	slug = NormalizeSlug(slug)
	if slug == "" {
		return false, domain.NewValidationError("slug", "El slug es obligatorio.")
	}
	owner, err := slugOwner(s.DB.WithContext(ctx), slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("properties: slug availability check failed")
		return false, err
	}
	return owner == uuid.Nil || (currentID != uuid.Nil && owner == currentID), nil
}

// ChangeStatus moves a property to status. The first move to activo stamps
// publicadoEn; later ones keep it.
func (s *Service) ChangeStatus(ctx context.Context, adminUID string, id uuid.UUID, status domain.PublicationStatus) (*domain.Property, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("estadoPublicacion", "Estado de publicación inválido.")
	}
	var prop domain.Property
	var previous domain.PublicationStatus
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&prop).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPropertyNotFound
			}
			return err
		}
		previous = prop.Status
		now := s.now()
		updates := map[string]interface{}{
			"estado_publicacion": status,
			"actualizado_en":     now,
		}
		if status == domain.StatusActive && prop.PublishedAt == nil {
			updates["publicado_en"] = now
			prop.PublishedAt = &now
		}
		prop.Status = status
		prop.UpdatedAt = now
		return tx.Model(&domain.Property{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, s.wrap("change status", id.String(), err)
	}

	action := domain.ActionPropertyArchived
	if status == domain.StatusActive {
		action = domain.ActionPropertyPublished
	}
	s.record(action, id, adminUID, fmt.Sprintf("Estado %s → %s: %s", previous, status, prop.Slug))
	return &prop, nil
}

// RegisterView atomically bumps vistas on an active property. Missing or
// unpublished slugs are ignored.
func (s *Service) RegisterView(ctx context.Context, slug string) error {
	err := s.DB.WithContext(ctx).Model(&domain.Property{}).
		Where("slug = ? AND estado_publicacion = ?", NormalizeSlug(slug), domain.StatusActive).
		UpdateColumn("vistas", gorm.Expr("vistas + ?", 1)).Error
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("properties: failed to register view")
	}
	return err
}

// GetBySlug returns the active property with slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Property, error) {
	var p domain.Property
	err := s.DB.WithContext(ctx).
		Where("slug = ? AND estado_publicacion = ?", NormalizeSlug(slug), domain.StatusActive).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAdmin returns a property in any state.
func (s *Service) GetAdmin(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	var p domain.Property
	err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAdmin returns every property, most recently updated first.
func (s *Service) ListAdmin(ctx context.Context) ([]domain.Property, error) {
	var out []domain.Property
	err := s.DB.WithContext(ctx).Order("actualizado_en DESC").Limit(AdminListLimit).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddImages appends freshly uploaded URLs to the gallery. cover is used only
// when the property has no cover yet. URLs that would push the gallery past
// gallery.MaxImages are not stored; their blobs are deleted best-effort and
// they are returned as dropped.
func (s *Service) AddImages(ctx context.Context, adminUID string, id uuid.UUID, urls []string, cover string) (*domain.Property, []string, error) {
	var prop domain.Property
	var dropped []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dropped = nil
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&prop).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPropertyNotFound
			}
			return err
		}
		images := append([]string{}, prop.Images...)
		for _, u := range urls {
			if u == "" || contains(images, u) {
				continue
			}
			if len(images) >= gallery.MaxImages {
				dropped = append(dropped, u)
				continue
			}
			images = append(images, u)
		}
		if prop.CoverImage == "" {
			if contains(images, cover) {
				prop.CoverImage = cover
			} else if len(images) > 0 {
				prop.CoverImage = images[0]
			}
		}
		prop.Images = datatypes.JSONSlice[string](images)
		prop.UpdatedAt = s.now()
		return tx.Model(&domain.Property{}).Where("id = ?", id).Updates(map[string]interface{}{
			"imagenes":         prop.Images,
			"imagen_principal": prop.CoverImage,
			"actualizado_en":   prop.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, nil, s.wrap("add images", id.String(), err)
	}
	if len(dropped) > 0 {
		log.Info().Str("propiedad_id", id.String()).Int("descartadas", len(dropped)).
			Msg("properties: gallery full, extra images not stored")
		s.discard(ctx, id, dropped)
	}
	return &prop, dropped, nil
}

func (s *Service) discard(ctx context.Context, id uuid.UUID, urls []string) {
	if s.Storage == nil {
		return
	}
	for _, u := range urls {
		key, err := s.Storage.KeyFromURL(u)
		if err == nil {
			err = s.Storage.Delete(ctx, key)
		}
		if err != nil {
			log.Warn().Err(err).Str("propiedad_id", id.String()).Str("url", u).Msg("properties: could not delete dropped image")
		}
	}
}

// DeleteImage removes a persisted gallery image in two phases: the blob
// first, then the document. A storage failure leaves the document untouched
// (ErrStorageDelete). A document failure after the blob is gone returns
// ErrImageOrphaned so the admin knows to re-save the form.
func (s *Service) DeleteImage(ctx context.Context, adminUID string, id uuid.UUID, url string) (*domain.Property, error) {
	if url == "" {
		return nil, domain.NewValidationError("url", "La URL de la imagen es obligatoria.")
	}
	current, err := s.GetAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.HasImage(url) {
		return nil, domain.ErrImageNotInProperty
	}
	if s.Storage == nil {
		return nil, domain.ErrStorageDelete
	}
	key, err := s.Storage.KeyFromURL(url)
	if err != nil {
		return nil, domain.NewValidationError("url", "La URL de la imagen no es válida.")
	}
	if err := s.Storage.Delete(ctx, key); err != nil {
		log.Error().Err(err).Str("propiedad_id", id.String()).Str("key", key).Msg("properties: storage delete failed")
		return nil, fmt.Errorf("%w (%v)", domain.ErrStorageDelete, err)
	}

	var prop domain.Property
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&prop).Error; err != nil {
			return err
		}
		remaining := make([]string, 0, len(prop.Images))
		for _, img := range prop.Images {
			if img != url {
				remaining = append(remaining, img)
			}
		}
		prop.Images = datatypes.JSONSlice[string](remaining)
		if prop.CoverImage == url {
			prop.CoverImage = ""
		}
		prop.UpdatedAt = s.now()
		return tx.Model(&domain.Property{}).Where("id = ?", id).Updates(map[string]interface{}{
			"imagenes":         prop.Images,
			"imagen_principal": prop.CoverImage,
			"actualizado_en":   prop.UpdatedAt,
		}).Error
	})
	if err != nil {
		log.Error().Err(err).Str("propiedad_id", id.String()).Str("url", url).
			Msg("properties: image deleted from storage but document update failed")
		return nil, fmt.Errorf("%w (%v)", domain.ErrImageOrphaned, err)
	}

	s.record(domain.ActionImageDeleted, id, adminUID, "Imagen eliminada: "+key)
	return &prop, nil
}

// wrap passes domain errors through and logs anything else.
func (s *Service) wrap(op, ref string, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrSlugTaken), errors.Is(err, domain.ErrCodeTaken),
		errors.Is(err, domain.ErrPropertyNotFound), errors.As(err, &verr):
		return err
	}
	log.Error().Err(err).Str("op", op).Str("ref", ref).Msg("properties: operation failed")
	return fmt.Errorf("properties: %s: %w", op, err)
}

func slugOwner(tx *gorm.DB, slug string) (uuid.UUID, error) {
	var r domain.SlugReservation
	err := tx.Where("slug = ?", slug).Limit(1).Find(&r).Error
	if err != nil {
		return uuid.Nil, err
	}
	return r.PropertyID, nil
}

func codeOwner(tx *gorm.DB, code string) (uuid.UUID, error) {
	var r domain.CodeReservation
	err := tx.Where("codigo = ?", code).Limit(1).Find(&r).Error
	if err != nil {
		return uuid.Nil, err
	}
	return r.PropertyID, nil
}

// reserveSlug inserts the reservation row. A concurrent writer that got there
// first shows up as a duplicate key and is reported as the conflict.
func reserveSlug(tx *gorm.DB, slug string, id uuid.UUID) error {
	err := tx.Create(&domain.SlugReservation{Slug: slug, PropertyID: id}).Error
	if database.IsDuplicateKey(err) {
		return domain.ErrSlugTaken
	}
	return err
}

func reserveCode(tx *gorm.DB, code string, id uuid.UUID) error {
	err := tx.Create(&domain.CodeReservation{Code: code, PropertyID: id}).Error
	if database.IsDuplicateKey(err) {
		return domain.ErrCodeTaken
	}
	return err
}
