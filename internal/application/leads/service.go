// Package leads captures prospective-client inquiries from the public forms
// and the admin panel, and lets admins track their follow-up.
package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inmuebles-backend/internal/domain"
	"inmuebles-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"gorm.io/gorm"
)

// ListLimit caps the admin listing.
const ListLimit = 500

const notifyTimeout = 15 * time.Second

// AuditRecorder receives best-effort audit events.
type AuditRecorder interface {
	Record(ev domain.AuditEvent)
}

// Notifier tells the office about a new lead. Nil = no-op.
type Notifier interface {
	NotifyNewLead(ctx context.Context, lead domain.Lead) error
}

type Service struct {
	DB       *gorm.DB
	Audit    AuditRecorder
	Notifier Notifier
	Now      func() time.Time

	wg conc.WaitGroup
}

// CreateInput is what the visitor (or admin) types in.
type CreateInput struct {
	Name    string `json:"nombre" validate:"required,max=120"`
	Phone   string `json:"telefono" validate:"required,min=6,max=30"`
	Message string `json:"mensaje" validate:"required,max=1000"`
	Email   string `json:"email" validate:"omitempty,max=254,looseemail"`
	Notes   string `json:"notas" validate:"max=2000"`
}

var createMessages = validation.Messages{
	"nombre":   "Nombre inválido.",
	"telefono": "Teléfono inválido.",
	"mensaje":  "Mensaje inválido.",
	"email":    "Email inválido.",
	"notas":    "Las notas admiten máximo 2000 caracteres.",
}

// UpdateInput changes the follow-up state of a lead. Nil fields are kept.
type UpdateInput struct {
	Status *domain.LeadStatus `json:"estado"`
	Notes  *string            `json:"notas" validate:"omitempty,max=2000"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create stores one lead in state nuevo. slug and code identify the property
// for formulario_detalle and must come from the server, never the visitor;
// formulario_contacto leads carry no property. manual_admin requires adminUID.
func (s *Service) Create(ctx context.Context, origin domain.LeadOrigin, slug, code string, in CreateInput, adminUID string) (*domain.Lead, error) {
	if !origin.Valid() {
		return nil, domain.NewValidationError("origen", "Origen de lead inválido.")
	}
	if origin == domain.OriginManualAdmin && adminUID == "" {
		return nil, domain.ErrUnauthorized
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = strings.TrimSpace(in.Message)
	in.Email = strings.TrimSpace(in.Email)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validation.Struct(&in, createMessages); err != nil {
		return nil, err
	}

	slug = strings.TrimSpace(slug)
	code = strings.TrimSpace(code)
	switch origin {
	case domain.OriginDetailForm:
		if slug == "" || code == "" {
			return nil, domain.NewValidationError("propiedad", "Propiedad no identificada.")
		}
	case domain.OriginContactForm:
		slug, code = "", ""
	}

	now := s.now()
	lead := domain.Lead{
		ID:           uuid.New(),
		Name:         in.Name,
		Phone:        in.Phone,
		Message:      in.Message,
		Email:        in.Email,
		Notes:        in.Notes,
		Origin:       origin,
		PropertySlug: slug,
		PropertyCode: code,
		Status:       domain.LeadNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.DB.WithContext(ctx).Create(&lead).Error; err != nil {
		log.Error().Err(err).Str("origen", string(origin)).Str("slug", slug).Msg("leads: failed to create lead")
		return nil, fmt.Errorf("leads: create: %w", err)
	}

	if origin == domain.OriginManualAdmin {
		s.record(domain.ActionLeadCreated, lead.ID, adminUID, fmt.Sprintf("Creó lead manual: %s (%s)", lead.Name, lead.Phone))
	}
	s.notify(lead)
	return &lead, nil
}

// UpdateStatus changes estado and/or notas of a lead.
func (s *Service) UpdateStatus(ctx context.Context, adminUID string, id uuid.UUID, in UpdateInput) (*domain.Lead, error) {
	if adminUID == "" {
		return nil, domain.ErrUnauthorized
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, domain.NewValidationError("estado", "Estado de lead inválido.")
	}
	if in.Notes != nil {
		trimmed := strings.TrimSpace(*in.Notes)
		in.Notes = &trimmed
	}
	if err := validation.Struct(&in, createMessages); err != nil {
		return nil, err
	}

	var lead domain.Lead
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&lead).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLeadNotFound
			}
			return err
		}
		updates := map[string]interface{}{"actualizado_en": s.now()}
		if in.Status != nil {
			updates["estado"] = *in.Status
		}
		if in.Notes != nil {
			updates["notas"] = *in.Notes
		}
		if err := tx.Model(&domain.Lead{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Take(&lead).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrLeadNotFound) {
			return nil, err
		}
		log.Error().Err(err).Str("lead_id", id.String()).Msg("leads: failed to update lead")
		return nil, fmt.Errorf("leads: update: %w", err)
	}

	s.record(domain.ActionLeadUpdated, id, adminUID, fmt.Sprintf("Actualizó lead %s: estado %s", lead.Name, lead.Status))
	return &lead, nil
}

// List returns leads newest first, optionally only those in status.
func (s *Service) List(ctx context.Context, status domain.LeadStatus) ([]domain.Lead, error) {
	q := s.DB.WithContext(ctx).Order("creado_en DESC").Limit(ListLimit)
	if status != "" {
		if !status.Valid() {
			return nil, domain.NewValidationError("estado", "Estado de lead inválido.")
		}
		q = q.Where("estado = ?", status)
	}
	var out []domain.Lead
	if err := q.Find(&out).Error; err != nil {
		log.Error().Err(err).Msg("leads: failed to list leads")
		return nil, fmt.Errorf("leads: list: %w", err)
	}
	return out, nil
}

// Wait blocks until pending notifications have been sent.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) notify(lead domain.Lead) {
	if s.Notifier == nil {
		return
	}
	s.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.Notifier.NotifyNewLead(ctx, lead); err != nil {
			log.Warn().Err(err).Str("lead_id", lead.ID.String()).Msg("leads: notification email failed")
		}
	})
}

func (s *Service) record(action domain.AuditAction, id uuid.UUID, adminUID, description string) {
	if s.Audit == nil {
		return
	}
	s.Audit.Record(domain.AuditEvent{
		Action:      action,
		EntityID:    id,
		EntityType:  domain.EntityLead,
		AdminUID:    adminUID,
		Description: description,
		CreatedAt:   s.now(),
	})
}
