package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditAction string

const (
	ActionPropertyCreated   AuditAction = "propiedad_creada"
	ActionPropertyEdited    AuditAction = "propiedad_editada"
	ActionPropertyDeleted   AuditAction = "propiedad_eliminada"
	ActionPropertyPublished AuditAction = "propiedad_publicada"
	ActionPropertyArchived  AuditAction = "propiedad_archivada"
	ActionImageDeleted      AuditAction = "imagen_eliminada"
	ActionLeadCreated       AuditAction = "lead_creado"
	ActionLeadUpdated       AuditAction = "lead_actualizado"
)

type EntityType string

const (
	EntityProperty EntityType = "propiedad"
	EntityLead     EntityType = "lead"
)

// AuditEvent is an append-only record of an admin action (auditoria).
type AuditEvent struct {
	ID          uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Action      AuditAction `gorm:"column:accion;type:varchar(40);not null;index" json:"accion"`
	EntityID    uuid.UUID   `gorm:"column:entidad_id;type:uuid;not null;index" json:"entidadId"`
	EntityType  EntityType  `gorm:"column:entidad_tipo;type:varchar(20);not null" json:"entidadTipo"`
	AdminUID    string      `gorm:"column:admin_uid;not null" json:"adminUid"`
	Description string      `gorm:"column:descripcion;type:text" json:"descripcion"`
	CreatedAt   time.Time   `gorm:"column:creado_en;not null;index" json:"creadoEn"`
}

func (AuditEvent) TableName() string {
	return "auditoria"
}

func (e *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
