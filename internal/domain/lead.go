package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadOrigin says which form captured the lead.
type LeadOrigin string

const (
	OriginDetailForm  LeadOrigin = "formulario_detalle"
	OriginContactForm LeadOrigin = "formulario_contacto"
	OriginManualAdmin LeadOrigin = "manual_admin"
)

func (o LeadOrigin) Valid() bool {
	return o == OriginDetailForm || o == OriginContactForm || o == OriginManualAdmin
}

type LeadStatus string

const (
	LeadNew       LeadStatus = "nuevo"
	LeadContacted LeadStatus = "contactado"
	LeadQualified LeadStatus = "calificado"
	LeadClosed    LeadStatus = "cerrado"
	LeadDiscarded LeadStatus = "descartado"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadContacted, LeadQualified, LeadClosed, LeadDiscarded:
		return true
	}
	return false
}

// Lead is a prospective client inquiry (leads).
type Lead struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"column:nombre;not null" json:"nombre"`
	Phone        string     `gorm:"column:telefono;type:varchar(30);not null" json:"telefono"`
	Message      string     `gorm:"column:mensaje;type:text;not null" json:"mensaje"`
	Email        string     `gorm:"column:email;type:varchar(254)" json:"email,omitempty"`
	Notes        string     `gorm:"column:notas;type:text" json:"notas,omitempty"`
	Origin       LeadOrigin `gorm:"column:origen;type:varchar(30);not null;index" json:"origen"`
	PropertySlug string     `gorm:"column:slug_propiedad;type:varchar(100)" json:"slugPropiedad,omitempty"`
	PropertyCode string     `gorm:"column:codigo_propiedad;type:varchar(30)" json:"codigoPropiedad,omitempty"`
	Status       LeadStatus `gorm:"column:estado;type:varchar(20);not null;index" json:"estado"`
	CreatedAt    time.Time  `gorm:"column:creado_en;not null;index;autoCreateTime:false" json:"creadoEn"`
	UpdatedAt    time.Time  `gorm:"column:actualizado_en;not null;autoUpdateTime:false" json:"actualizadoEn"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
