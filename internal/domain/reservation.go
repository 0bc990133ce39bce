package domain

import "github.com/google/uuid"

// SlugReservation claims a slug for exactly one property. The primary key
// makes a second claim on the same slug fail at the database.
type SlugReservation struct {
	Slug       string    `gorm:"column:slug;type:varchar(100);primaryKey" json:"slug"`
	PropertyID uuid.UUID `gorm:"column:propiedad_id;type:uuid;not null;index" json:"propiedadId"`
}

func (SlugReservation) TableName() string {
	return "slug_unicos"
}

// CodeReservation claims an (uppercase) property code for exactly one property.
type CodeReservation struct {
	Code       string    `gorm:"column:codigo;type:varchar(30);primaryKey" json:"codigo"`
	PropertyID uuid.UUID `gorm:"column:propiedad_id;type:uuid;not null;index" json:"propiedadId"`
}

func (CodeReservation) TableName() string {
	return "codigo_unicos"
}
