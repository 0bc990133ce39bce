package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin is a panel account (administradores). IsAdmin is the claim the
// session gate requires; an account with IsAdmin=false can authenticate but
// is never let through.
type Admin struct {
	UID          uuid.UUID `gorm:"column:uid;type:uuid;primaryKey" json:"uid"`
	Email        string    `gorm:"column:email;type:varchar(254);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Name         string    `gorm:"column:nombre" json:"nombre"`
	IsAdmin      bool      `gorm:"column:admin;not null;default:false" json:"admin"`
	CreatedAt    time.Time `gorm:"column:creado_en" json:"creadoEn"`
}

func (Admin) TableName() string {
	return "administradores"
}

func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	if a.UID == uuid.Nil {
		a.UID = uuid.New()
	}
	return nil
}
