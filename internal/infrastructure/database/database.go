package database

import (
	"errors"
	"strings"

	"inmuebles-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Postgres or a pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind PgBouncer-style poolers.
// TranslateError turns unique violations into gorm.ErrDuplicatedKey.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
}

// Models lists every table the service owns, in migration order.
func Models() []interface{} {
	return []interface{}{
		&domain.Property{},
		&domain.SlugReservation{},
		&domain.CodeReservation{},
		&domain.Lead{},
		&domain.AuditEvent{},
		&domain.Admin{},
	}
}

// AutoMigrate creates or updates the tables for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// IsDuplicateKey reports whether err is a unique/primary key violation, with
// or without error translation enabled on the dialector.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
