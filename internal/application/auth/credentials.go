package auth

import (
	"context"
	"errors"
	"strings"

	"inmuebles-backend/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminFinder looks up an account by email and password.
type AdminFinder interface {
	FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.Admin, error)
}

// GormAdminFinder implements AdminFinder over the administradores table with bcrypt.
type GormAdminFinder struct{ DB *gorm.DB }

func (g *GormAdminFinder) FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var a domain.Admin
	if err := g.DB.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if a.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &a, nil
}

// HashPassword returns a bcrypt hash suitable for Admin.PasswordHash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
