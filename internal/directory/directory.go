// Package directory resolves stable user identifiers to contact and
// profile information and back. Assignment is expressed externally as an
// email address but stored as the user's identifier, so the task service
// goes through the directory on every read and write.
package directory

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskhub-dev/taskhub/internal/models"
)

// Directory is the read-only identity lookup the task service depends on.
// Both lookups return (nil, nil) when no user matches; whether absence is
// an error is for the caller to decide.
type Directory interface {
	ResolveByEmail(email string) (*models.User, error)
	ResolveByID(id uuid.UUID) (*models.User, error)
}

type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) ResolveByEmail(email string) (*models.User, error) {
	var user models.User

	err := d.db.Where("email = ?", email).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (d *GormDirectory) ResolveByID(id uuid.UUID) (*models.User, error) {
	var user models.User

	err := d.db.Where("id = ?", id).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}
