package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/backend/internal/domain/property"
	"github.com/propflow/backend/internal/domain/shared"
	"github.com/propflow/backend/internal/infrastructure/persistence/models"
)

// GormPropertyDirectory implements property.Directory and
// property.OwnerDirectory over the properties read model
type GormPropertyDirectory struct {
	db *gorm.DB
}

// NewGormPropertyDirectory creates a new GORM property directory
func NewGormPropertyDirectory(db *gorm.DB) *GormPropertyDirectory {
	return &GormPropertyDirectory{db: db}
}

// FindByID returns the property info
func (d *GormPropertyDirectory) FindByID(ctx context.Context, id uuid.UUID) (*property.Info, error) {
	var model models.PropertyModel
	if err := d.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToInfo(), nil
}

// OwnerOf returns the current owner of the property. Properties without an
// owner on record resolve to shared.ErrNotFound: a payment cannot be
// beneficiary-checked against nobody.
func (d *GormPropertyDirectory) OwnerOf(ctx context.Context, propertyID uuid.UUID) (*property.Owner, error) {
	var model models.PropertyModel
	if err := d.db.WithContext(ctx).First(&model, "id = ?", propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if model.OwnerID == nil {
		return nil, shared.ErrNotFound
	}
	return &property.Owner{ID: *model.OwnerID, Name: model.OwnerName}, nil
}
