package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propflow/backend/internal/domain/property"
)

// PropertyModel is the read model the payment engine consults for property
// and owner lookups. The rows are maintained by the surrounding property
// management application; the engine never writes them.
type PropertyModel struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key"`
	Name           string           `gorm:"type:varchar(200);not null"`
	CommissionRate *decimal.Decimal `gorm:"type:decimal(9,4)"`
	BlockID        *uuid.UUID       `gorm:"type:uuid;index"`
	IsBlock        bool             `gorm:"not null;default:false"`
	OwnerID        *uuid.UUID       `gorm:"type:uuid;index"`
	OwnerName      string           `gorm:"type:varchar(200)"`
	CreatedAt      time.Time        `gorm:"not null"`
	UpdatedAt      time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PropertyModel) TableName() string {
	return "properties"
}

// ToInfo converts the persistence model to the directory read view
func (m *PropertyModel) ToInfo() *property.Info {
	return &property.Info{
		ID:             m.ID,
		Name:           m.Name,
		CommissionRate: m.CommissionRate,
		BlockID:        m.BlockID,
		IsBlock:        m.IsBlock,
	}
}
