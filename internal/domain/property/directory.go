// Package property defines the read-only contracts through which the payment
// engine resolves property and owner details. Property CRUD, tenancy management
// and PayProp synchronisation live in the surrounding application; the engine
// only ever looks properties and owners up.
package property

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Info is the slice of a property record the payment engine needs
type Info struct {
	ID             uuid.UUID
	Name           string
	CommissionRate *decimal.Decimal // percentage, nil when the property has none set
	BlockID        *uuid.UUID       // parent block for flats, nil for standalone properties
	IsBlock        bool
}

// Owner identifies the current beneficiary of a property
type Owner struct {
	ID   uuid.UUID
	Name string
}

// Directory resolves property details
type Directory interface {
	// FindByID returns the property info, or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Info, error)
}

// OwnerDirectory resolves a property to its current owner for beneficiary
// tagging on allocations and payment batches
type OwnerDirectory interface {
	// OwnerOf returns the current owner of the property, or shared.ErrNotFound
	OwnerOf(ctx context.Context, propertyID uuid.UUID) (*Owner, error)
}
