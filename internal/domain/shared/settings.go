package shared

import (
	"context"

	"github.com/shopspring/decimal"
)

// AgencySettings carries the agency-level defaults the payment engine
// consults on most operations: they change rarely but are read constantly,
// so callers go through a SettingsProvider rather than hitting the store.
type AgencySettings struct {
	// BatchPrefix is the prefix for generated batch references, e.g. OWNER
	BatchPrefix string
	// DefaultCommissionRate applies when a property has no rate of its own
	DefaultCommissionRate decimal.Decimal
	// MinimumBalanceThreshold is retained on property balances when paying out
	MinimumBalanceThreshold decimal.Decimal
}

// SettingsProvider supplies the current agency settings. Implementations
// may cache; staleness is bounded by the implementation's refresh policy.
type SettingsProvider interface {
	Get(ctx context.Context) (*AgencySettings, error)
}
