package currency

import (
	"context"
	"time"

	"github.com/ebms/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CurrencyFilter defines filtering options for currency queries
type CurrencyFilter struct {
	shared.Filter
	IsActive *bool // Filter by active flag
	IsBase   *bool // Filter by base-currency flag
}

// CurrencyRepository defines the interface for currency persistence
type CurrencyRepository interface {
	// FindByID finds a currency by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Currency, error)

	// FindByCode finds a currency by ISO code for a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Currency, error)

	// FindBaseCurrency returns the tenant's active base currency, or
	// shared.ErrNotFound when none is configured
	FindBaseCurrency(ctx context.Context, tenantID uuid.UUID) (*Currency, error)

	// FindAllForTenant lists currencies for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter CurrencyFilter) ([]Currency, error)

	// Save creates or updates a currency
	Save(ctx context.Context, c *Currency) error

	// SaveAsBase persists the currency as the tenant's base currency,
	// clearing any previous base flag in the same transaction
	SaveAsBase(ctx context.Context, c *Currency) error

	// ExistsByCode checks if a currency code exists for a tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// CountForTenant counts currencies for a tenant with filtering
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter CurrencyFilter) (int64, error)
}

// ExchangeRateFilter defines filtering options for exchange rate queries
type ExchangeRateFilter struct {
	shared.Filter
	FromCurrency *string
	ToCurrency   *string
	IsActive     *bool
}

// ExchangeRateRepository defines the interface for exchange rate persistence
type ExchangeRateRepository interface {
	// FindByID finds an exchange rate by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ExchangeRate, error)

	// FindEffectiveRate returns the latest active rate for the exact
	// (from, to) pair whose effective date <= asOf and whose expiry is
	// absent or >= asOf, or shared.ErrNotFound
	FindEffectiveRate(ctx context.Context, tenantID uuid.UUID, fromCurrency, toCurrency string, asOf time.Time) (*ExchangeRate, error)

	// FindAllForTenant lists exchange rates for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ExchangeRateFilter) ([]ExchangeRate, error)

	// Save creates or updates an exchange rate
	Save(ctx context.Context, r *ExchangeRate) error

	// SaveAndSupersede persists a new rate and deactivates prior active
	// rates for the same (from, to) pair in the same transaction. The
	// reverse pair is left untouched.
	SaveAndSupersede(ctx context.Context, r *ExchangeRate) error

	// CountForTenant counts exchange rates for a tenant with filtering
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ExchangeRateFilter) (int64, error)
}

// ConversionRecordFilter defines filtering options for conversion audit queries
type ConversionRecordFilter struct {
	shared.Filter
	SourceType *string
	SourceID   *uuid.UUID
	FromDate   *time.Time
	ToDate     *time.Time
}

// ConversionRecordRepository defines the interface for the append-only
// conversion audit ledger
type ConversionRecordRepository interface {
	// Save appends a conversion record. Records are immutable; there is
	// no update or delete.
	Save(ctx context.Context, record *ConversionRecord) error

	// FindBySource lists conversion records for a source document
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]ConversionRecord, error)

	// FindAllForTenant lists conversion records for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ConversionRecordFilter) ([]ConversionRecord, error)
}
