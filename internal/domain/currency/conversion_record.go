package currency

import (
	"time"

	"github.com/ebms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConversionRecord is an append-only audit entry written whenever a
// conversion is performed on behalf of a source document. Records are
// never updated or deleted.
type ConversionRecord struct {
	shared.TenantAggregateRoot
	SourceType      string          `json:"source_type"` // e.g. "INVOICE", "PAYMENT"
	SourceID        uuid.UUID       `json:"source_id"`
	FromCurrency    string          `json:"from_currency"`
	ToCurrency      string          `json:"to_currency"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	ConversionDate  time.Time       `json:"conversion_date"`
	Provenance      string          `json:"provenance"`
}

// NewConversionRecord creates a new conversion audit record
func NewConversionRecord(
	tenantID uuid.UUID,
	sourceType string,
	sourceID uuid.UUID,
	fromCurrency string,
	toCurrency string,
	originalAmount decimal.Decimal,
	convertedAmount decimal.Decimal,
	rate decimal.Decimal,
	conversionDate time.Time,
	provenance string,
) (*ConversionRecord, error) {
	if sourceType == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Source type cannot be empty")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID cannot be empty")
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_RATE", "Exchange rate must be positive")
	}

	return &ConversionRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SourceType:          sourceType,
		SourceID:            sourceID,
		FromCurrency:        fromCurrency,
		ToCurrency:          toCurrency,
		OriginalAmount:      originalAmount,
		ConvertedAmount:     convertedAmount,
		ExchangeRate:        rate,
		ConversionDate:      conversionDate,
		Provenance:          provenance,
	}, nil
}
