package currency

import (
	"strings"
	"time"

	"github.com/ebms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rate provenance tags recorded on conversions
const (
	RateSourceManual       = "manual"        // administratively entered rate
	RateSourceSameCurrency = "same_currency" // identity conversion, rate 1
	RateSourceInverse      = "inverse"       // derived from the reverse pair
)

// inverseRatePrecision bounds the precision of derived inverse rates
const inverseRatePrecision = 12

// ExchangeRate represents a time-versioned exchange rate aggregate root.
// Rates are append-only: superseded rates are soft-deactivated so that
// historical point-in-time lookups keep working.
type ExchangeRate struct {
	shared.TenantAggregateRoot
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	InverseRate   decimal.Decimal `json:"inverse_rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	Source        string          `json:"source"` // provenance tag, e.g. "manual" or a feed name
	IsActive      bool            `json:"is_active"`
}

// NewExchangeRate creates a new exchange rate. When inverseRate is nil it
// is derived as 1/rate.
func NewExchangeRate(
	tenantID uuid.UUID,
	fromCurrency string,
	toCurrency string,
	rate decimal.Decimal,
	inverseRate *decimal.Decimal,
	effectiveDate time.Time,
	expiryDate *time.Time,
	source string,
) (*ExchangeRate, error) {
	fromCurrency = strings.ToUpper(strings.TrimSpace(fromCurrency))
	toCurrency = strings.ToUpper(strings.TrimSpace(toCurrency))

	if !isValidCurrencyCode(fromCurrency) {
		return nil, shared.NewDomainError("INVALID_CURRENCY_CODE", "Source currency code must be 3 uppercase letters")
	}
	if !isValidCurrencyCode(toCurrency) {
		return nil, shared.NewDomainError("INVALID_CURRENCY_CODE", "Target currency code must be 3 uppercase letters")
	}
	if fromCurrency == toCurrency {
		return nil, shared.NewDomainError("INVALID_CURRENCY_PAIR", "Source and target currencies must differ")
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_RATE", "Exchange rate must be positive")
	}
	if expiryDate != nil && expiryDate.Before(effectiveDate) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "Expiry date cannot precede effective date")
	}
	if source == "" {
		source = RateSourceManual
	}

	inverse := decimal.NewFromInt(1).DivRound(rate, inverseRatePrecision)
	if inverseRate != nil {
		if inverseRate.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_RATE", "Inverse rate must be positive")
		}
		inverse = *inverseRate
	}

	r := &ExchangeRate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		FromCurrency:        fromCurrency,
		ToCurrency:          toCurrency,
		Rate:                rate,
		InverseRate:         inverse,
		EffectiveDate:       effectiveDate,
		ExpiryDate:          expiryDate,
		Source:              source,
		IsActive:            true,
	}

	r.AddDomainEvent(NewExchangeRateCreatedEvent(r))

	return r, nil
}

// CoversDate reports whether this rate applies at the given date:
// effective date <= asOf and expiry (when set) >= asOf.
func (r *ExchangeRate) CoversDate(asOf time.Time) bool {
	if r.EffectiveDate.After(asOf) {
		return false
	}
	if r.ExpiryDate != nil && r.ExpiryDate.Before(asOf) {
		return false
	}
	return true
}

// Deactivate soft-deactivates the rate when it is superseded by a newer one
func (r *ExchangeRate) Deactivate() {
	if !r.IsActive {
		return
	}
	r.IsActive = false
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// ResolvedRate is the outcome of a point-in-time rate lookup. Provenance
// distinguishes direct rates from ones derived via the reverse pair.
type ResolvedRate struct {
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	Provenance    string          `json:"provenance"`
}

// DirectResolvedRate builds a ResolvedRate from a direct rate row
func DirectResolvedRate(r *ExchangeRate) ResolvedRate {
	return ResolvedRate{
		FromCurrency:  r.FromCurrency,
		ToCurrency:    r.ToCurrency,
		Rate:          r.Rate,
		EffectiveDate: r.EffectiveDate,
		Provenance:    r.Source,
	}
}

// InverseResolvedRate builds a from->to ResolvedRate out of the reverse
// pair's row, swapping which field serves as the rate.
func InverseResolvedRate(reverse *ExchangeRate) ResolvedRate {
	return ResolvedRate{
		FromCurrency:  reverse.ToCurrency,
		ToCurrency:    reverse.FromCurrency,
		Rate:          reverse.InverseRate,
		EffectiveDate: reverse.EffectiveDate,
		Provenance:    RateSourceInverse,
	}
}
