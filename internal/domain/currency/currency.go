package currency

import (
	"strings"
	"time"

	"github.com/ebms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SymbolPosition controls where the currency symbol is rendered relative to the amount
type SymbolPosition string

const (
	SymbolPositionBefore SymbolPosition = "before" // e.g. $1,234.50
	SymbolPositionAfter  SymbolPosition = "after"  // e.g. 1.234,50 €
)

// IsValid checks if the symbol position is valid
func (p SymbolPosition) IsValid() bool {
	return p == SymbolPositionBefore || p == SymbolPositionAfter
}

// Default formatting settings applied when a currency is created without
// explicit separators or symbol position
const (
	DefaultDecimalPlaces      = 2
	DefaultDecimalSeparator   = "."
	DefaultThousandsSeparator = ","
)

// MaxDecimalPlaces bounds the configurable precision of a currency
const MaxDecimalPlaces = 6

// Currency represents a currency definition aggregate root.
// Each tenant configures its own set of currencies; at most one of them
// may be the active base currency at any time.
type Currency struct {
	shared.TenantAggregateRoot
	Code               string         `json:"code"` // ISO 4217, e.g. "USD"
	Name               string         `json:"name"`
	Symbol             string         `json:"symbol"`
	DecimalPlaces      int            `json:"decimal_places"`
	DecimalSeparator   string         `json:"decimal_separator"`
	ThousandsSeparator string         `json:"thousands_separator"`
	SymbolPosition     SymbolPosition `json:"symbol_position"`
	IsBaseCurrency     bool           `json:"is_base_currency"`
	IsActive           bool           `json:"is_active"`
}

// NewCurrency creates a new currency definition
func NewCurrency(
	tenantID uuid.UUID,
	code string,
	name string,
	symbol string,
	decimalPlaces int,
) (*Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !isValidCurrencyCode(code) {
		return nil, shared.NewDomainError("INVALID_CURRENCY_CODE", "Currency code must be 3 uppercase letters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY_NAME", "Currency name cannot be empty")
	}
	if symbol == "" {
		symbol = code
	}
	if decimalPlaces < 0 || decimalPlaces > MaxDecimalPlaces {
		return nil, shared.NewDomainError("INVALID_DECIMAL_PLACES", "Decimal places must be between 0 and 6")
	}

	c := &Currency{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Symbol:              symbol,
		DecimalPlaces:       decimalPlaces,
		DecimalSeparator:    DefaultDecimalSeparator,
		ThousandsSeparator:  DefaultThousandsSeparator,
		SymbolPosition:      SymbolPositionBefore,
		IsBaseCurrency:      false,
		IsActive:            true,
	}

	c.AddDomainEvent(NewCurrencyCreatedEvent(c))

	return c, nil
}

// SetFormatting overrides the display formatting settings
func (c *Currency) SetFormatting(decimalSep, thousandsSep string, position SymbolPosition) error {
	if decimalSep == "" {
		return shared.NewDomainError("INVALID_SEPARATOR", "Decimal separator cannot be empty")
	}
	if decimalSep == thousandsSep {
		return shared.NewDomainError("INVALID_SEPARATOR", "Decimal and thousands separators must differ")
	}
	if !position.IsValid() {
		return shared.NewDomainError("INVALID_SYMBOL_POSITION", "Symbol position must be 'before' or 'after'")
	}

	c.DecimalSeparator = decimalSep
	c.ThousandsSeparator = thousandsSep
	c.SymbolPosition = position
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// MarkAsBase flags this currency as the tenant's base currency.
// The repository is responsible for clearing the previous base currency in
// the same transaction; the aggregate only flips its own flag.
func (c *Currency) MarkAsBase() error {
	if !c.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Cannot mark an inactive currency as base")
	}
	if c.IsBaseCurrency {
		return nil
	}

	c.IsBaseCurrency = true
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewBaseCurrencyChangedEvent(c))

	return nil
}

// UnmarkAsBase clears the base-currency flag
func (c *Currency) UnmarkAsBase() {
	if !c.IsBaseCurrency {
		return
	}
	c.IsBaseCurrency = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Deactivate soft-deactivates the currency. Historical rate lookups and
// conversion records keep referencing it; the base currency cannot be
// deactivated without configuring a replacement first.
func (c *Currency) Deactivate() error {
	if c.IsBaseCurrency {
		return shared.NewDomainError("INVALID_STATE", "Cannot deactivate the base currency")
	}
	if !c.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Currency is already inactive")
	}

	c.IsActive = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Activate re-activates a deactivated currency
func (c *Currency) Activate() error {
	if c.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Currency is already active")
	}

	c.IsActive = true
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// FormatAmount renders an amount using the currency's display settings:
// rounded half-up to the configured decimal places, thousands separator
// inserted every 3 digits, symbol placed per SymbolPosition.
func (c *Currency) FormatAmount(amount decimal.Decimal) string {
	formatted := formatDecimal(amount, c.DecimalPlaces, c.DecimalSeparator, c.ThousandsSeparator)
	if c.SymbolPosition == SymbolPositionAfter {
		return formatted + " " + c.Symbol
	}
	return c.Symbol + formatted
}

// formatDecimal renders the amount with the given precision and separators
func formatDecimal(amount decimal.Decimal, places int, decimalSep, thousandsSep string) string {
	fixed := amount.Round(int32(places)).StringFixed(int32(places))

	negative := strings.HasPrefix(fixed, "-")
	if negative {
		fixed = fixed[1:]
	}

	intPart := fixed
	fracPart := ""
	if idx := strings.IndexByte(fixed, '.'); idx >= 0 {
		intPart = fixed[:idx]
		fracPart = fixed[idx+1:]
	}

	if thousandsSep != "" && len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteString(thousandsSep)
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	result := intPart
	if fracPart != "" {
		result = intPart + decimalSep + fracPart
	}
	if negative {
		result = "-" + result
	}
	return result
}

// isValidCurrencyCode reports whether code is a plausible ISO 4217 code
func isValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
