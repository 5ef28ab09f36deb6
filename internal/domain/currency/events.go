package currency

import (
	"time"

	"github.com/ebms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyCreatedEvent is raised when a new currency definition is created
type CurrencyCreatedEvent struct {
	shared.BaseDomainEvent
	CurrencyID uuid.UUID `json:"currency_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
}

// EventType returns the event type name
func (e *CurrencyCreatedEvent) EventType() string {
	return "CurrencyCreated"
}

// NewCurrencyCreatedEvent creates a new CurrencyCreatedEvent
func NewCurrencyCreatedEvent(c *Currency) *CurrencyCreatedEvent {
	return &CurrencyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CurrencyCreated", "Currency", c.ID, c.TenantID),
		CurrencyID:      c.ID,
		Code:            c.Code,
		Name:            c.Name,
	}
}

// BaseCurrencyChangedEvent is raised when a currency becomes the tenant's base currency
type BaseCurrencyChangedEvent struct {
	shared.BaseDomainEvent
	CurrencyID uuid.UUID `json:"currency_id"`
	Code       string    `json:"code"`
}

// EventType returns the event type name
func (e *BaseCurrencyChangedEvent) EventType() string {
	return "BaseCurrencyChanged"
}

// NewBaseCurrencyChangedEvent creates a new BaseCurrencyChangedEvent
func NewBaseCurrencyChangedEvent(c *Currency) *BaseCurrencyChangedEvent {
	return &BaseCurrencyChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BaseCurrencyChanged", "Currency", c.ID, c.TenantID),
		CurrencyID:      c.ID,
		Code:            c.Code,
	}
}

// ExchangeRateCreatedEvent is raised when a new exchange rate is created
type ExchangeRateCreatedEvent struct {
	shared.BaseDomainEvent
	RateID        uuid.UUID       `json:"rate_id"`
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	Source        string          `json:"source"`
}

// EventType returns the event type name
func (e *ExchangeRateCreatedEvent) EventType() string {
	return "ExchangeRateCreated"
}

// NewExchangeRateCreatedEvent creates a new ExchangeRateCreatedEvent
func NewExchangeRateCreatedEvent(r *ExchangeRate) *ExchangeRateCreatedEvent {
	return &ExchangeRateCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ExchangeRateCreated", "ExchangeRate", r.ID, r.TenantID),
		RateID:          r.ID,
		FromCurrency:    r.FromCurrency,
		ToCurrency:      r.ToCurrency,
		Rate:            r.Rate,
		EffectiveDate:   r.EffectiveDate,
		Source:          r.Source,
	}
}
