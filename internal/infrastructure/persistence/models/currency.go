package models

import (
	"time"

	"github.com/ebms/backend/internal/domain/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyModel is the persistence model for the Currency aggregate root.
type CurrencyModel struct {
	TenantAggregateModel
	Code               string `gorm:"type:varchar(3);not null;uniqueIndex:idx_currency_tenant_code,priority:2"`
	Name               string `gorm:"type:varchar(100);not null"`
	Symbol             string `gorm:"type:varchar(10);not null"`
	DecimalPlaces      int    `gorm:"not null;default:2"`
	DecimalSeparator   string `gorm:"type:varchar(1);not null;default:'.'"`
	ThousandsSeparator string `gorm:"type:varchar(1);not null;default:','"`
	SymbolPosition     string `gorm:"type:varchar(10);not null;default:'before'"`
	IsBaseCurrency     bool   `gorm:"not null;default:false;index"`
	IsActive           bool   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (CurrencyModel) TableName() string {
	return "currencies"
}

// ToDomain converts the persistence model to a domain Currency entity.
func (m *CurrencyModel) ToDomain() *currency.Currency {
	c := &currency.Currency{
		Code:               m.Code,
		Name:               m.Name,
		Symbol:             m.Symbol,
		DecimalPlaces:      m.DecimalPlaces,
		DecimalSeparator:   m.DecimalSeparator,
		ThousandsSeparator: m.ThousandsSeparator,
		SymbolPosition:     currency.SymbolPosition(m.SymbolPosition),
		IsBaseCurrency:     m.IsBaseCurrency,
		IsActive:           m.IsActive,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Currency entity.
func (m *CurrencyModel) FromDomain(c *currency.Currency) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Symbol = c.Symbol
	m.DecimalPlaces = c.DecimalPlaces
	m.DecimalSeparator = c.DecimalSeparator
	m.ThousandsSeparator = c.ThousandsSeparator
	m.SymbolPosition = string(c.SymbolPosition)
	m.IsBaseCurrency = c.IsBaseCurrency
	m.IsActive = c.IsActive
}

// CurrencyModelFromDomain creates a new persistence model from a domain Currency.
func CurrencyModelFromDomain(c *currency.Currency) *CurrencyModel {
	m := &CurrencyModel{}
	m.FromDomain(c)
	return m
}

// ExchangeRateModel is the persistence model for the ExchangeRate aggregate root.
type ExchangeRateModel struct {
	TenantAggregateModel
	FromCurrency  string          `gorm:"type:varchar(3);not null;index:idx_rate_tenant_pair,priority:2"`
	ToCurrency    string          `gorm:"type:varchar(3);not null;index:idx_rate_tenant_pair,priority:3"`
	Rate          decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	InverseRate   decimal.Decimal `gorm:"type:decimal(24,12);not null"`
	EffectiveDate time.Time       `gorm:"not null;index"`
	ExpiryDate    *time.Time      `gorm:"index"`
	Source        string          `gorm:"type:varchar(50);not null;default:'manual'"`
	IsActive      bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ExchangeRateModel) TableName() string {
	return "exchange_rates"
}

// ToDomain converts the persistence model to a domain ExchangeRate entity.
func (m *ExchangeRateModel) ToDomain() *currency.ExchangeRate {
	r := &currency.ExchangeRate{
		FromCurrency:  m.FromCurrency,
		ToCurrency:    m.ToCurrency,
		Rate:          m.Rate,
		InverseRate:   m.InverseRate,
		EffectiveDate: m.EffectiveDate,
		ExpiryDate:    m.ExpiryDate,
		Source:        m.Source,
		IsActive:      m.IsActive,
	}
	m.PopulateTenantAggregateRoot(&r.TenantAggregateRoot)
	return r
}

// FromDomain populates the persistence model from a domain ExchangeRate entity.
func (m *ExchangeRateModel) FromDomain(r *currency.ExchangeRate) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.FromCurrency = r.FromCurrency
	m.ToCurrency = r.ToCurrency
	m.Rate = r.Rate
	m.InverseRate = r.InverseRate
	m.EffectiveDate = r.EffectiveDate
	m.ExpiryDate = r.ExpiryDate
	m.Source = r.Source
	m.IsActive = r.IsActive
}

// ExchangeRateModelFromDomain creates a new persistence model from a domain ExchangeRate.
func ExchangeRateModelFromDomain(r *currency.ExchangeRate) *ExchangeRateModel {
	m := &ExchangeRateModel{}
	m.FromDomain(r)
	return m
}

// ConversionRecordModel is the persistence model for the append-only
// ConversionRecord aggregate root.
type ConversionRecordModel struct {
	TenantAggregateModel
	SourceType      string          `gorm:"type:varchar(30);not null;index:idx_conversion_source,priority:2"`
	SourceID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_conversion_source,priority:3"`
	FromCurrency    string          `gorm:"type:varchar(3);not null"`
	ToCurrency      string          `gorm:"type:varchar(3);not null"`
	OriginalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ConvertedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ExchangeRate    decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	ConversionDate  time.Time       `gorm:"not null;index"`
	Provenance      string          `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (ConversionRecordModel) TableName() string {
	return "conversion_records"
}

// ToDomain converts the persistence model to a domain ConversionRecord entity.
func (m *ConversionRecordModel) ToDomain() *currency.ConversionRecord {
	rec := &currency.ConversionRecord{
		SourceType:      m.SourceType,
		SourceID:        m.SourceID,
		FromCurrency:    m.FromCurrency,
		ToCurrency:      m.ToCurrency,
		OriginalAmount:  m.OriginalAmount,
		ConvertedAmount: m.ConvertedAmount,
		ExchangeRate:    m.ExchangeRate,
		ConversionDate:  m.ConversionDate,
		Provenance:      m.Provenance,
	}
	m.PopulateTenantAggregateRoot(&rec.TenantAggregateRoot)
	return rec
}

// FromDomain populates the persistence model from a domain ConversionRecord entity.
func (m *ConversionRecordModel) FromDomain(rec *currency.ConversionRecord) {
	m.FromDomainTenantAggregateRoot(rec.TenantAggregateRoot)
	m.SourceType = rec.SourceType
	m.SourceID = rec.SourceID
	m.FromCurrency = rec.FromCurrency
	m.ToCurrency = rec.ToCurrency
	m.OriginalAmount = rec.OriginalAmount
	m.ConvertedAmount = rec.ConvertedAmount
	m.ExchangeRate = rec.ExchangeRate
	m.ConversionDate = rec.ConversionDate
	m.Provenance = rec.Provenance
}

// ConversionRecordModelFromDomain creates a new persistence model from a domain ConversionRecord.
func ConversionRecordModelFromDomain(rec *currency.ConversionRecord) *ConversionRecordModel {
	m := &ConversionRecordModel{}
	m.FromDomain(rec)
	return m
}
