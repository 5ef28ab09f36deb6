package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ebms/backend/internal/domain/currency"
	"github.com/ebms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultRateCacheTTL bounds how long a resolved rate may be served from
// cache before it is re-read from the store
const DefaultRateCacheTTL = 5 * time.Minute

// fallbackDecimalPlaces is used when the target currency is not configured
const fallbackDecimalPlaces = 2

// CurrencyService provides application-level currency ledger operations:
// currency configuration, point-in-time rate resolution, conversion with
// audit, and display formatting.
type CurrencyService struct {
	currencyRepo   currency.CurrencyRepository
	rateRepo       currency.ExchangeRateRepository
	conversionRepo currency.ConversionRecordRepository
	cache          shared.Cache
	logger         *zap.Logger
	rateCacheTTL   time.Duration
	now            func() time.Time
}

// CurrencyServiceOption is a functional option for configuring CurrencyService
type CurrencyServiceOption func(*CurrencyService)

// WithRateCacheTTL overrides the rate cache TTL
func WithRateCacheTTL(ttl time.Duration) CurrencyServiceOption {
	return func(s *CurrencyService) {
		s.rateCacheTTL = ttl
	}
}

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) CurrencyServiceOption {
	return func(s *CurrencyService) {
		s.now = now
	}
}

// NewCurrencyService creates a new CurrencyService
func NewCurrencyService(
	currencyRepo currency.CurrencyRepository,
	rateRepo currency.ExchangeRateRepository,
	conversionRepo currency.ConversionRecordRepository,
	cache shared.Cache,
	logger *zap.Logger,
	opts ...CurrencyServiceOption,
) *CurrencyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CurrencyService{
		currencyRepo:   currencyRepo,
		rateRepo:       rateRepo,
		conversionRepo: conversionRepo,
		cache:          cache,
		logger:         logger,
		rateCacheTTL:   DefaultRateCacheTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Response DTOs =====================

// CurrencyResponse represents a currency in API responses
type CurrencyResponse struct {
	ID                 uuid.UUID `json:"id"`
	Code               string    `json:"code"`
	Name               string    `json:"name"`
	Symbol             string    `json:"symbol"`
	DecimalPlaces      int       `json:"decimal_places"`
	DecimalSeparator   string    `json:"decimal_separator"`
	ThousandsSeparator string    `json:"thousands_separator"`
	SymbolPosition     string    `json:"symbol_position"`
	IsBaseCurrency     bool      `json:"is_base_currency"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toCurrencyResponse(c *currency.Currency) *CurrencyResponse {
	return &CurrencyResponse{
		ID:                 c.ID,
		Code:               c.Code,
		Name:               c.Name,
		Symbol:             c.Symbol,
		DecimalPlaces:      c.DecimalPlaces,
		DecimalSeparator:   c.DecimalSeparator,
		ThousandsSeparator: c.ThousandsSeparator,
		SymbolPosition:     string(c.SymbolPosition),
		IsBaseCurrency:     c.IsBaseCurrency,
		IsActive:           c.IsActive,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// ExchangeRateResponse represents an exchange rate in API responses
type ExchangeRateResponse struct {
	ID            uuid.UUID       `json:"id"`
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	InverseRate   decimal.Decimal `json:"inverse_rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	Source        string          `json:"source"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toExchangeRateResponse(r *currency.ExchangeRate) *ExchangeRateResponse {
	return &ExchangeRateResponse{
		ID:            r.ID,
		FromCurrency:  r.FromCurrency,
		ToCurrency:    r.ToCurrency,
		Rate:          r.Rate,
		InverseRate:   r.InverseRate,
		EffectiveDate: r.EffectiveDate,
		ExpiryDate:    r.ExpiryDate,
		Source:        r.Source,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
	}
}

// ConversionResult is the outcome of a convertAmount call
type ConversionResult struct {
	FromCurrency    string          `json:"from_currency"`
	ToCurrency      string          `json:"to_currency"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	Provenance      string          `json:"provenance"`
	ConversionDate  time.Time       `json:"conversion_date"`
	Formatted       string          `json:"formatted,omitempty"`
}

// ===================== Currency Operations =====================

// CreateCurrencyRequest carries the fields needed to define a currency
type CreateCurrencyRequest struct {
	Code               string `json:"code" binding:"required"`
	Name               string `json:"name" binding:"required"`
	Symbol             string `json:"symbol"`
	DecimalPlaces      *int   `json:"decimal_places"`
	DecimalSeparator   string `json:"decimal_separator"`
	ThousandsSeparator string `json:"thousands_separator"`
	SymbolPosition     string `json:"symbol_position"`
	IsBaseCurrency     bool   `json:"is_base_currency"`
}

// CreateCurrency defines a new currency for the tenant. When the request
// marks it as base, the previous base currency is cleared in the same
// transaction.
func (s *CurrencyService) CreateCurrency(ctx context.Context, tenantID uuid.UUID, req CreateCurrencyRequest) (*CurrencyResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	exists, err := s.currencyRepo.ExistsByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Currency %s already exists", code))
	}

	decimalPlaces := currency.DefaultDecimalPlaces
	if req.DecimalPlaces != nil {
		decimalPlaces = *req.DecimalPlaces
	}

	c, err := currency.NewCurrency(tenantID, code, req.Name, req.Symbol, decimalPlaces)
	if err != nil {
		return nil, err
	}

	if req.DecimalSeparator != "" || req.ThousandsSeparator != "" || req.SymbolPosition != "" {
		decimalSep := req.DecimalSeparator
		if decimalSep == "" {
			decimalSep = currency.DefaultDecimalSeparator
		}
		thousandsSep := req.ThousandsSeparator
		position := currency.SymbolPosition(req.SymbolPosition)
		if req.SymbolPosition == "" {
			position = currency.SymbolPositionBefore
		}
		if err := c.SetFormatting(decimalSep, thousandsSep, position); err != nil {
			return nil, err
		}
	}

	if req.IsBaseCurrency {
		if err := c.MarkAsBase(); err != nil {
			return nil, err
		}
		if err := s.currencyRepo.SaveAsBase(ctx, c); err != nil {
			return nil, err
		}
	} else {
		if err := s.currencyRepo.Save(ctx, c); err != nil {
			return nil, err
		}
	}

	s.logger.Info("currency created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", c.Code),
		zap.Bool("is_base", c.IsBaseCurrency))

	return toCurrencyResponse(c), nil
}

// GetCurrency returns a currency by code
func (s *CurrencyService) GetCurrency(ctx context.Context, tenantID uuid.UUID, code string) (*CurrencyResponse, error) {
	c, err := s.currencyRepo.FindByCode(ctx, tenantID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	return toCurrencyResponse(c), nil
}

// GetBaseCurrency returns the tenant's base currency. A missing base
// currency is a hard NotFound; callers must not assume a default.
func (s *CurrencyService) GetBaseCurrency(ctx context.Context, tenantID uuid.UUID) (*CurrencyResponse, error) {
	c, err := s.currencyRepo.FindBaseCurrency(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "No base currency configured for tenant")
		}
		return nil, err
	}
	return toCurrencyResponse(c), nil
}

// CurrencyListFilter defines filtering options for currency list queries
type CurrencyListFilter struct {
	Search   string `form:"search"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ListCurrencies lists the tenant's currencies
func (s *CurrencyService) ListCurrencies(ctx context.Context, tenantID uuid.UUID, filter CurrencyListFilter) ([]CurrencyResponse, int64, error) {
	domainFilter := currency.CurrencyFilter{IsActive: filter.IsActive}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search

	currencies, err := s.currencyRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.currencyRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CurrencyResponse, len(currencies))
	for i := range currencies {
		responses[i] = *toCurrencyResponse(&currencies[i])
	}
	return responses, total, nil
}

// SetBaseCurrency makes an existing currency the tenant's base currency
func (s *CurrencyService) SetBaseCurrency(ctx context.Context, tenantID uuid.UUID, code string) (*CurrencyResponse, error) {
	c, err := s.currencyRepo.FindByCode(ctx, tenantID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if err := c.MarkAsBase(); err != nil {
		return nil, err
	}
	if err := s.currencyRepo.SaveAsBase(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("base currency changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", c.Code))

	return toCurrencyResponse(c), nil
}

// DeactivateCurrency soft-deactivates a currency
func (s *CurrencyService) DeactivateCurrency(ctx context.Context, tenantID uuid.UUID, code string) (*CurrencyResponse, error) {
	c, err := s.currencyRepo.FindByCode(ctx, tenantID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if err := c.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.currencyRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	return toCurrencyResponse(c), nil
}

// ===================== Exchange Rate Operations =====================

// CreateExchangeRateRequest carries the fields needed to record a rate
type CreateExchangeRateRequest struct {
	FromCurrency  string           `json:"from_currency" binding:"required"`
	ToCurrency    string           `json:"to_currency" binding:"required"`
	Rate          decimal.Decimal  `json:"rate" binding:"required"`
	InverseRate   *decimal.Decimal `json:"inverse_rate"`
	EffectiveDate time.Time        `json:"effective_date" binding:"required"`
	ExpiryDate    *time.Time       `json:"expiry_date"`
	Source        string           `json:"source"`
}

// CreateExchangeRate records a new rate, deactivating prior active rates
// for the same pair and invalidating the tenant's cached rate lookups
func (s *CurrencyService) CreateExchangeRate(ctx context.Context, tenantID uuid.UUID, req CreateExchangeRateRequest) (*ExchangeRateResponse, error) {
	r, err := currency.NewExchangeRate(tenantID, req.FromCurrency, req.ToCurrency,
		req.Rate, req.InverseRate, req.EffectiveDate, req.ExpiryDate, req.Source)
	if err != nil {
		return nil, err
	}

	if err := s.rateRepo.SaveAndSupersede(ctx, r); err != nil {
		return nil, err
	}

	if err := s.cache.InvalidatePattern(ctx, rateCachePattern(tenantID)); err != nil {
		// a stale cache entry self-corrects at TTL expiry
		s.logger.Warn("rate cache invalidation failed",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	}

	s.logger.Info("exchange rate created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("pair", r.FromCurrency+"/"+r.ToCurrency),
		zap.String("rate", r.Rate.String()))

	return toExchangeRateResponse(r), nil
}

// ListExchangeRates lists the tenant's exchange rates
func (s *CurrencyService) ListExchangeRates(ctx context.Context, tenantID uuid.UUID, filter currency.ExchangeRateFilter) ([]ExchangeRateResponse, int64, error) {
	rates, err := s.rateRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.rateRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ExchangeRateResponse, len(rates))
	for i := range rates {
		responses[i] = *toExchangeRateResponse(&rates[i])
	}
	return responses, total, nil
}

// GetExchangeRate resolves the from->to rate effective at asOf: the latest
// active direct rate wins; otherwise the reverse pair's inverse rate is
// used; otherwise NotFound. Results are cached per (tenant, pair, day).
func (s *CurrencyService) GetExchangeRate(ctx context.Context, tenantID uuid.UUID, fromCurrency, toCurrency string, asOf time.Time) (*currency.ResolvedRate, error) {
	fromCurrency = strings.ToUpper(strings.TrimSpace(fromCurrency))
	toCurrency = strings.ToUpper(strings.TrimSpace(toCurrency))

	key := rateCacheKey(tenantID, fromCurrency, toCurrency, asOf)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var resolved currency.ResolvedRate
		if err := json.Unmarshal([]byte(cached), &resolved); err == nil {
			return &resolved, nil
		}
	} else if err != nil {
		s.logger.Warn("rate cache read failed", zap.String("key", key), zap.Error(err))
	}

	resolved, err := s.resolveRate(ctx, tenantID, fromCurrency, toCurrency, asOf)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(resolved); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), s.rateCacheTTL); err != nil {
			s.logger.Warn("rate cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return resolved, nil
}

// resolveRate performs the direct-then-inverse lookup against the store
func (s *CurrencyService) resolveRate(ctx context.Context, tenantID uuid.UUID, fromCurrency, toCurrency string, asOf time.Time) (*currency.ResolvedRate, error) {
	direct, err := s.rateRepo.FindEffectiveRate(ctx, tenantID, fromCurrency, toCurrency, asOf)
	if err == nil {
		resolved := currency.DirectResolvedRate(direct)
		return &resolved, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	reverse, err := s.rateRepo.FindEffectiveRate(ctx, tenantID, toCurrency, fromCurrency, asOf)
	if err == nil {
		resolved := currency.InverseResolvedRate(reverse)
		return &resolved, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	return nil, shared.NewDomainError("NOT_FOUND",
		fmt.Sprintf("No exchange rate found for %s/%s as of %s", fromCurrency, toCurrency, asOf.Format("2006-01-02")))
}

// ===================== Conversion =====================

// ConvertAmountRequest carries the inputs of a conversion. SourceType and
// SourceID are optional; when both are present an audit record is written.
type ConvertAmountRequest struct {
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	FromCurrency string          `json:"from_currency" binding:"required"`
	ToCurrency   string          `json:"to_currency" binding:"required"`
	AsOf         *time.Time      `json:"as_of"`
	SourceType   string          `json:"source_type"`
	SourceID     *uuid.UUID      `json:"source_id"`
}

// ConvertAmount converts an amount between currencies at a point in time.
// A missing rate is a hard NotFound, never silently defaulted to parity.
func (s *CurrencyService) ConvertAmount(ctx context.Context, tenantID uuid.UUID, req ConvertAmountRequest) (*ConversionResult, error) {
	fromCurrency := strings.ToUpper(strings.TrimSpace(req.FromCurrency))
	toCurrency := strings.ToUpper(strings.TrimSpace(req.ToCurrency))
	asOf := s.now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	// target currency metadata drives rounding and display; a missing
	// definition falls back to plain 2-decimal rendering
	decimalPlaces := fallbackDecimalPlaces
	target, err := s.currencyRepo.FindByCode(ctx, tenantID, toCurrency)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if target != nil {
		decimalPlaces = target.DecimalPlaces
	}

	rate := decimal.NewFromInt(1)
	provenance := currency.RateSourceSameCurrency
	if fromCurrency != toCurrency {
		resolved, err := s.GetExchangeRate(ctx, tenantID, fromCurrency, toCurrency, asOf)
		if err != nil {
			return nil, err
		}
		rate = resolved.Rate
		provenance = resolved.Provenance
	}

	converted := req.Amount.Mul(rate).Round(int32(decimalPlaces))

	result := &ConversionResult{
		FromCurrency:    fromCurrency,
		ToCurrency:      toCurrency,
		OriginalAmount:  req.Amount,
		ConvertedAmount: converted,
		ExchangeRate:    rate,
		Provenance:      provenance,
		ConversionDate:  asOf,
	}
	if target != nil {
		result.Formatted = target.FormatAmount(converted)
	}

	if req.SourceType != "" && req.SourceID != nil {
		record, err := currency.NewConversionRecord(tenantID, req.SourceType, *req.SourceID,
			fromCurrency, toCurrency, req.Amount, converted, rate, asOf, provenance)
		if err != nil {
			return nil, err
		}
		if err := s.conversionRepo.Save(ctx, record); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// ListConversionRecords lists conversion audit entries for a source document
func (s *CurrencyService) ListConversionRecords(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]currency.ConversionRecord, error) {
	return s.conversionRepo.FindBySource(ctx, tenantID, sourceType, sourceID)
}

// ===================== Formatting =====================

// FormatAmount renders an amount using the currency's configured display
// settings, falling back to a plain 2-decimal string when the currency is
// not configured for the tenant
func (s *CurrencyService) FormatAmount(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal, code string) (string, error) {
	c, err := s.currencyRepo.FindByCode(ctx, tenantID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return amount.StringFixed(fallbackDecimalPlaces), nil
		}
		return "", err
	}
	return c.FormatAmount(amount), nil
}

// rateCacheKey builds the cache key for a resolved rate, with the lookup
// date truncated to day granularity
func rateCacheKey(tenantID uuid.UUID, fromCurrency, toCurrency string, asOf time.Time) string {
	return fmt.Sprintf("rate:%s:%s:%s:%s", tenantID, fromCurrency, toCurrency, asOf.UTC().Format("2006-01-02"))
}

// rateCachePattern matches every cached rate for a tenant
func rateCachePattern(tenantID uuid.UUID) string {
	return fmt.Sprintf("rate:%s:*", tenantID)
}
