package handler

import (
	"time"

	currencyapp "github.com/ebms/backend/internal/application/currency"
	"github.com/ebms/backend/internal/domain/currency"
	"github.com/ebms/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyHandler handles currency and exchange rate API endpoints
type CurrencyHandler struct {
	BaseHandler
	currencyService *currencyapp.CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(currencyService *currencyapp.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{
		currencyService: currencyService,
	}
}

// CreateCurrency handles POST /currency/currencies
func (h *CurrencyHandler) CreateCurrency(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var req currencyapp.CreateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.currencyService.CreateCurrency(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListCurrencies handles GET /currency/currencies
func (h *CurrencyHandler) ListCurrencies(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	filter := currencyapp.CurrencyListFilter{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	currencies, total, err := h.currencyService.ListCurrencies(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, currencies, total, filter.Page, filter.PageSize)
}

// GetCurrency handles GET /currency/currencies/:code
func (h *CurrencyHandler) GetCurrency(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	result, err := h.currencyService.GetCurrency(c.Request.Context(), tenantID, c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetBaseCurrency handles GET /currency/currencies/base
func (h *CurrencyHandler) GetBaseCurrency(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	result, err := h.currencyService.GetBaseCurrency(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// SetBaseCurrency handles POST /currency/currencies/:code/set-base
func (h *CurrencyHandler) SetBaseCurrency(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	result, err := h.currencyService.SetBaseCurrency(c.Request.Context(), tenantID, c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// DeactivateCurrency handles POST /currency/currencies/:code/deactivate
func (h *CurrencyHandler) DeactivateCurrency(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	result, err := h.currencyService.DeactivateCurrency(c.Request.Context(), tenantID, c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CreateExchangeRate handles POST /currency/rates
func (h *CurrencyHandler) CreateExchangeRate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var req currencyapp.CreateExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.currencyService.CreateExchangeRate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListExchangeRatesQuery holds query parameters for rate listing
type ListExchangeRatesQuery struct {
	From     string `form:"from"`
	To       string `form:"to"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ListExchangeRates handles GET /currency/rates
func (h *CurrencyHandler) ListExchangeRates(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	query := ListExchangeRatesQuery{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := currency.ExchangeRateFilter{IsActive: query.IsActive}
	filter.Page = query.Page
	filter.PageSize = query.PageSize
	if query.From != "" {
		filter.FromCurrency = &query.From
	}
	if query.To != "" {
		filter.ToCurrency = &query.To
	}

	rates, total, err := h.currencyService.ListExchangeRates(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, rates, total, query.Page, query.PageSize)
}

// LookupRateQuery holds query parameters for effective rate lookup
type LookupRateQuery struct {
	From string     `form:"from" binding:"required"`
	To   string     `form:"to" binding:"required"`
	AsOf *time.Time `form:"as_of" time_format:"2006-01-02"`
}

// LookupRate handles GET /currency/rates/lookup
func (h *CurrencyHandler) LookupRate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var query LookupRateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	asOf := time.Now()
	if query.AsOf != nil {
		asOf = *query.AsOf
	}

	rate, err := h.currencyService.GetExchangeRate(c.Request.Context(), tenantID, query.From, query.To, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rate)
}

// ConvertAmount handles POST /currency/convert
func (h *CurrencyHandler) ConvertAmount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var req currencyapp.ConvertAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.currencyService.ConvertAmount(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// FormatAmountQuery holds query parameters for amount formatting
type FormatAmountQuery struct {
	Amount string `form:"amount" binding:"required"`
	Code   string `form:"code" binding:"required"`
}

// FormatAmount handles GET /currency/format
func (h *CurrencyHandler) FormatAmount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var query FormatAmountQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	amount, err := decimal.NewFromString(query.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return
	}

	formatted, err := h.currencyService.FormatAmount(c.Request.Context(), tenantID, amount, query.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"formatted": formatted})
}

// ListConversionRecordsQuery holds query parameters for conversion audit lookup
type ListConversionRecordsQuery struct {
	SourceType string `form:"source_type" binding:"required"`
	SourceID   string `form:"source_id" binding:"required,uuid"`
}

// ListConversionRecords handles GET /currency/conversions
func (h *CurrencyHandler) ListConversionRecords(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var query ListConversionRecordsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sourceID, err := uuid.Parse(query.SourceID)
	if err != nil {
		h.BadRequest(c, "Invalid source_id")
		return
	}

	records, err := h.currencyService.ListConversionRecords(c.Request.Context(), tenantID, query.SourceType, sourceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}
