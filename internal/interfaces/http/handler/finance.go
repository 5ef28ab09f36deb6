package handler

import (
	"time"

	financeapp "github.com/ebms/backend/internal/application/finance"
	"github.com/ebms/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FinanceHandler handles invoice and aging report API endpoints
type FinanceHandler struct {
	BaseHandler
	invoiceService *financeapp.InvoiceService
	agingService   *financeapp.AgingReportService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(invoiceService *financeapp.InvoiceService, agingService *financeapp.AgingReportService) *FinanceHandler {
	return &FinanceHandler{
		invoiceService: invoiceService,
		agingService:   agingService,
	}
}

// CreateInvoice handles POST /finance/invoices
func (h *FinanceHandler) CreateInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var req financeapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.invoiceService.CreateInvoice(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListInvoices handles GET /finance/invoices
func (h *FinanceHandler) ListInvoices(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	filter := financeapp.InvoiceListFilter{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// GetInvoice handles GET /finance/invoices/:id
func (h *FinanceHandler) GetInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	result, err := h.invoiceService.GetInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ApplyPayment handles POST /finance/invoices/:id/payments
func (h *FinanceHandler) ApplyPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req financeapp.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.invoiceService.ApplyPayment(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// SummaryQuery holds query parameters for invoice summary and aging endpoints
type SummaryQuery struct {
	Type string     `form:"type" binding:"required"`
	AsOf *time.Time `form:"as_of" time_format:"2006-01-02"`
}

// GetSummary handles GET /finance/invoices/summary
func (h *FinanceHandler) GetSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var query SummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	asOf := time.Now()
	if query.AsOf != nil {
		asOf = *query.AsOf
	}

	summary, err := h.invoiceService.GetSummary(c.Request.Context(), tenantID, query.Type, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// ConfigureBuckets handles POST /finance/aging/buckets
func (h *FinanceHandler) ConfigureBuckets(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var req financeapp.ConfigureBucketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	buckets, err := h.agingService.ConfigureBuckets(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, buckets)
}

// ListBucketsQuery holds query parameters for bucket listing
type ListBucketsQuery struct {
	Type string `form:"type" binding:"required"`
}

// ListBuckets handles GET /finance/aging/buckets
func (h *FinanceHandler) ListBuckets(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var query ListBucketsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	buckets, err := h.agingService.ListBuckets(c.Request.Context(), tenantID, query.Type)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, buckets)
}

// GetAgingReport handles GET /finance/aging/report
func (h *FinanceHandler) GetAgingReport(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant context")
		return
	}

	var query SummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	asOf := time.Now()
	if query.AsOf != nil {
		asOf = *query.AsOf
	}

	report, err := h.agingService.GenerateReport(c.Request.Context(), tenantID, query.Type, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
