package finance

import (
	"context"
	"time"

	"github.com/ebms/backend/internal/domain/finance"
	"github.com/ebms/backend/internal/domain/shared"
	"github.com/ebms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	invoiceRepo finance.InvoiceRepository
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo finance.InvoiceRepository, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// ===================== Response DTOs =====================

// PaymentRecordResponse represents a payment record in API responses
type PaymentRecordResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	AppliedAt time.Time       `json:"applied_at"`
	Reference string          `json:"reference,omitempty"`
	Remark    string          `json:"remark,omitempty"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID               uuid.UUID               `json:"id"`
	TenantID         uuid.UUID               `json:"tenant_id"`
	InvoiceNumber    string                  `json:"invoice_number"`
	Type             string                  `json:"type"`
	CounterpartyID   *uuid.UUID              `json:"counterparty_id,omitempty"`
	CounterpartyName string                  `json:"counterparty_name,omitempty"`
	CurrencyCode     string                  `json:"currency_code"`
	InvoiceDate      time.Time               `json:"invoice_date"`
	DueDate          time.Time               `json:"due_date"`
	TotalAmount      decimal.Decimal         `json:"total_amount"`
	PaidAmount       decimal.Decimal         `json:"paid_amount"`
	BalanceAmount    decimal.Decimal         `json:"balance_amount"`
	Status           string                  `json:"status"`
	PaymentRecords   []PaymentRecordResponse `json:"payment_records,omitempty"`
	Remark           string                  `json:"remark,omitempty"`
	PaidAt           *time.Time              `json:"paid_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Version          int                     `json:"version"`
}

func toInvoiceResponse(inv *finance.Invoice) *InvoiceResponse {
	records := make([]PaymentRecordResponse, len(inv.PaymentRecords))
	for i, r := range inv.PaymentRecords {
		records[i] = PaymentRecordResponse{
			ID:        r.ID,
			Amount:    r.Amount,
			AppliedAt: r.AppliedAt,
			Reference: r.Reference,
			Remark:    r.Remark,
		}
	}
	return &InvoiceResponse{
		ID:               inv.ID,
		TenantID:         inv.TenantID,
		InvoiceNumber:    inv.InvoiceNumber,
		Type:             inv.Type.String(),
		CounterpartyID:   inv.CounterpartyID,
		CounterpartyName: inv.CounterpartyName,
		CurrencyCode:     inv.CurrencyCode,
		InvoiceDate:      inv.InvoiceDate,
		DueDate:          inv.DueDate,
		TotalAmount:      inv.TotalAmount,
		PaidAmount:       inv.PaidAmount,
		BalanceAmount:    inv.BalanceAmount,
		Status:           inv.Status.String(),
		PaymentRecords:   records,
		Remark:           inv.Remark,
		PaidAt:           inv.PaidAt,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		Version:          inv.GetVersion(),
	}
}

// ===================== Invoice Operations =====================

// CreateInvoiceRequest carries the fields needed to create an invoice
type CreateInvoiceRequest struct {
	InvoiceNumber    string          `json:"invoice_number"`
	Type             string          `json:"type" binding:"required"`
	CounterpartyID   *uuid.UUID      `json:"counterparty_id"`
	CounterpartyName string          `json:"counterparty_name"`
	CurrencyCode     string          `json:"currency_code" binding:"required"`
	InvoiceDate      time.Time       `json:"invoice_date" binding:"required"`
	DueDate          time.Time       `json:"due_date" binding:"required"`
	TotalAmount      decimal.Decimal `json:"total_amount" binding:"required"`
	Remark           string          `json:"remark"`
}

// CreateInvoice creates a new open invoice. When no invoice number is
// supplied one is generated per tenant and type.
func (s *InvoiceService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	invoiceType := finance.InvoiceType(req.Type)
	if !invoiceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", "Invoice type must be RECEIVABLE or PAYABLE")
	}

	number := req.InvoiceNumber
	if number == "" {
		generated, err := s.invoiceRepo.GenerateInvoiceNumber(ctx, tenantID, invoiceType)
		if err != nil {
			return nil, err
		}
		number = generated
	} else {
		exists, err := s.invoiceRepo.ExistsByNumber(ctx, tenantID, number)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Invoice number already exists")
		}
	}

	amount, err := valueobject.NewMoney(req.TotalAmount, valueobject.Currency(req.CurrencyCode))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}

	inv, err := finance.NewInvoice(tenantID, number, invoiceType, req.CounterpartyID,
		req.CounterpartyName, req.CurrencyCode, req.InvoiceDate, req.DueDate, amount)
	if err != nil {
		return nil, err
	}
	inv.Remark = req.Remark

	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("type", inv.Type.String()))

	return toInvoiceResponse(inv), nil
}

// GetInvoice returns an invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Search         string     `form:"search"`
	Type           string     `form:"type"`
	Status         string     `form:"status"`
	CounterpartyID *uuid.UUID `form:"counterparty_id"`
	DueFrom        *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo          *time.Time `form:"due_to" time_format:"2006-01-02"`
	Overdue        *bool      `form:"overdue"`
	Page           int        `form:"page"`
	PageSize       int        `form:"page_size"`
}

// ListInvoices lists invoices with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := finance.InvoiceFilter{
		CounterpartyID: filter.CounterpartyID,
		DueFrom:        filter.DueFrom,
		DueTo:          filter.DueTo,
		Overdue:        filter.Overdue,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search

	if filter.Type != "" {
		invoiceType := finance.InvoiceType(filter.Type)
		if !invoiceType.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INVOICE_TYPE", "Invoice type must be RECEIVABLE or PAYABLE")
		}
		domainFilter.Type = &invoiceType
	}
	if filter.Status != "" {
		status := finance.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Status must be OPEN or PAID")
		}
		domainFilter.Status = &status
	}

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}
	return responses, total, nil
}

// ApplyPaymentRequest carries the fields of a payment application
type ApplyPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference"`
	Remark    string          `json:"remark"`
}

// ApplyPayment applies a payment to an open invoice with optimistic locking
func (s *InvoiceService) ApplyPayment(ctx context.Context, tenantID, invoiceID uuid.UUID, req ApplyPaymentRequest) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	amount, err := valueobject.NewMoney(req.Amount, valueobject.Currency(inv.CurrencyCode))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}

	if err := inv.ApplyPayment(amount, req.Reference, req.Remark); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("payment applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("amount", req.Amount.String()),
		zap.String("status", inv.Status.String()))

	return toInvoiceResponse(inv), nil
}

// GetSummary computes open/overdue counts and balances for a report type
func (s *InvoiceService) GetSummary(ctx context.Context, tenantID uuid.UUID, reportType string, asOf time.Time) (*finance.InvoiceSummary, error) {
	invoiceType := finance.InvoiceType(reportType)
	if !invoiceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", "Report type must be RECEIVABLE or PAYABLE")
	}
	return s.invoiceRepo.Summarize(ctx, tenantID, invoiceType, asOf)
}
