package finance

import (
	"time"

	"github.com/ebms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceCreatedEvent is raised when a new invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	InvoiceType    InvoiceType     `json:"invoice_type"`
	CounterpartyID *uuid.UUID      `json:"counterparty_id,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CurrencyCode   string          `json:"currency_code"`
	DueDate        time.Time       `json:"due_date"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return "InvoiceCreated"
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCreated", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		InvoiceType:     inv.Type,
		CounterpartyID:  inv.CounterpartyID,
		TotalAmount:     inv.TotalAmount,
		CurrencyCode:    inv.CurrencyCode,
		DueDate:         inv.DueDate,
	}
}

// InvoicePaymentAppliedEvent is raised when a partial payment is applied
type InvoicePaymentAppliedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
}

// EventType returns the event type name
func (e *InvoicePaymentAppliedEvent) EventType() string {
	return "InvoicePaymentApplied"
}

// NewInvoicePaymentAppliedEvent creates a new InvoicePaymentAppliedEvent
func NewInvoicePaymentAppliedEvent(inv *Invoice, paymentAmount decimal.Decimal) *InvoicePaymentAppliedEvent {
	return &InvoicePaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaymentApplied", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PaymentAmount:   paymentAmount,
		PaidAmount:      inv.PaidAmount,
		BalanceAmount:   inv.BalanceAmount,
	}
}

// InvoicePaidEvent is raised when an invoice becomes fully paid
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaidAt        time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return "InvoicePaid"
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	paidAt := time.Now()
	if inv.PaidAt != nil {
		paidAt = *inv.PaidAt
	}
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaid", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		TotalAmount:     inv.TotalAmount,
		PaidAmount:      inv.PaidAmount,
		PaidAt:          paidAt,
	}
}
