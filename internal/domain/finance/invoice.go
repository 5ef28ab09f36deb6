package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ebms/backend/internal/domain/shared"
	"github.com/ebms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes money owed to the tenant from money the tenant owes
type InvoiceType string

const (
	InvoiceTypeReceivable InvoiceType = "RECEIVABLE" // customer owes the tenant
	InvoiceTypePayable    InvoiceType = "PAYABLE"    // tenant owes a supplier
)

// IsValid checks if the invoice type is valid
func (t InvoiceType) IsValid() bool {
	return t == InvoiceTypeReceivable || t == InvoiceTypePayable
}

// String returns the string representation of InvoiceType
func (t InvoiceType) String() string {
	return string(t)
}

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusOpen InvoiceStatus = "OPEN" // outstanding balance above the rounding epsilon
	InvoiceStatusPaid InvoiceStatus = "PAID" // balance settled within the rounding epsilon
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusOpen || s == InvoiceStatusPaid
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// paidEpsilon is the rounding tolerance under which an invoice counts as
// fully paid. Balances within ±0.01 of zero flip the status to PAID.
var paidEpsilon = decimal.NewFromFloat(0.01)

// PaymentRecord represents a payment applied to the invoice.
// It is a value object within the Invoice aggregate, stored as JSONB.
type PaymentRecord struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	AppliedAt time.Time       `json:"applied_at"`
	Reference string          `json:"reference,omitempty"` // external payment reference
	Remark    string          `json:"remark,omitempty"`
}

// PaymentRecords is a slice of PaymentRecord that implements GORM Scanner/Valuer for JSONB storage
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Invoice represents a receivable or payable invoice aggregate root.
// The balance is recomputed whenever the paid amount changes and the
// status flips to PAID once the balance falls within the rounding epsilon.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber    string          `json:"invoice_number"`
	Type             InvoiceType     `json:"type"`
	CounterpartyID   *uuid.UUID      `json:"counterparty_id"` // customer or supplier; may be absent for ad-hoc entries
	CounterpartyName string          `json:"counterparty_name"`
	CurrencyCode     string          `json:"currency_code"`
	InvoiceDate      time.Time       `json:"invoice_date"`
	DueDate          time.Time       `json:"due_date"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	BalanceAmount    decimal.Decimal `json:"balance_amount"` // total - paid
	Status           InvoiceStatus   `json:"status"`
	PaymentRecords   PaymentRecords  `json:"payment_records"`
	Remark           string          `json:"remark"`
	PaidAt           *time.Time      `json:"paid_at"`
}

// NewInvoice creates a new open invoice
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	invoiceType InvoiceType,
	counterpartyID *uuid.UUID,
	counterpartyName string,
	currencyCode string,
	invoiceDate time.Time,
	dueDate time.Time,
	totalAmount valueobject.Money,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if !invoiceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", "Invoice type must be RECEIVABLE or PAYABLE")
	}
	if counterpartyID != nil && *counterpartyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty ID cannot be the nil UUID")
	}
	if currencyCode == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY_CODE", "Currency code cannot be empty")
	}
	if dueDate.Before(invoiceDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot precede invoice date")
	}
	if totalAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		Type:                invoiceType,
		CounterpartyID:      counterpartyID,
		CounterpartyName:    counterpartyName,
		CurrencyCode:        currencyCode,
		InvoiceDate:         invoiceDate,
		DueDate:             dueDate,
		TotalAmount:         totalAmount.Amount(),
		PaidAmount:          decimal.Zero,
		BalanceAmount:       totalAmount.Amount(),
		Status:              InvoiceStatusOpen,
		PaymentRecords:      PaymentRecords{},
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// ApplyPayment applies a payment to the invoice, recomputing the balance
// and flipping the status to PAID once the balance is within the epsilon
func (inv *Invoice) ApplyPayment(amount valueobject.Money, reference, remark string) error {
	if inv.Status != InvoiceStatusOpen {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(inv.BalanceAmount) {
		return shared.NewDomainError("EXCEEDS_BALANCE", fmt.Sprintf("Payment amount %.2f exceeds balance %.2f",
			amount.Amount().InexactFloat64(), inv.BalanceAmount.InexactFloat64()))
	}

	inv.PaymentRecords = append(inv.PaymentRecords, PaymentRecord{
		ID:        uuid.New(),
		Amount:    amount.Amount(),
		AppliedAt: time.Now(),
		Reference: reference,
		Remark:    remark,
	})

	inv.PaidAmount = inv.PaidAmount.Add(amount.Amount())
	inv.recomputeBalance()

	if inv.Status == InvoiceStatusPaid {
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else {
		inv.AddDomainEvent(NewInvoicePaymentAppliedEvent(inv, amount.Amount()))
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// recomputeBalance derives the balance from total and paid amounts and
// updates the status accordingly
func (inv *Invoice) recomputeBalance() {
	inv.BalanceAmount = inv.TotalAmount.Sub(inv.PaidAmount)
	if inv.BalanceAmount.Abs().LessThanOrEqual(paidEpsilon) {
		if inv.Status != InvoiceStatusPaid {
			now := time.Now()
			inv.Status = InvoiceStatusPaid
			inv.PaidAt = &now
		}
	} else {
		inv.Status = InvoiceStatusOpen
	}
}

// IsOpen returns true if the invoice still has an outstanding balance
func (inv *Invoice) IsOpen() bool {
	return inv.Status == InvoiceStatusOpen
}

// IsPaid returns true if the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// DaysPastDue returns the whole days between the due date and asOf,
// negative when the invoice is not yet due
func (inv *Invoice) DaysPastDue(asOf time.Time) int {
	due := truncateToDay(inv.DueDate)
	ref := truncateToDay(asOf)
	return int(ref.Sub(due).Hours() / 24)
}

// IsOverdue returns true if the invoice is open and past its due date
func (inv *Invoice) IsOverdue(asOf time.Time) bool {
	return inv.IsOpen() && inv.DaysPastDue(asOf) > 0
}

// truncateToDay drops the time-of-day component in UTC
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
