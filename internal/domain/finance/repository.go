package finance

import (
	"context"
	"time"

	"github.com/ebms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	Type           *InvoiceType     // Filter by receivable/payable
	Status         *InvoiceStatus   // Filter by status
	CounterpartyID *uuid.UUID       // Filter by customer or supplier
	InvoiceFrom    *time.Time       // Filter by invoice date range start
	InvoiceTo      *time.Time       // Filter by invoice date range end
	DueFrom        *time.Time       // Filter by due date range start
	DueTo          *time.Time       // Filter by due date range end
	Overdue        *bool            // Filter only overdue invoices
	MinBalance     *decimal.Decimal // Filter by minimum balance
}

// InvoiceSummary holds aggregate totals for a tenant and report type
type InvoiceSummary struct {
	OpenCount          int64           `json:"open_count"`
	OverdueCount       int64           `json:"overdue_count"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	OverdueBalance     decimal.Decimal `json:"overdue_balance"`
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by invoice number for a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)

	// FindAllForTenant lists invoices for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindOpenForAging returns open invoices of the given type with an
	// invoice date at or before asOf, the classifier's working set
	FindOpenForAging(ctx context.Context, tenantID uuid.UUID, invoiceType InvoiceType, asOf time.Time) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, inv *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, inv *Invoice) error

	// CountForTenant counts invoices for a tenant with filtering
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)

	// ExistsByNumber checks if an invoice number exists for a tenant
	ExistsByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error)

	// Summarize computes open/overdue counts and balances for a report type
	Summarize(ctx context.Context, tenantID uuid.UUID, invoiceType InvoiceType, asOf time.Time) (*InvoiceSummary, error)

	// GenerateInvoiceNumber generates a unique invoice number for a tenant
	GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceType InvoiceType) (string, error)
}

// AgingBucketRepository defines the interface for aging bucket configuration
type AgingBucketRepository interface {
	// FindActiveByType returns the active buckets for a report type,
	// ordered by display order
	FindActiveByType(ctx context.Context, tenantID uuid.UUID, reportType InvoiceType) ([]*AgingBucket, error)

	// ReplaceSet atomically deactivates the current active buckets for
	// the report type and inserts the new set. Callers validate the set
	// with ValidateBucketSet first.
	ReplaceSet(ctx context.Context, tenantID uuid.UUID, reportType InvoiceType, buckets []*AgingBucket) error
}
