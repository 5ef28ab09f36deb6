package models

import (
	"time"

	"github.com/ebms/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber    string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	Type             finance.InvoiceType    `gorm:"type:varchar(20);not null;index"`
	CounterpartyID   *uuid.UUID             `gorm:"type:uuid;index"`
	CounterpartyName string                 `gorm:"type:varchar(200)"`
	CurrencyCode     string                 `gorm:"type:varchar(3);not null"`
	InvoiceDate      time.Time              `gorm:"not null;index"`
	DueDate          time.Time              `gorm:"not null;index"`
	TotalAmount      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidAmount       decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	BalanceAmount    decimal.Decimal        `gorm:"type:decimal(18,4);not null;index"`
	Status           finance.InvoiceStatus  `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	PaymentRecords   finance.PaymentRecords `gorm:"type:jsonb;default:'[]'"`
	Remark           string                 `gorm:"type:text"`
	PaidAt           *time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	inv := &finance.Invoice{
		InvoiceNumber:    m.InvoiceNumber,
		Type:             m.Type,
		CounterpartyID:   m.CounterpartyID,
		CounterpartyName: m.CounterpartyName,
		CurrencyCode:     m.CurrencyCode,
		InvoiceDate:      m.InvoiceDate,
		DueDate:          m.DueDate,
		TotalAmount:      m.TotalAmount,
		PaidAmount:       m.PaidAmount,
		BalanceAmount:    m.BalanceAmount,
		Status:           m.Status,
		PaymentRecords:   m.PaymentRecords,
		Remark:           m.Remark,
		PaidAt:           m.PaidAt,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *finance.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.Type = inv.Type
	m.CounterpartyID = inv.CounterpartyID
	m.CounterpartyName = inv.CounterpartyName
	m.CurrencyCode = inv.CurrencyCode
	m.InvoiceDate = inv.InvoiceDate
	m.DueDate = inv.DueDate
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.BalanceAmount = inv.BalanceAmount
	m.Status = inv.Status
	m.PaymentRecords = inv.PaymentRecords
	m.Remark = inv.Remark
	m.PaidAt = inv.PaidAt
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// AgingBucketModel is the persistence model for the AgingBucket aggregate root.
type AgingBucketModel struct {
	TenantAggregateModel
	ReportType   finance.InvoiceType `gorm:"type:varchar(20);not null;index:idx_bucket_tenant_type,priority:2"`
	Label        string              `gorm:"type:varchar(100);not null"`
	MinDays      int                 `gorm:"not null"`
	MaxDays      *int
	DisplayOrder int  `gorm:"not null"`
	IsActive     bool `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (AgingBucketModel) TableName() string {
	return "aging_buckets"
}

// ToDomain converts the persistence model to a domain AgingBucket entity.
func (m *AgingBucketModel) ToDomain() *finance.AgingBucket {
	b := &finance.AgingBucket{
		ReportType:   m.ReportType,
		Label:        m.Label,
		MinDays:      m.MinDays,
		MaxDays:      m.MaxDays,
		DisplayOrder: m.DisplayOrder,
		IsActive:     m.IsActive,
	}
	m.PopulateTenantAggregateRoot(&b.TenantAggregateRoot)
	return b
}

// FromDomain populates the persistence model from a domain AgingBucket entity.
func (m *AgingBucketModel) FromDomain(b *finance.AgingBucket) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.ReportType = b.ReportType
	m.Label = b.Label
	m.MinDays = b.MinDays
	m.MaxDays = b.MaxDays
	m.DisplayOrder = b.DisplayOrder
	m.IsActive = b.IsActive
}

// AgingBucketModelFromDomain creates a new persistence model from a domain AgingBucket.
func AgingBucketModelFromDomain(b *finance.AgingBucket) *AgingBucketModel {
	m := &AgingBucketModel{}
	m.FromDomain(b)
	return m
}
