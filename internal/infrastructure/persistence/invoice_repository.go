package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ebms/backend/internal/domain/finance"
	"github.com/ebms/backend/internal/domain/shared"
	"github.com/ebms/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID for a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an invoice by invoice number for a tenant
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists invoices for a tenant with filtering
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.InvoiceFilter) ([]finance.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyInvoiceFilter(query, filter)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]finance.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// FindOpenForAging returns open invoices of the given type with an invoice
// date at or before asOf
func (r *GormInvoiceRepository) FindOpenForAging(ctx context.Context, tenantID uuid.UUID, invoiceType finance.InvoiceType, asOf time.Time) ([]finance.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND type = ? AND status = ? AND invoice_date <= ?",
			tenantID, invoiceType, finance.InvoiceStatusOpen, asOf).
		Order("due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]finance.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *finance.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *finance.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", inv.ID, inv.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// CountForTenant counts invoices for a tenant with filtering
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.InvoiceFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyInvoiceFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByNumber checks if an invoice number exists for a tenant
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Summarize computes open/overdue counts and balances for a report type
func (r *GormInvoiceRepository) Summarize(ctx context.Context, tenantID uuid.UUID, invoiceType finance.InvoiceType, asOf time.Time) (*finance.InvoiceSummary, error) {
	var result struct {
		OpenCount          int64
		OverdueCount       int64
		OutstandingBalance decimal.Decimal
		OverdueBalance     decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select(
			"COUNT(*) as open_count, "+
				"COALESCE(SUM(CASE WHEN due_date < ? THEN 1 ELSE 0 END), 0) as overdue_count, "+
				"COALESCE(SUM(balance_amount), 0) as outstanding_balance, "+
				"COALESCE(SUM(CASE WHEN due_date < ? THEN balance_amount ELSE 0 END), 0) as overdue_balance",
			asOf, asOf).
		Where("tenant_id = ? AND type = ? AND status = ?", tenantID, invoiceType, finance.InvoiceStatusOpen).
		Scan(&result).Error; err != nil {
		return nil, err
	}
	return &finance.InvoiceSummary{
		OpenCount:          result.OpenCount,
		OverdueCount:       result.OverdueCount,
		OutstandingBalance: result.OutstandingBalance,
		OverdueBalance:     result.OverdueBalance,
	}, nil
}

// GenerateInvoiceNumber generates a unique invoice number for a tenant
func (r *GormInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceType finance.InvoiceType) (string, error) {
	// Format: INV-R-YYYYMMDD-XXXXX / INV-P-YYYYMMDD-XXXXX
	typeCode := "R"
	if invoiceType == finance.InvoiceTypePayable {
		typeCode = "P"
	}
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("INV-%s-%s-", typeCode, date)

	// Find the highest number for today
	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("invoice_number").
		Where("tenant_id = ? AND invoice_number LIKE ?", tenantID, prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 4 {
			fmt.Sscanf(parts[3], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// applyInvoiceFilter applies filter options to the query
func (r *GormInvoiceRepository) applyInvoiceFilter(query *gorm.DB, filter finance.InvoiceFilter) *gorm.DB {
	query = r.applyInvoiceFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyInvoiceFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceRepository) applyInvoiceFilterWithoutPagination(query *gorm.DB, filter finance.InvoiceFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ? OR counterparty_name ILIKE ?", searchPattern, searchPattern)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CounterpartyID != nil {
		query = query.Where("counterparty_id = ?", *filter.CounterpartyID)
	}
	if filter.InvoiceFrom != nil {
		query = query.Where("invoice_date >= ?", *filter.InvoiceFrom)
	}
	if filter.InvoiceTo != nil {
		query = query.Where("invoice_date <= ?", *filter.InvoiceTo)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Overdue != nil && *filter.Overdue {
		query = query.Where("due_date < ? AND status = ?", time.Now(), finance.InvoiceStatusOpen)
	}
	if filter.MinBalance != nil {
		query = query.Where("balance_amount >= ?", *filter.MinBalance)
	}
	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)
