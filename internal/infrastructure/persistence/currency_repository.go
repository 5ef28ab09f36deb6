package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/ebms/backend/internal/domain/currency"
	"github.com/ebms/backend/internal/domain/shared"
	"github.com/ebms/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCurrencyRepository implements CurrencyRepository using GORM
type GormCurrencyRepository struct {
	db *gorm.DB
}

// NewGormCurrencyRepository creates a new GormCurrencyRepository
func NewGormCurrencyRepository(db *gorm.DB) *GormCurrencyRepository {
	return &GormCurrencyRepository{db: db}
}

// FindByID finds a currency by ID for a tenant
func (r *GormCurrencyRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*currency.Currency, error) {
	var model models.CurrencyModel
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

// FindByCode finds a currency by ISO code for a tenant
func (r *GormCurrencyRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*currency.Currency, error) {
	var model models.CurrencyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBaseCurrency returns the tenant's active base currency
func (r *GormCurrencyRepository) FindBaseCurrency(ctx context.Context, tenantID uuid.UUID) (*currency.Currency, error) {
	var model models.CurrencyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_base_currency = ? AND is_active = ?", tenantID, true, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists currencies for a tenant with filtering
func (r *GormCurrencyRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter currency.CurrencyFilter) ([]currency.Currency, error) {
	var currencyModels []models.CurrencyModel
	query := r.db.WithContext(ctx).Model(&models.CurrencyModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyCurrencyFilter(query, filter)

	if err := query.Find(&currencyModels).Error; err != nil {
		return nil, err
	}
	currencies := make([]currency.Currency, len(currencyModels))
	for i, model := range currencyModels {
		currencies[i] = *model.ToDomain()
	}
	return currencies, nil
}

// Save creates or updates a currency
func (r *GormCurrencyRepository) Save(ctx context.Context, c *currency.Currency) error {
	model := models.CurrencyModelFromDomain(c)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAsBase persists the currency as the tenant's base currency. The
// previous base flag is cleared in the same transaction so at most one base
// currency exists per tenant at any point.
func (r *GormCurrencyRepository) SaveAsBase(ctx context.Context, c *currency.Currency) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CurrencyModel{}).
			Where("tenant_id = ? AND is_base_currency = ? AND id != ?", c.TenantID, true, c.ID).
			Update("is_base_currency", false).Error; err != nil {
			return err
		}
		model := models.CurrencyModelFromDomain(c)
		return tx.Save(model).Error
	})
}

// ExistsByCode checks if a currency code exists for a tenant
func (r *GormCurrencyRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CurrencyModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountForTenant counts currencies for a tenant with filtering
func (r *GormCurrencyRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter currency.CurrencyFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CurrencyModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyCurrencyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyCurrencyFilter applies filter options to the query
func (r *GormCurrencyRepository) applyCurrencyFilter(query *gorm.DB, filter currency.CurrencyFilter) *gorm.DB {
	query = r.applyCurrencyFilterWithoutPagination(query, filter)

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
		query = query.Order("code ASC")
	}

	return query
}

// applyCurrencyFilterWithoutPagination applies filter options without pagination
func (r *GormCurrencyRepository) applyCurrencyFilterWithoutPagination(query *gorm.DB, filter currency.CurrencyFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", searchPattern, searchPattern)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsBase != nil {
		query = query.Where("is_base_currency = ?", *filter.IsBase)
	}
	return query
}

// Ensure GormCurrencyRepository implements CurrencyRepository
var _ currency.CurrencyRepository = (*GormCurrencyRepository)(nil)
