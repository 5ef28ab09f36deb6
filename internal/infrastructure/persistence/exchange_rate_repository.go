package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ebms/backend/internal/domain/currency"
	"github.com/ebms/backend/internal/domain/shared"
	"github.com/ebms/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExchangeRateRepository implements ExchangeRateRepository using GORM
type GormExchangeRateRepository struct {
	db *gorm.DB
}

// NewGormExchangeRateRepository creates a new GormExchangeRateRepository
func NewGormExchangeRateRepository(db *gorm.DB) *GormExchangeRateRepository {
	return &GormExchangeRateRepository{db: db}
}

// FindByID finds an exchange rate by ID for a tenant
func (r *GormExchangeRateRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*currency.ExchangeRate, error) {
	var model models.ExchangeRateModel
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

// FindEffectiveRate returns the latest active rate for the exact (from, to)
// pair in effect at asOf. Only the stored direction is consulted; inverse
// fallback is the caller's concern.
func (r *GormExchangeRateRepository) FindEffectiveRate(ctx context.Context, tenantID uuid.UUID, fromCurrency, toCurrency string, asOf time.Time) (*currency.ExchangeRate, error) {
	var model models.ExchangeRateModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND from_currency = ? AND to_currency = ? AND is_active = ?",
			tenantID, strings.ToUpper(fromCurrency), strings.ToUpper(toCurrency), true).
		Where("effective_date <= ?", asOf).
		Where("expiry_date IS NULL OR expiry_date >= ?", asOf).
		Order("effective_date DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists exchange rates for a tenant with filtering
func (r *GormExchangeRateRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter currency.ExchangeRateFilter) ([]currency.ExchangeRate, error) {
	var rateModels []models.ExchangeRateModel
	query := r.db.WithContext(ctx).Model(&models.ExchangeRateModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyRateFilter(query, filter)

	if err := query.Find(&rateModels).Error; err != nil {
		return nil, err
	}
	rates := make([]currency.ExchangeRate, len(rateModels))
	for i, model := range rateModels {
		rates[i] = *model.ToDomain()
	}
	return rates, nil
}

// Save creates or updates an exchange rate
func (r *GormExchangeRateRepository) Save(ctx context.Context, rate *currency.ExchangeRate) error {
	model := models.ExchangeRateModelFromDomain(rate)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAndSupersede persists a new rate and deactivates prior active rates
// for the same (from, to) pair in one transaction. The reverse pair is left
// untouched.
func (r *GormExchangeRateRepository) SaveAndSupersede(ctx context.Context, rate *currency.ExchangeRate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ExchangeRateModel{}).
			Where("tenant_id = ? AND from_currency = ? AND to_currency = ? AND is_active = ? AND id != ?",
				rate.TenantID, rate.FromCurrency, rate.ToCurrency, true, rate.ID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		model := models.ExchangeRateModelFromDomain(rate)
		return tx.Save(model).Error
	})
}

// CountForTenant counts exchange rates for a tenant with filtering
func (r *GormExchangeRateRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter currency.ExchangeRateFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ExchangeRateModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyRateFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyRateFilter applies filter options to the query
func (r *GormExchangeRateRepository) applyRateFilter(query *gorm.DB, filter currency.ExchangeRateFilter) *gorm.DB {
	query = r.applyRateFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("effective_date DESC")
	}

	return query
}

// applyRateFilterWithoutPagination applies filter options without pagination
func (r *GormExchangeRateRepository) applyRateFilterWithoutPagination(query *gorm.DB, filter currency.ExchangeRateFilter) *gorm.DB {
	if filter.FromCurrency != nil {
		query = query.Where("from_currency = ?", strings.ToUpper(*filter.FromCurrency))
	}
	if filter.ToCurrency != nil {
		query = query.Where("to_currency = ?", strings.ToUpper(*filter.ToCurrency))
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// Ensure GormExchangeRateRepository implements ExchangeRateRepository
var _ currency.ExchangeRateRepository = (*GormExchangeRateRepository)(nil)
