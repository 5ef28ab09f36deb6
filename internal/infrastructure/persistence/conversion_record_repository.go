package persistence

import (
	"context"
	"strings"

	"github.com/ebms/backend/internal/domain/currency"
	"github.com/ebms/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormConversionRecordRepository implements ConversionRecordRepository using GORM.
// The underlying table is append-only; the repository exposes no update or
// delete operations.
type GormConversionRecordRepository struct {
	db *gorm.DB
}

// NewGormConversionRecordRepository creates a new GormConversionRecordRepository
func NewGormConversionRecordRepository(db *gorm.DB) *GormConversionRecordRepository {
	return &GormConversionRecordRepository{db: db}
}

// Save appends a conversion record
func (r *GormConversionRecordRepository) Save(ctx context.Context, record *currency.ConversionRecord) error {
	model := models.ConversionRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindBySource lists conversion records for a source document
func (r *GormConversionRecordRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]currency.ConversionRecord, error) {
	var recordModels []models.ConversionRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		Order("conversion_date DESC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]currency.ConversionRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// FindAllForTenant lists conversion records for a tenant with filtering
func (r *GormConversionRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter currency.ConversionRecordFilter) ([]currency.ConversionRecord, error) {
	var recordModels []models.ConversionRecordModel
	query := r.db.WithContext(ctx).Model(&models.ConversionRecordModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.SourceType != nil {
		query = query.Where("source_type = ?", *filter.SourceType)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	if filter.FromDate != nil {
		query = query.Where("conversion_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("conversion_date <= ?", *filter.ToDate)
	}

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
		query = query.Order("conversion_date DESC")
	}

	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]currency.ConversionRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// Ensure GormConversionRecordRepository implements ConversionRecordRepository
var _ currency.ConversionRecordRepository = (*GormConversionRecordRepository)(nil)
