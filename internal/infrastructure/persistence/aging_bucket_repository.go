package persistence

import (
	"context"

	"github.com/ebms/backend/internal/domain/finance"
	"github.com/ebms/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAgingBucketRepository implements AgingBucketRepository using GORM
type GormAgingBucketRepository struct {
	db *gorm.DB
}

// NewGormAgingBucketRepository creates a new GormAgingBucketRepository
func NewGormAgingBucketRepository(db *gorm.DB) *GormAgingBucketRepository {
	return &GormAgingBucketRepository{db: db}
}

// FindActiveByType returns the active buckets for a report type, ordered by
// display order
func (r *GormAgingBucketRepository) FindActiveByType(ctx context.Context, tenantID uuid.UUID, reportType finance.InvoiceType) ([]*finance.AgingBucket, error) {
	var bucketModels []models.AgingBucketModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND report_type = ? AND is_active = ?", tenantID, reportType, true).
		Order("display_order ASC").
		Find(&bucketModels).Error; err != nil {
		return nil, err
	}
	buckets := make([]*finance.AgingBucket, len(bucketModels))
	for i := range bucketModels {
		buckets[i] = bucketModels[i].ToDomain()
	}
	return buckets, nil
}

// ReplaceSet atomically deactivates the current active buckets for the
// report type and inserts the new set
func (r *GormAgingBucketRepository) ReplaceSet(ctx context.Context, tenantID uuid.UUID, reportType finance.InvoiceType, buckets []*finance.AgingBucket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AgingBucketModel{}).
			Where("tenant_id = ? AND report_type = ? AND is_active = ?", tenantID, reportType, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		for _, b := range buckets {
			model := models.AgingBucketModelFromDomain(b)
			if err := tx.Create(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormAgingBucketRepository implements AgingBucketRepository
var _ finance.AgingBucketRepository = (*GormAgingBucketRepository)(nil)
