package finance

import (
	"context"
	"time"

	"github.com/ebms/backend/internal/domain/finance"
	"github.com/ebms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AgingReportService generates days-past-due aging reports over open
// invoices, using tenant-configured bucket definitions
type AgingReportService struct {
	invoiceRepo finance.InvoiceRepository
	bucketRepo  finance.AgingBucketRepository
	logger      *zap.Logger
}

// NewAgingReportService creates a new AgingReportService
func NewAgingReportService(
	invoiceRepo finance.InvoiceRepository,
	bucketRepo finance.AgingBucketRepository,
	logger *zap.Logger,
) *AgingReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgingReportService{
		invoiceRepo: invoiceRepo,
		bucketRepo:  bucketRepo,
		logger:      logger,
	}
}

// ===================== Response DTOs =====================

// AgingBucketResponse represents a bucket definition in API responses
type AgingBucketResponse struct {
	ID           uuid.UUID `json:"id"`
	ReportType   string    `json:"report_type"`
	Label        string    `json:"label"`
	MinDays      int       `json:"min_days"`
	MaxDays      *int      `json:"max_days,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
}

func toAgingBucketResponse(b *finance.AgingBucket) AgingBucketResponse {
	return AgingBucketResponse{
		ID:           b.ID,
		ReportType:   b.ReportType.String(),
		Label:        b.Label,
		MinDays:      b.MinDays,
		MaxDays:      b.MaxDays,
		DisplayOrder: b.DisplayOrder,
		IsActive:     b.IsActive,
	}
}

// AgingReportResponse is the full report for one tenant and report type
type AgingReportResponse struct {
	ReportType string                   `json:"report_type"`
	AsOf       time.Time                `json:"as_of"`
	Buckets    []AgingBucketResponse    `json:"buckets"`
	Rows       []finance.AgingReportRow `json:"rows"`
}

// ===================== Bucket Configuration =====================

// BucketDefinition is one bucket in a replacement configuration request
type BucketDefinition struct {
	Label        string `json:"label" binding:"required"`
	MinDays      int    `json:"min_days"`
	MaxDays      *int   `json:"max_days"`
	DisplayOrder int    `json:"display_order"`
}

// ConfigureBucketsRequest replaces the active bucket set for a report type
type ConfigureBucketsRequest struct {
	ReportType string             `json:"report_type" binding:"required"`
	Buckets    []BucketDefinition `json:"buckets" binding:"required"`
}

// ConfigureBuckets validates and atomically replaces the tenant's bucket
// configuration for a report type. Invalid sets (overlaps, gaps, bounded
// final bucket) are rejected before anything is written.
func (s *AgingReportService) ConfigureBuckets(ctx context.Context, tenantID uuid.UUID, req ConfigureBucketsRequest) ([]AgingBucketResponse, error) {
	reportType := finance.InvoiceType(req.ReportType)
	if !reportType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REPORT_TYPE", "Report type must be RECEIVABLE or PAYABLE")
	}

	buckets := make([]*finance.AgingBucket, 0, len(req.Buckets))
	for _, def := range req.Buckets {
		b, err := finance.NewAgingBucket(tenantID, reportType, def.Label, def.MinDays, def.MaxDays, def.DisplayOrder)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}

	if err := finance.ValidateBucketSet(buckets); err != nil {
		return nil, err
	}

	if err := s.bucketRepo.ReplaceSet(ctx, tenantID, reportType, buckets); err != nil {
		return nil, err
	}

	s.logger.Info("aging buckets configured",
		zap.String("tenant_id", tenantID.String()),
		zap.String("report_type", reportType.String()),
		zap.Int("bucket_count", len(buckets)))

	responses := make([]AgingBucketResponse, len(buckets))
	for i, b := range buckets {
		responses[i] = toAgingBucketResponse(b)
	}
	return responses, nil
}

// ListBuckets returns the active bucket configuration for a report type
func (s *AgingReportService) ListBuckets(ctx context.Context, tenantID uuid.UUID, reportType string) ([]AgingBucketResponse, error) {
	invoiceType := finance.InvoiceType(reportType)
	if !invoiceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REPORT_TYPE", "Report type must be RECEIVABLE or PAYABLE")
	}

	buckets, err := s.bucketRepo.FindActiveByType(ctx, tenantID, invoiceType)
	if err != nil {
		return nil, err
	}

	responses := make([]AgingBucketResponse, len(buckets))
	for i, b := range buckets {
		responses[i] = toAgingBucketResponse(b)
	}
	return responses, nil
}

// ===================== Report Generation =====================

// GenerateReport buckets open invoice balances by days past due as of the
// given date, one row per counterparty with a positive outstanding total
func (s *AgingReportService) GenerateReport(ctx context.Context, tenantID uuid.UUID, reportType string, asOf time.Time) (*AgingReportResponse, error) {
	invoiceType := finance.InvoiceType(reportType)
	if !invoiceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REPORT_TYPE", "Report type must be RECEIVABLE or PAYABLE")
	}

	buckets, err := s.bucketRepo.FindActiveByType(ctx, tenantID, invoiceType)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "No aging buckets configured for report type")
	}

	invoices, err := s.invoiceRepo.FindOpenForAging(ctx, tenantID, invoiceType, asOf)
	if err != nil {
		return nil, err
	}

	rows := finance.ClassifyInvoices(buckets, invoices, asOf)

	s.logger.Debug("aging report generated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("report_type", invoiceType.String()),
		zap.Int("invoice_count", len(invoices)),
		zap.Int("row_count", len(rows)))

	bucketResponses := make([]AgingBucketResponse, len(buckets))
	for i, b := range buckets {
		bucketResponses[i] = toAgingBucketResponse(b)
	}

	return &AgingReportResponse{
		ReportType: invoiceType.String(),
		AsOf:       asOf,
		Buckets:    bucketResponses,
		Rows:       rows,
	}, nil
}
