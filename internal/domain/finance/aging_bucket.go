package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/ebms/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AgingBucket is a tenant-configured day-range classification used by the
// aging report, e.g. "31-60 days past due". Buckets are matched in display
// order; the first bucket covering an invoice's days-past-due wins.
type AgingBucket struct {
	shared.TenantAggregateRoot
	ReportType   InvoiceType `json:"report_type"`
	Label        string      `json:"label"`
	MinDays      int         `json:"min_days"`
	MaxDays      *int        `json:"max_days,omitempty"` // absent means unbounded
	DisplayOrder int         `json:"display_order"`
	IsActive     bool        `json:"is_active"`
}

// NewAgingBucket creates a new aging bucket definition
func NewAgingBucket(
	tenantID uuid.UUID,
	reportType InvoiceType,
	label string,
	minDays int,
	maxDays *int,
	displayOrder int,
) (*AgingBucket, error) {
	if !reportType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REPORT_TYPE", "Report type must be RECEIVABLE or PAYABLE")
	}
	if label == "" {
		return nil, shared.NewDomainError("INVALID_BUCKET_LABEL", "Bucket label cannot be empty")
	}
	if maxDays != nil && *maxDays < minDays {
		return nil, shared.NewDomainError("INVALID_BUCKET_RANGE", "Max days cannot be less than min days")
	}

	return &AgingBucket{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReportType:          reportType,
		Label:               label,
		MinDays:             minDays,
		MaxDays:             maxDays,
		DisplayOrder:        displayOrder,
		IsActive:            true,
	}, nil
}

// Matches reports whether daysPastDue falls within this bucket's range
func (b *AgingBucket) Matches(daysPastDue int) bool {
	if daysPastDue < b.MinDays {
		return false
	}
	if b.MaxDays != nil && daysPastDue > *b.MaxDays {
		return false
	}
	return true
}

// Deactivate soft-deactivates the bucket
func (b *AgingBucket) Deactivate() {
	if !b.IsActive {
		return
	}
	b.IsActive = false
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

// ValidateBucketSet checks a replacement bucket configuration for a report
// type. A valid set is non-empty, has unique display orders, leaves no gap
// and no overlap between consecutive ranges, and ends with a single
// unbounded bucket so every non-negative days-past-due value is covered.
// Not-yet-due invoices (negative days past due) may still fall outside the
// set; the classifier reports those balances as unclassified rather than
// dropping them.
func ValidateBucketSet(buckets []*AgingBucket) error {
	if len(buckets) == 0 {
		return shared.NewDomainError("INVALID_BUCKET_SET", "At least one aging bucket is required")
	}

	sorted := make([]*AgingBucket, len(buckets))
	copy(sorted, buckets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DisplayOrder < sorted[j].DisplayOrder
	})

	reportType := sorted[0].ReportType
	for i, b := range sorted {
		if b.ReportType != reportType {
			return shared.NewDomainError("INVALID_BUCKET_SET", "All buckets in a set must share the same report type")
		}
		if i > 0 && b.DisplayOrder == sorted[i-1].DisplayOrder {
			return shared.NewDomainError("INVALID_BUCKET_SET", fmt.Sprintf("Duplicate display order %d", b.DisplayOrder))
		}

		last := i == len(sorted)-1
		if last {
			if b.MaxDays != nil {
				return shared.NewDomainError("INVALID_BUCKET_SET", "The final bucket must be unbounded (no max days)")
			}
			continue
		}
		if b.MaxDays == nil {
			return shared.NewDomainError("INVALID_BUCKET_SET", fmt.Sprintf("Bucket %q is unbounded but not last", b.Label))
		}
		next := sorted[i+1]
		switch {
		case next.MinDays <= *b.MaxDays:
			return shared.NewDomainError("INVALID_BUCKET_SET", fmt.Sprintf("Buckets %q and %q overlap", b.Label, next.Label))
		case next.MinDays > *b.MaxDays+1:
			return shared.NewDomainError("INVALID_BUCKET_SET", fmt.Sprintf("Gap between buckets %q and %q", b.Label, next.Label))
		}
	}

	return nil
}
