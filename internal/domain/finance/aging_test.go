package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func buildBucketSet(t *testing.T, tenantID uuid.UUID) []*AgingBucket {
	t.Helper()
	current, err := NewAgingBucket(tenantID, InvoiceTypeReceivable, "Current", 0, intPtr(30), 1)
	require.NoError(t, err)
	mid, err := NewAgingBucket(tenantID, InvoiceTypeReceivable, "31-60", 31, intPtr(60), 2)
	require.NoError(t, err)
	old, err := NewAgingBucket(tenantID, InvoiceTypeReceivable, "60+", 61, nil, 3)
	require.NoError(t, err)
	return []*AgingBucket{current, mid, old}
}

func agingInvoice(t *testing.T, tenantID uuid.UUID, counterpartyID *uuid.UUID, name, number, balance string, dueDate time.Time) Invoice {
	t.Helper()
	inv, err := NewInvoice(tenantID, number, InvoiceTypeReceivable, counterpartyID, name,
		"USD", dueDate.AddDate(0, -1, 0), dueDate, mustMoney(t, balance))
	require.NoError(t, err)
	return *inv
}

// ============================================
// Bucket definitions
// ============================================

func TestNewAgingBucket(t *testing.T) {
	t.Run("creates bucket", func(t *testing.T) {
		b, err := NewAgingBucket(uuid.New(), InvoiceTypeReceivable, "Current", 0, intPtr(30), 1)
		require.NoError(t, err)
		assert.True(t, b.IsActive)
		assert.Equal(t, 0, b.MinDays)
	})

	t.Run("rejects invalid report type", func(t *testing.T) {
		_, err := NewAgingBucket(uuid.New(), "LEDGER", "Current", 0, intPtr(30), 1)
		assert.Error(t, err)
	})

	t.Run("rejects empty label", func(t *testing.T) {
		_, err := NewAgingBucket(uuid.New(), InvoiceTypeReceivable, "", 0, intPtr(30), 1)
		assert.Error(t, err)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := NewAgingBucket(uuid.New(), InvoiceTypeReceivable, "Broken", 31, intPtr(30), 1)
		assert.Error(t, err)
	})
}

func TestAgingBucketMatches(t *testing.T) {
	bounded, err := NewAgingBucket(uuid.New(), InvoiceTypeReceivable, "31-60", 31, intPtr(60), 1)
	require.NoError(t, err)
	unbounded, err := NewAgingBucket(uuid.New(), InvoiceTypeReceivable, "60+", 61, nil, 2)
	require.NoError(t, err)

	assert.False(t, bounded.Matches(30))
	assert.True(t, bounded.Matches(31))
	assert.True(t, bounded.Matches(60))
	assert.False(t, bounded.Matches(61))

	assert.True(t, unbounded.Matches(61))
	assert.True(t, unbounded.Matches(10000))
	assert.False(t, unbounded.Matches(60))
}

func TestValidateBucketSet(t *testing.T) {
	tenantID := uuid.New()

	t.Run("accepts contiguous set ending unbounded", func(t *testing.T) {
		assert.NoError(t, ValidateBucketSet(buildBucketSet(t, tenantID)))
	})

	t.Run("rejects empty set", func(t *testing.T) {
		assert.Error(t, ValidateBucketSet(nil))
	})

	t.Run("rejects bounded final bucket", func(t *testing.T) {
		b1, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "Current", 0, intPtr(30), 1)
		b2, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "31-60", 31, intPtr(60), 2)
		err := ValidateBucketSet([]*AgingBucket{b1, b2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unbounded")
	})

	t.Run("rejects gap between buckets", func(t *testing.T) {
		b1, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "Current", 0, intPtr(30), 1)
		b2, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "32+", 32, nil, 2)
		err := ValidateBucketSet([]*AgingBucket{b1, b2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Gap")
	})

	t.Run("rejects overlapping buckets", func(t *testing.T) {
		b1, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "Current", 0, intPtr(30), 1)
		b2, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "30+", 30, nil, 2)
		err := ValidateBucketSet([]*AgingBucket{b1, b2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "overlap")
	})

	t.Run("rejects unbounded bucket before the end", func(t *testing.T) {
		b1, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "Everything", 0, nil, 1)
		b2, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "60+", 61, nil, 2)
		err := ValidateBucketSet([]*AgingBucket{b1, b2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not last")
	})

	t.Run("rejects mixed report types", func(t *testing.T) {
		b1, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "Current", 0, intPtr(30), 1)
		b2, _ := NewAgingBucket(tenantID, InvoiceTypePayable, "31+", 31, nil, 2)
		err := ValidateBucketSet([]*AgingBucket{b1, b2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report type")
	})

	t.Run("rejects duplicate display order", func(t *testing.T) {
		b1, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "Current", 0, intPtr(30), 1)
		b2, _ := NewAgingBucket(tenantID, InvoiceTypeReceivable, "31+", 31, nil, 1)
		err := ValidateBucketSet([]*AgingBucket{b1, b2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Duplicate")
	})
}

// ============================================
// Classification
// ============================================

func TestClassifyInvoices(t *testing.T) {
	tenantID := uuid.New()
	asOf := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	buckets := buildBucketSet(t, tenantID)

	t.Run("45 days past due lands in the 31-60 bucket", func(t *testing.T) {
		counterparty := uuid.New()
		invoices := []Invoice{
			agingInvoice(t, tenantID, &counterparty, "Acme", "INV-1", "250.00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		}

		rows := ClassifyInvoices(buckets, invoices, asOf)
		require.Len(t, rows, 1)
		require.Len(t, rows[0].Buckets, 3)
		assert.True(t, rows[0].Buckets[0].Amount.IsZero())
		assert.True(t, rows[0].Buckets[1].Amount.Equal(decimal.NewFromInt(250)), "expected 250 in 31-60, got %s", rows[0].Buckets[1].Amount)
		assert.True(t, rows[0].Buckets[2].Amount.IsZero())
		assert.True(t, rows[0].UnclassifiedAmount.IsZero())
	})

	t.Run("boundary day goes to the first matching bucket", func(t *testing.T) {
		counterparty := uuid.New()
		// exactly 30 days past due: covered by both a [0-30] bucket and
		// a hypothetical overlapping one; first in display order wins
		invoices := []Invoice{
			agingInvoice(t, tenantID, &counterparty, "Acme", "INV-1", "100.00", asOf.AddDate(0, 0, -30)),
		}

		rows := ClassifyInvoices(buckets, invoices, asOf)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Buckets[0].Amount.Equal(decimal.NewFromInt(100)))
		assert.True(t, rows[0].Buckets[1].Amount.IsZero())
	})

	t.Run("bucket amounts plus unclassified equal the total", func(t *testing.T) {
		counterparty := uuid.New()
		invoices := []Invoice{
			agingInvoice(t, tenantID, &counterparty, "Acme", "INV-1", "100.00", asOf.AddDate(0, 0, -10)),
			agingInvoice(t, tenantID, &counterparty, "Acme", "INV-2", "200.00", asOf.AddDate(0, 0, -45)),
			agingInvoice(t, tenantID, &counterparty, "Acme", "INV-3", "300.00", asOf.AddDate(0, 0, -90)),
			// not yet due: no bucket covers negative days past due
			agingInvoice(t, tenantID, &counterparty, "Acme", "INV-4", "50.00", asOf.AddDate(0, 0, 20)),
		}

		rows := ClassifyInvoices(buckets, invoices, asOf)
		require.Len(t, rows, 1)

		row := rows[0]
		sum := row.UnclassifiedAmount
		for _, b := range row.Buckets {
			sum = sum.Add(b.Amount)
		}
		assert.True(t, sum.Equal(row.TotalBalance), "buckets+unclassified %s != total %s", sum, row.TotalBalance)
		assert.True(t, row.UnclassifiedAmount.Equal(decimal.NewFromInt(50)))
		assert.True(t, row.TotalBalance.Equal(decimal.NewFromInt(650)))
		assert.Equal(t, 4, row.InvoiceCount)
	})

	t.Run("skips invoices without a counterparty", func(t *testing.T) {
		counterparty := uuid.New()
		invoices := []Invoice{
			agingInvoice(t, tenantID, &counterparty, "Acme", "INV-1", "100.00", asOf.AddDate(0, 0, -5)),
			agingInvoice(t, tenantID, nil, "", "INV-2", "999.00", asOf.AddDate(0, 0, -5)),
		}

		rows := ClassifyInvoices(buckets, invoices, asOf)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].TotalBalance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("skips invoices dated after asOf", func(t *testing.T) {
		counterparty := uuid.New()
		future := agingInvoice(t, tenantID, &counterparty, "Acme", "INV-1", "100.00", asOf.AddDate(0, 2, 0))
		rows := ClassifyInvoices(buckets, []Invoice{future}, asOf)
		assert.Empty(t, rows)
	})

	t.Run("omits counterparties with non-positive totals", func(t *testing.T) {
		counterparty := uuid.New()
		inv := agingInvoice(t, tenantID, &counterparty, "Acme", "INV-1", "100.00", asOf.AddDate(0, 0, -5))
		require.NoError(t, inv.ApplyPayment(mustMoney(t, "100.00"), "PAY-1", ""))
		// paid invoice has zero balance; row total is zero and dropped
		rows := ClassifyInvoices(buckets, []Invoice{inv}, asOf)
		assert.Empty(t, rows)
	})

	t.Run("rows sorted by total balance descending", func(t *testing.T) {
		small := uuid.New()
		large := uuid.New()
		invoices := []Invoice{
			agingInvoice(t, tenantID, &small, "Small Co", "INV-1", "100.00", asOf.AddDate(0, 0, -5)),
			agingInvoice(t, tenantID, &large, "Large Co", "INV-2", "900.00", asOf.AddDate(0, 0, -5)),
		}

		rows := ClassifyInvoices(buckets, invoices, asOf)
		require.Len(t, rows, 2)
		assert.Equal(t, "Large Co", rows[0].CounterpartyName)
		assert.Equal(t, "Small Co", rows[1].CounterpartyName)
	})

	t.Run("ignores inactive buckets", func(t *testing.T) {
		counterparty := uuid.New()
		set := buildBucketSet(t, tenantID)
		set[1].Deactivate()
		invoices := []Invoice{
			agingInvoice(t, tenantID, &counterparty, "Acme", "INV-1", "100.00", asOf.AddDate(0, 0, -45)),
		}

		rows := ClassifyInvoices(set, invoices, asOf)
		require.Len(t, rows, 1)
		require.Len(t, rows[0].Buckets, 2)
		// 45 days past due no longer covered once 31-60 is inactive
		assert.True(t, rows[0].UnclassifiedAmount.Equal(decimal.NewFromInt(100)))
	})
}
