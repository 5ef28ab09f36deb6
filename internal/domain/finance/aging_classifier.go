package finance

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BucketAmount is the balance attributed to one configured bucket for a
// single counterparty row
type BucketAmount struct {
	Label   string          `json:"label"`
	MinDays int             `json:"min_days"`
	MaxDays *int            `json:"max_days,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}

// AgingReportRow aggregates a counterparty's outstanding balances by
// days-past-due bucket. TotalBalance always equals the sum of the bucket
// amounts plus UnclassifiedAmount, so balances falling outside every
// configured bucket (typically not-yet-due invoices) remain visible
// instead of silently inflating the total.
type AgingReportRow struct {
	CounterpartyID     uuid.UUID       `json:"counterparty_id"`
	CounterpartyName   string          `json:"counterparty_name"`
	Buckets            []BucketAmount  `json:"buckets"`
	UnclassifiedAmount decimal.Decimal `json:"unclassified_amount"`
	TotalBalance       decimal.Decimal `json:"total_balance"`
	InvoiceCount       int             `json:"invoice_count"`
}

// ClassifyInvoices buckets open invoice balances by days past due, one row
// per counterparty. Buckets are matched in display order and the first
// match wins. Invoices without a counterparty are skipped. Only rows with
// a positive total balance are returned, sorted by total descending.
func ClassifyInvoices(buckets []*AgingBucket, invoices []Invoice, asOf time.Time) []AgingReportRow {
	ordered := make([]*AgingBucket, 0, len(buckets))
	for _, b := range buckets {
		if b.IsActive {
			ordered = append(ordered, b)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayOrder < ordered[j].DisplayOrder
	})

	type accumulator struct {
		row     *AgingReportRow
		amounts []decimal.Decimal
	}

	groups := make(map[uuid.UUID]*accumulator)
	order := make([]uuid.UUID, 0)

	for i := range invoices {
		inv := &invoices[i]
		if inv.CounterpartyID == nil {
			continue
		}
		if inv.InvoiceDate.After(asOf) {
			continue
		}

		id := *inv.CounterpartyID
		acc, ok := groups[id]
		if !ok {
			acc = &accumulator{
				row: &AgingReportRow{
					CounterpartyID:     id,
					CounterpartyName:   inv.CounterpartyName,
					UnclassifiedAmount: decimal.Zero,
					TotalBalance:       decimal.Zero,
				},
				amounts: make([]decimal.Decimal, len(ordered)),
			}
			for j := range acc.amounts {
				acc.amounts[j] = decimal.Zero
			}
			groups[id] = acc
			order = append(order, id)
		}

		acc.row.TotalBalance = acc.row.TotalBalance.Add(inv.BalanceAmount)
		acc.row.InvoiceCount++

		daysPastDue := inv.DaysPastDue(asOf)
		matched := false
		for j, b := range ordered {
			if b.Matches(daysPastDue) {
				acc.amounts[j] = acc.amounts[j].Add(inv.BalanceAmount)
				matched = true
				break
			}
		}
		if !matched {
			acc.row.UnclassifiedAmount = acc.row.UnclassifiedAmount.Add(inv.BalanceAmount)
		}
	}

	rows := make([]AgingReportRow, 0, len(groups))
	for _, id := range order {
		acc := groups[id]
		if !acc.row.TotalBalance.IsPositive() {
			continue
		}
		acc.row.Buckets = make([]BucketAmount, len(ordered))
		for j, b := range ordered {
			acc.row.Buckets[j] = BucketAmount{
				Label:   b.Label,
				MinDays: b.MinDays,
				MaxDays: b.MaxDays,
				Amount:  acc.amounts[j],
			}
		}
		rows = append(rows, *acc.row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalBalance.GreaterThan(rows[j].TotalBalance)
	})

	return rows
}
