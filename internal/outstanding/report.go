package outstanding

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Row is the outstanding position of one customer.
type Row struct {
	Customer   string `json:"customer"`
	CustomerID string `json:"customer_id"`
	City       string `json:"city,omitempty"`
	Group      string `json:"group,omitempty"`

	// Aging holds the outstanding balance per bucket, in Buckets order.
	Aging [NumBuckets]decimal.Decimal `json:"aging"`

	Above180       decimal.Decimal `json:"above_180"`
	Total          decimal.Decimal `json:"total"`
	CN             decimal.Decimal `json:"cn"`
	Payment        decimal.Decimal `json:"payment"`
	Balance        decimal.Decimal `json:"balance"`
	Payments0To15  decimal.Decimal `json:"payments_0_15"`
	Payments16To90 decimal.Decimal `json:"payments_16_90"`
}

// Bucket returns the amount of the named bucket.
func (r *Row) Bucket(name string) decimal.Decimal {
	for i, b := range Buckets {
		if b.Name == name {
			return r.Aging[i]
		}
	}
	return decimal.Zero
}

// IsZero reports whether every monetary field of the row is zero.
func (r *Row) IsZero() bool {
	for _, amount := range r.Aging {
		if !amount.IsZero() {
			return false
		}
	}
	return r.CN.IsZero() && r.Payment.IsZero() &&
		r.Payments0To15.IsZero() && r.Payments16To90.IsZero()
}

// finalize rounds the accumulated amounts and derives the summary fields.
func (r *Row) finalize() {
	r.Total = decimal.Zero
	r.Above180 = decimal.Zero
	for i := range r.Aging {
		r.Aging[i] = round2(r.Aging[i])
		r.Total = r.Total.Add(r.Aging[i])
		if i >= above180From {
			r.Above180 = r.Above180.Add(r.Aging[i])
		}
	}
	r.CN = round2(r.CN)
	r.Payment = round2(r.Payment)
	r.Payments0To15 = round2(r.Payments0To15)
	r.Payments16To90 = round2(r.Payments16To90)
	r.Balance = round2(r.Total.Sub(r.CN.Add(r.Payment)))
}

func (r *Row) add(o *Row) {
	for i := range r.Aging {
		r.Aging[i] = r.Aging[i].Add(o.Aging[i])
	}
	r.Above180 = r.Above180.Add(o.Above180)
	r.Total = r.Total.Add(o.Total)
	r.CN = r.CN.Add(o.CN)
	r.Payment = r.Payment.Add(o.Payment)
	r.Balance = r.Balance.Add(o.Balance)
	r.Payments0To15 = r.Payments0To15.Add(o.Payments0To15)
	r.Payments16To90 = r.Payments16To90.Add(o.Payments16To90)
}

// InvoiceSummary is an unpaid invoice listed under its customer.
type InvoiceSummary struct {
	InvoiceID string          `json:"invoice_id"`
	Number    string          `json:"number"`
	Date      string          `json:"date"`
	DueDate   string          `json:"due_date,omitempty"`
	Days      int             `json:"days"`
	Total     decimal.Decimal `json:"total"`
	Balance   decimal.Decimal `json:"balance"`
	LRNumber  string          `json:"lr_number,omitempty"`
	LRDate    string          `json:"lr_date,omitempty"`
	Transport string          `json:"transport,omitempty"`
}

// Report is the outstanding report of one firm.
type Report struct {
	Firm     string                      `json:"firm"`
	FirmName string                      `json:"firm_name"`
	AsOf     time.Time                   `json:"as_of"`
	GroupBy  string                      `json:"group_by,omitempty"`
	Rows     map[string]*Row             `json:"rows"`
	Invoices map[string][]InvoiceSummary `json:"invoices"`
}

// SortedNames returns the row keys ordered by group, then customer name.
func (r *Report) SortedNames() []string {
	names := make([]string, 0, len(r.Rows))
	for name := range r.Rows {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		gi, gj := r.Rows[names[i]].Group, r.Rows[names[j]].Group
		if gi != gj {
			return gi < gj
		}
		return names[i] < names[j]
	})
	return names
}

// Totals sums every row of the report.
func (r *Report) Totals() Row {
	total := Row{Customer: "Total"}
	for _, row := range r.Rows {
		total.add(row)
	}
	return total
}

// GroupTotals sums the rows of each group.
func (r *Report) GroupTotals() map[string]Row {
	totals := make(map[string]Row)
	for _, row := range r.Rows {
		t := totals[row.Group]
		t.Customer = row.Group
		t.Group = row.Group
		t.add(row)
		totals[row.Group] = t
	}
	return totals
}
