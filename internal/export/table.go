// Package export renders reports as tables and writes them to XLSX, PDF or Google Sheets.
package export

import (
	"strings"

	"github.com/shopspring/decimal"

	"zbtools/internal/outstanding"
	"zbtools/internal/sostatus"
)

// RowKind tells renderers how to style a row.
type RowKind int

const (
	RowData RowKind = iota
	RowGroup
	RowTotal
)

// Row is one table row. Cells hold strings, ints or decimal amounts.
type Row struct {
	Kind  RowKind
	Cells []any
}

// Table is a titled grid of cells, one worksheet or one PDF section.
type Table struct {
	Title  string
	Header []string
	Rows   []Row
}

// Values returns the rows as plain values, amounts converted to float64.
func (t Table) Values() [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	out = append(out, header)
	for _, r := range t.Rows {
		row := make([]any, len(r.Cells))
		for i, c := range r.Cells {
			row[i] = plain(c)
		}
		out = append(out, row)
	}
	return out
}

func plain(c any) any {
	if d, ok := c.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return c
}

// OutstandingTables returns the customer summary and the unpaid invoice detail.
func OutstandingTables(r *outstanding.Report) []Table {
	grouped := r.GroupBy != ""

	header := []string{"Customer", "City"}
	if grouped {
		header = append(header, titleCase(r.GroupBy))
	}
	header = append(header, outstanding.BucketNames()...)
	header = append(header, "Above_180", "Total", "CN", "Payment", "Balance", "0-15_payments", "16-90_payments")

	summary := Table{Title: "Outstanding", Header: header}
	rowCells := func(name, city, group string, row outstanding.Row) []any {
		cells := []any{name, city}
		if grouped {
			cells = append(cells, group)
		}
		for _, amount := range row.Aging {
			cells = append(cells, amount)
		}
		return append(cells, row.Above180, row.Total, row.CN, row.Payment, row.Balance, row.Payments0To15, row.Payments16To90)
	}

	names := r.SortedNames()
	groupTotals := r.GroupTotals()
	for i, name := range names {
		row := r.Rows[name]
		if grouped && (i == 0 || r.Rows[names[i-1]].Group != row.Group) {
			summary.Rows = append(summary.Rows, Row{Kind: RowGroup, Cells: []any{groupLabel(row.Group)}})
		}
		summary.Rows = append(summary.Rows, Row{Kind: RowData, Cells: rowCells(name, row.City, row.Group, *row)})
		if grouped && (i == len(names)-1 || r.Rows[names[i+1]].Group != row.Group) {
			subtotal := groupTotals[row.Group]
			summary.Rows = append(summary.Rows, Row{Kind: RowTotal, Cells: rowCells(groupLabel(row.Group)+" total", "", row.Group, subtotal)})
		}
	}
	summary.Rows = append(summary.Rows, Row{Kind: RowTotal, Cells: rowCells("Total", "", "", r.Totals())})

	detail := Table{
		Title:  "Invoices",
		Header: []string{"Customer", "Invoice", "Date", "Due Date", "Days", "Total", "Balance", "LR No", "LR Date", "Transport"},
	}
	for _, name := range names {
		for _, inv := range r.Invoices[name] {
			detail.Rows = append(detail.Rows, Row{Kind: RowData, Cells: []any{
				name, inv.Number, inv.Date, inv.DueDate, inv.Days, inv.Total, inv.Balance, inv.LRNumber, inv.LRDate, inv.Transport,
			}})
		}
	}

	return []Table{summary, detail}
}

// StatusTables returns one row per dispatch event; lines without dispatches get one row.
func StatusTables(s *sostatus.Status) []Table {
	t := Table{
		Title: "SO Status",
		Header: []string{
			"SO Number", "SO Date", "Customer", "Item", "Size", "Ordered", "Dispatched", "Pending",
			"Invoice", "Invoice Date", "Quantity", "LR No", "LR Date", "Transport",
		},
	}
	for _, so := range s.Orders {
		for _, line := range so.Lines {
			base := []any{so.Number, so.Date, so.CustomerName, line.Name, line.Size, line.Ordered, line.Dispatched, line.Pending()}
			if len(line.Events) == 0 {
				t.Rows = append(t.Rows, Row{Kind: RowData, Cells: append(base, "", "", "", "", "", "")})
				continue
			}
			for _, ev := range line.Events {
				cells := append(append([]any{}, base...), ev.InvoiceNumber, ev.Date, ev.Quantity, ev.LRNumber, ev.LRDate, ev.Transport)
				t.Rows = append(t.Rows, Row{Kind: RowData, Cells: cells})
			}
		}
	}
	return []Table{t}
}

func groupLabel(group string) string {
	if group == "" {
		return "Unassigned"
	}
	return group
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
