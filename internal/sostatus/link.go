// Package sostatus links sales-order lines to the invoice lines that dispatched them.
package sostatus

import (
	"sort"

	"github.com/shopspring/decimal"

	"zbtools/internal/fields"
	"zbtools/pkg/models"
)

// DispatchEvent is one invoice line fulfilling a sales-order line.
type DispatchEvent struct {
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Date          string          `json:"date"`
	Quantity      decimal.Decimal `json:"quantity"`
	LRNumber      string          `json:"lr_number,omitempty"`
	LRDate        string          `json:"lr_date,omitempty"`
	Transport     string          `json:"transport,omitempty"`
}

// Line is a sales-order line with its dispatches.
type Line struct {
	LineItemID  string          `json:"line_item_id"`
	ItemID      string          `json:"item_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Design      string          `json:"design,omitempty"`
	Size        string          `json:"size,omitempty"`
	Packing     string          `json:"packing,omitempty"`
	Ordered     decimal.Decimal `json:"ordered"`
	Invoiced    decimal.Decimal `json:"invoiced"`
	Dispatched  decimal.Decimal `json:"dispatched"`
	Events      []DispatchEvent `json:"events"`
}

// Pending is the ordered quantity not yet dispatched, never negative.
func (l Line) Pending() decimal.Decimal {
	rest := l.Ordered.Sub(l.Dispatched)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Order is a sales order with the dispatch status of each line.
type Order struct {
	SalesOrderID    string `json:"salesorder_id"`
	Number          string `json:"number"`
	Date            string `json:"date"`
	CustomerID      string `json:"customer_id"`
	CustomerName    string `json:"customer_name"`
	Status          string `json:"status"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Lines           []Line `json:"lines"`
}

// Link attaches to every sales-order line the invoice lines that reference it.
// Orders and lines keep their input order; events are sorted by invoice date.
// Inputs must carry line items.
func Link(orders []models.SalesOrder, invoices []models.Invoice, aliases fields.Aliases) []Order {
	lr := fields.NewResolver(aliases.LRNumber)
	lrDate := fields.NewResolver(aliases.LRDate)
	transport := fields.NewResolver(aliases.Transport)

	events := make(map[string][]DispatchEvent)
	for _, inv := range invoices {
		custom := inv.CustomFields.All()
		meta := DispatchEvent{
			InvoiceID:     inv.InvoiceID,
			InvoiceNumber: inv.InvoiceNumber,
			Date:          inv.Date,
			LRNumber:      lr.Value(custom),
			LRDate:        lrDate.Value(custom),
			Transport:     transport.Value(custom),
		}
		for _, line := range inv.LineItems {
			soLine, _ := line.Raw.FirstString(aliases.SOLineLink)
			if soLine == "" {
				continue
			}
			ev := meta
			ev.Quantity = line.Quantity
			events[soLine] = append(events[soLine], ev)
		}
	}

	brand := fields.NewResolver(aliases.Brand)
	design := fields.NewResolver(aliases.Design)
	size := fields.NewResolver(aliases.Size)
	packing := fields.NewResolver(aliases.Packing)

	out := make([]Order, 0, len(orders))
	for _, so := range orders {
		order := Order{
			SalesOrderID:    so.SalesOrderID,
			Number:          so.SalesOrderNumber,
			Date:            so.Date,
			CustomerID:      so.CustomerID,
			CustomerName:    so.CustomerName,
			Status:          so.Status,
			ReferenceNumber: so.ReferenceNumber,
			Lines:           make([]Line, 0, len(so.LineItems)),
		}
		for _, item := range so.LineItems {
			custom := item.CustomFields.All()
			line := Line{
				LineItemID:  item.LineItemID,
				ItemID:      item.ItemID,
				Name:        item.Name,
				Description: item.Description,
				Brand:       brand.Value(custom),
				Design:      design.Value(custom),
				Size:        size.Value(custom),
				Packing:     packing.Value(custom),
				Ordered:     item.Quantity,
				Invoiced:    item.QuantityInvoiced,
				Dispatched:  decimal.Zero,
				Events:      []DispatchEvent{},
			}
			if linked := events[item.LineItemID]; len(linked) > 0 {
				line.Events = append(line.Events, linked...)
				sort.SliceStable(line.Events, func(i, j int) bool {
					return line.Events[i].Date < line.Events[j].Date
				})
				for _, ev := range line.Events {
					line.Dispatched = line.Dispatched.Add(ev.Quantity)
				}
			}
			order.Lines = append(order.Lines, line)
		}
		out = append(out, order)
	}
	return out
}
