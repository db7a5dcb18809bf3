package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Invoice is a Zoho Books invoice. List payloads leave LineItems empty;
// the detail endpoint fills them.
type Invoice struct {
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	Date          string          `json:"date"`
	DueDate       string          `json:"due_date"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Balance       decimal.Decimal `json:"balance"`
	ReferenceNo   string          `json:"reference_number"`
	LineItems     []LineItem      `json:"line_items,omitempty"`
	CustomFields
}

// LineItem is a line of an invoice or a sales order.
type LineItem struct {
	LineItemID       string          `json:"line_item_id"`
	ItemID           string          `json:"item_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	SKU              string          `json:"sku"`
	Unit             string          `json:"unit"`
	Quantity         decimal.Decimal `json:"quantity"`
	QuantityInvoiced decimal.Decimal `json:"quantity_invoiced"`
	Rate             decimal.Decimal `json:"rate"`
	ItemTotal        decimal.Decimal `json:"item_total"`
	CustomFields

	// Raw keeps every field of the line so link fields can be looked up by alias.
	Raw Fields `json:"-"`
}

func (l *LineItem) UnmarshalJSON(data []byte) error {
	type plain LineItem
	if err := json.Unmarshal(data, (*plain)(l)); err != nil {
		return err
	}
	return json.Unmarshal(data, &l.Raw)
}

// CreditNote is an open Zoho Books credit note; Balance is the remaining credit.
type CreditNote struct {
	CreditNoteID     string          `json:"creditnote_id"`
	CreditNoteNumber string          `json:"creditnote_number"`
	CustomerID       string          `json:"customer_id"`
	CustomerName     string          `json:"customer_name"`
	Date             string          `json:"date"`
	Status           string          `json:"status"`
	Total            decimal.Decimal `json:"total"`
	Balance          decimal.Decimal `json:"balance"`
}
