package models

import "github.com/shopspring/decimal"

// SalesOrder is a Zoho Books sales order. List payloads leave LineItems empty.
type SalesOrder struct {
	SalesOrderID     string          `json:"salesorder_id"`
	SalesOrderNumber string          `json:"salesorder_number"`
	CustomerID       string          `json:"customer_id"`
	CustomerName     string          `json:"customer_name"`
	Date             string          `json:"date"`
	Status           string          `json:"status"`
	ReferenceNumber  string          `json:"reference_number"`
	SalespersonName  string          `json:"salesperson_name"`
	Total            decimal.Decimal `json:"total"`
	LineItems        []LineItem      `json:"line_items,omitempty"`
	CustomFields
}

// NewSalesOrder is the body posted to create a sales order.
type NewSalesOrder struct {
	CustomerID      string              `json:"customer_id"`
	Date            string              `json:"date"`
	ReferenceNumber string              `json:"reference_number,omitempty"`
	SalespersonName string              `json:"salesperson_name,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	LineItems       []NewSalesOrderLine `json:"line_items"`
}

type NewSalesOrderLine struct {
	ItemID      string          `json:"item_id"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}
