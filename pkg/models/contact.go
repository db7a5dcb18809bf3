package models

import "github.com/shopspring/decimal"

// Contact is a Zoho Books customer.
type Contact struct {
	ContactID       string  `json:"contact_id"`
	ContactName     string  `json:"contact_name"`
	CompanyName     string  `json:"company_name"`
	Status          string  `json:"status"`
	BillingAddress  Address `json:"billing_address"`
	ShippingAddress Address `json:"shipping_address"`
	CustomFields
}

type Address struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// City prefers the billing city and falls back to the shipping city.
func (c Contact) City() string {
	if c.BillingAddress.City != "" {
		return c.BillingAddress.City
	}
	return c.ShippingAddress.City
}

// Item is a Zoho Books inventory/sales item.
type Item struct {
	ItemID string          `json:"item_id"`
	Name   string          `json:"name"`
	SKU    string          `json:"sku"`
	Unit   string          `json:"unit"`
	Status string          `json:"status"`
	Rate   decimal.Decimal `json:"rate"`
}

// Salesperson is a Zoho Books salesperson.
type Salesperson struct {
	SalespersonID    string `json:"salesperson_id"`
	SalespersonName  string `json:"salesperson_name"`
	SalespersonEmail string `json:"salesperson_email"`
}
