package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Payment is a Zoho Books customer payment.
type Payment struct {
	PaymentID     string          `json:"payment_id"`
	PaymentNumber string          `json:"payment_number"`
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	UnusedAmount  decimal.Decimal `json:"unused_amount"`
}

// Advance is an advance payment. Its shape differs between the endpoints that can
// serve it, so the unused portion is looked up in Raw.
type Advance struct {
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	AppliedAmount decimal.Decimal `json:"applied_amount"`

	Raw Fields `json:"-"`
}

func (a *Advance) UnmarshalJSON(data []byte) error {
	type plain Advance
	if err := json.Unmarshal(data, (*plain)(a)); err != nil {
		return err
	}
	if a.Amount.IsZero() {
		// retainer invoices carry the amount as "total"
		var alt struct {
			Total decimal.Decimal `json:"total"`
		}
		if err := json.Unmarshal(data, &alt); err == nil {
			a.Amount = alt.Total
		}
	}
	return json.Unmarshal(data, &a.Raw)
}

// Unused returns the unapplied part of the advance: the first field present among
// keys, otherwise max(0, amount - applied_amount).
func (a Advance) Unused(keys []string) decimal.Decimal {
	if value, _, ok := a.Raw.FirstDecimal(keys); ok {
		return value
	}
	rest := a.Amount.Sub(a.AppliedAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
