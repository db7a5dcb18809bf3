// Package outstanding builds the per-customer outstanding and aging report of a firm.
package outstanding

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"zbtools/internal/config"
	"zbtools/internal/fields"
	"zbtools/internal/logger"
	"zbtools/pkg/models"
	"zbtools/pkg/services"
)

// Input holds the already fetched collections of one firm.
type Input struct {
	Contacts    []models.Contact
	Invoices    []models.Invoice
	CreditNotes []models.CreditNote
	Payments    []models.Payment
	Advances    []models.Advance
}

// Aggregator fetches a firm's receivables and computes its outstanding report.
type Aggregator struct {
	source  services.OutstandingSource
	firm    config.FirmConfig
	aliases fields.Aliases
	log     zerolog.Logger

	// Now returns the reporting date. Defaults to time.Now.
	Now func() time.Time
}

// NewAggregator creates an aggregator reading from source.
func NewAggregator(source services.OutstandingSource, firm config.FirmConfig, aliases fields.Aliases) *Aggregator {
	return &Aggregator{
		source:  source,
		firm:    firm,
		aliases: aliases,
		log:     logger.WithFirm("outstanding", firm.Code),
		Now:     time.Now,
	}
}

// Build fetches the firm's contacts, open invoices, open credit notes, payments and
// advances, then aggregates them. Any failed fetch aborts the report.
func (a *Aggregator) Build(ctx context.Context) (*Report, error) {
	const op = "Build"

	var in Input
	var err error

	if in.Contacts, err = a.source.ListContacts(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if in.Invoices, err = a.source.ListOpenInvoices(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if in.CreditNotes, err = a.source.ListOpenCreditNotes(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if in.Payments, err = a.source.ListPayments(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if in.Advances, err = a.source.ListAdvances(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info().
		Int("contacts", len(in.Contacts)).
		Int("invoices", len(in.Invoices)).
		Int("credit_notes", len(in.CreditNotes)).
		Int("payments", len(in.Payments)).
		Int("advances", len(in.Advances)).
		Msg("Fetched receivables")

	report := a.Compute(in)

	a.log.Info().
		Int("customers", len(report.Rows)).
		Str("total", report.Totals().Total.StringFixed(2)).
		Msg("Outstanding report built")

	return report, nil
}

// Compute aggregates already fetched collections as of a.Now().
func (a *Aggregator) Compute(in Input) *Report {
	asOf := a.Now()
	groups := fields.NewResolver(a.aliases.Group(a.firm.GroupBy))
	lr := fields.NewResolver(a.aliases.LRNumber)
	lrDate := fields.NewResolver(a.aliases.LRDate)
	transport := fields.NewResolver(a.aliases.Transport)

	invoices := make(map[string][]models.Invoice)
	for _, inv := range in.Invoices {
		invoices[inv.CustomerID] = append(invoices[inv.CustomerID], inv)
	}
	credits := make(map[string]decimal.Decimal)
	for _, cn := range in.CreditNotes {
		credits[cn.CustomerID] = credits[cn.CustomerID].Add(cn.Balance)
	}

	unused := make(map[string]decimal.Decimal)
	recent := make(map[string]decimal.Decimal)
	older := make(map[string]decimal.Decimal)
	for _, p := range in.Payments {
		unused[p.CustomerID] = unused[p.CustomerID].Add(p.UnusedAmount)
		date, ok := models.ParseDate(p.Date)
		if !ok {
			continue
		}
		days := max(models.DaysBetween(date, asOf), 0)
		switch {
		case days <= recentPaymentsMax:
			recent[p.CustomerID] = recent[p.CustomerID].Add(p.Amount)
		case days <= olderPaymentsMax:
			older[p.CustomerID] = older[p.CustomerID].Add(p.Amount)
		}
	}
	for _, adv := range in.Advances {
		unused[adv.CustomerID] = unused[adv.CustomerID].Add(adv.Unused(a.aliases.AdvanceUnused))
	}

	report := &Report{
		Firm:     a.firm.Code,
		FirmName: a.firm.Name,
		AsOf:     asOf,
		GroupBy:  a.firm.GroupBy,
		Rows:     make(map[string]*Row),
		Invoices: make(map[string][]InvoiceSummary),
	}

	seen := make(map[string]bool)
	for _, c := range in.Contacts {
		if seen[c.ContactID] {
			continue
		}
		seen[c.ContactID] = true

		row := &Row{
			Customer:       c.ContactName,
			CustomerID:     c.ContactID,
			City:           c.City(),
			CN:             credits[c.ContactID],
			Payment:        unused[c.ContactID],
			Payments0To15:  recent[c.ContactID],
			Payments16To90: older[c.ContactID],
		}
		if !groups.Empty() {
			row.Group = groups.Value(c.CustomFields.All())
		}

		var summaries []InvoiceSummary
		for _, inv := range invoices[c.ContactID] {
			days := 0
			if date, ok := models.ParseDate(inv.Date); ok {
				days = max(models.DaysBetween(date, asOf), 0)
			}
			idx := BucketIndex(days)
			row.Aging[idx] = row.Aging[idx].Add(inv.Balance)

			custom := inv.CustomFields.All()
			summaries = append(summaries, InvoiceSummary{
				InvoiceID: inv.InvoiceID,
				Number:    inv.InvoiceNumber,
				Date:      inv.Date,
				DueDate:   inv.DueDate,
				Days:      days,
				Total:     round2(inv.Total),
				Balance:   round2(inv.Balance),
				LRNumber:  lr.Value(custom),
				LRDate:    lrDate.Value(custom),
				Transport: transport.Value(custom),
			})
		}

		row.finalize()
		if row.IsZero() {
			continue
		}

		key := c.ContactName
		if _, taken := report.Rows[key]; taken {
			key = fmt.Sprintf("%s (%s)", c.ContactName, c.ContactID)
		}

		sort.SliceStable(summaries, func(i, j int) bool {
			return summaries[i].Date < summaries[j].Date
		})
		report.Rows[key] = row
		report.Invoices[key] = summaries
	}

	return report
}
