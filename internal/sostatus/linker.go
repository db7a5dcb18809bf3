package sostatus

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"zbtools/internal/config"
	"zbtools/internal/fields"
	"zbtools/internal/logger"
	"zbtools/pkg/models"
	"zbtools/pkg/services"
)

// Status is the dispatch status of a firm's sales orders in a date window.
type Status struct {
	Firm        string    `json:"firm"`
	FirmName    string    `json:"firm_name"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	CustomerID  string    `json:"customer_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Orders      []Order   `json:"orders"`
}

// Linker fetches sales orders and invoices and links them.
type Linker struct {
	source  services.DispatchSource
	firm    config.FirmConfig
	aliases fields.Aliases
	log     zerolog.Logger

	Now func() time.Time
}

// NewLinker creates a linker reading from source.
func NewLinker(source services.DispatchSource, firm config.FirmConfig, aliases fields.Aliases) *Linker {
	return &Linker{
		source:  source,
		firm:    firm,
		aliases: aliases,
		log:     logger.WithFirm("sostatus", firm.Code),
		Now:     time.Now,
	}
}

// Build lists the sales orders and invoices dated inside w, loads each one's line
// items, and links them. A failed call aborts the whole build.
func (l *Linker) Build(ctx context.Context, w models.Window) (*Status, error) {
	const op = "Build"

	listed, err := l.source.ListSalesOrders(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	orders := make([]models.SalesOrder, 0, len(listed))
	for i, so := range listed {
		detail, err := l.source.GetSalesOrder(ctx, so.SalesOrderID)
		if err != nil {
			return nil, fmt.Errorf("%s: sales order %s: %w", op, so.SalesOrderNumber, err)
		}
		orders = append(orders, *detail)
		l.log.Debug().
			Int("done", i+1).
			Int("total", len(listed)).
			Str("salesorder", so.SalesOrderNumber).
			Msg("Loaded sales order")
	}

	listedInvoices, err := l.source.ListInvoices(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	invoices := make([]models.Invoice, 0, len(listedInvoices))
	for i, inv := range listedInvoices {
		detail, err := l.source.GetInvoice(ctx, inv.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("%s: invoice %s: %w", op, inv.InvoiceNumber, err)
		}
		invoices = append(invoices, *detail)
		l.log.Debug().
			Int("done", i+1).
			Int("total", len(listedInvoices)).
			Str("invoice", inv.InvoiceNumber).
			Msg("Loaded invoice")
	}

	status := &Status{
		Firm:        l.firm.Code,
		FirmName:    l.firm.Name,
		CustomerID:  w.CustomerID,
		GeneratedAt: l.Now(),
		Orders:      Link(orders, invoices, l.aliases),
	}
	if !w.From.IsZero() {
		status.From = w.From.Format(models.DateLayout)
	}
	if !w.To.IsZero() {
		status.To = w.To.Format(models.DateLayout)
	}

	l.log.Info().
		Int("salesorders", len(orders)).
		Int("invoices", len(invoices)).
		Msg("Dispatch status built")

	return status, nil
}
