package services

import (
	"context"

	"zbtools/pkg/models"
)

// OutstandingSource provides the collections the outstanding report is built from.
type OutstandingSource interface {
	ListContacts(ctx context.Context) ([]models.Contact, error)
	ListOpenInvoices(ctx context.Context) ([]models.Invoice, error)
	ListOpenCreditNotes(ctx context.Context) ([]models.CreditNote, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	ListAdvances(ctx context.Context) ([]models.Advance, error)
}

// DispatchSource provides sales orders and invoices with their line items.
type DispatchSource interface {
	ListSalesOrders(ctx context.Context, w models.Window) ([]models.SalesOrder, error)
	GetSalesOrder(ctx context.Context, id string) (*models.SalesOrder, error)
	ListInvoices(ctx context.Context, w models.Window) ([]models.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
}

// OrderBook resolves customers and items and records new sales orders.
type OrderBook interface {
	ListContacts(ctx context.Context) ([]models.Contact, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	ListSalespersons(ctx context.Context) ([]models.Salesperson, error)
	CreateSalesOrder(ctx context.Context, order models.NewSalesOrder) (*models.SalesOrder, error)
}

// InvoicePrinter lists invoices and renders them to PDF.
type InvoicePrinter interface {
	ListInvoices(ctx context.Context, w models.Window) ([]models.Invoice, error)
	InvoicesPDF(ctx context.Context, ids []string) ([]byte, error)
}
