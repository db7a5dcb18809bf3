package zoho

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"zbtools/pkg/models"
)

var (
	contactsResource = Resource{
		Path:   "contacts",
		Key:    "contacts",
		Params: url.Values{"contact_type": {"customer"}, "filter_by": {"Status.All"}},
	}
	openInvoicesResource = Resource{
		Path:   "invoices",
		Key:    "invoices",
		Params: url.Values{"filter_by": {"Status.Unpaid"}},
	}
	openCreditNotesResource = Resource{
		Path:   "creditnotes",
		Key:    "creditnotes",
		Params: url.Values{"filter_by": {"Status.Open"}},
	}
	paymentsResource     = Resource{Path: "customerpayments", Key: "customerpayments"}
	invoicesResource     = Resource{Path: "invoices", Key: "invoices"}
	salesOrdersResource  = Resource{Path: "salesorders", Key: "salesorders"}
	itemsResource        = Resource{Path: "items", Key: "items", Params: url.Values{"filter_by": {"Status.Active"}}}
	salespersonsResource = Resource{Path: "salespersons", Key: "data"}
)

// AdvanceSources are tried in order by ListAdvances; the first one that answers wins.
var AdvanceSources = []Resource{
	{Path: "customeradvances", Key: "customer_advances"},
	{Path: "retainerinvoices", Key: "retainerinvoices", Params: url.Values{"filter_by": {"Status.All"}}},
}

// ListContacts returns every customer contact, active or not.
func (c *Client) ListContacts(ctx context.Context) ([]models.Contact, error) {
	return All[models.Contact](ctx, c, "ListContacts", contactsResource, nil)
}

// ListOpenInvoices returns invoices with an outstanding balance.
func (c *Client) ListOpenInvoices(ctx context.Context) ([]models.Invoice, error) {
	return All[models.Invoice](ctx, c, "ListOpenInvoices", openInvoicesResource, nil)
}

// ListOpenCreditNotes returns credit notes with remaining credit.
func (c *Client) ListOpenCreditNotes(ctx context.Context) ([]models.CreditNote, error) {
	return All[models.CreditNote](ctx, c, "ListOpenCreditNotes", openCreditNotesResource, nil)
}

// ListPayments returns all customer payments.
func (c *Client) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return All[models.Payment](ctx, c, "ListPayments", paymentsResource, nil)
}

// ListAdvances returns advance payments from the first AdvanceSources endpoint
// that answers. When none does the firm is treated as having no advances.
func (c *Client) ListAdvances(ctx context.Context) ([]models.Advance, error) {
	for _, res := range AdvanceSources {
		advances, err := All[models.Advance](ctx, c, "ListAdvances", res, nil)
		if err == nil {
			return advances, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		c.log.Warn().
			Err(err).
			Str("resource", res.Path).
			Msg("Advance endpoint unavailable, trying next")
	}
	c.log.Warn().Msg("No advance endpoint answered, continuing without advances")
	return nil, nil
}

// ListSalesOrders returns the sales orders dated inside the window (list payloads, no lines).
func (c *Client) ListSalesOrders(ctx context.Context, w models.Window) ([]models.SalesOrder, error) {
	orders, err := All[models.SalesOrder](ctx, c, "ListSalesOrders", salesOrdersResource, windowParams(w))
	if err != nil {
		return nil, err
	}
	kept := orders[:0]
	for _, o := range orders {
		if w.Contains(o.Date) {
			kept = append(kept, o)
		}
	}
	return kept, nil
}

// GetSalesOrder returns a sales order with its line items.
func (c *Client) GetSalesOrder(ctx context.Context, id string) (*models.SalesOrder, error) {
	if err := c.waitDetail(ctx); err != nil {
		return nil, err
	}
	var so models.SalesOrder
	req := request{op: "GetSalesOrder", path: "salesorders/" + url.PathEscape(id)}
	if _, err := c.getJSON(ctx, req, "salesorder", &so); err != nil {
		return nil, err
	}
	return &so, nil
}

// ListInvoices returns the invoices dated inside the window (list payloads, no lines).
func (c *Client) ListInvoices(ctx context.Context, w models.Window) ([]models.Invoice, error) {
	invoices, err := All[models.Invoice](ctx, c, "ListInvoices", invoicesResource, windowParams(w))
	if err != nil {
		return nil, err
	}
	kept := invoices[:0]
	for _, inv := range invoices {
		if w.Contains(inv.Date) {
			kept = append(kept, inv)
		}
	}
	return kept, nil
}

// GetInvoice returns an invoice with its line items.
func (c *Client) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	if err := c.waitDetail(ctx); err != nil {
		return nil, err
	}
	var inv models.Invoice
	req := request{op: "GetInvoice", path: "invoices/" + url.PathEscape(id)}
	if _, err := c.getJSON(ctx, req, "invoice", &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListItems returns the active items.
func (c *Client) ListItems(ctx context.Context) ([]models.Item, error) {
	return All[models.Item](ctx, c, "ListItems", itemsResource, nil)
}

// ListSalespersons returns the organization's salespersons.
func (c *Client) ListSalespersons(ctx context.Context) ([]models.Salesperson, error) {
	return All[models.Salesperson](ctx, c, "ListSalespersons", salespersonsResource, nil)
}

// CreateSalesOrder posts a new sales order. It is sent exactly once.
func (c *Client) CreateSalesOrder(ctx context.Context, order models.NewSalesOrder) (*models.SalesOrder, error) {
	req := request{
		op:      "CreateSalesOrder",
		method:  http.MethodPost,
		path:    "salesorders",
		body:    order,
		noRetry: true,
	}
	body, err := c.call(ctx, req)
	if err != nil {
		return nil, err
	}
	var so models.SalesOrder
	if _, err := decodeEnvelope(req, body, "salesorder", &so); err != nil {
		return nil, err
	}
	return &so, nil
}

// MaxPDFBatch is the most invoices Zoho merges into one PDF.
const MaxPDFBatch = 25

// InvoicesPDF returns one PDF containing the given invoices, merged by Zoho.
func (c *Client) InvoicesPDF(ctx context.Context, ids []string) ([]byte, error) {
	const op = "InvoicesPDF"

	if len(ids) == 0 || len(ids) > MaxPDFBatch {
		return nil, fmt.Errorf("%s: need 1 to %d invoice ids, got %d", op, MaxPDFBatch, len(ids))
	}
	if err := c.waitDetail(ctx); err != nil {
		return nil, err
	}
	return c.call(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "invoices/pdf",
		params: url.Values{"invoice_ids": {strings.Join(ids, ",")}},
		accept: "application/pdf",
	})
}

func windowParams(w models.Window) url.Values {
	q := url.Values{}
	if !w.From.IsZero() {
		q.Set("date_start", w.From.Format(models.DateLayout))
	}
	if !w.To.IsZero() {
		q.Set("date_end", w.To.Format(models.DateLayout))
	}
	if w.CustomerID != "" {
		q.Set("customer_id", w.CustomerID)
	}
	return q
}
