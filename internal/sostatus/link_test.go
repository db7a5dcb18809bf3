package sostatus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zbtools/internal/config"
	"zbtools/internal/fields"
	"zbtools/pkg/models"
)

const ordersJSON = `[
  {
    "salesorder_id": "so1", "salesorder_number": "SO-001", "date": "2024-05-02",
    "customer_id": "c1", "customer_name": "Asha Traders",
    "line_items": [
      {"line_item_id": "l1", "item_id": "it1", "name": "Cotton Shirting", "quantity": 100,
       "quantity_invoiced": 60,
       "custom_fields": [{"label": "Size", "value": "40"}, {"label": "Brand", "value": "Kora"}]},
      {"line_item_id": "l2", "item_id": "it2", "name": "Linen Suiting", "quantity": 50}
    ]
  },
  {
    "salesorder_id": "so2", "salesorder_number": "SO-002", "date": "2024-05-03",
    "customer_id": "c2", "customer_name": "Balaji Fabrics",
    "line_items": [
      {"line_item_id": "l3", "item_id": "it1", "name": "Cotton Shirting", "quantity": 10}
    ]
  }
]`

const invoicesJSON = `[
  {
    "invoice_id": "i2", "invoice_number": "INV-002", "date": "2024-05-20",
    "custom_fields": [{"label": "LR No", "value": "LR-77"}, {"label": "Transport", "value": "VRL"}],
    "line_items": [
      {"line_item_id": "x1", "salesorder_item_id": "l1", "quantity": 25},
      {"line_item_id": "x2", "so_line_item_id": "l3", "quantity": 10}
    ]
  },
  {
    "invoice_id": "i1", "invoice_number": "INV-001", "date": "2024-05-10",
    "custom_field_hash": {"cf_lr_date": "2024-05-11"},
    "line_items": [
      {"line_item_id": "x3", "salesorder_item_id": "l1", "quantity": 35},
      {"line_item_id": "x4", "quantity": 5}
    ]
  }
]`

func fixtures(t *testing.T) ([]models.SalesOrder, []models.Invoice) {
	t.Helper()
	var orders []models.SalesOrder
	require.NoError(t, json.Unmarshal([]byte(ordersJSON), &orders))
	var invoices []models.Invoice
	require.NoError(t, json.Unmarshal([]byte(invoicesJSON), &invoices))
	return orders, invoices
}

func TestLinkDispatchedQuantities(t *testing.T) {
	orders, invoices := fixtures(t)

	status := Link(orders, invoices, fields.DefaultAliases())
	require.Len(t, status, 2)
	assert.Equal(t, "SO-001", status[0].Number)
	assert.Equal(t, "SO-002", status[1].Number)

	first := status[0].Lines[0]
	assert.Equal(t, "l1", first.LineItemID)
	assert.True(t, decimal.NewFromInt(60).Equal(first.Dispatched), first.Dispatched.String())
	assert.True(t, decimal.NewFromInt(40).Equal(first.Pending()))
	assert.Equal(t, "40", first.Size)
	assert.Equal(t, "Kora", first.Brand)

	sum := decimal.Zero
	for _, ev := range first.Events {
		sum = sum.Add(ev.Quantity)
	}
	assert.True(t, sum.Equal(first.Dispatched))

	require.Len(t, first.Events, 2)
	assert.Equal(t, "INV-001", first.Events[0].InvoiceNumber)
	assert.Equal(t, "2024-05-11", first.Events[0].LRDate)
	assert.Equal(t, "INV-002", first.Events[1].InvoiceNumber)
	assert.Equal(t, "LR-77", first.Events[1].LRNumber)
	assert.Equal(t, "VRL", first.Events[1].Transport)

	third := status[1].Lines[0]
	assert.True(t, decimal.NewFromInt(10).Equal(third.Dispatched))
	assert.True(t, third.Pending().IsZero())
}

func TestLinkUnlinkedLine(t *testing.T) {
	orders, invoices := fixtures(t)

	line := Link(orders, invoices, fields.DefaultAliases())[0].Lines[1]
	assert.Equal(t, "l2", line.LineItemID)
	assert.True(t, line.Dispatched.IsZero())
	assert.NotNil(t, line.Events)
	assert.Empty(t, line.Events)
}

func TestLinkEventsSortedByDate(t *testing.T) {
	orders := []models.SalesOrder{{
		SalesOrderID: "so",
		LineItems:    []models.LineItem{{LineItemID: "l1", Quantity: decimal.NewFromInt(9)}},
	}}
	link := func(id, date string) models.Invoice {
		return models.Invoice{
			InvoiceID: id,
			Date:      date,
			LineItems: []models.LineItem{{
				Quantity: decimal.NewFromInt(1),
				Raw:      models.Fields{"salesorder_item_id": json.RawMessage(`"l1"`)},
			}},
		}
	}
	invoices := []models.Invoice{
		link("c", "2024-03-01"), link("a", "2024-01-15"), link("d", "2024-03-01"), link("b", "2024-02-01"),
	}

	events := Link(orders, invoices, fields.DefaultAliases())[0].Lines[0].Events
	var ids []string
	for i, ev := range events {
		ids = append(ids, ev.InvoiceID)
		if i > 0 {
			assert.LessOrEqual(t, events[i-1].Date, ev.Date)
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

type memoryDispatch struct {
	orders   []models.SalesOrder
	invoices []models.Invoice
	failGet  string
	details  int
}

func (m *memoryDispatch) ListSalesOrders(ctx context.Context, w models.Window) ([]models.SalesOrder, error) {
	listed := make([]models.SalesOrder, len(m.orders))
	for i, so := range m.orders {
		so.LineItems = nil
		listed[i] = so
	}
	return listed, nil
}

func (m *memoryDispatch) GetSalesOrder(ctx context.Context, id string) (*models.SalesOrder, error) {
	m.details++
	if id == m.failGet {
		return nil, errors.New("retries exhausted")
	}
	for _, so := range m.orders {
		if so.SalesOrderID == id {
			return &so, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memoryDispatch) ListInvoices(ctx context.Context, w models.Window) ([]models.Invoice, error) {
	listed := make([]models.Invoice, len(m.invoices))
	for i, inv := range m.invoices {
		inv.LineItems = nil
		listed[i] = inv
	}
	return listed, nil
}

func (m *memoryDispatch) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	m.details++
	if id == m.failGet {
		return nil, errors.New("retries exhausted")
	}
	for _, inv := range m.invoices {
		if inv.InvoiceID == id {
			return &inv, nil
		}
	}
	return nil, errors.New("not found")
}

func TestLinkerBuildHydratesDetails(t *testing.T) {
	orders, invoices := fixtures(t)
	source := &memoryDispatch{orders: orders, invoices: invoices}

	linker := NewLinker(source, config.FirmConfig{Code: "TT"}, fields.DefaultAliases())
	status, err := linker.Build(context.Background(), models.Window{})
	require.NoError(t, err)

	assert.Equal(t, 4, source.details)
	assert.Equal(t, "TT", status.Firm)
	require.Len(t, status.Orders, 2)
	assert.True(t, decimal.NewFromInt(60).Equal(status.Orders[0].Lines[0].Dispatched))
}

func TestLinkerBuildAbortsOnDetailFailure(t *testing.T) {
	orders, invoices := fixtures(t)
	source := &memoryDispatch{orders: orders, invoices: invoices, failGet: "i1"}

	linker := NewLinker(source, config.FirmConfig{Code: "TT"}, fields.DefaultAliases())
	status, err := linker.Build(context.Background(), models.Window{})
	require.Error(t, err)
	assert.Nil(t, status)
	assert.Contains(t, err.Error(), "INV-001")
}
