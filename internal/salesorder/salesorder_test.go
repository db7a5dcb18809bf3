package salesorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zbtools/internal/pricelist"
	"zbtools/pkg/models"
)

type memoryBook struct {
	contacts     []models.Contact
	items        []models.Item
	salespersons []models.Salesperson
	created      []models.NewSalesOrder
	createErr    error
}

func (b *memoryBook) ListContacts(ctx context.Context) ([]models.Contact, error) {
	return b.contacts, nil
}

func (b *memoryBook) ListItems(ctx context.Context) ([]models.Item, error) {
	return b.items, nil
}

func (b *memoryBook) ListSalespersons(ctx context.Context) ([]models.Salesperson, error) {
	return b.salespersons, nil
}

func (b *memoryBook) CreateSalesOrder(ctx context.Context, order models.NewSalesOrder) (*models.SalesOrder, error) {
	b.created = append(b.created, order)
	if b.createErr != nil {
		return nil, b.createErr
	}
	return &models.SalesOrder{SalesOrderID: "so-1", SalesOrderNumber: "SO-00042", CustomerID: order.CustomerID}, nil
}

type staticPrices struct {
	list  *pricelist.List
	loads int
}

func (p *staticPrices) Load(ctx context.Context) (*pricelist.List, error) {
	p.loads++
	return p.list, nil
}

func newBook() *memoryBook {
	return &memoryBook{
		contacts: []models.Contact{
			{ContactID: "c1", ContactName: "Asha Traders"},
			{ContactID: "c2", ContactName: "Balaji Fabrics"},
			{ContactID: "c3", ContactName: "Balaji Fabrics"},
		},
		items: []models.Item{
			{ItemID: "it1", Name: "Cotton Shirting", SKU: "CS-01"},
			{ItemID: "it2", Name: "Linen Suiting", SKU: "LS-01"},
		},
		salespersons: []models.Salesperson{{SalespersonID: "sp1", SalespersonName: "Ravi Kumar"}},
	}
}

func newPrices() *staticPrices {
	return &staticPrices{list: &pricelist.List{Entries: []pricelist.Entry{
		{Item: "Cotton Shirting", Size: "40", Packing: "Box of 6", Rate: decimal.RequireFromString("1300")},
	}}}
}

func fixedService(book *memoryBook, prices PriceLookup) *Service {
	svc := NewService(book, prices)
	svc.Now = func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateFillsRateFromPriceList(t *testing.T) {
	book, prices := newBook(), newPrices()
	svc := fixedService(book, prices)

	so, err := svc.Create(context.Background(), Request{
		Customer:    "asha traders",
		Salesperson: "ravi kumar",
		Reference:   "PO-77",
		Lines: []LineRequest{
			{Item: "Cotton Shirting", Size: "40", Quantity: decimal.NewFromInt(12)},
			{Item: "ls-01", Quantity: decimal.NewFromInt(3), Rate: decimal.RequireFromString("850.5")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SO-00042", so.SalesOrderNumber)
	assert.Equal(t, 1, prices.loads)

	require.Len(t, book.created, 1)
	order := book.created[0]
	assert.Equal(t, "c1", order.CustomerID)
	assert.Equal(t, "2024-07-01", order.Date)
	assert.Equal(t, "Ravi Kumar", order.SalespersonName)
	assert.Equal(t, "PO-77", order.ReferenceNumber)

	require.Len(t, order.LineItems, 2)
	assert.Equal(t, "it1", order.LineItems[0].ItemID)
	assert.True(t, decimal.NewFromInt(1300).Equal(order.LineItems[0].Rate))
	assert.Equal(t, "Size 40, Box of 6", order.LineItems[0].Description)
	assert.Equal(t, "it2", order.LineItems[1].ItemID)
	assert.True(t, decimal.RequireFromString("850.5").Equal(order.LineItems[1].Rate))
}

func TestCreateRejections(t *testing.T) {
	line := LineRequest{Item: "Cotton Shirting", Size: "40", Quantity: decimal.NewFromInt(1)}

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"no lines", Request{Customer: "Asha Traders"}, ErrInvalidRequest},
		{"zero quantity", Request{Customer: "Asha Traders", Lines: []LineRequest{{Item: "Cotton Shirting"}}}, ErrInvalidRequest},
		{"unknown customer", Request{Customer: "Nobody", Lines: []LineRequest{line}}, ErrCustomerNotFound},
		{"ambiguous customer", Request{Customer: "Balaji Fabrics", Lines: []LineRequest{line}}, ErrAmbiguousCustomer},
		{"unknown salesperson", Request{Customer: "Asha Traders", Salesperson: "X", Lines: []LineRequest{line}}, ErrUnknownSalesperson},
		{"unknown item", Request{Customer: "Asha Traders", Lines: []LineRequest{{Item: "Velvet", Quantity: decimal.NewFromInt(1)}}}, ErrItemNotFound},
		{"no price", Request{Customer: "Asha Traders", Lines: []LineRequest{{Item: "Linen Suiting", Quantity: decimal.NewFromInt(1)}}}, ErrNoRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := newBook()
			_, err := fixedService(book, newPrices()).Create(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, book.created)
		})
	}
}

func TestCreatePostsOnce(t *testing.T) {
	book := newBook()
	book.createErr = errors.New("service unavailable")

	_, err := fixedService(book, nil).Create(context.Background(), Request{
		Customer: "Asha Traders",
		Lines:    []LineRequest{{Item: "Cotton Shirting", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(100)}},
	})
	require.Error(t, err)
	assert.Len(t, book.created, 1)
}

func TestParseLine(t *testing.T) {
	line, err := ParseLine(" Cotton Shirting | 40 | 12 ")
	require.NoError(t, err)
	assert.Equal(t, "Cotton Shirting", line.Item)
	assert.Equal(t, "40", line.Size)
	assert.True(t, decimal.NewFromInt(12).Equal(line.Quantity))
	assert.True(t, line.Rate.IsZero())

	line, err = ParseLine("Linen Suiting||3|850.50")
	require.NoError(t, err)
	assert.Equal(t, "", line.Size)
	assert.True(t, decimal.RequireFromString("850.50").Equal(line.Rate))

	for _, bad := range []string{"Cotton", "a|b|c|d|e", "Cotton|40|many", "Cotton|40|1|cheap"} {
		_, err := ParseLine(bad)
		assert.ErrorIs(t, err, ErrInvalidRequest, bad)
	}
}
