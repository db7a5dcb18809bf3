// Package salesorder turns an order typed at the command line into a Zoho Books sales order.
package salesorder

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"zbtools/internal/logger"
	"zbtools/internal/pricelist"
	"zbtools/pkg/models"
	"zbtools/pkg/services"
)

var (
	ErrInvalidRequest     = errors.New("invalid sales order")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrAmbiguousCustomer  = errors.New("customer name is ambiguous")
	ErrItemNotFound       = errors.New("item not found")
	ErrUnknownSalesperson = errors.New("unknown salesperson")
	ErrNoRate             = errors.New("no rate given and none in the price list")
)

// LineRequest is one ordered item.
type LineRequest struct {
	Item     string          `validate:"required"`
	Size     string          `validate:"max=40"`
	Quantity decimal.Decimal `validate:"gt=0"`
	Rate     decimal.Decimal `validate:"gte=0"`
}

// Request is a sales order as entered by the user.
type Request struct {
	Customer    string `validate:"required"`
	Date        time.Time
	Reference   string `validate:"max=50"`
	Salesperson string
	Notes       string        `validate:"max=2000"`
	Lines       []LineRequest `validate:"required,min=1,dive"`
}

// PriceLookup supplies the price list.
type PriceLookup interface {
	Load(ctx context.Context) (*pricelist.List, error)
}

// Service resolves requests against the firm's books and creates sales orders.
type Service struct {
	book     services.OrderBook
	prices   PriceLookup
	validate *validator.Validate
	log      zerolog.Logger

	Now func() time.Time
}

// NewService creates a service. prices may be nil when every line carries a rate.
func NewService(book services.OrderBook, prices PriceLookup) *Service {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return &Service{
		book:     book,
		prices:   prices,
		validate: v,
		log:      logger.WithComponent("salesorder"),
		Now:      time.Now,
	}
}

// Prepare validates req and resolves it into the body that Create would post.
func (s *Service) Prepare(ctx context.Context, req Request) (*models.NewSalesOrder, error) {
	const op = "Prepare"

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidRequest, describe(err))
	}

	customer, err := s.findCustomer(ctx, req.Customer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	salesperson := ""
	if strings.TrimSpace(req.Salesperson) != "" {
		if salesperson, err = s.findSalesperson(ctx, req.Salesperson); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	items, err := s.book.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var prices *pricelist.List
	order := &models.NewSalesOrder{
		CustomerID:      customer.ContactID,
		Date:            s.orderDate(req.Date).Format(models.DateLayout),
		ReferenceNumber: strings.TrimSpace(req.Reference),
		SalespersonName: salesperson,
		Notes:           strings.TrimSpace(req.Notes),
	}
	for i, line := range req.Lines {
		item, ok := findItem(items, line.Item)
		if !ok {
			return nil, fmt.Errorf("%s: line %d: %w: %q", op, i+1, ErrItemNotFound, line.Item)
		}

		rate := line.Rate
		var packing string
		if rate.IsZero() {
			if prices == nil {
				if prices, err = s.loadPrices(ctx); err != nil {
					return nil, fmt.Errorf("%s: line %d: %w", op, i+1, err)
				}
			}
			entry, found := prices.Find(line.Item, line.Size)
			if !found || entry.Rate.IsZero() {
				return nil, fmt.Errorf("%s: line %d: %w: %s %s", op, i+1, ErrNoRate, line.Item, line.Size)
			}
			rate, packing = entry.Rate, entry.Packing
		}

		order.LineItems = append(order.LineItems, models.NewSalesOrderLine{
			ItemID:      item.ItemID,
			Description: describeLine(line.Size, packing),
			Quantity:    line.Quantity,
			Rate:        rate,
		})
	}
	return order, nil
}

// Create prepares req and posts it once. A failed post is not retried.
func (s *Service) Create(ctx context.Context, req Request) (*models.SalesOrder, error) {
	const op = "Create"

	order, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	created, err := s.book.CreateSalesOrder(ctx, *order)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().
		Str("salesorder", created.SalesOrderNumber).
		Str("customer", req.Customer).
		Int("lines", len(order.LineItems)).
		Msg("Sales order created")
	return created, nil
}

func (s *Service) orderDate(d time.Time) time.Time {
	if d.IsZero() {
		return s.Now()
	}
	return d
}

func (s *Service) loadPrices(ctx context.Context) (*pricelist.List, error) {
	if s.prices == nil {
		return nil, ErrNoRate
	}
	return s.prices.Load(ctx)
}

func (s *Service) findCustomer(ctx context.Context, name string) (models.Contact, error) {
	contacts, err := s.book.ListContacts(ctx)
	if err != nil {
		return models.Contact{}, err
	}
	var matches []models.Contact
	for _, c := range contacts {
		if strings.EqualFold(c.ContactName, strings.TrimSpace(name)) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return models.Contact{}, fmt.Errorf("%w: %q", ErrCustomerNotFound, name)
	case 1:
		return matches[0], nil
	default:
		return models.Contact{}, fmt.Errorf("%w: %q matches %d contacts", ErrAmbiguousCustomer, name, len(matches))
	}
}

func (s *Service) findSalesperson(ctx context.Context, name string) (string, error) {
	people, err := s.book.ListSalespersons(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range people {
		if strings.EqualFold(p.SalespersonName, strings.TrimSpace(name)) {
			return p.SalespersonName, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSalesperson, name)
}

func findItem(items []models.Item, name string) (models.Item, bool) {
	name = strings.TrimSpace(name)
	for _, it := range items {
		if strings.EqualFold(it.Name, name) {
			return it, true
		}
	}
	for _, it := range items {
		if it.SKU != "" && strings.EqualFold(it.SKU, name) {
			return it, true
		}
	}
	return models.Item{}, false
}

func describeLine(size, packing string) string {
	var parts []string
	if size != "" {
		parts = append(parts, "Size "+size)
	}
	if packing != "" {
		parts = append(parts, packing)
	}
	return strings.Join(parts, ", ")
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
