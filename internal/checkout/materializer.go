package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// OrderDetails is everything an order row needs besides its line items.
type OrderDetails struct {
	Contact     models.Contact
	GrandTotal  decimal.Decimal
	OriginalBag string
	PID         string
}

// Materializer writes an order and its line items. Callers see either the
// whole order or nothing.
type Materializer struct {
	orders   OrderStore
	products ProductLookup
}

func NewMaterializer(orders OrderStore, products ProductLookup) *Materializer {
	return &Materializer{orders: orders, products: products}
}

// Materialize returns repository.ErrDuplicateOrder untouched when the same
// checkout was already stored. An order without a payment intent id is never
// written.
func (m *Materializer) Materialize(ctx context.Context, details OrderDetails, bag models.Bag) (models.Order, error) {
	if len(bag) == 0 {
		return models.Order{}, ErrEmptyBag
	}
	if strings.TrimSpace(details.PID) == "" {
		return models.Order{}, ErrMissingClientToken
	}

	order, err := m.orders.Create(ctx, models.Order{
		Contact:     details.Contact,
		GrandTotal:  details.GrandTotal.Round(2),
		OriginalBag: details.OriginalBag,
		StripePID:   details.PID,
	})
	if errors.Is(err, repository.ErrDuplicateOrder) {
		return models.Order{}, err
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: create order: %w", ErrMaterializationFailed, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := m.orders.Delete(context.WithoutCancel(ctx), order.ID); err != nil {
			log.Printf("[CHECKOUT] [ERROR] rollback of order %s failed: %v", order.OrderNumber, err)
			return
		}
		log.Printf("[CHECKOUT] [WARN] order %s rolled back", order.OrderNumber)
	}()

	for _, productID := range bag.ProductIDs() {
		product, err := m.products.GetByID(ctx, productID)
		if errors.Is(err, repository.ErrProductNotFound) {
			return models.Order{}, ProductNotFoundError{ProductID: productID}
		}
		if err != nil {
			return models.Order{}, fmt.Errorf("%w: product %s: %w", ErrMaterializationFailed, productID, err)
		}

		for _, item := range lineItemsFor(order.ID, productID, product.EffectivePrice(), bag[productID]) {
			saved, err := m.orders.AddLineItem(ctx, item)
			if err != nil {
				return models.Order{}, fmt.Errorf("%w: line item for product %s: %w", ErrMaterializationFailed, productID, err)
			}
			order.LineItems = append(order.LineItems, saved)
		}
	}

	committed = true
	return order, nil
}

func lineItemsFor(orderID, productID string, unit decimal.Decimal, entry models.BagEntry) []models.OrderLineItem {
	newItem := func(size *string, qty int) models.OrderLineItem {
		return models.OrderLineItem{
			OrderID:       orderID,
			ProductID:     productID,
			ProductSize:   size,
			Quantity:      qty,
			LineItemTotal: unit.Mul(decimal.NewFromInt(int64(qty))),
		}
	}

	switch e := entry.(type) {
	case models.FlatEntry:
		return []models.OrderLineItem{newItem(nil, e.Quantity)}
	case models.SizedEntry:
		items := make([]models.OrderLineItem, 0, len(e.ItemsBySize))
		for _, size := range sortedSizes(e) {
			items = append(items, newItem(&size, e.ItemsBySize[size]))
		}
		return items
	}
	return nil
}
