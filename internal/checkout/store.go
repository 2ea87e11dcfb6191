// Package checkout prices bags, opens payment intents and turns paid bags
// into orders. Orders reach the store from two writers, the shopper's
// browser and the processor's webhook, and this package keeps them from
// producing the same order twice.
package checkout

import (
	"context"

	"storefront/internal/models"
)

// OrderStore is the part of the order repository checkout writes through.
type OrderStore interface {
	FindExact(ctx context.Context, criteria models.OrderCriteria) (models.Order, error)
	Create(ctx context.Context, order models.Order) (models.Order, error)
	AddLineItem(ctx context.Context, item models.OrderLineItem) (models.OrderLineItem, error)
	Delete(ctx context.Context, id string) error
}

type ProductLookup interface {
	GetByID(ctx context.Context, id string) (models.Product, error)
}
