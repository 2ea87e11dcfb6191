package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/repository"
)

const defaultMaxConcurrent = 8

// BagLine is one priced (product, size) row of a bag.
type BagLine struct {
	Product  models.Product  `json:"product"`
	Size     *string         `json:"size,omitempty"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type BagSummary struct {
	Lines             []BagLine       `json:"lines"`
	ProductCount      int             `json:"productCount"`
	Total             decimal.Decimal `json:"total"`
	Delivery          decimal.Decimal `json:"delivery"`
	FreeDeliveryDelta decimal.Decimal `json:"freeDeliveryDelta"`
	GrandTotal        decimal.Decimal `json:"grandTotal"`
}

// Pricer is the bag-pricing collaborator: it totals a bag at today's prices
// and adds delivery below the free-delivery threshold.
type Pricer struct {
	products      ProductLookup
	delivery      config.DeliveryConfig
	maxConcurrent int
}

func NewPricer(products ProductLookup, delivery config.DeliveryConfig) *Pricer {
	return &Pricer{
		products:      products,
		delivery:      delivery,
		maxConcurrent: defaultMaxConcurrent,
	}
}

func (p *Pricer) Price(ctx context.Context, bag models.Bag) (BagSummary, error) {
	if len(bag) == 0 {
		return BagSummary{}, ErrEmptyBag
	}
	if err := bag.Validate(); err != nil {
		return BagSummary{}, err
	}

	ids := bag.ProductIDs()
	products := make([]models.Product, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for idx, id := range ids {
		g.Go(func() error {
			product, err := p.products.GetByID(gctx, id)
			if errors.Is(err, repository.ErrProductNotFound) {
				return ProductNotFoundError{ProductID: id}
			}
			if err != nil {
				return fmt.Errorf("price product %s: %w", id, err)
			}
			products[idx] = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BagSummary{}, err
	}

	summary := BagSummary{Total: decimal.Zero}
	for idx, id := range ids {
		product := products[idx]
		unit := product.EffectivePrice()

		switch entry := bag[id].(type) {
		case models.FlatEntry:
			summary.Lines = append(summary.Lines, BagLine{
				Product:  product,
				Quantity: entry.Quantity,
				Subtotal: unit.Mul(decimal.NewFromInt(int64(entry.Quantity))),
			})
		case models.SizedEntry:
			for _, size := range sortedSizes(entry) {
				qty := entry.ItemsBySize[size]
				summary.Lines = append(summary.Lines, BagLine{
					Product:  product,
					Size:     &size,
					Quantity: qty,
					Subtotal: unit.Mul(decimal.NewFromInt(int64(qty))),
				})
			}
		}
		summary.ProductCount += bag[id].TotalQuantity()
	}

	for _, line := range summary.Lines {
		summary.Total = summary.Total.Add(line.Subtotal)
	}

	summary.Delivery = decimal.Zero
	summary.FreeDeliveryDelta = decimal.Zero
	if summary.Total.LessThan(p.delivery.FreeThreshold) {
		summary.Delivery = summary.Total.Mul(p.delivery.Percentage).Div(decimal.NewFromInt(100)).Round(2)
		summary.FreeDeliveryDelta = p.delivery.FreeThreshold.Sub(summary.Total)
	}
	summary.GrandTotal = summary.Total.Add(summary.Delivery).Round(2)
	return summary, nil
}

func sortedSizes(entry models.SizedEntry) []string {
	sizes := make([]string, 0, len(entry.ItemsBySize))
	for size := range entry.ItemsBySize {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	return sizes
}
