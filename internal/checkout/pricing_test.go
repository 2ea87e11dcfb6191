package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/models"
)

func testDelivery() config.DeliveryConfig {
	return config.DeliveryConfig{
		FreeThreshold: decimal.NewFromInt(50),
		Percentage:    decimal.NewFromInt(10),
	}
}

func TestPriceAddsDeliveryBelowThreshold(t *testing.T) {
	summary, err := NewPricer(testCatalog(), testDelivery()).Price(context.Background(), mustBag(t, bagFlat))
	require.NoError(t, err)

	assert.Equal(t, "21.98", summary.Total.StringFixed(2))
	assert.Equal(t, "2.20", summary.Delivery.StringFixed(2))
	assert.Equal(t, "24.18", summary.GrandTotal.StringFixed(2))
	assert.Equal(t, "28.02", summary.FreeDeliveryDelta.StringFixed(2))
	assert.Equal(t, 2, summary.ProductCount)
}

func TestPriceMixedBagAboveThreshold(t *testing.T) {
	bag := models.Bag{
		"7": models.SizedEntry{ItemsBySize: map[string]int{"M": 1, "L": 2}},
		"9": models.FlatEntry{Quantity: 1},
	}

	summary, err := NewPricer(testCatalog(), testDelivery()).Price(context.Background(), bag)
	require.NoError(t, err)

	// 3 shirts at 20.00 plus one hat at its 25.00 sale price.
	assert.Equal(t, "85.00", summary.Total.StringFixed(2))
	assert.True(t, summary.Delivery.IsZero())
	assert.Equal(t, "85.00", summary.GrandTotal.StringFixed(2))
	require.Len(t, summary.Lines, 3)
	assert.Equal(t, "L", *summary.Lines[0].Size)
	assert.Equal(t, "M", *summary.Lines[1].Size)
	assert.Nil(t, summary.Lines[2].Size)
	assert.Equal(t, 4, summary.ProductCount)
}

func TestPriceUnknownProduct(t *testing.T) {
	_, err := NewPricer(testCatalog(), testDelivery()).Price(context.Background(), models.Bag{"404": models.FlatEntry{Quantity: 1}})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestPriceEmptyBag(t *testing.T) {
	_, err := NewPricer(testCatalog(), testDelivery()).Price(context.Background(), models.Bag{})
	require.ErrorIs(t, err, ErrEmptyBag)
}
