package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	SaleEnabled bool            `json:"saleEnabled"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	IsOnSale    bool            `json:"isOnSale"`
	HasSizes    bool            `json:"hasSizes"`
	Description string          `json:"description,omitempty"`
	ImagePath   string          `json:"imagePath,omitempty"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// EffectivePrice is the unit price a shopper pays today.
func (p Product) EffectivePrice() decimal.Decimal {
	if IsOnSale(p.Price, p.SaleEnabled, p.SalePrice) {
		return p.SalePrice
	}
	return p.Price
}

func IsOnSale(price decimal.Decimal, saleEnabled bool, salePrice decimal.Decimal) bool {
	return saleEnabled && salePrice.IsPositive() && salePrice.LessThan(price)
}
