package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Contact is the shipping and contact block collected at checkout. Street2 and
// County are nil when the shopper left them blank.
type Contact struct {
	FullName    string  `json:"fullName"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phoneNumber"`
	Country     string  `json:"country"`
	Postcode    string  `json:"postcode"`
	TownOrCity  string  `json:"townOrCity"`
	Street1     string  `json:"streetAddress1"`
	Street2     *string `json:"streetAddress2,omitempty"`
	County      *string `json:"county,omitempty"`
}

// OrderLineItem is one (product, size) row of an order.
type OrderLineItem struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"orderId"`
	ProductID     string          `json:"productId"`
	ProductSize   *string         `json:"productSize,omitempty"`
	Quantity      int             `json:"quantity"`
	LineItemTotal decimal.Decimal `json:"lineItemTotal"`
}

// Order is the persisted result of one captured payment.
type Order struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	Contact     Contact         `json:"contact"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
	OriginalBag string          `json:"originalBag"`
	StripePID   string          `json:"stripePid"`
	LineItems   []OrderLineItem `json:"lineItems,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OrderCriteria is the dedup fingerprint the webhook looks orders up by.
type OrderCriteria struct {
	Contact
	GrandTotal  decimal.Decimal
	OriginalBag string
	StripePID   string
}

func (o Order) Criteria() OrderCriteria {
	return OrderCriteria{
		Contact:     o.Contact,
		GrandTotal:  o.GrandTotal,
		OriginalBag: o.OriginalBag,
		StripePID:   o.StripePID,
	}
}

// Fingerprint hashes the case-folded criteria. Two orders with the same
// fingerprint are the same checkout.
func (c OrderCriteria) Fingerprint() string {
	parts := []string{
		c.FullName,
		c.Email,
		c.PhoneNumber,
		c.Country,
		c.Postcode,
		c.TownOrCity,
		c.Street1,
		optionalValue(c.Street2),
		optionalValue(c.County),
		c.GrandTotal.StringFixed(2),
		c.OriginalBag,
		c.StripePID,
	}
	for i := range parts[:9] {
		parts[i] = strings.ToLower(parts[i])
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// optionalValue keeps nil distinct from "" in the fingerprint.
func optionalValue(v *string) string {
	if v == nil {
		return "\x00"
	}
	return *v
}

// Optional returns nil for blank input, the trimmed value otherwise.
func Optional(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
