// Package payments talks to the payment processor. Callers hold an explicit
// Gateway handle; no API key lives in package state.
package payments

//go:generate mockgen -source=gateway.go -destination=mocks/mock_payments.go -package=mocks

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Event types the webhook endpoint dispatches on.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Metadata keys attached to an intent before the shopper submits the form.
const (
	MetadataBag      = "bag"
	MetadataSaveInfo = "save_info"
	MetadataEmail    = "email"
	MetadataUsername = "username"
)

var (
	ErrGateway          = errors.New("payment gateway error")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidEvent     = errors.New("invalid webhook event")
)

type Address struct {
	City       string
	Country    string
	Line1      string
	Line2      string
	PostalCode string
	State      string
}

type Shipping struct {
	Name    string
	Phone   string
	Address Address
}

type BillingDetails struct {
	Name    string
	Email   string
	Phone   string
	Address Address
}

// Intent is the subset of a payment intent the checkout reads.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Metadata     map[string]string
	// Shipping is nil when the processor holds no shipping details.
	Shipping     *Shipping
	LatestCharge string
}

// Event is a verified webhook delivery. Intent is set for payment_intent.*
// events only.
type Event struct {
	ID     string
	Type   string
	Intent *Intent
}

type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (Intent, error)
	AttachMetadata(ctx context.Context, intentID string, metadata map[string]string) error
	RetrieveBillingDetails(ctx context.Context, chargeID string) (BillingDetails, error)
}

// EventParser verifies and decodes a raw webhook delivery.
type EventParser interface {
	ParseEvent(payload []byte, signature string) (Event, error)
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts an amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

// IntentIDFromClientSecret returns the intent id a client secret belongs to,
// or "" for an empty secret.
func IntentIDFromClientSecret(clientSecret string) string {
	id, _, _ := strings.Cut(strings.TrimSpace(clientSecret), "_secret")
	return id
}
