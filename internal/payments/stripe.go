package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway is a Gateway backed by a per-instance stripe-go client.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: create intent: %w", ErrGateway, err)
	}
	return intentFromStripe(pi), nil
}

func (g *StripeGateway) AttachMetadata(ctx context.Context, intentID string, metadata map[string]string) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	if _, err := g.api.PaymentIntents.Update(intentID, params); err != nil {
		return fmt.Errorf("%w: modify intent %s: %w", ErrGateway, intentID, err)
	}
	return nil
}

func (g *StripeGateway) RetrieveBillingDetails(ctx context.Context, chargeID string) (BillingDetails, error) {
	params := &stripe.ChargeParams{}
	params.Context = ctx

	ch, err := g.api.Charges.Get(chargeID, params)
	if err != nil {
		return BillingDetails{}, fmt.Errorf("%w: retrieve charge %s: %w", ErrGateway, chargeID, err)
	}
	if ch.BillingDetails == nil {
		return BillingDetails{}, nil
	}

	bd := ch.BillingDetails
	return BillingDetails{
		Name:    bd.Name,
		Email:   bd.Email,
		Phone:   bd.Phone,
		Address: addressFromStripe(bd.Address),
	}, nil
}

// StripeEventParser checks the Stripe-Signature header against the endpoint
// secret.
type StripeEventParser struct {
	secret string
}

func NewStripeEventParser(webhookSecret string) *StripeEventParser {
	return &StripeEventParser{secret: webhookSecret}
}

func (p *StripeEventParser) ParseEvent(payload []byte, signature string) (Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return Event{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		}
		return Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	event := Event{ID: evt.ID, Type: string(evt.Type)}
	if !strings.HasPrefix(event.Type, "payment_intent.") || evt.Data == nil {
		return event, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return Event{}, fmt.Errorf("%w: payment intent: %w", ErrInvalidEvent, err)
	}
	intent := intentFromStripe(&pi)
	event.Intent = &intent
	return event, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

func intentFromStripe(pi *stripe.PaymentIntent) Intent {
	intent := Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	if intent.Metadata == nil {
		intent.Metadata = map[string]string{}
	}
	if pi.Shipping != nil {
		intent.Shipping = &Shipping{
			Name:    pi.Shipping.Name,
			Phone:   pi.Shipping.Phone,
			Address: addressFromStripe(pi.Shipping.Address),
		}
	}
	if pi.LatestCharge != nil {
		intent.LatestCharge = pi.LatestCharge.ID
	}
	return intent
}

func addressFromStripe(a *stripe.Address) Address {
	if a == nil {
		return Address{}
	}
	return Address{
		City:       a.City,
		Country:    a.Country,
		Line1:      a.Line1,
		Line2:      a.Line2,
		PostalCode: a.PostalCode,
		State:      a.State,
	}
}
