package payments

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

func TestToMinorUnitsRoundsHalfUp(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"21.98", 2198},
		{"10.005", 1001},
		{"10.004", 1000},
		{"0.5", 50},
		{"19.999", 2000},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestFromMinorUnitsMatchesTwoPlaceTotal(t *testing.T) {
	total := decimal.RequireFromString("21.98")
	assert.True(t, FromMinorUnits(ToMinorUnits(total)).Equal(total))
	assert.Equal(t, "0.07", FromMinorUnits(7).StringFixed(2))
}

func TestIntentIDFromClientSecret(t *testing.T) {
	assert.Equal(t, "pi_3Abc", IntentIDFromClientSecret("pi_3Abc_secret_xyz"))
	assert.Equal(t, "pi_3Abc", IntentIDFromClientSecret("pi_3Abc"))
	assert.Equal(t, "", IntentIDFromClientSecret(""))
}

const testSecret = "whsec_test"

func signed(t *testing.T, payload string) string {
	t.Helper()
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	}).Header
}

func TestStripeEventParserDecodesPaymentIntent(t *testing.T) {
	payload := `{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_123",
			"object": "payment_intent",
			"amount": 2198,
			"currency": "usd",
			"latest_charge": "ch_9",
			"metadata": {"bag": "{\"42\":2}", "save_info": "true", "email": "jane@example.com"},
			"shipping": {
				"name": "Jane Doe",
				"phone": "0123456",
				"address": {"city": "London", "country": "GB", "line1": "1 High St", "line2": "", "postal_code": "AB1 2CD", "state": ""}
			}
		}}
	}`

	parser := NewStripeEventParser(testSecret)
	event, err := parser.ParseEvent([]byte(payload), signed(t, payload))
	require.NoError(t, err)

	assert.Equal(t, EventPaymentSucceeded, event.Type)
	require.NotNil(t, event.Intent)
	assert.Equal(t, "pi_123", event.Intent.ID)
	assert.Equal(t, int64(2198), event.Intent.Amount)
	assert.Equal(t, "ch_9", event.Intent.LatestCharge)
	assert.Equal(t, `{"42":2}`, event.Intent.Metadata[MetadataBag])
	require.NotNil(t, event.Intent.Shipping)
	assert.Equal(t, "Jane Doe", event.Intent.Shipping.Name)
	assert.Equal(t, "AB1 2CD", event.Intent.Shipping.Address.PostalCode)
}

func TestStripeEventParserLeavesOtherEventsBare(t *testing.T) {
	payload := `{"id": "evt_2", "object": "event", "type": "customer.created", "data": {"object": {"id": "cus_1", "object": "customer"}}}`

	event, err := NewStripeEventParser(testSecret).ParseEvent([]byte(payload), signed(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "customer.created", event.Type)
	assert.Nil(t, event.Intent)
}

func TestStripeEventParserRejectsBadSignature(t *testing.T) {
	payload := `{"id": "evt_3", "object": "event", "type": "payment_intent.succeeded", "data": {"object": {}}}`

	_, err := NewStripeEventParser("whsec_other").ParseEvent([]byte(payload), signed(t, payload))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	_, err = NewStripeEventParser(testSecret).ParseEvent([]byte(payload), "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeEventParserRejectsBrokenBody(t *testing.T) {
	payload := `{"id": "evt_4", "type": `

	_, err := NewStripeEventParser(testSecret).ParseEvent([]byte(payload), signed(t, payload))
	assert.ErrorIs(t, err, ErrInvalidEvent)
}
