package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/payments/mocks"
	"storefront/internal/repository"
	"storefront/internal/retry"
)

const bagFlat = `{"42":2}`

func succeededIntent() payments.Intent {
	return payments.Intent{
		ID:     "pi_123",
		Amount: 2418,
		Metadata: map[string]string{
			payments.MetadataBag:      bagFlat,
			payments.MetadataSaveInfo: "true",
			payments.MetadataEmail:    "jane@example.com",
			payments.MetadataUsername: "jane",
		},
		Shipping: &payments.Shipping{
			Name:  "Jane Doe",
			Phone: "0123456",
			Address: payments.Address{
				City:       "London",
				Country:    "GB",
				Line1:      "1 High St",
				Line2:      "",
				PostalCode: "AB1 2CD",
				State:      "",
			},
		},
		LatestCharge: "ch_1",
	}
}

type reconcilerFixture struct {
	store        *countingStore
	materializer *Materializer
	gateway      *mocks.MockGateway
	sleeps       int
	onSleep      func(n int)
	reconciler   *Reconciler
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &reconcilerFixture{
		store:   &countingStore{MemoryOrders: repository.NewMemoryOrders()},
		gateway: mocks.NewMockGateway(ctrl),
	}
	f.materializer = NewMaterializer(f.store, testCatalog())

	policy := retry.Policy{
		Attempts: 5,
		Delay:    time.Second,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			f.sleeps++
			if f.onSleep != nil {
				f.onSleep(f.sleeps)
			}
			return ctx.Err()
		},
	}
	f.reconciler = NewReconciler(f.store, f.materializer, f.gateway, policy)
	return f
}

func (f *reconcilerFixture) allowBilling() {
	f.gateway.EXPECT().
		RetrieveBillingDetails(gomock.Any(), "ch_1").
		Return(payments.BillingDetails{Email: "billing@example.com"}, nil).
		AnyTimes()
}

// syncOrder stores what the browser flow would have stored for the intent.
func (f *reconcilerFixture) syncOrder(t *testing.T) models.Order {
	t.Helper()
	contact := testContact()
	contact.FullName = "JANE DOE"
	contact.TownOrCity = "london"

	order, err := f.materializer.Materialize(context.Background(), OrderDetails{
		Contact:     contact,
		GrandTotal:  decimal.RequireFromString("24.18"),
		OriginalBag: bagFlat,
		PID:         payments.IntentIDFromClientSecret("pi_123_secret_abc"),
	}, mustBag(t, bagFlat))
	require.NoError(t, err)
	return order
}

func TestReconcileFindsOrderFromBrowserFlow(t *testing.T) {
	f := newReconcilerFixture(t)
	f.allowBilling()
	existing := f.syncOrder(t)

	result, err := f.reconciler.PaymentSucceeded(context.Background(), succeededIntent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadyExists, result.Outcome)
	assert.Equal(t, existing.OrderNumber, result.Order.OrderNumber)
	assert.Equal(t, 1, f.store.Count())
	assert.Zero(t, f.sleeps)
}

func TestReconcileFindsOrderLandingDuringRetry(t *testing.T) {
	f := newReconcilerFixture(t)
	f.allowBilling()

	var landed models.Order
	f.onSleep = func(n int) {
		if n == 2 {
			landed = f.syncOrder(t)
		}
	}

	result, err := f.reconciler.PaymentSucceeded(context.Background(), succeededIntent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadyExists, result.Outcome)
	assert.Equal(t, landed.OrderNumber, result.Order.OrderNumber)
	assert.Equal(t, 3, f.store.FindCalls())
	assert.Equal(t, 1, f.store.Count())
}

func TestReconcileCreatesOrderAfterExhaustingLookups(t *testing.T) {
	f := newReconcilerFixture(t)
	f.allowBilling()

	result, err := f.reconciler.PaymentSucceeded(context.Background(), succeededIntent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, result.Outcome)
	assert.Equal(t, 5, f.store.FindCalls())
	assert.Equal(t, 4, f.sleeps)
	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, 1, f.store.LineItemCount())

	order := result.Order
	assert.Equal(t, "pi_123", order.StripePID)
	assert.Equal(t, "24.18", order.GrandTotal.StringFixed(2))
	assert.Equal(t, "jane@example.com", order.Contact.Email)
	assert.Nil(t, order.Contact.Street2)
	assert.Nil(t, order.Contact.County)
	assert.Contains(t, result.Message(payments.EventPaymentSucceeded), "Created order in webhook")

	// A repeated delivery finds the order the webhook created.
	repeat, err := f.reconciler.PaymentSucceeded(context.Background(), succeededIntent())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyExists, repeat.Outcome)
	assert.Equal(t, order.OrderNumber, repeat.Order.OrderNumber)
	assert.Equal(t, 1, f.store.Count())
}

func TestReconcileTreatsLostCreateRaceAsExisting(t *testing.T) {
	f := newReconcilerFixture(t)
	f.allowBilling()
	existing := f.syncOrder(t)
	f.store.hideForCalls = 5

	result, err := f.reconciler.PaymentSucceeded(context.Background(), succeededIntent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadyExists, result.Outcome)
	assert.Equal(t, existing.OrderNumber, result.Order.OrderNumber)
	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, 1, f.store.LineItemCount())
}

func TestReconcileRequiresShipping(t *testing.T) {
	f := newReconcilerFixture(t)
	f.allowBilling()

	intent := succeededIntent()
	intent.Shipping = nil

	_, err := f.reconciler.PaymentSucceeded(context.Background(), intent)
	require.ErrorIs(t, err, ErrMissingShippingDetails)
	assert.Zero(t, f.store.Count())
	assert.Zero(t, f.store.FindCalls())
}

func TestReconcileIgnoresBillingFailure(t *testing.T) {
	f := newReconcilerFixture(t)
	f.gateway.EXPECT().
		RetrieveBillingDetails(gomock.Any(), "ch_1").
		Return(payments.BillingDetails{}, errors.New("stripe down"))

	result, err := f.reconciler.PaymentSucceeded(context.Background(), succeededIntent())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, result.Outcome)
}

func TestReconcileFallsBackToBillingEmail(t *testing.T) {
	f := newReconcilerFixture(t)
	f.allowBilling()

	intent := succeededIntent()
	delete(intent.Metadata, payments.MetadataEmail)

	result, err := f.reconciler.PaymentSucceeded(context.Background(), intent)
	require.NoError(t, err)
	assert.Equal(t, "billing@example.com", result.Order.Contact.Email)
}

func TestReconcileSkipsBillingWithoutCharge(t *testing.T) {
	f := newReconcilerFixture(t)

	intent := succeededIntent()
	intent.LatestCharge = ""

	result, err := f.reconciler.PaymentSucceeded(context.Background(), intent)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, result.Outcome)
}

func TestReconcileRejectsMalformedBag(t *testing.T) {
	f := newReconcilerFixture(t)
	f.allowBilling()

	intent := succeededIntent()
	intent.Metadata[payments.MetadataBag] = "not json"

	_, err := f.reconciler.PaymentSucceeded(context.Background(), intent)
	require.ErrorIs(t, err, models.ErrMalformedSnapshot)
	assert.Zero(t, f.store.Count())
}

func TestReconcileStopsOnStoreFailure(t *testing.T) {
	f := newReconcilerFixture(t)
	f.allowBilling()
	f.store.findErr = repository.ErrPersistence

	_, err := f.reconciler.PaymentSucceeded(context.Background(), succeededIntent())
	require.ErrorIs(t, err, repository.ErrPersistence)
	assert.Equal(t, 1, f.store.FindCalls())
	assert.Zero(t, f.store.Count())
}

func TestReconcileSurfacesMaterializationFailure(t *testing.T) {
	f := newReconcilerFixture(t)
	f.allowBilling()

	intent := succeededIntent()
	intent.Metadata[payments.MetadataBag] = `{"99":1}`

	_, err := f.reconciler.PaymentSucceeded(context.Background(), intent)
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Zero(t, f.store.Count())
}

func TestPaymentFailedOnlyAcknowledges(t *testing.T) {
	f := newReconcilerFixture(t)

	result := f.reconciler.PaymentFailed(context.Background(), succeededIntent())
	assert.Equal(t, OutcomeAcknowledged, result.Outcome)
	assert.Zero(t, f.store.Count())
	assert.Zero(t, f.store.FindCalls())
}
