package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repository"
	"storefront/internal/retry"
)

type Outcome string

const (
	OutcomeAlreadyExists Outcome = "already exists"
	OutcomeCreated       Outcome = "created in webhook"
	OutcomeAcknowledged  Outcome = "acknowledged"
)

type Result struct {
	Outcome Outcome
	Order   models.Order
}

func (r Result) Message(eventType string) string {
	switch r.Outcome {
	case OutcomeAlreadyExists:
		return fmt.Sprintf("Webhook received: %s | SUCCESS: Verified order already in database", eventType)
	case OutcomeCreated:
		return fmt.Sprintf("Webhook received: %s | SUCCESS: Created order in webhook", eventType)
	default:
		return fmt.Sprintf("Webhook received: %s", eventType)
	}
}

// Reconciler turns payment-succeeded events into orders unless the browser
// already stored one for the same checkout.
type Reconciler struct {
	orders       OrderStore
	materializer *Materializer
	gateway      payments.Gateway
	policy       retry.Policy
}

func NewReconciler(orders OrderStore, materializer *Materializer, gateway payments.Gateway, policy retry.Policy) *Reconciler {
	return &Reconciler{
		orders:       orders,
		materializer: materializer,
		gateway:      gateway,
		policy:       policy,
	}
}

func (r *Reconciler) PaymentSucceeded(ctx context.Context, intent payments.Intent) (Result, error) {
	snapshot := intent.Metadata[payments.MetadataBag]
	email := strings.TrimSpace(intent.Metadata[payments.MetadataEmail])

	if intent.LatestCharge != "" {
		billing, err := r.gateway.RetrieveBillingDetails(ctx, intent.LatestCharge)
		if err != nil {
			log.Printf("[WEBHOOK] [WARN] billing details for %s unavailable: %v", intent.ID, err)
		} else if email == "" {
			email = strings.TrimSpace(billing.Email)
		}
	}

	if intent.Shipping == nil {
		return Result{}, fmt.Errorf("%w: intent %s", ErrMissingShippingDetails, intent.ID)
	}

	bag, err := models.DecodeBag(snapshot)
	if err != nil {
		return Result{}, fmt.Errorf("intent %s: %w", intent.ID, err)
	}

	details := OrderDetails{
		Contact:     contactFromShipping(*intent.Shipping, email),
		GrandTotal:  payments.FromMinorUnits(intent.Amount),
		OriginalBag: snapshot,
		PID:         intent.ID,
	}
	criteria := models.OrderCriteria{
		Contact:     details.Contact,
		GrandTotal:  details.GrandTotal,
		OriginalBag: details.OriginalBag,
		StripePID:   details.PID,
	}

	existing, err := r.awaitExisting(ctx, criteria)
	if err == nil {
		log.Printf("[WEBHOOK] [INFO] order %s already exists for %s", existing.OrderNumber, intent.ID)
		return Result{Outcome: OutcomeAlreadyExists, Order: existing}, nil
	}
	if !errors.Is(err, ErrDedupTimeout) {
		return Result{}, err
	}

	order, err := r.materializer.Materialize(ctx, details, bag)
	if errors.Is(err, repository.ErrDuplicateOrder) {
		existing, findErr := r.orders.FindExact(ctx, criteria)
		if findErr != nil {
			return Result{}, fmt.Errorf("load concurrent order for %s: %w", intent.ID, findErr)
		}
		log.Printf("[WEBHOOK] [INFO] order %s stored concurrently for %s", existing.OrderNumber, intent.ID)
		return Result{Outcome: OutcomeAlreadyExists, Order: existing}, nil
	}
	if err != nil {
		return Result{}, err
	}

	log.Printf("[WEBHOOK] [INFO] order %s created for %s (user %q, save_info=%s)",
		order.OrderNumber, intent.ID, intent.Metadata[payments.MetadataUsername], intent.Metadata[payments.MetadataSaveInfo])
	return Result{Outcome: OutcomeCreated, Order: order}, nil
}

// PaymentFailed records nothing; the event is only acknowledged.
func (r *Reconciler) PaymentFailed(_ context.Context, intent payments.Intent) Result {
	log.Printf("[WEBHOOK] [INFO] payment failed for %s", intent.ID)
	return Result{Outcome: OutcomeAcknowledged}
}

// awaitExisting polls for an order matching criteria. The browser's write
// may land while the webhook is waiting.
func (r *Reconciler) awaitExisting(ctx context.Context, criteria models.OrderCriteria) (models.Order, error) {
	var found models.Order
	err := retry.Do(ctx, r.policy, func(ctx context.Context, attempt int) error {
		order, err := r.orders.FindExact(ctx, criteria)
		if errors.Is(err, repository.ErrOrderNotFound) {
			return err
		}
		if err != nil {
			return fmt.Errorf("%w: %w", retry.Stop, err)
		}
		found = order
		return nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		return models.Order{}, fmt.Errorf("%w: %w", ErrDedupTimeout, err)
	}
	if err != nil {
		return models.Order{}, err
	}
	return found, nil
}

func contactFromShipping(shipping payments.Shipping, email string) models.Contact {
	addr := shipping.Address
	return models.Contact{
		FullName:    strings.TrimSpace(shipping.Name),
		Email:       email,
		PhoneNumber: strings.TrimSpace(shipping.Phone),
		Country:     strings.TrimSpace(addr.Country),
		Postcode:    strings.TrimSpace(addr.PostalCode),
		TownOrCity:  strings.TrimSpace(addr.City),
		Street1:     strings.TrimSpace(addr.Line1),
		Street2:     models.Optional(addr.Line2),
		County:      models.Optional(addr.State),
	}
}
