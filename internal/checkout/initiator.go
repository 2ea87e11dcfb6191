package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/payments"
)

const anonymousUsername = "AnonymousUser"

type Initiator struct {
	gateway payments.Gateway
}

func NewInitiator(gateway payments.Gateway) *Initiator {
	return &Initiator{gateway: gateway}
}

// Start opens a payment intent for total and returns its client secret and id.
func (i *Initiator) Start(ctx context.Context, total decimal.Decimal, currency string) (string, string, error) {
	amount := payments.ToMinorUnits(total)
	if amount <= 0 {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidAmount, total)
	}

	intent, err := i.gateway.CreateIntent(ctx, amount, currency)
	if err != nil {
		return "", "", err
	}
	return intent.ClientSecret, intent.ID, nil
}

// AttachMetadata hands the bag snapshot and contact email to the intent so
// the webhook can rebuild the order without the shopper's session.
func (i *Initiator) AttachMetadata(ctx context.Context, clientSecret, bagSnapshot string, saveInfo bool, email, username string) error {
	intentID := payments.IntentIDFromClientSecret(clientSecret)
	if intentID == "" {
		return ErrMissingClientToken
	}
	if strings.TrimSpace(username) == "" {
		username = anonymousUsername
	}

	return i.gateway.AttachMetadata(ctx, intentID, map[string]string{
		payments.MetadataBag:      bagSnapshot,
		payments.MetadataSaveInfo: strconv.FormatBool(saveInfo),
		payments.MetadataEmail:    strings.TrimSpace(email),
		payments.MetadataUsername: username,
	})
}
