package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBag              = errors.New("bag is empty")
	ErrFormInvalid           = errors.New("checkout form is invalid")
	ErrProductNotFound       = errors.New("product not found")
	ErrMaterializationFailed = errors.New("order materialization failed")
	// ErrMissingShippingDetails is not retried; the processor decides whether
	// to deliver the event again.
	ErrMissingShippingDetails = errors.New("payment intent has no shipping details")
	// ErrDedupTimeout means the lookup gave up. The reconciler creates the
	// order itself after it.
	ErrDedupTimeout       = errors.New("no matching order after retries")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrMissingClientToken = errors.New("client secret is missing")
)

// ProductNotFoundError names the bag entry that did not resolve.
type ProductNotFoundError struct {
	ProductID string
}

func (e ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}
