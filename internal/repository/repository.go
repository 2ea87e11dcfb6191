// Package repository persists orders, their line items and the product
// catalog. Every store here has a MongoDB and an in-memory implementation
// with the same matching rules.
package repository

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateOrder means an order with the same fingerprint already
	// exists.
	ErrDuplicateOrder = errors.New("order already exists")
	ErrPersistence    = errors.New("persistence error")
)

// ProductFilter narrows a catalog listing. Zero Page/Limit returns everything.
type ProductFilter struct {
	Search string
	Page   int64
	Limit  int64
}

// newOrderNumber returns 32 upper-case hex characters.
func newOrderNumber() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
