package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/repository"
)

func testCatalog() *repository.MemoryCatalog {
	return repository.NewMemoryCatalog(
		models.Product{ID: "42", Name: "Canvas Tote", Price: decimal.RequireFromString("10.99"), IsActive: true},
		models.Product{ID: "7", Name: "Linen Shirt", Price: decimal.RequireFromString("20.00"), HasSizes: true, IsActive: true},
		models.Product{
			ID:          "9",
			Name:        "Wool Hat",
			Price:       decimal.RequireFromString("30.00"),
			SaleEnabled: true,
			SalePrice:   decimal.RequireFromString("25.00"),
			IsActive:    true,
		},
	)
}

func testContact() models.Contact {
	return models.Contact{
		FullName:    "Jane Doe",
		Email:       "jane@example.com",
		PhoneNumber: "0123456",
		Country:     "GB",
		Postcode:    "AB1 2CD",
		TownOrCity:  "London",
		Street1:     "1 High St",
	}
}

func mustBag(t *testing.T, snapshot string) models.Bag {
	t.Helper()
	bag, err := models.DecodeBag(snapshot)
	if err != nil {
		t.Fatalf("DecodeBag(%q) returned error: %v", snapshot, err)
	}
	return bag
}

// countingStore wraps the memory store to count lookups and inject failures.
type countingStore struct {
	*repository.MemoryOrders

	mu           sync.Mutex
	findCalls    int
	hideForCalls int
	findErr      error
	addItemErr   error
}

func (s *countingStore) FindExact(ctx context.Context, criteria models.OrderCriteria) (models.Order, error) {
	s.mu.Lock()
	s.findCalls++
	calls := s.findCalls
	s.mu.Unlock()

	if s.findErr != nil {
		return models.Order{}, s.findErr
	}
	if calls <= s.hideForCalls {
		return models.Order{}, repository.ErrOrderNotFound
	}
	return s.MemoryOrders.FindExact(ctx, criteria)
}

func (s *countingStore) AddLineItem(ctx context.Context, item models.OrderLineItem) (models.OrderLineItem, error) {
	if s.addItemErr != nil {
		return models.OrderLineItem{}, s.addItemErr
	}
	return s.MemoryOrders.AddLineItem(ctx, item)
}

func (s *countingStore) FindCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCalls
}
