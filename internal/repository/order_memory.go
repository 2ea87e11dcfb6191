package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// MemoryOrders keeps orders in process memory. It applies the same
// case-insensitive matching and fingerprint uniqueness as MongoOrders.
type MemoryOrders struct {
	mu           sync.RWMutex
	orders       map[string]models.Order
	lineItems    map[string][]models.OrderLineItem
	fingerprints map[string]string
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{
		orders:       make(map[string]models.Order),
		lineItems:    make(map[string][]models.OrderLineItem),
		fingerprints: make(map[string]string),
	}
}

func (r *MemoryOrders) FindExact(_ context.Context, criteria models.OrderCriteria) (models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if matchesCriteria(order, criteria) {
			return order, nil
		}
	}
	return models.Order{}, ErrOrderNotFound
}

func (r *MemoryOrders) Create(_ context.Context, order models.Order) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fingerprint := order.Criteria().Fingerprint()
	if _, exists := r.fingerprints[fingerprint]; exists {
		return models.Order{}, ErrDuplicateOrder
	}

	order.ID = uuid.NewString()
	order.OrderNumber = newOrderNumber()
	order.CreatedAt = time.Now().UTC()
	order.LineItems = nil

	r.orders[order.ID] = order
	r.fingerprints[fingerprint] = order.ID
	return order, nil
}

func (r *MemoryOrders) AddLineItem(_ context.Context, item models.OrderLineItem) (models.OrderLineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[item.OrderID]; !ok {
		return models.OrderLineItem{}, ErrOrderNotFound
	}

	item.ID = uuid.NewString()
	r.lineItems[item.OrderID] = append(r.lineItems[item.OrderID], item)
	return item, nil
}

func (r *MemoryOrders) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}

	delete(r.fingerprints, order.Criteria().Fingerprint())
	delete(r.lineItems, id)
	delete(r.orders, id)
	return nil
}

func (r *MemoryOrders) GetByNumber(_ context.Context, orderNumber string) (models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			order.LineItems = append([]models.OrderLineItem(nil), r.lineItems[order.ID]...)
			return order, nil
		}
	}
	return models.Order{}, ErrOrderNotFound
}

func (r *MemoryOrders) List(_ context.Context, page, limit int64) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		all = append(all, order)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= total {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// Count and LineItemCount report how much is stored. Tests use them to check
// rollbacks left nothing behind.
func (r *MemoryOrders) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

func (r *MemoryOrders) LineItemCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, items := range r.lineItems {
		count += len(items)
	}
	return count
}

func matchesCriteria(order models.Order, c models.OrderCriteria) bool {
	got := order.Contact
	return strings.EqualFold(got.FullName, c.FullName) &&
		strings.EqualFold(got.Email, c.Email) &&
		strings.EqualFold(got.PhoneNumber, c.PhoneNumber) &&
		strings.EqualFold(got.Country, c.Country) &&
		strings.EqualFold(got.Postcode, c.Postcode) &&
		strings.EqualFold(got.TownOrCity, c.TownOrCity) &&
		strings.EqualFold(got.Street1, c.Street1) &&
		optionalEqualFold(got.Street2, c.Street2) &&
		optionalEqualFold(got.County, c.County) &&
		order.GrandTotal.Equal(c.GrandTotal) &&
		order.OriginalBag == c.OriginalBag &&
		order.StripePID == c.StripePID
}

func optionalEqualFold(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}
