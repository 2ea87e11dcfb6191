package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedSnapshot is returned when a bag snapshot string cannot be read
// back into a Bag.
var ErrMalformedSnapshot = errors.New("malformed bag snapshot")

// BagEntry is either a FlatEntry or a SizedEntry.
type BagEntry interface {
	// TotalQuantity is the number of units the entry stands for.
	TotalQuantity() int
	isBagEntry()
}

// FlatEntry is a product bought without a size.
type FlatEntry struct {
	Quantity int
}

// SizedEntry holds the quantity bought per size label.
type SizedEntry struct {
	ItemsBySize map[string]int
}

func (e FlatEntry) TotalQuantity() int { return e.Quantity }

func (e SizedEntry) TotalQuantity() int {
	total := 0
	for _, qty := range e.ItemsBySize {
		total += qty
	}
	return total
}

func (FlatEntry) isBagEntry()  {}
func (SizedEntry) isBagEntry() {}

// Bag maps product ids to what the shopper put in the bag for that product.
type Bag map[string]BagEntry

// ProductIDs returns the bag's product ids in sorted order.
func (b Bag) ProductIDs() []string {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (b Bag) ItemCount() int {
	count := 0
	for _, entry := range b {
		count += entry.TotalQuantity()
	}
	return count
}

func (b Bag) Validate() error {
	for id, entry := range b {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: empty product id", ErrMalformedSnapshot)
		}
		switch e := entry.(type) {
		case FlatEntry:
			if e.Quantity <= 0 {
				return fmt.Errorf("%w: product %s: quantity must be positive", ErrMalformedSnapshot, id)
			}
		case SizedEntry:
			if len(e.ItemsBySize) == 0 {
				return fmt.Errorf("%w: product %s: no sizes", ErrMalformedSnapshot, id)
			}
			for size, qty := range e.ItemsBySize {
				if strings.TrimSpace(size) == "" || qty <= 0 {
					return fmt.Errorf("%w: product %s: invalid size entry %q=%d", ErrMalformedSnapshot, id, size, qty)
				}
			}
		default:
			return fmt.Errorf("%w: product %s: unknown entry", ErrMalformedSnapshot, id)
		}
	}
	return nil
}

type sizedWire struct {
	ItemsBySize map[string]int `json:"items_by_size"`
}

// Encode renders the canonical snapshot string. encoding/json sorts map keys,
// so equal bags always encode to the same string.
func (b Bag) Encode() (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}

	wire := make(map[string]any, len(b))
	for id, entry := range b {
		switch e := entry.(type) {
		case FlatEntry:
			wire[id] = e.Quantity
		case SizedEntry:
			wire[id] = sizedWire{ItemsBySize: e.ItemsBySize}
		}
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("encode bag: %w", err)
	}
	return string(data), nil
}

// DecodeBag parses a snapshot produced by Encode.
func DecodeBag(snapshot string) (Bag, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(snapshot), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedSnapshot)
	}

	bag := make(Bag, len(raw))
	for id, value := range raw {
		entry, err := decodeEntry(value)
		if err != nil {
			return nil, fmt.Errorf("%w: product %s: %v", ErrMalformedSnapshot, id, err)
		}
		bag[id] = entry
	}

	if err := bag.Validate(); err != nil {
		return nil, err
	}
	return bag, nil
}

func decodeEntry(value json.RawMessage) (BagEntry, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return nil, errors.New("empty value")
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		var sized sizedWire
		if err := dec.Decode(&sized); err != nil {
			return nil, err
		}
		return SizedEntry{ItemsBySize: sized.ItemsBySize}, nil
	}

	var qty int
	if err := json.Unmarshal(trimmed, &qty); err != nil {
		return nil, err
	}
	return FlatEntry{Quantity: qty}, nil
}
