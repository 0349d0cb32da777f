package entity

import (
	"encoding/json"
	"fmt"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PrizeItem is one slice of the wheel
type PrizeItem struct {
	Name   string
	Weight decimal.Decimal
	// Raw is the item exactly as configured. Display fields (colors, icons, rarity) live here untouched.
	Raw json.RawMessage
}

// PrizeTable is the ordered, immutable set of prizes a spin draws from
type PrizeTable struct {
	items  []PrizeItem
	byName map[string]int
}

// NewPrizeTable validates items and freezes them in the given order
func NewPrizeTable(items []PrizeItem) (*PrizeTable, error) {
	names := lo.Map(items, func(it PrizeItem, _ int) string { return it.Name })
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return nil, errs.NewConfigurationError("prize table", fmt.Sprintf("duplicate prize names %v", dups))
	}

	byName := make(map[string]int, len(items))
	for i, it := range items {
		if it.Name == "" {
			return nil, errs.NewConfigurationError("prize table", fmt.Sprintf("item %d has no name", i))
		}
		if it.Weight.IsNegative() {
			return nil, errs.NewConfigurationError("prize table", fmt.Sprintf("item %q has a negative weight", it.Name))
		}
		byName[it.Name] = i
	}

	return &PrizeTable{
		items:  append([]PrizeItem(nil), items...),
		byName: byName,
	}, nil
}

// Items returns a copy of the items in table order
func (t *PrizeTable) Items() []PrizeItem {
	return append([]PrizeItem(nil), t.items...)
}

// Len returns the number of items
func (t *PrizeTable) Len() int {
	return len(t.items)
}

// Find looks an item up by name
func (t *PrizeTable) Find(name string) (PrizeItem, bool) {
	i, ok := t.byName[name]
	if !ok {
		return PrizeItem{}, false
	}
	return t.items[i], true
}

// TotalWeight sums every item weight
func (t *PrizeTable) TotalWeight() decimal.Decimal {
	return lo.Reduce(t.items, func(acc decimal.Decimal, it PrizeItem, _ int) decimal.Decimal {
		return acc.Add(it.Weight)
	}, decimal.Zero)
}

// RawItems returns the configured JSON objects in order, for clients that render the wheel
func (t *PrizeTable) RawItems() []json.RawMessage {
	return lo.Map(t.items, func(it PrizeItem, _ int) json.RawMessage { return it.Raw })
}
