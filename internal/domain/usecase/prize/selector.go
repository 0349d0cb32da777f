package prize

import (
	"fmt"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/shopspring/decimal"
)

// Selector draws prizes with probability proportional to their weight
type Selector struct {
	random coreport.RandomSource
}

// NewSelector creates a selector over the given random source
func NewSelector(random coreport.RandomSource) *Selector {
	return &Selector{random: random}
}

// Select draws r uniformly from [0, total) and walks items in order, subtracting each weight
// until the remainder is <= 0. Zero-weight items are skipped so they can never be drawn.
func (s *Selector) Select(items []entity.PrizeItem) (entity.PrizeItem, error) {
	total, err := totalWeight(items)
	if err != nil {
		return entity.PrizeItem{}, err
	}

	u := s.random.Float64()
	if u < 0 || u >= 1 {
		u = 0
	}
	r := total.Mul(decimal.NewFromFloat(u))

	last := -1
	for i, item := range items {
		if !item.Weight.IsPositive() {
			continue
		}
		last = i
		r = r.Sub(item.Weight)
		if !r.IsPositive() {
			return item, nil
		}
	}

	// only reachable through rounding of u*total; the draw belongs to the last positive item
	return items[last], nil
}

func totalWeight(items []entity.PrizeItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, errs.NewConfigurationError("prize table", "no prizes configured")
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Weight.IsNegative() {
			return decimal.Zero, errs.NewConfigurationError("prize table", fmt.Sprintf("prize %q has a negative weight", item.Name))
		}
		total = total.Add(item.Weight)
	}

	if !total.IsPositive() {
		return decimal.Zero, errs.NewConfigurationError("prize table", "every prize weight is zero")
	}
	return total, nil
}
