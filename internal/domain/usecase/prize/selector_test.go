package prize

import (
	"math/rand/v2"
	"testing"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coremocks "github.com/amirhossein-jamali/prize-wheel/mocks/port/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prizeItem(name string, weight float64) entity.PrizeItem {
	return entity.PrizeItem{Name: name, Weight: decimal.NewFromFloat(weight)}
}

type seededSource struct {
	r *rand.Rand
}

func (s seededSource) Float64() float64 { return s.r.Float64() }

func TestSelect_ConvergesToConfiguredProportions(t *testing.T) {
	items := []entity.PrizeItem{
		prizeItem("Comum", 60),
		prizeItem("Raro", 30),
		prizeItem("Épico", 9),
		prizeItem("Lendário", 1),
	}
	selector := NewSelector(seededSource{r: rand.New(rand.NewPCG(42, 1024))})

	const draws = 200000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		item, err := selector.Select(items)
		require.NoError(t, err)
		counts[item.Name]++
	}

	for _, it := range items {
		expected := it.Weight.InexactFloat64() / 100
		observed := float64(counts[it.Name]) / draws
		assert.InDelta(t, expected, observed, 0.01, "prize %s", it.Name)
	}
}

func TestSelect_SingleItemAlwaysWins(t *testing.T) {
	selector := NewSelector(seededSource{r: rand.New(rand.NewPCG(7, 7))})
	items := []entity.PrizeItem{prizeItem("Único", 1)}

	for i := 0; i < 1000; i++ {
		item, err := selector.Select(items)
		require.NoError(t, err)
		assert.Equal(t, "Único", item.Name)
	}
}

func TestSelect_ConfigurationErrors(t *testing.T) {
	selector := NewSelector(coremocks.NewMockRandomSource(t))

	testCases := []struct {
		name  string
		items []entity.PrizeItem
	}{
		{"empty table", nil},
		{"all zero weights", []entity.PrizeItem{prizeItem("A", 0), prizeItem("B", 0)}},
		{"negative weight", []entity.PrizeItem{prizeItem("A", 2), prizeItem("B", -1)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := selector.Select(tc.items)
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}

func TestSelect_BoundariesAndZeroWeights(t *testing.T) {
	items := []entity.PrizeItem{
		prizeItem("Nada", 0),
		prizeItem("A", 1),
		prizeItem("Vazio", 0),
		prizeItem("B", 3),
		prizeItem("Fim", 0),
	}

	testCases := []struct {
		name     string
		draw     float64
		expected string
	}{
		{"draw at zero skips leading zero weight", 0, "A"},
		{"boundary resolves to the item ending there", 0.25, "A"},
		{"just past boundary", 0.2500001, "B"},
		{"top of range", 0.9999999, "B"},
		{"out of range draw is clamped", 1.5, "A"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			random := coremocks.NewMockRandomSource(t)
			random.EXPECT().Float64().Return(tc.draw).Once()

			item, err := NewSelector(random).Select(items)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, item.Name)
		})
	}
}

func TestSelect_ZeroWeightNeverDrawn(t *testing.T) {
	selector := NewSelector(seededSource{r: rand.New(rand.NewPCG(1, 2))})
	items := []entity.PrizeItem{prizeItem("Zero", 0), prizeItem("X", 0.5), prizeItem("Y", 0.5), prizeItem("Zero2", 0)}

	for i := 0; i < 20000; i++ {
		item, err := selector.Select(items)
		require.NoError(t, err)
		assert.NotContains(t, []string{"Zero", "Zero2"}, item.Name)
	}
}
