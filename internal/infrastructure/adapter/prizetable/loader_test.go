package prizetable

import (
	"testing"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTable = `[
  {"name": "Pix R$10", "chance": 5, "color": "#ffcc00", "icon": "pix.png"},
  {"name": "Tente de novo", "chance": 94.5},
  {"name": "iPhone", "chance": 0.5, "rarity": "lendario"}
]`

func TestLoader_Load(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/configs/items.json", []byte(sampleTable), 0o644))

	table, err := NewLoader(fs).Load("/configs/items.json")

	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	items := table.Items()
	assert.Equal(t, "Pix R$10", items[0].Name)
	assert.True(t, decimal.NewFromFloat(94.5).Equal(items[1].Weight))
	assert.JSONEq(t, `{"name":"Pix R$10","chance":5,"color":"#ffcc00","icon":"pix.png"}`, string(items[0].Raw))
	assert.True(t, decimal.NewFromInt(100).Equal(table.TotalWeight()))
}

func TestLoader_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{`},
		{"object instead of array", `{"name":"x","chance":1}`},
		{"empty", `[]`},
		{"missing name", `[{"chance": 1}]`},
		{"missing chance", `[{"name": "x"}]`},
		{"chance not a number", `[{"name": "x", "chance": "lots"}]`},
		{"negative chance", `[{"name": "x", "chance": -1}]`},
		{"duplicate names", `[{"name": "x", "chance": 1}, {"name": "x", "chance": 2}]`},
		{"all zero", `[{"name": "x", "chance": 0}, {"name": "y", "chance": 0}]`},
	}

	loader := NewLoader(afero.NewMemMapFs())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Parse([]byte(tt.doc))

			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(afero.NewMemMapFs()).Load("/nope.json")

	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestLoader_ZeroWeightItemsAllowed(t *testing.T) {
	table, err := NewLoader(afero.NewMemMapFs()).Parse([]byte(`[{"name":"a","chance":0},{"name":"b","chance":1}]`))

	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}
