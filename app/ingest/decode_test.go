package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonArray = `[
  {
    "id": "P1",
    "name": "Anchor Blue Milk 2L",
    "size": "2L",
    "currentPrice": 3.99,
    "lastUpdated": "2024-01-02T09:00:00Z",
    "lastChecked": "2024-01-02T09:00:00Z",
    "priceHistory": [{"date": "2024-01-02T09:00:00Z", "price": 3.99}],
    "sourceSite": "countdown.co.nz",
    "category": ["dairy", "milk"],
    "unitPrice": 2.0,
    "unitName": "L",
    "originalUnitQuantity": 2
  },
  {
    "id": "P2",
    "name": "White Toast Bread",
    "currentPrice": "1.50",
    "lastUpdated": "2024-01-02T09:00:00Z",
    "lastChecked": "2024-01-02T09:00:00Z",
    "sourceSite": "countdown.co.nz",
    "category": ["bakery"],
    "unitPrice": null
  }
]`

const yamlList = `
- id: P1
  name: Anchor Blue Milk 2L
  currentPrice: 3.99
  lastUpdated: "2024-01-02T09:00:00Z"
  lastChecked: "2024-01-02T09:00:00Z"
  priceHistory:
    - date: "2024-01-02T09:00:00Z"
      price: 3.99
  sourceSite: countdown.co.nz
  category: [dairy, milk]
  unitPrice: 2.0
  unitName: L
`

func TestDecode(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		format      Format
		expectedIDs []string
		expectError bool
	}{
		{name: "JSON array", input: jsonArray, format: FormatJSON, expectedIDs: []string{"P1", "P2"}},
		{
			name:        "JSON lines",
			input:       "{\"id\":\"A\",\"name\":\"a\",\"currentPrice\":1}\n{\"id\":\"B\",\"name\":\"b\",\"currentPrice\":2}\n",
			format:      FormatJSON,
			expectedIDs: []string{"A", "B"},
		},
		{name: "YAML sequence", input: yamlList, format: FormatYAML, expectedIDs: []string{"P1"}},
		{name: "Empty input", input: "  \n", format: FormatJSON},
		{name: "Broken JSON", input: `[{"id": }]`, format: FormatJSON, expectError: true},
		{name: "Broken JSON lines", input: "{\"id\":\"A\"}\n{oops}", format: FormatJSON, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			products, err := Decode(strings.NewReader(tc.input), tc.format)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			ids := make([]string, len(products))
			for i, p := range products {
				ids[i] = p.ID
			}
			assert.Equal(t, len(tc.expectedIDs), len(ids))
			if len(tc.expectedIDs) > 0 {
				assert.Equal(t, tc.expectedIDs, ids)
			}
		})
	}
}

func TestDecodeFields(t *testing.T) {
	for _, tc := range []struct {
		name   string
		input  string
		format Format
	}{
		{name: "JSON", input: jsonArray, format: FormatJSON},
		{name: "YAML", input: yamlList, format: FormatYAML},
	} {
		t.Run(tc.name, func(t *testing.T) {
			products, err := Decode(strings.NewReader(tc.input), tc.format)
			require.NoError(t, err)
			require.NotEmpty(t, products)

			p := products[0]
			assert.True(t, p.CurrentPrice.Equal(decimal.RequireFromString("3.99")))
			assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), p.LastUpdated.UTC())
			assert.Equal(t, []string{"dairy", "milk"}, p.Category)
			require.Len(t, p.PriceHistory, 1)
			assert.True(t, p.PriceHistory[0].Price.Equal(decimal.RequireFromString("3.99")))
			assert.True(t, p.UnitPrice.Valid)
			assert.True(t, p.UnitPrice.Decimal.Equal(decimal.RequireFromString("2")))
			assert.Equal(t, "L", p.UnitName)
		})
	}
}

func TestDecodeNullUnitPrice(t *testing.T) {
	products, err := Decode(strings.NewReader(jsonArray), FormatJSON)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.False(t, products[1].UnitPrice.Valid)
	assert.True(t, products[1].CurrentPrice.Equal(decimal.RequireFromString("1.5")))
	assert.Empty(t, products[1].PriceHistory)
}

func TestFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)

	assert.Equal(t, FormatYAML, FormatFromPath("scrape/2024-01-02.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("scrape.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("-"))
}
