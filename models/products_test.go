package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sample(daysAgo int, p string) DatedPrice {
	return DatedPrice{Date: day.AddDate(0, 0, -daysAgo), Price: price(p)}
}

func testProduct() Product {
	return Product{
		ID:                   "P1",
		Name:                 "Anchor Blue Milk 2L",
		Size:                 "2L",
		CurrentPrice:         price("3.99"),
		LastUpdated:          day,
		LastChecked:          day,
		PriceHistory:         []DatedPrice{sample(3, "4.20"), sample(0, "3.99")},
		SourceSite:           "countdown.co.nz",
		Category:             []string{"dairy", "milk"},
		UnitPrice:            decimal.NewNullDecimal(price("2")),
		UnitName:             "L",
		OriginalUnitQuantity: decimal.NewNullDecimal(price("2")),
	}
}

func TestLatestSample(t *testing.T) {
	p := testProduct()
	assert.Equal(t, sample(0, "3.99"), p.LatestSample())

	p.PriceHistory = nil
	latest := p.LatestSample()
	assert.Equal(t, day, latest.Date)
	assert.True(t, latest.Price.Equal(price("3.99")))
}

func TestJoinedCategories(t *testing.T) {
	p := testProduct()
	assert.Equal(t, "dairy,milk", p.JoinedCategories())

	p.Category = []string{"milk", "dairy"}
	assert.Equal(t, "milk,dairy", p.JoinedCategories())

	p.Category = nil
	assert.Equal(t, "", p.JoinedCategories())
}

func TestClone(t *testing.T) {
	p := testProduct()
	c := p.Clone()
	c.Category[0] = "changed"
	c.PriceHistory[0].Price = price("9.99")

	assert.Equal(t, "dairy", p.Category[0])
	assert.True(t, p.PriceHistory[0].Price.Equal(price("4.20")))

	empty := Product{ID: "P2"}.Clone()
	assert.Nil(t, empty.Category)
	assert.Nil(t, empty.PriceHistory)
}

func TestInsertSample(t *testing.T) {
	history := []DatedPrice{sample(10, "1.00"), sample(5, "2.00"), sample(1, "3.00")}

	testCases := []struct {
		name          string
		sample        DatedPrice
		expectedIndex int
	}{
		{name: "Newest sample goes last", sample: sample(0, "4.00"), expectedIndex: 3},
		{name: "Backdated sample keeps order", sample: sample(3, "2.50"), expectedIndex: 2},
		{name: "Oldest sample goes first", sample: sample(20, "0.50"), expectedIndex: 0},
		{name: "Equal date goes after existing", sample: sample(5, "2.10"), expectedIndex: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := InsertSample(history, tc.sample)

			require.Len(t, out, 4)
			assert.Equal(t, tc.sample, out[tc.expectedIndex])
			for i := 1; i < len(out); i++ {
				assert.False(t, out[i].Date.Before(out[i-1].Date), "history must stay ascending")
			}
			assert.Len(t, history, 3, "input must not be modified")
		})
	}

	assert.Equal(t, []DatedPrice{sample(0, "1.00")}, InsertSample(nil, sample(0, "1.00")))
}

func TestProductRowMapping(t *testing.T) {
	p := testProduct()

	row := newProductRow(&p)
	assert.Empty(t, row.Categories, "associations are written separately")
	assert.Empty(t, row.PriceHistory)

	row.Categories = newCategoryRows(p.ID, p.Category)
	row.PriceHistory = newPriceHistoryRows(p.ID, p.PriceHistory)
	for _, c := range row.Categories {
		assert.Equal(t, "P1", c.ProductID)
	}

	assert.Equal(t, p, row.toProduct())

	bare := ProductRow{ID: "P2", Name: "Bread"}.toProduct()
	assert.Nil(t, bare.Category)
	assert.Nil(t, bare.PriceHistory)
	assert.False(t, bare.UnitPrice.Valid)
}

func TestUniqueLabels(t *testing.T) {
	assert.Equal(t, []string{"dairy", "milk"}, uniqueLabels([]string{"dairy", "milk", "dairy"}))
	assert.Equal(t, []string{}, uniqueLabels(nil))
}
