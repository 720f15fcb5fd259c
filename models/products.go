package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DatedPrice is one observed price of a product at a point in time.
type DatedPrice struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// Product is a tracked retail product as produced by a scrape or loaded from storage.
// PriceHistory is ascending by date. Category order is significant.
type Product struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	Size                 string              `json:"size,omitempty"`
	CurrentPrice         decimal.Decimal     `json:"currentPrice"`
	LastUpdated          time.Time           `json:"lastUpdated"`
	LastChecked          time.Time           `json:"lastChecked"`
	PriceHistory         []DatedPrice        `json:"priceHistory"`
	SourceSite           string              `json:"sourceSite"`
	Category             []string            `json:"category"`
	UnitPrice            decimal.NullDecimal `json:"unitPrice"`
	UnitName             string              `json:"unitName,omitempty"`
	OriginalUnitQuantity decimal.NullDecimal `json:"originalUnitQuantity"`
}

// LatestSample returns the newest price observation carried by the product.
// A product without history yields a sample built from its current price.
func (p Product) LatestSample() DatedPrice {
	if n := len(p.PriceHistory); n > 0 {
		return p.PriceHistory[n-1]
	}
	return DatedPrice{Date: p.LastUpdated, Price: p.CurrentPrice}
}

// JoinedCategories returns the category labels joined in their stored order.
func (p Product) JoinedCategories() string {
	return strings.Join(p.Category, ",")
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	c := p
	if p.PriceHistory != nil {
		c.PriceHistory = append([]DatedPrice(nil), p.PriceHistory...)
	}
	if p.Category != nil {
		c.Category = append([]string(nil), p.Category...)
	}
	return c
}

// InsertSample returns history with sample placed at its chronological position.
// The input slice is not modified.
func InsertSample(history []DatedPrice, sample DatedPrice) []DatedPrice {
	i := sort.Search(len(history), func(i int) bool {
		return history[i].Date.After(sample.Date)
	})
	out := make([]DatedPrice, 0, len(history)+1)
	out = append(out, history[:i]...)
	out = append(out, sample)
	return append(out, history[i:]...)
}

// ProductRow is the base row of a product.
type ProductRow struct {
	ID                   string              `gorm:"primaryKey"`
	Name                 string              `gorm:"not null"`
	Size                 string              `gorm:"not null;default:''"`
	CurrentPrice         decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	LastUpdated          time.Time           `gorm:"not null"`
	LastChecked          time.Time           `gorm:"not null"`
	SourceSite           string              `gorm:"not null"`
	UnitPrice            decimal.NullDecimal `gorm:"type:decimal(12,4)"`
	UnitName             string              `gorm:"not null;default:''"`
	OriginalUnitQuantity decimal.NullDecimal `gorm:"type:decimal(12,4)"`
	Categories           []CategoryRow       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	PriceHistory         []PriceHistoryRow   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (r *ProductRow) TableName() string {
	return "products"
}

func newProductRow(p *Product) ProductRow {
	return ProductRow{
		ID:                   p.ID,
		Name:                 p.Name,
		Size:                 p.Size,
		CurrentPrice:         p.CurrentPrice,
		LastUpdated:          p.LastUpdated,
		LastChecked:          p.LastChecked,
		SourceSite:           p.SourceSite,
		UnitPrice:            p.UnitPrice,
		UnitName:             p.UnitName,
		OriginalUnitQuantity: p.OriginalUnitQuantity,
	}
}

// toProduct maps the row and any preloaded associations back to a Product.
func (r ProductRow) toProduct() Product {
	p := Product{
		ID:                   r.ID,
		Name:                 r.Name,
		Size:                 r.Size,
		CurrentPrice:         r.CurrentPrice,
		LastUpdated:          r.LastUpdated,
		LastChecked:          r.LastChecked,
		SourceSite:           r.SourceSite,
		UnitPrice:            r.UnitPrice,
		UnitName:             r.UnitName,
		OriginalUnitQuantity: r.OriginalUnitQuantity,
	}
	if len(r.Categories) > 0 {
		p.Category = categoryLabels(r.Categories)
	}
	if len(r.PriceHistory) > 0 {
		p.PriceHistory = datedPrices(r.PriceHistory)
	}
	return p
}
