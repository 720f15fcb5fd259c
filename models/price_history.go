package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistoryRow is one persisted price observation.
type PriceHistoryRow struct {
	ID        uint            `gorm:"primaryKey"`
	ProductID string          `gorm:"not null;index:idx_price_history_product_date"`
	Date      time.Time       `gorm:"not null;index:idx_price_history_product_date"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (h *PriceHistoryRow) TableName() string {
	return "price_history"
}

func newPriceHistoryRows(productID string, history []DatedPrice) []PriceHistoryRow {
	rows := make([]PriceHistoryRow, len(history))
	for i, dp := range history {
		rows[i] = PriceHistoryRow{ProductID: productID, Date: dp.Date, Price: dp.Price}
	}
	return rows
}

func datedPrices(rows []PriceHistoryRow) []DatedPrice {
	out := make([]DatedPrice, len(rows))
	for i, r := range rows {
		out[i] = DatedPrice{Date: r.Date, Price: r.Price}
	}
	return out
}
