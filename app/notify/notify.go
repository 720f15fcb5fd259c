// Package notify reports product events from the upsert pipeline as structured logs.
package notify

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/shelfwatch/pricesync/app/upsert"
	"github.com/shelfwatch/pricesync/logging"
)

// LogNotifier writes upsert events to the logger carried by the context.
type LogNotifier struct{}

var _ upsert.Notifier = (*LogNotifier)(nil)

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) NewProduct(ctx context.Context, name string, price decimal.Decimal) {
	logging.FromContext(ctx).Info().
		Str("event", "new_product").
		Str("name", name).
		Str("price", price.StringFixed(2)).
		Msg("New product")
}

func (n *LogNotifier) PriceChanged(ctx context.Context, name string, oldPrice, newPrice decimal.Decimal) {
	event := logging.FromContext(ctx).Info()
	direction := "down"
	if newPrice.GreaterThan(oldPrice) {
		direction = "up"
	}
	event.
		Str("event", "price_changed").
		Str("name", name).
		Str("old_price", oldPrice.StringFixed(2)).
		Str("new_price", newPrice.StringFixed(2)).
		Str("direction", direction).
		Msg("Price updated")
}

func (n *LogNotifier) InfoChanged(ctx context.Context, name string, fields []string) {
	logging.FromContext(ctx).Debug().
		Str("event", "info_changed").
		Str("name", name).
		Strs("fields", fields).
		Msg("Product info updated")
}

func (n *LogNotifier) Failed(ctx context.Context, err *upsert.Error) {
	logging.FromContext(ctx).Error().
		Err(err.Err).
		Str("event", "failed").
		Str("kind", err.Kind.String()).
		Str("op", err.Op).
		Msg("Upsert failed")
}
