package reconcile

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPriceThreshold is the smallest price movement treated as a real change.
var DefaultPriceThreshold = decimal.RequireFromString("0.05")

type options struct {
	vocabulary Vocabulary
	threshold  decimal.Decimal
	location   *time.Location
}

func defaultOptions() *options {
	return &options{
		threshold: DefaultPriceThreshold,
		location:  time.UTC,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithVocabulary sets the recognized category labels.
func WithVocabulary(v Vocabulary) Option {
	return func(o *options) error {
		o.vocabulary = v
		return nil
	}
}

// WithPriceThreshold sets the price difference that must be exceeded for a price change.
func WithPriceThreshold(threshold decimal.Decimal) Option {
	return func(o *options) error {
		if threshold.IsNegative() {
			return fmt.Errorf("price threshold must not be negative, got %s", threshold)
		}
		o.threshold = threshold
		return nil
	}
}

// WithLocation sets the time zone whose calendar days drive same-day suppression.
func WithLocation(loc *time.Location) Option {
	return func(o *options) error {
		if loc == nil {
			return fmt.Errorf("location cannot be nil")
		}
		o.location = loc
		return nil
	}
}
