package upsert

import (
	"fmt"

	"github.com/shelfwatch/pricesync/app/reconcile"
)

// DefaultWorkers is the number of concurrent upserts in a batch.
const DefaultWorkers = 4

type options struct {
	reconciler *reconcile.Reconciler
	notifier   Notifier
	workers    int
}

// Option is a function that configures an Orchestrator.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithReconciler sets the reconciler used for stored products.
func WithReconciler(r *reconcile.Reconciler) Option {
	return func(o *options) error {
		if r == nil {
			return fmt.Errorf("reconciler cannot be nil")
		}
		o.reconciler = r
		return nil
	}
}

// WithNotifier sets the receiver of product events and failures.
func WithNotifier(n Notifier) Option {
	return func(o *options) error {
		if n == nil {
			return fmt.Errorf("notifier cannot be nil")
		}
		o.notifier = n
		return nil
	}
}

// WithWorkers bounds the number of concurrent upserts in UpsertAll.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return fmt.Errorf("workers must be at least 1, got %d", n)
		}
		o.workers = n
		return nil
	}
}
