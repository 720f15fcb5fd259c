// Package upsert applies scraped products to storage: it looks up the stored record,
// reconciles it with the scrape and issues the resulting writes.
package upsert

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/shelfwatch/pricesync/app/reconcile"
	"github.com/shelfwatch/pricesync/logging"
	"github.com/shelfwatch/pricesync/models"
)

// Gateway is the storage capability the orchestrator needs.
// Lookup reports an unknown id with models.ErrProductNotFound.
type Gateway interface {
	Lookup(ctx context.Context, id string) (*models.Product, error)
	LoadCategories(ctx context.Context, id string) ([]string, error)
	LoadPriceHistory(ctx context.Context, id string) ([]models.DatedPrice, error)
	Insert(ctx context.Context, p *models.Product) error
	UpdateBaseFields(ctx context.Context, p *models.Product) error
	AppendPriceHistory(ctx context.Context, id string, dp models.DatedPrice) error
	ReplaceCategories(ctx context.Context, id string, labels []string) error
}

// Notifier receives product events and per-product failures.
type Notifier interface {
	NewProduct(ctx context.Context, name string, price decimal.Decimal)
	PriceChanged(ctx context.Context, name string, oldPrice, newPrice decimal.Decimal)
	InfoChanged(ctx context.Context, name string, fields []string)
	Failed(ctx context.Context, err *Error)
}

type nopNotifier struct{}

func (nopNotifier) NewProduct(context.Context, string, decimal.Decimal) {}

func (nopNotifier) PriceChanged(context.Context, string, decimal.Decimal, decimal.Decimal) {}

func (nopNotifier) InfoChanged(context.Context, string, []string) {}

func (nopNotifier) Failed(context.Context, *Error) {}

// Outcome is the result of upserting one product.
type Outcome struct {
	ProductID      string
	Classification reconcile.Classification
	Err            error
}

// Orchestrator sequences lookups, reconciliation and writes for scraped products.
type Orchestrator struct {
	gateway    Gateway
	reconciler *reconcile.Reconciler
	notifier   Notifier
	workers    int
}

// New creates an Orchestrator writing through gateway.
func New(gateway Gateway, opts ...Option) (*Orchestrator, error) {
	if gateway == nil {
		return nil, errors.New("gateway cannot be nil")
	}
	o, err := (&options{notifier: nopNotifier{}, workers: DefaultWorkers}).apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.reconciler == nil {
		if o.reconciler, err = reconcile.New(); err != nil {
			return nil, err
		}
	}
	return &Orchestrator{
		gateway:    gateway,
		reconciler: o.reconciler,
		notifier:   o.notifier,
		workers:    o.workers,
	}, nil
}

// Upsert applies one scraped product and returns its classification.
// Failures are reported to the notifier and yield reconcile.Failed.
func (o *Orchestrator) Upsert(ctx context.Context, scraped models.Product) reconcile.Classification {
	return o.Apply(ctx, scraped).Classification
}

// Apply is Upsert with the failure cause kept in the outcome.
func (o *Orchestrator) Apply(ctx context.Context, scraped models.Product) Outcome {
	ctx = logging.WithField(ctx, "product_id", scraped.ID)

	if err := Validate(scraped); err != nil {
		return o.fail(ctx, scraped.ID, ValidationFailure, OpValidate, err)
	}

	base, err := o.gateway.Lookup(ctx, scraped.ID)
	if errors.Is(err, models.ErrProductNotFound) {
		return o.insert(ctx, scraped)
	}
	if err != nil {
		return o.fail(ctx, scraped.ID, LookupFailure, OpLookup, err)
	}

	stored := *base
	if stored.Category, err = o.gateway.LoadCategories(ctx, scraped.ID); err != nil {
		return o.fail(ctx, scraped.ID, LookupFailure, OpLoadCategories, err)
	}
	if stored.PriceHistory, err = o.gateway.LoadPriceHistory(ctx, scraped.ID); err != nil {
		return o.fail(ctx, scraped.ID, LookupFailure, OpLoadPriceHistory, err)
	}

	res := o.reconciler.Reconcile(scraped, stored)

	// The base row is rewritten even when up to date, to persist last checked.
	if err := o.gateway.UpdateBaseFields(ctx, &res.Merged); err != nil {
		return o.fail(ctx, scraped.ID, WriteFailure, OpUpdateBaseFields, err)
	}
	if res.Classification == reconcile.PriceChanged {
		if err := o.gateway.AppendPriceHistory(ctx, scraped.ID, *res.NewSample); err != nil {
			return o.fail(ctx, scraped.ID, WriteFailure, OpAppendPriceHistory, err)
		}
	}
	if res.Classification == reconcile.PriceChanged || res.Classification == reconcile.InfoChanged {
		if err := o.gateway.ReplaceCategories(ctx, scraped.ID, res.Merged.Category); err != nil {
			return o.fail(ctx, scraped.ID, WriteFailure, OpReplaceCategories, err)
		}
	}

	switch res.Classification {
	case reconcile.PriceChanged:
		o.notifier.PriceChanged(ctx, res.Merged.Name, res.PreviousPrice, res.Merged.CurrentPrice)
	case reconcile.InfoChanged:
		fields := res.ChangedFields
		if res.Repaired {
			fields = append([]string{"category"}, fields...)
		}
		o.notifier.InfoChanged(ctx, res.Merged.Name, fields)
	}
	return Outcome{ProductID: scraped.ID, Classification: res.Classification}
}

func (o *Orchestrator) insert(ctx context.Context, scraped models.Product) Outcome {
	p := scraped.Clone()
	if len(p.PriceHistory) == 0 {
		p.PriceHistory = []models.DatedPrice{p.LatestSample()}
	}
	if err := o.gateway.Insert(ctx, &p); err != nil {
		return o.fail(ctx, scraped.ID, WriteFailure, OpInsert, err)
	}
	o.notifier.NewProduct(ctx, p.Name, p.CurrentPrice)
	return Outcome{ProductID: scraped.ID, Classification: reconcile.NewProduct}
}

func (o *Orchestrator) fail(ctx context.Context, id string, kind FailureKind, op string, err error) Outcome {
	uerr := &Error{Kind: kind, Op: op, ProductID: id, Err: err}
	o.notifier.Failed(ctx, uerr)
	return Outcome{ProductID: id, Classification: reconcile.Failed, Err: uerr}
}
