// Package reconcile decides how a freshly scraped product relates to its stored record
// and which record should be persisted as a result. It performs no I/O.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shelfwatch/pricesync/models"
)

// Classification is the outcome of upserting one scraped product.
type Classification int

const (
	AlreadyUpToDate Classification = iota
	NewProduct
	PriceChanged
	InfoChanged
	Failed
)

func (c Classification) String() string {
	switch c {
	case AlreadyUpToDate:
		return "already_up_to_date"
	case NewProduct:
		return "new_product"
	case PriceChanged:
		return "price_changed"
	case InfoChanged:
		return "info_changed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the decision for one scraped/stored pair.
type Result struct {
	Classification Classification
	// Merged is the record that should be persisted.
	Merged models.Product
	// NewSample is the single observation to append; set only for PriceChanged.
	NewSample *models.DatedPrice
	// PreviousPrice is the stored price before reconciliation.
	PreviousPrice decimal.Decimal
	// Repaired is set when stored categories were missing or outside the vocabulary.
	Repaired bool
	// ChangedFields names the metadata fields that differ, for InfoChanged by field diff.
	ChangedFields []string
}

// Reconciler classifies scraped products against stored ones.
type Reconciler struct {
	vocabulary Vocabulary
	threshold  decimal.Decimal
	location   *time.Location
}

// New creates a Reconciler with options.
func New(opts ...Option) (*Reconciler, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{
		vocabulary: o.vocabulary,
		threshold:  o.threshold,
		location:   o.location,
	}, nil
}

// Reconcile compares scraped with stored. The first matching rule wins:
// a price move beyond the threshold on a different calendar day, missing or
// unrecognized stored categories, a metadata difference, otherwise up to date.
func (r *Reconciler) Reconcile(scraped, stored models.Product) Result {
	res := Result{PreviousPrice: stored.CurrentPrice}

	if r.priceChanged(scraped, stored) {
		sample := scraped.LatestSample()
		merged := scraped.Clone()
		merged.PriceHistory = models.InsertSample(stored.PriceHistory, sample)

		res.Classification = PriceChanged
		res.Merged = merged
		res.NewSample = &sample
		return res
	}

	if r.vocabulary.needsRepair(stored.Category) {
		res.Classification = InfoChanged
		res.Merged = keepHistory(scraped, stored)
		res.Repaired = true
		return res
	}

	if changed := diffFields(scraped, stored); len(changed) > 0 {
		res.Classification = InfoChanged
		res.Merged = keepHistory(scraped, stored)
		res.ChangedFields = changed
		return res
	}

	merged := stored.Clone()
	merged.LastChecked = scraped.LastChecked
	res.Classification = AlreadyUpToDate
	res.Merged = merged
	return res
}

func (r *Reconciler) priceChanged(scraped, stored models.Product) bool {
	diff := stored.CurrentPrice.Sub(scraped.CurrentPrice).Abs()
	if !diff.GreaterThan(r.threshold) {
		return false
	}
	return !r.sameDay(stored.LastUpdated, scraped.LastUpdated)
}

func (r *Reconciler) sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(r.location).Date()
	by, bm, bd := b.In(r.location).Date()
	return ay == by && am == bm && ad == bd
}

// keepHistory takes every field from scraped but keeps the stored price history
// and last-updated time, so a metadata rewrite never records a price event.
func keepHistory(scraped, stored models.Product) models.Product {
	merged := scraped.Clone()
	merged.PriceHistory = append([]models.DatedPrice(nil), stored.PriceHistory...)
	merged.LastUpdated = stored.LastUpdated
	return merged
}

func diffFields(scraped, stored models.Product) []string {
	var changed []string
	if scraped.SourceSite != stored.SourceSite {
		changed = append(changed, "sourceSite")
	}
	// Joined comparison: the same labels in another order count as a change.
	if scraped.JoinedCategories() != stored.JoinedCategories() {
		changed = append(changed, "category")
	}
	if scraped.Size != stored.Size {
		changed = append(changed, "size")
	}
	if !nullDecimalEqual(scraped.UnitPrice, stored.UnitPrice) {
		changed = append(changed, "unitPrice")
	}
	if scraped.UnitName != stored.UnitName {
		changed = append(changed, "unitName")
	}
	if !nullDecimalEqual(scraped.OriginalUnitQuantity, stored.OriginalUnitQuantity) {
		changed = append(changed, "originalUnitQuantity")
	}
	return changed
}

func nullDecimalEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
