package models

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps products in process memory. It backs dry runs and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]Product),
	}
}

func (r *MemoryRepository) Lookup(_ context.Context, id string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	base := p.Clone()
	base.Category = nil
	base.PriceHistory = nil
	return &base, nil
}

func (r *MemoryRepository) LoadCategories(_ context.Context, id string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.products[id].Category...), nil
}

func (r *MemoryRepository) LoadPriceHistory(_ context.Context, id string) ([]DatedPrice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]DatedPrice(nil), r.products[id].PriceHistory...), nil
}

func (r *MemoryRepository) Insert(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID]; ok {
		return ErrProductExists
	}
	stored := p.Clone()
	stored.Category = uniqueLabels(p.Category)
	sort.SliceStable(stored.PriceHistory, func(i, j int) bool {
		return stored.PriceHistory[i].Date.Before(stored.PriceHistory[j].Date)
	})
	r.products[p.ID] = stored
	return nil
}

func (r *MemoryRepository) UpdateBaseFields(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[p.ID]
	if !ok {
		return ErrProductNotFound
	}
	updated := p.Clone()
	updated.Category = stored.Category
	updated.PriceHistory = stored.PriceHistory
	r.products[p.ID] = updated
	return nil
}

func (r *MemoryRepository) AppendPriceHistory(_ context.Context, id string, dp DatedPrice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[id]
	if !ok {
		return ErrProductNotFound
	}
	stored.PriceHistory = InsertSample(stored.PriceHistory, dp)
	r.products[id] = stored
	return nil
}

func (r *MemoryRepository) ReplaceCategories(_ context.Context, id string, labels []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[id]
	if !ok {
		return ErrProductNotFound
	}
	stored.Category = uniqueLabels(labels)
	r.products[id] = stored
	return nil
}

// Get returns the full stored product, including categories and history.
func (r *MemoryRepository) Get(id string) (Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return Product{}, false
	}
	return p.Clone(), true
}

func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}
