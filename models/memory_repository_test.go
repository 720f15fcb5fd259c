package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Lookup of unknown product", func(t *testing.T) {
		repo := NewMemoryRepository()
		_, err := repo.Lookup(ctx, "missing")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("Insert then load", func(t *testing.T) {
		repo := NewMemoryRepository()
		p := testProduct()
		p.Category = []string{"dairy", "milk", "dairy"}
		p.PriceHistory = []DatedPrice{sample(0, "3.99"), sample(3, "4.20")}
		require.NoError(t, repo.Insert(ctx, &p))

		base, err := repo.Lookup(ctx, "P1")
		require.NoError(t, err)
		assert.Equal(t, "Anchor Blue Milk 2L", base.Name)
		assert.Nil(t, base.Category, "lookup returns the base row only")
		assert.Nil(t, base.PriceHistory)

		categories, err := repo.LoadCategories(ctx, "P1")
		require.NoError(t, err)
		assert.Equal(t, []string{"dairy", "milk"}, categories)

		history, err := repo.LoadPriceHistory(ctx, "P1")
		require.NoError(t, err)
		assert.Equal(t, []DatedPrice{sample(3, "4.20"), sample(0, "3.99")}, history)

		assert.ErrorIs(t, repo.Insert(ctx, &p), ErrProductExists)
		assert.Equal(t, 1, repo.Len())
	})

	t.Run("Insert does not alias the caller", func(t *testing.T) {
		repo := NewMemoryRepository()
		p := testProduct()
		require.NoError(t, repo.Insert(ctx, &p))

		p.Category[0] = "changed"
		stored, ok := repo.Get("P1")
		require.True(t, ok)
		assert.Equal(t, "dairy", stored.Category[0])
	})

	t.Run("UpdateBaseFields keeps associations", func(t *testing.T) {
		repo := NewMemoryRepository()
		p := testProduct()
		require.NoError(t, repo.Insert(ctx, &p))

		update := p.Clone()
		update.Name = "Anchor Blue Milk 2 Litre"
		update.CurrentPrice = price("4.50")
		update.Category = nil
		update.PriceHistory = nil
		require.NoError(t, repo.UpdateBaseFields(ctx, &update))

		stored, _ := repo.Get("P1")
		assert.Equal(t, "Anchor Blue Milk 2 Litre", stored.Name)
		assert.True(t, stored.CurrentPrice.Equal(price("4.50")))
		assert.Equal(t, []string{"dairy", "milk"}, stored.Category)
		assert.Len(t, stored.PriceHistory, 2)

		missing := Product{ID: "nope"}
		assert.ErrorIs(t, repo.UpdateBaseFields(ctx, &missing), ErrProductNotFound)
	})

	t.Run("AppendPriceHistory keeps chronological order", func(t *testing.T) {
		repo := NewMemoryRepository()
		p := testProduct()
		require.NoError(t, repo.Insert(ctx, &p))

		require.NoError(t, repo.AppendPriceHistory(ctx, "P1", sample(1, "3.80")))

		history, _ := repo.LoadPriceHistory(ctx, "P1")
		assert.Equal(t, []DatedPrice{sample(3, "4.20"), sample(1, "3.80"), sample(0, "3.99")}, history)
		assert.ErrorIs(t, repo.AppendPriceHistory(ctx, "nope", sample(0, "1")), ErrProductNotFound)
	})

	t.Run("ReplaceCategories rewrites the set", func(t *testing.T) {
		repo := NewMemoryRepository()
		p := testProduct()
		require.NoError(t, repo.Insert(ctx, &p))

		require.NoError(t, repo.ReplaceCategories(ctx, "P1", []string{"milk", "milk", "fresh"}))

		categories, _ := repo.LoadCategories(ctx, "P1")
		assert.Equal(t, []string{"milk", "fresh"}, categories)
		assert.ErrorIs(t, repo.ReplaceCategories(ctx, "nope", nil), ErrProductNotFound)
	})

	t.Run("Loads for unknown product are empty", func(t *testing.T) {
		repo := NewMemoryRepository()
		categories, err := repo.LoadCategories(ctx, "missing")
		assert.NoError(t, err)
		assert.Empty(t, categories)

		history, err := repo.LoadPriceHistory(ctx, "missing")
		assert.NoError(t, err)
		assert.Empty(t, history)

		_, ok := repo.Get("missing")
		assert.False(t, ok)
	})
}
