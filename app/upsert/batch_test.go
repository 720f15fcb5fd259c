package upsert

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/pricesync/app/reconcile"
	"github.com/shelfwatch/pricesync/models"
)

func TestUpsertAllIsolatesFailures(t *testing.T) {
	// Arrange
	gw := NewMockGateway()
	gw.FailOn[OpLookup] = errors.New("timeout")
	gw.FailFor = "P2"
	notifier := &MockNotifier{}
	o := newTestOrchestrator(t, gw, notifier)

	invalid := scrape("P3", "1.00", jan1, "bakery")
	invalid.Name = ""
	records := []models.Product{
		scrape("P1", "3.50", jan1, "dairy"),
		scrape("P2", "2.00", jan1, "milk"),
		invalid,
		scrape("P4", "4.10", jan1, "bakery"),
	}

	// Act
	result := o.UpsertAll(context.Background(), records)

	// Assert
	require.Len(t, result.Outcomes, 4)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, reconcile.NewProduct, result.Outcomes[0].Classification)
	assert.Equal(t, reconcile.Failed, result.Outcomes[1].Classification)
	assert.Equal(t, reconcile.Failed, result.Outcomes[2].Classification)
	assert.Equal(t, reconcile.NewProduct, result.Outcomes[3].Classification)
	assert.Equal(t, "P2", result.Outcomes[1].ProductID)

	assert.Equal(t, 2, result.Count(reconcile.NewProduct))
	assert.Equal(t, 2, result.Count(reconcile.Failed))
	assert.Len(t, result.Failures(), 2)
	assert.Equal(t, 2, gw.Len())
	assert.Len(t, notifier.Failures, 2)
	assert.False(t, result.EndTime.Before(result.StartTime))
	assert.Contains(t, result.Summary(), "4 products")
	assert.Contains(t, result.Summary(), "2 new")
	assert.Contains(t, result.Summary(), "2 failed")
}

func TestUpsertAllManyRecords(t *testing.T) {
	gw := NewMockGateway()
	o := newTestOrchestrator(t, gw, &MockNotifier{})
	ctx := context.Background()

	records := make([]models.Product, 50)
	for i := range records {
		records[i] = scrape(fmt.Sprintf("P%02d", i), "1.99", jan1, "dairy")
	}

	first := o.UpsertAll(ctx, records)
	second := o.UpsertAll(ctx, records)

	assert.Equal(t, 50, first.Count(reconcile.NewProduct))
	assert.Equal(t, 50, second.Count(reconcile.AlreadyUpToDate))
	for i, out := range second.Outcomes {
		assert.Equal(t, records[i].ID, out.ProductID)
	}
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestUpsertAllCancelledContext(t *testing.T) {
	gw := NewMockGateway()
	o := newTestOrchestrator(t, gw, &MockNotifier{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := o.UpsertAll(ctx, []models.Product{
		scrape("P1", "3.50", jan1, "dairy"),
		scrape("P2", "3.50", jan1, "dairy"),
	})

	assert.Equal(t, 2, result.Count(reconcile.Failed))
	for _, out := range result.Outcomes {
		assert.ErrorIs(t, out.Err, context.Canceled)
	}
	assert.Empty(t, gw.calls())
}
