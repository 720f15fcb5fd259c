package upsert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shelfwatch/pricesync/app/reconcile"
	"github.com/shelfwatch/pricesync/logging"
	"github.com/shelfwatch/pricesync/models"
)

// BatchResult is the outcome of upserting a set of scraped products.
type BatchResult struct {
	RunID string
	// Outcomes holds one entry per input record, in input order.
	Outcomes []Outcome

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Count returns the number of records with classification c.
func (r *BatchResult) Count(c reconcile.Classification) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Classification == c {
			n++
		}
	}
	return n
}

// Failures returns the outcomes that failed.
func (r *BatchResult) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Classification == reconcile.Failed {
			out = append(out, o)
		}
	}
	return out
}

// Summary returns a human-readable summary of the batch.
func (r *BatchResult) Summary() string {
	parts := []string{
		fmt.Sprintf("%d new", r.Count(reconcile.NewProduct)),
		fmt.Sprintf("%d price changed", r.Count(reconcile.PriceChanged)),
		fmt.Sprintf("%d info changed", r.Count(reconcile.InfoChanged)),
		fmt.Sprintf("%d up to date", r.Count(reconcile.AlreadyUpToDate)),
		fmt.Sprintf("%d failed", r.Count(reconcile.Failed)),
	}
	return fmt.Sprintf("%d products in %s: %s",
		len(r.Outcomes), r.Duration.Round(time.Millisecond), strings.Join(parts, ", "))
}

// UpsertAll upserts records concurrently. A failing record does not affect the others.
// Records not yet started when ctx is cancelled are marked Failed.
func (o *Orchestrator) UpsertAll(ctx context.Context, records []models.Product) *BatchResult {
	result := &BatchResult{
		RunID:     uuid.NewString(),
		Outcomes:  make([]Outcome, len(records)),
		StartTime: time.Now(),
	}
	ctx = logging.WithField(ctx, "run_id", result.RunID)
	logger := logging.FromContext(ctx)
	logger.Info().Int("records", len(records)).Int("workers", o.workers).Msg("Starting upsert batch")

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i := range records {
		if err := ctx.Err(); err != nil {
			result.Outcomes[i] = Outcome{ProductID: records[i].ID, Classification: reconcile.Failed, Err: err}
			continue
		}
		g.Go(func() error {
			result.Outcomes[i] = o.Apply(ctx, records[i])
			return nil
		})
	}
	_ = g.Wait()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	logger.Info().
		Int("new", result.Count(reconcile.NewProduct)).
		Int("price_changed", result.Count(reconcile.PriceChanged)).
		Int("info_changed", result.Count(reconcile.InfoChanged)).
		Int("up_to_date", result.Count(reconcile.AlreadyUpToDate)).
		Int("failed", result.Count(reconcile.Failed)).
		Dur("duration", result.Duration).
		Msg("Finished upsert batch")
	return result
}
