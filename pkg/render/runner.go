package render

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/surface"
)

// DefaultConcurrency bounds how many units render in parallel.
const DefaultConcurrency = 4

// Unit is one independent render target in a batch.
type Unit struct {
	// ID identifies the unit in results and logs. Assigned when empty.
	ID string

	// Adapter is the unit's surface. A unit with a nil adapter fails with a
	// surface error but does not abort the batch.
	Adapter surface.Adapter
}

// UnitResult is the outcome of one unit in a batch.
type UnitResult struct {
	ID      string
	Outcome Outcome
	Err     error
}

// BatchResult collects per-unit results of a batch run.
type BatchResult struct {
	Results []UnitResult
	Elapsed time.Duration
}

// Failed returns the results that ended in an error.
func (b *BatchResult) Failed() []UnitResult {
	var failed []UnitResult
	for _, r := range b.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Runner executes a batch of units with the same spec.
//
// The Runner is stateless except for the logger - it doesn't store render
// results. Each unit renders independently: one failing surface never aborts
// the rest of the batch.
type Runner struct {
	Logger      *log.Logger
	Concurrency int
}

// NewRunner creates a runner. If logger is nil, logging is discarded.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Logger:      logger,
		Concurrency: DefaultConcurrency,
	}
}

// Execute renders spec onto every unit. Results come back in unit order.
// Cancelling ctx stops in-flight renders; the affected units report a
// cancellation error and commit nothing.
func (r *Runner) Execute(ctx context.Context, spec mark.Spec, units []Unit) (*BatchResult, error) {
	spec = spec.Normalized()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return &BatchResult{}, nil
	}

	workers := r.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}

	start := time.Now()
	results := make([]UnitResult, len(units))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, u := range units {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		wg.Add(1)
		go func(i int, u Unit) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = r.renderUnit(ctx, spec, u)
		}(i, u)
	}
	wg.Wait()

	b := &BatchResult{Results: results, Elapsed: time.Since(start)}
	r.Logger.Info("batch finished",
		"units", len(units),
		"failed", len(b.Failed()),
		"duration", b.Elapsed)
	return b, nil
}

func (r *Runner) renderUnit(ctx context.Context, spec mark.Spec, u Unit) UnitResult {
	coord := NewCoordinator(u.ID, u.Adapter)
	out, err := coord.Render(ctx, spec)
	switch {
	case err == nil:
		r.Logger.Debug("rendered unit",
			"unit", u.ID,
			"instances", out.Instances,
			"heuristic", out.Heuristic,
			"duration", out.Stats.MeasureTime+out.Stats.PlaceTime+out.Stats.DrawTime)
	case errors.IsCancelled(err):
		r.Logger.Debug("render cancelled", "unit", u.ID)
	default:
		r.Logger.Error("render failed", "unit", u.ID, "error", err)
	}
	return UnitResult{ID: u.ID, Outcome: out, Err: err}
}
