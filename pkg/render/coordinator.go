// Package render drives watermark rendering onto surfaces.
//
// This package implements the measure → place → draw pipeline that CLI, API,
// and batch components share. A Coordinator owns the render lifecycle of one
// unit (one image, one page): it serializes renders, supersedes a live render
// when a newer request arrives, and guarantees that a superseded render never
// commits output.
//
// # Usage
//
// Create a Coordinator per unit and render through it:
//
//	coord := render.NewCoordinator("page-1", adapter)
//	outcome, err := coord.Render(ctx, spec)
//	if errors.IsCancelled(err) {
//	    // superseded by a newer render; nothing was committed
//	}
package render

import (
	"context"
	"sync"
	"time"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/mark/placement"
	"github.com/kaltenberg/overmark/pkg/mark/tiling"
	"github.com/kaltenberg/overmark/pkg/observability"
	"github.com/kaltenberg/overmark/pkg/surface"
)

// State is a phase of the render lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateMeasuring State = "measuring"
	StatePlacing   State = "placing"
	StateDrawing   State = "drawing"
	StateDone      State = "done"
	StateCancelled State = "cancelled"
)

// Outcome describes a completed render.
type Outcome struct {
	UnitID    string
	Instances int
	Metrics   mark.TextMetrics

	// Heuristic is true when exact metrics were unavailable and the render
	// fell back to estimated text dimensions.
	Heuristic bool

	Stats Stats
}

// Stats contains per-stage timings for one render.
type Stats struct {
	MeasureTime time.Duration
	PlaceTime   time.Duration
	DrawTime    time.Duration
}

// Coordinator owns rendering for a single unit. At most one render is live at
// a time: starting a new render cancels the live one, and the superseded
// render commits nothing.
type Coordinator struct {
	unitID  string
	adapter surface.Adapter

	// renderMu serializes render execution; a superseded render finishes
	// unwinding before its successor touches the adapter.
	renderMu sync.Mutex

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	gen    uint64
}

// NewCoordinator creates a coordinator for one unit.
func NewCoordinator(unitID string, a surface.Adapter) *Coordinator {
	return &Coordinator{
		unitID:  unitID,
		adapter: a,
		state:   StateIdle,
	}
}

// UnitID returns the unit this coordinator renders.
func (c *Coordinator) UnitID() string { return c.unitID }

// State returns the current lifecycle phase.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cancel aborts the live render, if any. The aborted render returns a
// cancellation error and commits nothing.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.state = StateCancelled
	}
}

// Render runs the full measure → place → draw pipeline for spec on this
// unit's surface. A render already in flight is cancelled and superseded;
// only the render that reaches Commit publishes output.
func (c *Coordinator) Render(ctx context.Context, spec mark.Spec) (Outcome, error) {
	spec = spec.Normalized()
	if err := spec.Validate(); err != nil {
		return Outcome{}, err
	}
	if c.adapter == nil {
		return Outcome{}, errors.New(errors.ErrCodeSurfaceUnavailable, "unit %s has no surface", c.unitID)
	}

	ctx, gen := c.begin(ctx)
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	out := Outcome{UnitID: c.unitID}
	observability.Render().OnRenderStart(ctx, c.unitID, string(spec.Mode))

	start := time.Now()
	err := c.run(ctx, gen, spec, &out)
	out.Stats.DrawTime = time.Since(start) - out.Stats.MeasureTime - out.Stats.PlaceTime

	if err != nil {
		c.adapter.Reset()
		if errors.IsCancelled(err) {
			c.finish(gen, StateCancelled)
			observability.Render().OnCancel(ctx, c.unitID)
			return Outcome{}, errors.Wrap(errors.ErrCodeRenderCancelled, err, "render of %s superseded", c.unitID)
		}
		c.finish(gen, StateIdle)
		observability.Render().OnRenderComplete(ctx, c.unitID, 0, time.Since(start), err)
		return Outcome{}, err
	}

	if !c.finish(gen, StateDone) {
		// A newer render took over after drawing finished; discard.
		c.adapter.Reset()
		observability.Render().OnCancel(ctx, c.unitID)
		return Outcome{}, errors.New(errors.ErrCodeRenderCancelled, "render of %s superseded", c.unitID)
	}
	observability.Render().OnRenderComplete(ctx, c.unitID, out.Instances, time.Since(start), nil)
	return out, nil
}

func (c *Coordinator) run(ctx context.Context, gen uint64, spec mark.Spec, out *Outcome) error {
	desc := c.adapter.Descriptor()
	if !desc.Valid() {
		return errors.New(errors.ErrCodeSurfaceUnavailable, "unit %s has invalid dimensions %gx%g", c.unitID, desc.Width, desc.Height)
	}

	// Measure
	c.setState(gen, StateMeasuring)
	measureStart := time.Now()
	m, err := c.adapter.Measurer().Measure(ctx, spec.Text, spec.FontSize)
	switch {
	case err == nil:
	case errors.IsCancelled(err):
		return err
	case errors.Is(err, errors.ErrCodeMetricsUnavailable):
		// Exact metrics are unavailable; estimate and keep going.
		m = surface.HeuristicMetrics(spec.Text, spec.FontSize)
		out.Heuristic = true
	default:
		return errors.Wrap(errors.ErrCodeMetricsUnavailable, err, "measure %q on %s", spec.Text, c.unitID)
	}
	out.Metrics = m
	out.Stats.MeasureTime = time.Since(measureStart)
	observability.Render().OnMeasure(ctx, c.unitID, out.Heuristic)

	// Place + Draw
	c.setState(gen, StatePlacing)
	placeStart := time.Now()
	switch spec.Mode {
	case mark.ModeSingle:
		pr := placement.Resolve(spec.Anchor, desc.Width, desc.Height, spec.Margin, desc.Origin)
		out.Instances = 1
		out.Stats.PlaceTime = time.Since(placeStart)
		observability.Render().OnPlace(ctx, c.unitID, 1)

		c.setState(gen, StateDrawing)
		if err := c.adapter.ApplySingle(ctx, spec, pr, m); err != nil {
			return err
		}
	case mark.ModeRepeating:
		ts := tiling.Layout(tiling.Params{
			TextWidth:  m.Width,
			TextHeight: m.Height,
			FontSize:   spec.FontSize,
			Angle:      spec.Angle,
			RowSpacing: spec.RowSpacing,
			ColSpacing: spec.ColSpacing,
			Surface:    desc,
		})
		out.Instances = len(ts.Origins)
		out.Stats.PlaceTime = time.Since(placeStart)
		observability.Render().OnPlace(ctx, c.unitID, out.Instances)

		c.setState(gen, StateDrawing)
		if err := c.adapter.ApplyTiled(ctx, spec, ts, m); err != nil {
			return err
		}
	default:
		return errors.New(errors.ErrCodeInvalidSpec, "unknown mode %q", spec.Mode)
	}

	// Last cancellation gate before output becomes observable.
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.isCurrent(gen) {
		return errors.New(errors.ErrCodeRenderCancelled, "render of %s superseded", c.unitID)
	}
	return c.adapter.Commit()
}

// begin registers a new render, cancelling any live one.
func (c *Coordinator) begin(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.gen++
	c.state = StateMeasuring
	return ctx, c.gen
}

// setState advances the phase, unless a newer render has taken over.
func (c *Coordinator) setState(gen uint64, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		c.state = s
	}
}

func (c *Coordinator) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

// finish records the terminal phase and releases the render's derived
// context. It reports false when a newer render has superseded this one, in
// which case the caller must not keep its output.
func (c *Coordinator) finish(gen uint64, s State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.state = s
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return true
}
