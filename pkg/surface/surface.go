// Package surface defines the capability interfaces that isolate the two
// output surface kinds behind a common contract: a TextMeasurer supplying the
// surface's own text metrics and an Adapter turning placement or tiling
// output into staged draw instructions.
//
// Adapters stage everything and publish only on Commit, so a superseded
// render never leaves partial output on the shared target.
package surface

import (
	"context"

	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/mark/placement"
	"github.com/kaltenberg/overmark/pkg/mark/tiling"
)

// TextMeasurer measures the mark text with one specific surface's text
// engine. Metrics from one surface are never reused on another.
type TextMeasurer interface {
	Measure(ctx context.Context, text string, fontSize float64) (mark.TextMetrics, error)
}

// Adapter translates abstract placement or tiling output into draw
// instructions for one target surface. Implementations mutate only their own
// staged state; the spec and the computed geometry are read-only inputs.
type Adapter interface {
	// Descriptor reports the target surface's dimensions and axis convention.
	Descriptor() mark.Descriptor

	// Measurer returns this surface's own text measurer.
	Measurer() TextMeasurer

	// ApplySingle stages one mark instance at the resolved anchor, rotated
	// locally about the instance's own anchor point.
	ApplySingle(ctx context.Context, spec mark.Spec, pr placement.Result, m mark.TextMetrics) error

	// ApplyTiled stages one mark instance per tile origin under the
	// whole-frame rotation about the surface center.
	ApplyTiled(ctx context.Context, spec mark.Spec, ts tiling.TileSet, m mark.TextMetrics) error

	// Commit publishes the staged output to the target surface.
	Commit() error

	// Reset discards any staged output without publishing it.
	Reset()
}

// heuristicCharWidth approximates a glyph advance as a fraction of the font
// size, the conventional fallback for unmeasurable text.
const heuristicCharWidth = 0.6

// HeuristicMetrics estimates a text footprint from the font size alone, used
// to recover from a MetricsUnavailable failure so rendering proceeds with an
// approximate footprint.
func HeuristicMetrics(text string, fontSize float64) mark.TextMetrics {
	n := len([]rune(text))
	if n == 0 {
		n = 1
	}
	return mark.TextMetrics{
		Width:  float64(n) * fontSize * heuristicCharWidth,
		Height: fontSize,
	}
}
