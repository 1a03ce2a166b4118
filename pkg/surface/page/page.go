// Package page renders watermarks as text-draw instructions for a paginated
// document surface.
//
// The page convention is origin bottom-left with y growing upward, and the
// page drawing primitive anchors text at its baseline start and rotates about
// each instance's own origin. The adapter absorbs both differences: it
// converts the resolver's coordinates, shifts for alignment from its own
// measured widths, and reproduces the canonical whole-frame tiling by rigidly
// transforming every instance's baseline point before emitting per-instance
// rotations.
//
// The emitted TextOp list is the unit's output; the owning document's encoder
// serializes it. EncodeContentStream is provided for encoders that want PDF
// operator syntax.
package page

import (
	"context"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/mark/placement"
	"github.com/kaltenberg/overmark/pkg/mark/tiling"
	"github.com/kaltenberg/overmark/pkg/surface"
)

// TextOp is one text-draw instruction in the page's own convention:
// bottom-left origin, y up, position at the baseline start, rotation in
// degrees counterclockwise about the position.
type TextOp struct {
	Text     string     `json:"text"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Angle    float64    `json:"angle,omitempty"`
	FontSize float64    `json:"font_size"`
	Color    mark.Color `json:"color"`
	Opacity  float64    `json:"opacity"`
}

// Adapter stages TextOps for one page.
type Adapter struct {
	desc     mark.Descriptor
	measurer *Measurer

	staged    []TextOp
	committed []TextOp
}

// New creates a page adapter for the given page size in points.
func New(width, height float64) (*Adapter, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeSurfaceUnavailable, "invalid page size %gx%g", width, height)
	}
	return &Adapter{
		desc: mark.Descriptor{
			Width:  width,
			Height: height,
			Origin: mark.BottomLeftUp,
		},
		measurer: NewMeasurer(),
	}, nil
}

// Descriptor implements surface.Adapter.
func (a *Adapter) Descriptor() mark.Descriptor { return a.desc }

// Measurer implements surface.Adapter. Page text is measured from the page
// font's own advance widths, never from a raster face.
func (a *Adapter) Measurer() surface.TextMeasurer { return a.measurer }

// ApplySingle stages one instance at the resolved anchor. The resolver's
// coordinate is already bottom-up for page surfaces; the adapter recomputes
// the baseline start from the alignment pair, since the page primitive
// anchors text at the baseline, not at the alignment point.
func (a *Adapter) ApplySingle(ctx context.Context, spec mark.Spec, pr placement.Result, m mark.TextMetrics) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeRenderCancelled, err, "single draw superseded")
	}

	x := pr.X
	switch pr.H {
	case placement.AlignCenter:
		x -= m.Width / 2
	case placement.AlignRight:
		x -= m.Width
	}

	// Baseline sits at the bottom of the text box; y grows upward.
	y := pr.Y
	switch pr.V {
	case placement.AlignTop:
		y -= m.Height
	case placement.AlignMiddle:
		y -= m.Height / 2
	}

	a.staged = append(a.staged, a.op(spec, x, y, spec.Angle))
	return nil
}

// ApplyTiled stages one instance per tile origin. The tile frame is computed
// in the canonical top-down frame and rotated as one rigid body about the
// surface center; because the page primitive only rotates about each
// instance's own origin, the adapter rigidly transforms each instance's
// baseline point itself and then emits the per-instance angle. The result is
// operation-for-operation the same tiling the raster surface paints.
func (a *Adapter) ApplyTiled(ctx context.Context, spec mark.Spec, ts tiling.TileSet, m mark.TextMetrics) error {
	cx := a.desc.Width / 2
	cy := a.desc.Height / 2
	th := m.Height
	if th <= 0 {
		th = spec.FontSize
	}

	for i, o := range ts.Origins {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(errors.ErrCodeRenderCancelled, err, "tiled draw superseded")
			}
		}

		// Baseline point of this instance in the unrotated top-down frame:
		// the origin is the instance's box top-left, the baseline its bottom.
		b := tiling.Point{X: o.X + ts.OffsetX, Y: o.Y + ts.OffsetY + th}

		// The raster surface rotates the frame by −angle in its y-down
		// coordinates; apply the identical rigid transform here.
		b = tiling.RotateAbout(b, -ts.Angle, cx, cy)

		a.staged = append(a.staged, a.op(spec, b.X, a.desc.Height-b.Y, ts.Angle))
	}
	return nil
}

// Commit publishes the staged ops, replacing any previous commit so that only
// the most recent committed render is observable on this page.
func (a *Adapter) Commit() error {
	if a.staged == nil {
		return errors.New(errors.ErrCodeInternal, "commit without staged ops")
	}
	a.committed = a.staged
	a.staged = nil
	return nil
}

// Reset drops staged ops without publishing them.
func (a *Adapter) Reset() { a.staged = nil }

// Ops returns the committed instruction list for this page.
func (a *Adapter) Ops() []TextOp { return a.committed }

func (a *Adapter) op(spec mark.Spec, x, y, angle float64) TextOp {
	return TextOp{
		Text:     spec.Text,
		X:        x,
		Y:        y,
		Angle:    angle,
		FontSize: spec.FontSize,
		Color:    spec.Color,
		Opacity:  spec.Opacity,
	}
}

var _ surface.Adapter = (*Adapter)(nil)
