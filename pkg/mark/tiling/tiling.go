// Package tiling computes the grid of draw origins that covers a surface with
// a repeating, rotated text mark.
//
// The whole tiling pattern is generated in an unrotated frame large enough to
// cover the surface after rotation; the draw target then rotates the frame as
// one rigid body about the surface center. Rotating the frame instead of each
// instance keeps coverage gap-free at every angle: the generated frame spans
// twice the surface in each direction, at least the surface's rotated
// bounding diagonal.
package tiling

import (
	"math"

	"github.com/kaltenberg/overmark/pkg/mark"
)

// Point is a single draw origin.
type Point struct {
	X float64
	Y float64
}

// Params are the inputs to Layout. Text dimensions come from the consuming
// surface's own measurer; FontSize is the fallback footprint when a dimension
// measures as zero (empty or unmeasurable text).
type Params struct {
	TextWidth  float64
	TextHeight float64
	FontSize   float64
	Angle      float64 // degrees, any real value
	RowSpacing float64
	ColSpacing float64
	Surface    mark.Descriptor
}

// TileSet is the computed grid for one render. Origins are in frame
// coordinates; the draw target adds (OffsetX, OffsetY) to each origin and
// applies one rotation of Angle degrees about the surface center. TileSets
// are ephemeral: regenerated on every render, never cached.
type TileSet struct {
	Origins []Point

	// OffsetX, OffsetY shift the frame so it extends beyond the surface on
	// all sides; always (−width, −height).
	OffsetX float64
	OffsetY float64

	// Rotated bounding box of a single instance and the resulting strides.
	BoxWidth  float64
	BoxHeight float64
	HStride   float64
	VStride   float64

	// Angle is the normalized rotation in degrees, applied by the target as a
	// whole-frame transform about the surface center.
	Angle float64
}

// Layout computes the tile set for one surface. Spacing values are clamped at
// zero and a degenerate text footprint is replaced by the font size, so the
// stride is always positive and the grid always finite.
func Layout(p Params) TileSet {
	tw := p.TextWidth
	th := p.TextHeight
	if tw <= 0 {
		tw = math.Max(p.FontSize, 1)
	}
	if th <= 0 {
		th = math.Max(p.FontSize, 1)
	}

	rowSp := math.Max(0, p.RowSpacing)
	colSp := math.Max(0, p.ColSpacing)

	angle := mark.NormalizeAngle(p.Angle)
	rad := angle * math.Pi / 180
	absCos := math.Abs(math.Cos(rad))
	absSin := math.Abs(math.Sin(rad))

	// Minimum axis-aligned footprint of one rotated instance. At 0° this is
	// the unrotated text box; at 90° width and height swap.
	boxW := tw*absCos + th*absSin
	boxH := tw*absSin + th*absCos

	ts := TileSet{
		OffsetX:   -p.Surface.Width,
		OffsetY:   -p.Surface.Height,
		BoxWidth:  boxW,
		BoxHeight: boxH,
		HStride:   boxW + colSp,
		VStride:   boxH + rowSp,
		Angle:     angle,
	}

	for y := 0.0; y <= 2*p.Surface.Height; y += ts.VStride {
		for x := 0.0; x <= 2*p.Surface.Width; x += ts.HStride {
			ts.Origins = append(ts.Origins, Point{X: x, Y: y})
		}
	}
	return ts
}

// RotateAbout rotates a frame point (after offset) about the surface center,
// in a y-down coordinate frame. Page adapters use this to reproduce the
// whole-frame transform with per-instance draw primitives.
func RotateAbout(pt Point, angleDeg, cx, cy float64) Point {
	rad := angleDeg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx := pt.X - cx
	dy := pt.Y - cy
	return Point{
		X: cx + dx*cos - dy*sin,
		Y: cy + dx*sin + dy*cos,
	}
}
