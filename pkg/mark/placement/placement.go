// Package placement resolves a nine-way anchor to a concrete coordinate and
// text alignment on a surface.
//
// Resolve is a pure function: no side effects, deterministic, and it never
// fails. An unknown anchor falls back to the centered position, since a
// placement defect must never block rendering.
package placement

import (
	"github.com/kaltenberg/overmark/pkg/mark"
)

// HAlign is the horizontal text alignment at the resolved coordinate.
type HAlign string

const (
	AlignLeft   HAlign = "left"
	AlignCenter HAlign = "center"
	AlignRight  HAlign = "right"
)

// VAlign is the vertical text alignment at the resolved coordinate.
type VAlign string

const (
	AlignTop    VAlign = "top"
	AlignMiddle VAlign = "middle"
	AlignBottom VAlign = "bottom"
)

// Result is the resolved anchor coordinate, expressed in the surface's own
// coordinate convention, plus the alignment the drawer applies at that point.
type Result struct {
	X float64
	Y float64
	H HAlign
	V VAlign
}

// Resolve maps an anchor onto a 3×3 grid over the surface. Horizontal
// positions are {margin, width/2, width−margin}; vertical positions are
// {margin, height/2, height−margin} measured from the visual top. For
// bottom-left-up surfaces the vertical value is inverted so that "top"
// anchors land nearest the visual top while the returned coordinate stays in
// the surface's own convention.
//
// The margin is clamped so the coordinate always lies within
// [margin, dimension−margin] on both axes; a margin larger than half the
// dimension collapses to the center line.
func Resolve(anchor mark.Anchor, width, height, margin float64, origin mark.OriginConvention) Result {
	if margin < 0 {
		margin = 0
	}
	hm := margin
	if hm > width/2 {
		hm = width / 2
	}
	vm := margin
	if vm > height/2 {
		vm = height / 2
	}

	r := Result{X: width / 2, Y: height / 2, H: AlignCenter, V: AlignMiddle}

	switch anchor {
	case mark.AnchorTopLeft, mark.AnchorMiddleLeft, mark.AnchorBottomLeft:
		r.X, r.H = hm, AlignLeft
	case mark.AnchorTopRight, mark.AnchorMiddleRight, mark.AnchorBottomRight:
		r.X, r.H = width-hm, AlignRight
	}

	// Vertical position measured from the visual top.
	switch anchor {
	case mark.AnchorTopLeft, mark.AnchorTopCenter, mark.AnchorTopRight:
		r.Y, r.V = vm, AlignTop
	case mark.AnchorBottomLeft, mark.AnchorBottomCenter, mark.AnchorBottomRight:
		r.Y, r.V = height-vm, AlignBottom
	}

	if origin == mark.BottomLeftUp {
		r.Y = height - r.Y
	}
	return r
}
