// Package mark defines the surface-agnostic watermark specification and the
// shared value types the placement and tiling engines operate on.
//
// A Spec is an immutable value object: callers construct one from user input,
// normalize it once, and pass it by value into every render. A changed setting
// produces a new Spec value; there is no identity or mutation.
package mark

import (
	"fmt"
	"math"
	"strings"

	"github.com/kaltenberg/overmark/pkg/errors"
)

// Mode selects between a single mark instance and a repeating tile grid.
type Mode string

const (
	ModeSingle    Mode = "single"
	ModeRepeating Mode = "repeating"
)

// Anchor names one of the nine placement positions used in single mode,
// combinations of {top,middle,bottom} × {left,center,right}.
type Anchor string

const (
	AnchorTopLeft      Anchor = "top-left"
	AnchorTopCenter    Anchor = "top-center"
	AnchorTopRight     Anchor = "top-right"
	AnchorMiddleLeft   Anchor = "middle-left"
	AnchorMiddleCenter Anchor = "middle-center"
	AnchorMiddleRight  Anchor = "middle-right"
	AnchorBottomLeft   Anchor = "bottom-left"
	AnchorBottomCenter Anchor = "bottom-center"
	AnchorBottomRight  Anchor = "bottom-right"
)

// Anchors lists all nine valid anchor values.
var Anchors = []Anchor{
	AnchorTopLeft, AnchorTopCenter, AnchorTopRight,
	AnchorMiddleLeft, AnchorMiddleCenter, AnchorMiddleRight,
	AnchorBottomLeft, AnchorBottomCenter, AnchorBottomRight,
}

// OriginConvention describes the vertical axis of a surface.
type OriginConvention string

const (
	// TopLeftDown is the raster convention: origin top-left, y grows downward.
	TopLeftDown OriginConvention = "top-left-down"

	// BottomLeftUp is the page convention: origin bottom-left, y grows upward.
	BottomLeftUp OriginConvention = "bottom-left-up"
)

// Color is an opaque RGB triple. Opacity is carried separately on the Spec so
// that both surface kinds compose it the same way.
type Color struct {
	R, G, B uint8
}

// ParseHexColor parses "#rrggbb" (leading '#' optional).
func ParseHexColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, errors.New(errors.ErrCodeInvalidSpec, "invalid hex color %q", s)
	}
	var c Color
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return Color{}, errors.Wrap(errors.ErrCodeInvalidSpec, err, "invalid hex color %q", s)
	}
	return c, nil
}

// Hex returns the "#rrggbb" form of the color.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// DefaultMargin is the placement margin applied when a spec leaves the margin
// unset (negative).
const DefaultMargin = 24.0

// Spec is the compact, surface-agnostic description of a watermark.
// Compared by value; all fields are comparable.
type Spec struct {
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size"`
	FontName string  `json:"font_name,omitempty"`
	Color    Color   `json:"color"`
	Opacity  float64 `json:"opacity"`

	// Angle is in degrees, visual counterclockwise (positive angles make the
	// text rise left to right). Any real value is accepted; rendering uses the
	// normalized [-180,180] form.
	Angle float64 `json:"angle"`

	Mode   Mode   `json:"mode"`
	Anchor Anchor `json:"anchor,omitempty"`

	RowSpacing float64 `json:"row_spacing,omitempty"`
	ColSpacing float64 `json:"col_spacing,omitempty"`

	// Margin is the edge margin for single-mode placement. A negative value
	// means unset and takes DefaultMargin; an explicit zero is honored.
	Margin float64 `json:"margin,omitempty"`
}

// Normalized returns a copy with out-of-range values brought into range:
// spacing clamped at 0, opacity clamped to [0,1], the angle reduced to
// [-180,180], and defaults applied for mode and for an unset margin.
func (s Spec) Normalized() Spec {
	out := s
	out.Angle = NormalizeAngle(s.Angle)
	out.RowSpacing = math.Max(0, s.RowSpacing)
	out.ColSpacing = math.Max(0, s.ColSpacing)
	if out.Mode == "" {
		out.Mode = ModeSingle
	}
	if out.Margin < 0 {
		out.Margin = DefaultMargin
	}
	switch {
	case out.Opacity < 0:
		out.Opacity = 0
	case out.Opacity > 1:
		out.Opacity = 1
	}
	return out
}

// Validate reports the first structural problem with the spec.
// Anchor values are intentionally not validated here: the placement resolver
// falls back to the centered anchor for unknown values so that a placement
// defect never blocks rendering.
func (s Spec) Validate() error {
	if s.Text == "" {
		return errors.New(errors.ErrCodeInvalidSpec, "watermark text cannot be empty")
	}
	if s.FontSize <= 0 {
		return errors.New(errors.ErrCodeInvalidSpec, "font size must be positive, got %g", s.FontSize)
	}
	if s.Mode != "" && s.Mode != ModeSingle && s.Mode != ModeRepeating {
		return errors.New(errors.ErrCodeInvalidSpec, "unknown mode %q", s.Mode)
	}
	return nil
}

// NormalizeAngle reduces an angle in degrees to the interval [-180, 180].
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	switch {
	case a > 180:
		a -= 360
	case a < -180:
		a += 360
	}
	return a
}

// Descriptor describes a drawable surface: its dimensions and which way its
// vertical axis points.
type Descriptor struct {
	Width  float64
	Height float64
	Origin OriginConvention
}

// Valid reports whether the descriptor has positive dimensions.
func (d Descriptor) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// TextMetrics holds the measured footprint of the mark text as rendered by one
// specific surface's text engine. Metrics are not portable between surfaces;
// each adapter obtains its own.
type TextMetrics struct {
	Width  float64
	Height float64
}
