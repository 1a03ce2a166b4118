// Package raster renders watermarks onto pixel surfaces.
//
// The adapter consumes the raster convention directly (origin top-left, y
// down). Repeating mode applies the tile frame's rotation as one whole-canvas
// transform about the surface center; single mode rotates locally about the
// anchor. All drawing happens on a staged copy of the source image, published
// atomically by Commit.
package raster

import (
	"context"
	"image"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/fonts"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/mark/placement"
	"github.com/kaltenberg/overmark/pkg/mark/tiling"
	"github.com/kaltenberg/overmark/pkg/surface"
)

// cancelCheckStride is how many tiles are drawn between cancellation checks.
const cancelCheckStride = 64

// FaceSource yields a font face for a given size. The default source loads
// system fonts through pkg/fonts; tests inject a fixed face.
type FaceSource func(size float64) (font.Face, error)

// Measurer measures text with the same faces the raster drawer uses, so the
// tile geometry and the drawn glyphs always agree.
type Measurer struct {
	source FaceSource

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewMeasurer creates a measurer backed by system font discovery for the
// given font name (empty means the default candidates).
func NewMeasurer(fontName string) *Measurer {
	return &Measurer{
		source: func(size float64) (font.Face, error) { return fonts.Load(fontName, size) },
		faces:  map[float64]font.Face{},
	}
}

// NewMeasurerWithFace creates a measurer that always uses the given face,
// regardless of the requested size.
func NewMeasurerWithFace(face font.Face) *Measurer {
	return &Measurer{
		source: func(float64) (font.Face, error) { return face, nil },
		faces:  map[float64]font.Face{},
	}
}

// Face returns a cached face for the size.
func (m *Measurer) Face(size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := m.source(size)
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

// Measure implements surface.TextMeasurer using the raster face's own
// advance widths and vertical metrics.
func (m *Measurer) Measure(ctx context.Context, text string, fontSize float64) (mark.TextMetrics, error) {
	face, err := m.Face(fontSize)
	if err != nil {
		return mark.TextMetrics{}, errors.Wrap(errors.ErrCodeMetricsUnavailable, err, "no face for size %g", fontSize)
	}
	adv := font.MeasureString(face, text)
	met := face.Metrics()
	return mark.TextMetrics{
		Width:  float64(adv) / 64,
		Height: float64(met.Ascent+met.Descent) / 64,
	}, nil
}

// Adapter stages watermark drawing over a source image.
type Adapter struct {
	src      image.Image
	desc     mark.Descriptor
	measurer *Measurer

	staged *gg.Context

	// resMu guards result: the preview server reads Result while a later
	// request's render commits on another goroutine.
	resMu  sync.Mutex
	result image.Image
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMeasurer replaces the default system-font measurer.
func WithMeasurer(m *Measurer) Option {
	return func(a *Adapter) { a.measurer = m }
}

// WithFontName selects the font family used for measurement and drawing.
func WithFontName(name string) Option {
	return func(a *Adapter) { a.measurer = NewMeasurer(name) }
}

// New creates an adapter over the source image. The source is never mutated;
// the committed result is a new buffer of the same dimensions.
func New(src image.Image, opts ...Option) (*Adapter, error) {
	if src == nil {
		return nil, errors.New(errors.ErrCodeSurfaceUnavailable, "nil source image")
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New(errors.ErrCodeSurfaceUnavailable, "empty source image %v", b)
	}
	a := &Adapter{
		src: src,
		desc: mark.Descriptor{
			Width:  float64(b.Dx()),
			Height: float64(b.Dy()),
			Origin: mark.TopLeftDown,
		},
		measurer: NewMeasurer(""),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Descriptor implements surface.Adapter.
func (a *Adapter) Descriptor() mark.Descriptor { return a.desc }

// Measurer implements surface.Adapter.
func (a *Adapter) Measurer() surface.TextMeasurer { return a.measurer }

// ApplySingle stages one instance at the resolved anchor with a local
// rotation about the anchor point.
func (a *Adapter) ApplySingle(ctx context.Context, spec mark.Spec, pr placement.Result, _ mark.TextMetrics) error {
	dc, err := a.staging(spec)
	if err != nil {
		return err
	}

	dc.Push()
	if spec.Angle != 0 {
		// Spec angles are visual counterclockwise; gg's y axis points down.
		dc.RotateAbout(gg.Radians(-spec.Angle), pr.X, pr.Y)
	}
	dc.DrawStringAnchored(spec.Text, pr.X, pr.Y, anchorX(pr.H), anchorY(pr.V))
	dc.Pop()
	return nil
}

// ApplyTiled stages one instance per tile origin under a single whole-canvas
// rotation about the surface center, matching the tile engine's rigid frame.
func (a *Adapter) ApplyTiled(ctx context.Context, spec mark.Spec, ts tiling.TileSet, _ mark.TextMetrics) error {
	dc, err := a.staging(spec)
	if err != nil {
		return err
	}

	dc.Push()
	defer dc.Pop()
	if ts.Angle != 0 {
		dc.RotateAbout(gg.Radians(-ts.Angle), a.desc.Width/2, a.desc.Height/2)
	}
	for i, o := range ts.Origins {
		if i%cancelCheckStride == 0 {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(errors.ErrCodeRenderCancelled, err, "tiled draw superseded")
			}
		}
		dc.DrawStringAnchored(spec.Text, o.X+ts.OffsetX, o.Y+ts.OffsetY, 0, 1)
	}
	return nil
}

// Commit publishes the staged image as the adapter's result.
func (a *Adapter) Commit() error {
	if a.staged == nil {
		return errors.New(errors.ErrCodeInternal, "commit without staged drawing")
	}
	img := a.staged.Image()
	a.staged = nil

	a.resMu.Lock()
	a.result = img
	a.resMu.Unlock()
	return nil
}

// Reset drops any staged drawing without publishing it.
func (a *Adapter) Reset() { a.staged = nil }

// Result returns the last committed image, or nil if nothing was committed.
// Safe to call concurrently with Commit.
func (a *Adapter) Result() image.Image {
	a.resMu.Lock()
	defer a.resMu.Unlock()
	return a.result
}

// staging returns the staged drawing context, creating it from a fresh copy
// of the source on first use and applying the spec's color and opacity.
func (a *Adapter) staging(spec mark.Spec) (*gg.Context, error) {
	if a.staged == nil {
		a.staged = gg.NewContextForImage(a.src)
	}
	face, err := a.measurer.Face(spec.FontSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSurfaceUnavailable, err, "load draw face")
	}
	a.staged.SetFontFace(face)
	a.staged.SetRGBA(
		float64(spec.Color.R)/255,
		float64(spec.Color.G)/255,
		float64(spec.Color.B)/255,
		spec.Opacity,
	)
	return a.staged, nil
}

func anchorX(h placement.HAlign) float64 {
	switch h {
	case placement.AlignLeft:
		return 0
	case placement.AlignRight:
		return 1
	default:
		return 0.5
	}
}

// anchorY maps the vertical alignment onto gg's anchored-string parameter:
// 1 hangs the text below the anchor (top alignment), 0 sits it above
// (bottom alignment).
func anchorY(v placement.VAlign) float64 {
	switch v {
	case placement.AlignTop:
		return 1
	case placement.AlignBottom:
		return 0
	default:
		return 0.5
	}
}

var _ surface.Adapter = (*Adapter)(nil)
