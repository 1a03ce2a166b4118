package source

import (
	"context"
	"image"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/fonts"
	"github.com/kaltenberg/overmark/pkg/surface/page"
)

// Document is a paginated render target. Page numbers are zero-based.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// PageSize returns a page's dimensions in points.
	PageSize(n int) (w, h float64, err error)

	// RenderPreview rasterizes a page at the given scale (pixels per point).
	RenderPreview(ctx context.Context, n int, scale float64) (image.Image, error)
}

// FaceLoader resolves a font face for preview rasterization.
type FaceLoader func(size float64) (font.Face, error)

// OpDocument is an in-memory document whose pages carry watermark text ops.
// Each page owns a page.Adapter; renders commit onto it, and the committed
// op lists are what previews and exports read.
type OpDocument struct {
	pageW, pageH float64
	pages        []*page.Adapter
	face         FaceLoader
}

// OpDocumentOption configures an OpDocument.
type OpDocumentOption func(*OpDocument)

// WithFaceLoader overrides the preview font source.
func WithFaceLoader(f FaceLoader) OpDocumentOption {
	return func(d *OpDocument) { d.face = f }
}

// NewOpDocument creates a document with count pages of the given size in
// points.
func NewOpDocument(pageW, pageH float64, count int, opts ...OpDocumentOption) (*OpDocument, error) {
	if count <= 0 {
		return nil, errors.New(errors.ErrCodeContentLoad, "document needs at least one page, got %d", count)
	}

	pages := make([]*page.Adapter, count)
	for i := range pages {
		a, err := page.New(pageW, pageH)
		if err != nil {
			return nil, err
		}
		pages[i] = a
	}

	d := &OpDocument{
		pageW: pageW,
		pageH: pageH,
		pages: pages,
		face:  fonts.Default,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// PageCount implements Document.
func (d *OpDocument) PageCount() int { return len(d.pages) }

// PageSize implements Document.
func (d *OpDocument) PageSize(n int) (float64, float64, error) {
	if n < 0 || n >= len(d.pages) {
		return 0, 0, errors.New(errors.ErrCodeContentLoad, "page %d out of range [0,%d)", n, len(d.pages))
	}
	return d.pageW, d.pageH, nil
}

// Page returns the adapter for page n, so a coordinator can render onto it.
func (d *OpDocument) Page(n int) (*page.Adapter, error) {
	if n < 0 || n >= len(d.pages) {
		return nil, errors.New(errors.ErrCodeContentLoad, "page %d out of range [0,%d)", n, len(d.pages))
	}
	return d.pages[n], nil
}

// RenderPreview rasterizes page n's committed ops onto a white canvas. The
// page's bottom-up coordinates are flipped into image space and each op's
// rotation is applied about its own baseline point, matching how a viewer
// would execute the instruction list.
func (d *OpDocument) RenderPreview(ctx context.Context, n int, scale float64) (image.Image, error) {
	if scale <= 0 {
		scale = 1
	}
	adapter, err := d.Page(n)
	if err != nil {
		return nil, err
	}

	w := int(d.pageW*scale + 0.5)
	h := int(d.pageH*scale + 0.5)
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for _, op := range adapter.Ops() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderCancelled, err, "preview of page %d", n)
		}

		face, err := d.face(op.FontSize * scale)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
		dc.SetRGBA(
			float64(op.Color.R)/255,
			float64(op.Color.G)/255,
			float64(op.Color.B)/255,
			op.Opacity,
		)

		x := op.X * scale
		y := (d.pageH - op.Y) * scale
		dc.Push()
		if op.Angle != 0 {
			dc.RotateAbout(gg.Radians(-op.Angle), x, y)
		}
		dc.DrawString(op.Text, x, y)
		dc.Pop()
	}
	return dc.Image(), nil
}

var _ Document = (*OpDocument)(nil)
