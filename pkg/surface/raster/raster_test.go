package raster

import (
	"context"
	"image"
	"testing"

	"golang.org/x/image/font/basicfont"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/mark/placement"
	"github.com/kaltenberg/overmark/pkg/mark/tiling"
)

func testSpec() mark.Spec {
	return mark.Spec{
		Text:     "DRAFT",
		FontSize: 13,
		Color:    mark.Color{R: 200, G: 40, B: 40},
		Opacity:  0.5,
		Mode:     mark.ModeSingle,
		Anchor:   mark.AnchorMiddleCenter,
	}.Normalized()
}

func newTestAdapter(t *testing.T, w, h int) *Adapter {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range src.Pix {
		src.Pix[i] = 255 // white, fully opaque
	}
	a, err := New(src, WithMeasurer(NewMeasurerWithFace(basicfont.Face7x13)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNewRejectsNilSource(t *testing.T) {
	_, err := New(nil)
	if !errors.Is(err, errors.ErrCodeSurfaceUnavailable) {
		t.Fatalf("err = %v, want SURFACE_UNAVAILABLE", err)
	}
}

func TestMeasurerUsesFaceMetrics(t *testing.T) {
	m := NewMeasurerWithFace(basicfont.Face7x13)
	got, err := m.Measure(context.Background(), "DRAFT", 13)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}

	// Face7x13 advances 7px per glyph.
	if got.Width != 35 {
		t.Errorf("Width = %g, want 35", got.Width)
	}
	if got.Height <= 0 {
		t.Errorf("Height = %g, want positive", got.Height)
	}
}

func TestApplySingleCommit(t *testing.T) {
	a := newTestAdapter(t, 200, 100)
	spec := testSpec()
	pr := placement.Resolve(spec.Anchor, 200, 100, spec.Margin, mark.TopLeftDown)

	if err := a.ApplySingle(context.Background(), spec, pr, mark.TextMetrics{Width: 35, Height: 13}); err != nil {
		t.Fatalf("ApplySingle: %v", err)
	}
	if a.Result() != nil {
		t.Fatal("result must stay nil before Commit")
	}
	if err := a.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	out := a.Result()
	if out == nil {
		t.Fatal("no result after Commit")
	}
	if out.Bounds() != image.Rect(0, 0, 200, 100) {
		t.Errorf("result bounds = %v", out.Bounds())
	}
	if countNonWhite(out) == 0 {
		t.Error("committed image should contain drawn pixels")
	}
}

func TestSourceNeverMutated(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 120, 60))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	a, err := New(src, WithMeasurer(NewMeasurerWithFace(basicfont.Face7x13)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	spec := testSpec()
	pr := placement.Resolve(spec.Anchor, 120, 60, spec.Margin, mark.TopLeftDown)
	if err := a.ApplySingle(context.Background(), spec, pr, mark.TextMetrics{}); err != nil {
		t.Fatalf("ApplySingle: %v", err)
	}
	if err := a.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	for i, p := range src.Pix {
		if p != 255 {
			t.Fatalf("source pixel %d mutated", i)
		}
	}
}

func TestIdempotentRender(t *testing.T) {
	// Identical spec + identical content must produce pixel-identical output.
	render := func() image.Image {
		a := newTestAdapter(t, 300, 200)
		spec := testSpec()
		spec.Mode = mark.ModeRepeating
		spec.Angle = 30

		m, err := a.Measurer().Measure(context.Background(), spec.Text, spec.FontSize)
		if err != nil {
			t.Fatalf("Measure: %v", err)
		}
		ts := tiling.Layout(tiling.Params{
			TextWidth:  m.Width,
			TextHeight: m.Height,
			FontSize:   spec.FontSize,
			Angle:      spec.Angle,
			RowSpacing: 20,
			ColSpacing: 20,
			Surface:    a.Descriptor(),
		})
		if err := a.ApplyTiled(context.Background(), spec, ts, m); err != nil {
			t.Fatalf("ApplyTiled: %v", err)
		}
		if err := a.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		return a.Result()
	}

	first := render()
	second := render()
	if !pixelsEqual(first, second) {
		t.Error("two renders of the same spec differ")
	}
	if countNonWhite(first) == 0 {
		t.Error("tiled render drew nothing")
	}
}

func TestApplyTiledCancelled(t *testing.T) {
	a := newTestAdapter(t, 300, 200)
	spec := testSpec()
	spec.Mode = mark.ModeRepeating

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ts := tiling.Layout(tiling.Params{
		TextWidth: 35, TextHeight: 13, FontSize: 13,
		Surface: a.Descriptor(),
	})
	err := a.ApplyTiled(ctx, spec, ts, mark.TextMetrics{Width: 35, Height: 13})
	if !errors.IsCancelled(err) {
		t.Fatalf("err = %v, want cancellation", err)
	}

	// Nothing may be committed after cancellation.
	a.Reset()
	if err := a.Commit(); err == nil {
		t.Error("Commit after Reset should fail, nothing is staged")
	}
	if a.Result() != nil {
		t.Error("cancelled render must not publish a result")
	}
}

func TestResetDiscardsStaging(t *testing.T) {
	a := newTestAdapter(t, 100, 100)
	spec := testSpec()
	pr := placement.Resolve(spec.Anchor, 100, 100, spec.Margin, mark.TopLeftDown)

	if err := a.ApplySingle(context.Background(), spec, pr, mark.TextMetrics{}); err != nil {
		t.Fatalf("ApplySingle: %v", err)
	}
	a.Reset()
	if a.Result() != nil {
		t.Error("Reset must not publish anything")
	}
}

func countNonWhite(img image.Image) int {
	b := img.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || bl != 0xffff {
				n++
			}
		}
	}
	return n
}

func pixelsEqual(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	bd := a.Bounds()
	for y := bd.Min.Y; y < bd.Max.Y; y++ {
		for x := bd.Min.X; x < bd.Max.X; x++ {
			ar, ag, ab, aa := a.At(x, y).RGBA()
			br, bg, bb, ba := b.At(x, y).RGBA()
			if ar != br || ag != bg || ab != bb || aa != ba {
				return false
			}
		}
	}
	return true
}

func TestResultConcurrentWithCommit(t *testing.T) {
	// Result must be safe to read while a later render commits: the preview
	// server shares one adapter across request goroutines.
	a := newTestAdapter(t, 100, 100)
	spec := testSpec()
	pr := placement.Resolve(spec.Anchor, 100, 100, spec.Margin, mark.TopLeftDown)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			a.Result()
		}
	}()

	for i := 0; i < 200; i++ {
		if err := a.ApplySingle(context.Background(), spec, pr, mark.TextMetrics{}); err != nil {
			t.Fatalf("ApplySingle: %v", err)
		}
		if err := a.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
	<-done

	if a.Result() == nil {
		t.Error("Result after commit should not be nil")
	}
}
