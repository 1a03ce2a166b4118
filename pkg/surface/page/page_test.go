package page

import (
	"bytes"
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/mark/placement"
	"github.com/kaltenberg/overmark/pkg/mark/tiling"
)

const epsilon = 1e-6

func pageSpec() mark.Spec {
	return mark.Spec{
		Text:     "CONFIDENTIAL",
		FontSize: 48,
		Color:    mark.Color{R: 128, G: 128, B: 128},
		Opacity:  0.3,
		Mode:     mark.ModeSingle,
		Anchor:   mark.AnchorMiddleCenter,
	}.Normalized()
}

func TestNewRejectsBadSize(t *testing.T) {
	if _, err := New(0, 792); !errors.Is(err, errors.ErrCodeSurfaceUnavailable) {
		t.Fatalf("err = %v, want SURFACE_UNAVAILABLE", err)
	}
}

func TestMeasurerHelveticaWidths(t *testing.T) {
	m := NewMeasurer()
	got, err := m.Measure(context.Background(), "II", 10)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	// 'I' advances 278/1000 em.
	want := 2 * 278.0 / 1000 * 10
	if math.Abs(got.Width-want) > epsilon {
		t.Errorf("Width = %g, want %g", got.Width, want)
	}
	if got.Height != 10 {
		t.Errorf("Height = %g, want em square 10", got.Height)
	}
}

func TestMeasurerNonASCIIFallback(t *testing.T) {
	m := NewMeasurer()
	got, err := m.Measure(context.Background(), "é", 10)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if got.Width != 556.0/1000*10 {
		t.Errorf("Width = %g, want default advance", got.Width)
	}
}

func TestApplySingleCenterAlignment(t *testing.T) {
	// Letter page, centered anchor. The page primitive anchors at the
	// baseline start, so the adapter shifts x left by half the measured
	// width and y down by half the height.
	a, err := New(612, 792)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	spec := pageSpec()
	pr := placement.Resolve(spec.Anchor, 612, 792, spec.Margin, mark.BottomLeftUp)

	m, err := a.Measurer().Measure(context.Background(), spec.Text, spec.FontSize)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if err := a.ApplySingle(context.Background(), spec, pr, m); err != nil {
		t.Fatalf("ApplySingle: %v", err)
	}
	if err := a.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ops := a.Ops()
	if len(ops) != 1 {
		t.Fatalf("ops = %d, want 1", len(ops))
	}
	op := ops[0]
	if math.Abs(op.X-(306-m.Width/2)) > epsilon {
		t.Errorf("X = %g, want %g", op.X, 306-m.Width/2)
	}
	if math.Abs(op.Y-(396-m.Height/2)) > epsilon {
		t.Errorf("Y = %g, want %g", op.Y, 396-m.Height/2)
	}
	if op.Opacity != 0.3 || op.FontSize != 48 {
		t.Errorf("op carries wrong spec values: %+v", op)
	}
}

func TestApplySingleTopAnchorStaysBelowVisualTop(t *testing.T) {
	a, _ := New(612, 792)
	spec := pageSpec()
	spec.Anchor = mark.AnchorTopLeft
	pr := placement.Resolve(spec.Anchor, 612, 792, spec.Margin, mark.BottomLeftUp)

	m, _ := a.Measurer().Measure(context.Background(), spec.Text, spec.FontSize)
	if err := a.ApplySingle(context.Background(), spec, pr, m); err != nil {
		t.Fatalf("ApplySingle: %v", err)
	}
	if err := a.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	op := a.Ops()[0]
	// Anchor is at y = 792−margin (bottom-up); the box hangs below it, so
	// the baseline is one text height under the anchor.
	want := (792 - spec.Margin) - m.Height
	if math.Abs(op.Y-want) > epsilon {
		t.Errorf("Y = %g, want %g", op.Y, want)
	}
	if op.X != spec.Margin {
		t.Errorf("X = %g, want margin %g", op.X, spec.Margin)
	}
}

func TestApplyTiledZeroAngleMatchesFrame(t *testing.T) {
	a, _ := New(612, 792)
	spec := pageSpec()
	spec.Mode = mark.ModeRepeating

	m, _ := a.Measurer().Measure(context.Background(), spec.Text, spec.FontSize)
	ts := tiling.Layout(tiling.Params{
		TextWidth:  m.Width,
		TextHeight: m.Height,
		FontSize:   spec.FontSize,
		Angle:      0,
		RowSpacing: 50,
		ColSpacing: 50,
		Surface:    a.Descriptor(),
	})
	if err := a.ApplyTiled(context.Background(), spec, ts, m); err != nil {
		t.Fatalf("ApplyTiled: %v", err)
	}
	if err := a.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ops := a.Ops()
	if len(ops) != len(ts.Origins) {
		t.Fatalf("ops = %d, want one per origin %d", len(ops), len(ts.Origins))
	}

	// At angle 0 the rigid transform is the identity: frame origin (0,0)
	// becomes baseline (0−612, 0−792+h) top-down, i.e. page point
	// (−612, 792−(−792+h)).
	first := ops[0]
	if math.Abs(first.X-(-612)) > epsilon {
		t.Errorf("first X = %g, want -612", first.X)
	}
	wantY := 792 - (-792 + m.Height)
	if math.Abs(first.Y-wantY) > epsilon {
		t.Errorf("first Y = %g, want %g", first.Y, wantY)
	}
	if first.Angle != 0 {
		t.Errorf("angle = %g, want 0", first.Angle)
	}
}

func TestApplyTiledRotationIsRigid(t *testing.T) {
	// Under rotation, pairwise distances between instance baselines must be
	// preserved: the per-instance ops reproduce one rigid frame transform.
	a, _ := New(612, 792)
	spec := pageSpec()
	spec.Mode = mark.ModeRepeating
	spec.Angle = 45

	m, _ := a.Measurer().Measure(context.Background(), spec.Text, spec.FontSize)
	flat := tiling.Layout(tiling.Params{
		TextWidth: m.Width, TextHeight: m.Height, FontSize: spec.FontSize,
		Angle: 0, RowSpacing: 40, ColSpacing: 40, Surface: a.Descriptor(),
	})
	rot := tiling.Layout(tiling.Params{
		TextWidth: m.Width, TextHeight: m.Height, FontSize: spec.FontSize,
		Angle: 45, RowSpacing: 40, ColSpacing: 40, Surface: a.Descriptor(),
	})
	_ = flat

	if err := a.ApplyTiled(context.Background(), spec, rot, m); err != nil {
		t.Fatalf("ApplyTiled: %v", err)
	}
	if err := a.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	ops := a.Ops()
	if len(ops) < 2 {
		t.Fatal("need at least two ops")
	}

	// Distance between the first two ops equals the frame-space distance
	// between their origins (the stride), because the transform is rigid.
	dx := ops[1].X - ops[0].X
	dy := ops[1].Y - ops[0].Y
	got := math.Hypot(dx, dy)
	want := rot.HStride
	if math.Abs(got-want) > 1e-6*want {
		t.Errorf("baseline distance = %g, want stride %g", got, want)
	}
	for _, op := range ops {
		if op.Angle != 45 {
			t.Errorf("op angle = %g, want 45", op.Angle)
		}
	}
}

func TestCommitReplacesPreviousRender(t *testing.T) {
	// Only the most recent committed render is observable on the page.
	a, _ := New(612, 792)
	spec := pageSpec()
	pr := placement.Resolve(spec.Anchor, 612, 792, spec.Margin, mark.BottomLeftUp)
	m, _ := a.Measurer().Measure(context.Background(), spec.Text, spec.FontSize)

	if err := a.ApplySingle(context.Background(), spec, pr, m); err != nil {
		t.Fatal(err)
	}
	if err := a.Commit(); err != nil {
		t.Fatal(err)
	}
	firstOps := a.Ops()

	spec2 := spec
	spec2.Text = "DRAFT"
	m2, _ := a.Measurer().Measure(context.Background(), spec2.Text, spec2.FontSize)
	if err := a.ApplySingle(context.Background(), spec2, pr, m2); err != nil {
		t.Fatal(err)
	}
	if err := a.Commit(); err != nil {
		t.Fatal(err)
	}

	if len(a.Ops()) != 1 || a.Ops()[0].Text != "DRAFT" {
		t.Errorf("ops = %+v, want only the second render", a.Ops())
	}
	if firstOps[0].Text != "CONFIDENTIAL" {
		t.Error("earlier snapshot should be unchanged")
	}
}

func TestResetDiscardsStagedOps(t *testing.T) {
	a, _ := New(612, 792)
	spec := pageSpec()
	pr := placement.Resolve(spec.Anchor, 612, 792, spec.Margin, mark.BottomLeftUp)

	if err := a.ApplySingle(context.Background(), spec, pr, mark.TextMetrics{Width: 10, Height: 10}); err != nil {
		t.Fatal(err)
	}
	a.Reset()
	if a.Ops() != nil {
		t.Error("nothing should be committed after Reset")
	}
	if err := a.Commit(); err == nil {
		t.Error("Commit with nothing staged should fail")
	}
}

func TestIdempotentOps(t *testing.T) {
	render := func() []TextOp {
		a, _ := New(612, 792)
		spec := pageSpec()
		spec.Mode = mark.ModeRepeating
		spec.Angle = 30
		m, _ := a.Measurer().Measure(context.Background(), spec.Text, spec.FontSize)
		ts := tiling.Layout(tiling.Params{
			TextWidth: m.Width, TextHeight: m.Height, FontSize: spec.FontSize,
			Angle: spec.Angle, RowSpacing: 25, ColSpacing: 25, Surface: a.Descriptor(),
		})
		if err := a.ApplyTiled(context.Background(), spec, ts, m); err != nil {
			t.Fatalf("ApplyTiled: %v", err)
		}
		if err := a.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		return a.Ops()
	}

	if !reflect.DeepEqual(render(), render()) {
		t.Error("identical spec must produce instruction-identical output")
	}
}

func TestEncodeContentStream(t *testing.T) {
	ops := []TextOp{{
		Text:     "DRAFT (v2) \\ final",
		X:        100,
		Y:        200,
		Angle:    0,
		FontSize: 48,
		Color:    mark.Color{R: 255, G: 0, B: 0},
		Opacity:  0.5,
	}}
	out := EncodeContentStream(ops)

	for _, want := range []string{
		"q\n",
		"0.5 0 0 rg",
		"1 0 0 1 100 200 cm",
		"/F1 48 Tf",
		`(DRAFT \(v2\) \\ final) Tj`,
		"ET\nQ\n",
	} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("content stream missing %q:\n%s", want, out)
		}
	}
}

func TestEncodeContentStreamDeterministic(t *testing.T) {
	ops := []TextOp{
		{Text: "A", X: 1.23456, Y: 2, Angle: 45, FontSize: 12, Opacity: 1},
		{Text: "B", X: -3, Y: 4, Angle: -30, FontSize: 12, Opacity: 1},
	}
	if !bytes.Equal(EncodeContentStream(ops), EncodeContentStream(ops)) {
		t.Error("encoding must be deterministic")
	}
}
