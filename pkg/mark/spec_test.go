package mark

import (
	"testing"

	"github.com/kaltenberg/overmark/pkg/errors"
)

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{45, 45},
		{180, 180},
		{181, -179},
		{-180, -180},
		{-181, 179},
		{360, 0},
		{390, 30},
		{-390, -30},
		{721, 1},
	}
	for _, tt := range tests {
		if got := NormalizeAngle(tt.in); got != tt.want {
			t.Errorf("NormalizeAngle(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestSpecNormalized(t *testing.T) {
	s := Spec{
		Text:       "CONFIDENTIAL",
		FontSize:   48,
		Opacity:    1.7,
		Angle:      405,
		RowSpacing: -10,
		ColSpacing: -1,
		Margin:     -5,
	}
	n := s.Normalized()

	if n.Opacity != 1 {
		t.Errorf("Opacity = %g, want 1", n.Opacity)
	}
	if n.Angle != 45 {
		t.Errorf("Angle = %g, want 45", n.Angle)
	}
	if n.RowSpacing != 0 || n.ColSpacing != 0 {
		t.Errorf("spacing = %g/%g, want 0/0", n.RowSpacing, n.ColSpacing)
	}
	if n.Margin != DefaultMargin {
		t.Errorf("unset margin should take the default, got %g", n.Margin)
	}
	if n.Mode != ModeSingle {
		t.Errorf("Mode default = %q, want single", n.Mode)
	}

	// The original value is untouched: a change produces a new spec value.
	if s.Opacity != 1.7 {
		t.Error("Normalized must not mutate its receiver")
	}
}

func TestSpecNormalizedMargin(t *testing.T) {
	if n := (Spec{Text: "x", FontSize: 12, Margin: -1}).Normalized(); n.Margin != DefaultMargin {
		t.Errorf("Margin = %g, want default %g", n.Margin, DefaultMargin)
	}

	// An explicit zero margin survives normalization; only negative means
	// unset.
	if n := (Spec{Text: "x", FontSize: 12, Margin: 0}).Normalized(); n.Margin != 0 {
		t.Errorf("Margin = %g, want 0", n.Margin)
	}
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		ok   bool
	}{
		{"valid", Spec{Text: "DRAFT", FontSize: 36, Mode: ModeRepeating}, true},
		{"empty text", Spec{FontSize: 36}, false},
		{"zero font size", Spec{Text: "x"}, false},
		{"negative font size", Spec{Text: "x", FontSize: -2}, false},
		{"unknown mode", Spec{Text: "x", FontSize: 10, Mode: "tiled"}, false},
		{"unknown anchor allowed", Spec{Text: "x", FontSize: 10, Anchor: "nowhere"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, errors.ErrCodeInvalidSpec) {
					t.Errorf("code = %q, want INVALID_SPEC", errors.GetCode(err))
				}
			}
		})
	}
}

func TestSpecComparedByValue(t *testing.T) {
	a := Spec{Text: "DRAFT", FontSize: 36, Color: Color{R: 128, G: 128, B: 128}, Mode: ModeRepeating}
	b := Spec{Text: "DRAFT", FontSize: 36, Color: Color{R: 128, G: 128, B: 128}, Mode: ModeRepeating}
	if a != b {
		t.Error("identical specs should compare equal")
	}
	b.Angle = 45
	if a == b {
		t.Error("different specs should not compare equal")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#4db6ac", Color{0x4d, 0xb6, 0xac}, true},
		{"4db6ac", Color{0x4d, 0xb6, 0xac}, true},
		{" #FFFFFF ", Color{255, 255, 255}, true},
		{"#fff", Color{}, false},
		{"", Color{}, false},
		{"#zzzzzz", Color{}, false},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if tt.ok {
			if err != nil {
				t.Errorf("ParseHexColor(%q) error: %v", tt.in, err)
				continue
			}
			if got != tt.want {
				t.Errorf("ParseHexColor(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		} else if err == nil {
			t.Errorf("ParseHexColor(%q) should fail", tt.in)
		}
	}
}

func TestColorHexRoundTrip(t *testing.T) {
	c := Color{R: 77, G: 182, B: 172}
	if c.Hex() != "#4db6ac" {
		t.Errorf("Hex = %q", c.Hex())
	}
}
