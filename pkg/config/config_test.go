package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mark.FontSize != 36 || cfg.Preset.Backend != "file" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[mark]
font_size = 48
color = "#ff0000"
angle = 45.0
mode = "repeating"

[preset]
backend = "redis"
redis_addr = "redis.internal:6379"

[preview]
addr = "0.0.0.0:9000"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mark.FontSize != 48 {
		t.Errorf("FontSize = %g", cfg.Mark.FontSize)
	}
	if cfg.Preset.Backend != "redis" || cfg.Preset.RedisAddr != "redis.internal:6379" {
		t.Errorf("Preset = %+v", cfg.Preset)
	}
	if cfg.Preview.Addr != "0.0.0.0:9000" {
		t.Errorf("Preview = %+v", cfg.Preview)
	}
	// Untouched values keep their defaults.
	if cfg.Mark.Opacity != 0.4 {
		t.Errorf("Opacity = %g, want default", cfg.Mark.Opacity)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[mark]\nfont_siez = 12\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadRejectsBadBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[preset]\nbackend = \"cassandra\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestSpecFromConfig(t *testing.T) {
	cfg := Default()
	cfg.Mark.Angle = 30
	cfg.Mark.Mode = "repeating"

	spec, err := cfg.Spec("DRAFT")
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.Text != "DRAFT" {
		t.Errorf("Text = %q", spec.Text)
	}
	if spec.Mode != mark.ModeRepeating || spec.Angle != 30 {
		t.Errorf("spec = %+v", spec)
	}
	if spec.Color != (mark.Color{R: 128, G: 128, B: 128}) {
		t.Errorf("Color = %+v", spec.Color)
	}
	if err := spec.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
