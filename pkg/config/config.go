// Package config loads overmark configuration from a TOML file.
//
// The file lives at ~/.config/overmark/config.toml by default. Every field
// has a sensible default; command-line flags override whatever the file says.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
)

// Config is the full configuration tree.
type Config struct {
	Mark    MarkConfig    `toml:"mark"`
	Preset  PresetConfig  `toml:"preset"`
	Preview PreviewConfig `toml:"preview"`
}

// MarkConfig holds default watermark settings used when flags don't set them.
type MarkConfig struct {
	FontName   string  `toml:"font_name"`
	FontSize   float64 `toml:"font_size"`
	Color      string  `toml:"color"`
	Opacity    float64 `toml:"opacity"`
	Angle      float64 `toml:"angle"`
	Mode       string  `toml:"mode"`
	Anchor     string  `toml:"anchor"`
	Margin     float64 `toml:"margin"`
	RowSpacing float64 `toml:"row_spacing"`
	ColSpacing float64 `toml:"col_spacing"`
}

// PresetConfig selects and configures the preset store backend.
type PresetConfig struct {
	// Backend is one of "file", "memory", "redis", "mongo".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty means the default
	// ~/.config/overmark/presets.
	Dir string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// PreviewConfig configures the preview HTTP server.
type PreviewConfig struct {
	Addr  string  `toml:"addr"`
	Scale float64 `toml:"scale"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mark: MarkConfig{
			FontSize: 36,
			Color:    "#808080",
			Opacity:  0.4,
			Mode:     string(mark.ModeSingle),
			Anchor:   string(mark.AnchorMiddleCenter),
			Margin:   mark.DefaultMargin,
		},
		Preset: PresetConfig{
			Backend:   "file",
			RedisAddr: "localhost:6379",
		},
		Preview: PreviewConfig{
			Addr:  "localhost:7432",
			Scale: 1.5,
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "get home dir")
	}
	return filepath.Join(home, ".config", "overmark", "config.toml"), nil
}

// Load reads the config file at path, layered over the defaults. A missing
// file is not an error: the defaults apply unchanged. If path is empty, the
// default location is used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Preset.Backend {
	case "file", "memory", "redis", "mongo":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown preset backend %q", c.Preset.Backend)
	}
	if _, err := mark.ParseHexColor(c.Mark.Color); err != nil {
		return err
	}
	return nil
}

// Spec builds a mark.Spec with text applied over the configured defaults.
func (c Config) Spec(text string) (mark.Spec, error) {
	color, err := mark.ParseHexColor(c.Mark.Color)
	if err != nil {
		return mark.Spec{}, err
	}
	return mark.Spec{
		Text:       text,
		FontName:   c.Mark.FontName,
		FontSize:   c.Mark.FontSize,
		Color:      color,
		Opacity:    c.Mark.Opacity,
		Angle:      c.Mark.Angle,
		Mode:       mark.Mode(c.Mark.Mode),
		Anchor:     mark.Anchor(c.Mark.Anchor),
		Margin:     c.Mark.Margin,
		RowSpacing: c.Mark.RowSpacing,
		ColSpacing: c.Mark.ColSpacing,
	}.Normalized(), nil
}
