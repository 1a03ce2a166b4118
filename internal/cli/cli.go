package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kaltenberg/overmark/pkg/buildinfo"
	"github.com/kaltenberg/overmark/pkg/config"
	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/preset"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "overmark"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Overmark stamps text watermarks onto images and documents",
		Long:         `Overmark is a CLI tool for placing text watermarks - single anchored marks or repeating diagonal tilings - onto image files and paginated documents, with live preview and reusable presets.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/overmark/config.toml)")

	// Register all subcommands
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.pagesCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.presetCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Preset Store Factory
// =============================================================================

// newPresetStore creates the preset store the config selects.
// The caller owns the returned store and must Close it.
func (c *CLI) newPresetStore(ctx context.Context) (preset.Store, error) {
	p := c.Config.Preset
	switch p.Backend {
	case "memory":
		return preset.NewMemoryStore(), nil
	case "file", "":
		return preset.NewFileStore(p.Dir)
	case "redis":
		return preset.NewRedisStore(ctx, preset.RedisConfig{
			Addr:     p.RedisAddr,
			Password: p.RedisPassword,
			DB:       p.RedisDB,
		})
	case "mongo":
		return preset.NewMongoStore(ctx, preset.MongoConfig{
			URI:        p.MongoURI,
			Database:   p.MongoDatabase,
			Collection: p.MongoCollection,
		})
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown preset backend %q", p.Backend)
	}
}

// =============================================================================
// Shared Mark Flags
// =============================================================================

// markFlags is the watermark flag set shared by apply, pages, and preview.
type markFlags struct {
	text       string
	presetName string
	fontName   string
	fontSize   float64
	color      string
	opacity    float64
	angle      float64
	mode       string
	anchor     string
	margin     float64
	rowSpacing float64
	colSpacing float64
}

// register adds the watermark flags to cmd.
func (f *markFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.text, "text", "t", "", "watermark text")
	cmd.Flags().StringVar(&f.presetName, "preset", "", "start from a saved preset")
	cmd.Flags().StringVar(&f.fontName, "font", "", "font name or .ttf path")
	cmd.Flags().Float64Var(&f.fontSize, "font-size", 0, "font size in points")
	cmd.Flags().StringVar(&f.color, "color", "", "watermark color (#rrggbb)")
	cmd.Flags().Float64Var(&f.opacity, "opacity", 0, "opacity in [0,1]")
	cmd.Flags().Float64Var(&f.angle, "angle", 0, "rotation in degrees, counterclockwise")
	cmd.Flags().StringVar(&f.mode, "mode", "", "single or repeating")
	cmd.Flags().StringVar(&f.anchor, "anchor", "", "anchor for single mode (e.g. middle-center, bottom-right)")
	cmd.Flags().Float64Var(&f.margin, "margin", 0, "edge margin for single mode")
	cmd.Flags().Float64Var(&f.rowSpacing, "row-spacing", 0, "vertical gap between tiles")
	cmd.Flags().Float64Var(&f.colSpacing, "col-spacing", 0, "horizontal gap between tiles")
}

// resolveSpec builds the effective spec: preset or config defaults as the
// base, with explicitly set flags layered on top.
func (c *CLI) resolveSpec(cmd *cobra.Command, f *markFlags) (mark.Spec, error) {
	var spec mark.Spec

	if f.presetName != "" {
		store, err := c.newPresetStore(cmd.Context())
		if err != nil {
			return mark.Spec{}, err
		}
		defer store.Close()

		p, err := store.Load(cmd.Context(), f.presetName)
		if err != nil {
			return mark.Spec{}, err
		}
		spec = p.Spec
	} else {
		s, err := c.Config.Spec("")
		if err != nil {
			return mark.Spec{}, err
		}
		spec = s
	}

	flags := cmd.Flags()
	if flags.Changed("text") {
		spec.Text = f.text
	}
	if flags.Changed("font") {
		spec.FontName = f.fontName
	}
	if flags.Changed("font-size") {
		spec.FontSize = f.fontSize
	}
	if flags.Changed("color") {
		color, err := mark.ParseHexColor(f.color)
		if err != nil {
			return mark.Spec{}, err
		}
		spec.Color = color
	}
	if flags.Changed("opacity") {
		spec.Opacity = f.opacity
	}
	if flags.Changed("angle") {
		spec.Angle = f.angle
	}
	if flags.Changed("mode") {
		spec.Mode = mark.Mode(f.mode)
	}
	if flags.Changed("anchor") {
		spec.Anchor = mark.Anchor(f.anchor)
	}
	if flags.Changed("margin") {
		spec.Margin = f.margin
	}
	if flags.Changed("row-spacing") {
		spec.RowSpacing = f.rowSpacing
	}
	if flags.Changed("col-spacing") {
		spec.ColSpacing = f.colSpacing
	}

	spec = spec.Normalized()
	return spec, spec.Validate()
}

// Execute builds and runs the CLI with signal-aware context handling left to
// the caller.
func Execute(ctx context.Context) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
