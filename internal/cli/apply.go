package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/export"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/render"
	"github.com/kaltenberg/overmark/pkg/source"
	"github.com/kaltenberg/overmark/pkg/surface/raster"
)

// applyOpts holds the command-line flags for the apply command.
type applyOpts struct {
	markFlags

	outDir      string // output directory (default: alongside inputs)
	suffix      string // filename suffix for watermarked copies
	zipPath     string // bundle outputs into this zip archive
	concurrency int    // parallel unit renders
}

// applyCommand creates the apply command for watermarking image files.
//
// Each input file is an independent unit: a file that fails to load or render
// is reported and skipped, and the rest of the batch completes.
func (c *CLI) applyCommand() *cobra.Command {
	opts := applyOpts{
		suffix:      "-marked",
		concurrency: render.DefaultConcurrency,
	}

	cmd := &cobra.Command{
		Use:   "apply [files...]",
		Short: "Watermark one or more image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := c.resolveSpec(cmd, &opts.markFlags)
			if err != nil {
				return err
			}
			return c.runApply(cmd.Context(), spec, args, &opts)
		},
	}

	opts.markFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "output directory (default: next to each input)")
	cmd.Flags().StringVar(&opts.suffix, "suffix", opts.suffix, "filename suffix for watermarked copies")
	cmd.Flags().StringVar(&opts.zipPath, "zip", "", "bundle outputs into a zip archive")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", opts.concurrency, "parallel renders")

	return cmd
}

func (c *CLI) runApply(ctx context.Context, spec mark.Spec, files []string, opts *applyOpts) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Watermarking %d files...", len(files)))
	spinner.Start()

	units := make([]render.Unit, 0, len(files))
	adapters := make(map[string]*raster.Adapter, len(files))

	for _, path := range files {
		img, err := source.LoadImage(ctx, path)
		if err != nil {
			logger.Error("skipping input", "file", path, "error", errors.UserMessage(err))
			continue
		}
		a, err := raster.New(img, raster.WithFontName(spec.FontName))
		if err != nil {
			logger.Error("skipping input", "file", path, "error", errors.UserMessage(err))
			continue
		}
		adapters[path] = a
		units = append(units, render.Unit{ID: path, Adapter: a})
	}

	runner := render.NewRunner(logger)
	runner.Concurrency = opts.concurrency
	batch, err := runner.Execute(ctx, spec, units)
	if err != nil {
		spinner.StopWithError(errors.UserMessage(err))
		return err
	}

	var written []string
	for _, res := range batch.Results {
		if res.Err != nil {
			continue
		}
		out := outputPath(res.ID, opts.outDir, opts.suffix)
		if err := source.SaveImage(ctx, adapters[res.ID].Result(), out); err != nil {
			logger.Error("write failed", "file", out, "error", errors.UserMessage(err))
			continue
		}
		written = append(written, out)
	}

	if spinner.Cancelled() {
		spinner.Stop()
		return ctx.Err()
	}
	spinner.Stop()

	failed := len(files) - len(written)
	switch {
	case len(written) == 0:
		printError("No files watermarked (%d failed)", failed)
		return errors.New(errors.ErrCodeContentLoad, "all %d inputs failed", len(files))
	case failed > 0:
		printWarning("Watermarked %d of %d files", len(written), len(files))
	default:
		printSuccess("Watermarked %d files", len(written))
	}
	for _, out := range written {
		printFile(out)
	}

	if opts.zipPath != "" {
		if err := export.Bundle(ctx, opts.zipPath, written); err != nil {
			return err
		}
		printSuccess("Bundled %d files", len(written))
		printFile(opts.zipPath)
	}

	p.done(fmt.Sprintf("Watermarked %d files", len(written)))
	return nil
}

// outputPath builds the output file path for an input, inserting the suffix
// before the extension.
func outputPath(input, outDir, suffix string) string {
	dir := filepath.Dir(input)
	if outDir != "" {
		dir = outDir
	}
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+suffix+ext)
}
