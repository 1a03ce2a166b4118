package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/render"
	"github.com/kaltenberg/overmark/pkg/source"
	"github.com/kaltenberg/overmark/pkg/surface/page"
)

// pagesOpts holds the command-line flags for the pages command.
type pagesOpts struct {
	markFlags

	pageCount  int
	pageWidth  float64
	pageHeight float64
	output     string // JSON op list destination ("-" for stdout)
	streamPath string // optional PDF content-stream fragment destination
}

// pageOps is the JSON shape of one page's instruction list.
type pageOps struct {
	Number int           `json:"number"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Ops    []page.TextOp `json:"ops"`
}

// pagesCommand creates the pages command, which renders watermark text ops
// for a paginated document and emits them as JSON (and optionally as PDF
// content-stream fragments) for an external document encoder to embed.
func (c *CLI) pagesCommand() *cobra.Command {
	opts := pagesOpts{
		pageCount:  1,
		pageWidth:  612,
		pageHeight: 792,
		output:     "-",
	}

	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Emit watermark text ops for a paginated document",
		Long: `Pages renders the watermark for each page of a document and emits the
resulting text-draw instructions as JSON. Coordinates are bottom-left origin
with y growing upward, positions are baseline starts, and angles are degrees
counterclockwise - the conventions a PDF-style encoder expects.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := c.resolveSpec(cmd, &opts.markFlags)
			if err != nil {
				return err
			}
			return c.runPages(cmd.Context(), spec, &opts)
		},
	}

	opts.markFlags.register(cmd)
	cmd.Flags().IntVar(&opts.pageCount, "pages", opts.pageCount, "number of pages")
	cmd.Flags().Float64Var(&opts.pageWidth, "page-width", opts.pageWidth, "page width in points")
	cmd.Flags().Float64Var(&opts.pageHeight, "page-height", opts.pageHeight, "page height in points")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "JSON output file (- for stdout)")
	cmd.Flags().StringVar(&opts.streamPath, "content-stream", "", "also write PDF content-stream fragments to this path")

	return cmd
}

func (c *CLI) runPages(ctx context.Context, spec mark.Spec, opts *pagesOpts) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	doc, err := source.NewOpDocument(opts.pageWidth, opts.pageHeight, opts.pageCount)
	if err != nil {
		return err
	}

	units := make([]render.Unit, doc.PageCount())
	for i := range units {
		adapter, err := doc.Page(i)
		if err != nil {
			return err
		}
		units[i] = render.Unit{ID: fmt.Sprintf("page-%d", i), Adapter: adapter}
	}

	runner := render.NewRunner(logger)
	batch, err := runner.Execute(ctx, spec, units)
	if err != nil {
		return err
	}
	if failed := batch.Failed(); len(failed) > 0 {
		return failed[0].Err
	}

	out := make([]pageOps, doc.PageCount())
	for i := range out {
		adapter, _ := doc.Page(i)
		out[i] = pageOps{
			Number: i,
			Width:  opts.pageWidth,
			Height: opts.pageHeight,
			Ops:    adapter.Ops(),
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal page ops")
	}

	if opts.output == "-" {
		fmt.Println(string(data))
	} else {
		if err := os.WriteFile(opts.output, data, 0644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", opts.output)
		}
		printSuccess("Wrote ops for %d pages", doc.PageCount())
		printFile(opts.output)
	}

	if opts.streamPath != "" {
		paths, err := writeContentStreams(doc, opts.streamPath)
		if err != nil {
			return err
		}
		for _, sp := range paths {
			printFile(sp)
		}
	}

	p.done(fmt.Sprintf("Rendered %d pages", doc.PageCount()))
	return nil
}

// writeContentStreams writes one content-stream fragment per page. With a
// single page the path is used as given; with more, the page number is
// inserted before the extension.
func writeContentStreams(doc *source.OpDocument, path string) ([]string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	paths := make([]string, 0, doc.PageCount())
	for i := 0; i < doc.PageCount(); i++ {
		adapter, err := doc.Page(i)
		if err != nil {
			return nil, err
		}
		target := path
		if doc.PageCount() > 1 {
			target = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		if err := os.WriteFile(target, page.EncodeContentStream(adapter.Ops()), 0644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "write %s", target)
		}
		paths = append(paths, target)
	}
	return paths, nil
}
