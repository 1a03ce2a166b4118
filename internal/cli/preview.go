package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kaltenberg/overmark/internal/preview"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/source"
)

// previewOpts holds the command-line flags for the preview command.
type previewOpts struct {
	markFlags

	addr string
}

// previewCommand creates the preview command, which serves a live watermark
// preview of one image over HTTP. Query parameters on GET /preview override
// the spec, so a UI slider can re-render on every change; stale renders are
// superseded and never block the latest one.
func (c *CLI) previewCommand() *cobra.Command {
	var opts previewOpts

	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Serve a live watermark preview over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := c.resolveSpec(cmd, &opts.markFlags)
			if err != nil {
				return err
			}
			if opts.addr == "" {
				opts.addr = c.Config.Preview.Addr
			}
			return c.runPreview(cmd.Context(), spec, args[0], opts.addr)
		},
	}

	opts.markFlags.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, spec mark.Spec, path, addr string) error {
	logger := loggerFromContext(ctx)

	img, err := source.LoadImage(ctx, path)
	if err != nil {
		return err
	}

	srv, err := preview.New(img, spec, logger)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	printSuccess("Preview server listening")
	printKeyValue("address", "http://"+addr+"/preview")
	printKeyValue("source", path)
	printNextStep("Try", fmt.Sprintf("curl 'http://%s/preview?angle=45&mode=repeating' -o preview.png", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		logger.Info("preview server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
