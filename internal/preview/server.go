// Package preview serves live watermark previews over HTTP.
//
// The server owns one render unit: a base image and its coordinator. Every
// GET /preview renders the requested spec onto a copy of the base image and
// returns PNG. Requests supersede each other - a render still in flight when
// a newer one arrives is cancelled and answered with 409 Conflict, so the
// client only ever pays for the most recent settings.
package preview

import (
	"image"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/render"
	"github.com/kaltenberg/overmark/pkg/surface/raster"
)

// Server renders previews for one base image.
type Server struct {
	logger  *log.Logger
	base    mark.Spec
	adapter *raster.Adapter
	coord   *render.Coordinator
}

// New creates a preview server over the given base image. base supplies the
// spec defaults that query parameters override. Extra raster options follow
// the font selection, so callers can swap the measurer.
func New(img image.Image, base mark.Spec, logger *log.Logger, opts ...raster.Option) (*Server, error) {
	adapter, err := raster.New(img, append([]raster.Option{raster.WithFontName(base.FontName)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		logger:  logger,
		base:    base.Normalized(),
		adapter: adapter,
		coord:   render.NewCoordinator("preview", adapter),
	}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/preview", s.handlePreview)

	return r
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	spec, err := s.specFromQuery(r)
	if err != nil {
		http.Error(w, errors.UserMessage(err), http.StatusBadRequest)
		return
	}

	_, err = s.coord.Render(r.Context(), spec)
	switch {
	case err == nil:
	case errors.IsCancelled(err):
		// A newer preview superseded this one; tell the client to retry
		// with its latest settings.
		http.Error(w, "superseded by a newer preview", http.StatusConflict)
		return
	case errors.Is(err, errors.ErrCodeInvalidSpec):
		http.Error(w, errors.UserMessage(err), http.StatusBadRequest)
		return
	default:
		s.logger.Error("preview render failed", "error", err)
		http.Error(w, errors.UserMessage(err), http.StatusInternalServerError)
		return
	}

	result := s.adapter.Result()
	if result == nil {
		http.Error(w, "no render result", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := imaging.Encode(w, result, imaging.PNG); err != nil {
		s.logger.Error("preview encode failed", "error", err)
	}
}

// specFromQuery layers query parameters over the server's base spec.
func (s *Server) specFromQuery(r *http.Request) (mark.Spec, error) {
	spec := s.base
	q := r.URL.Query()

	if v := q.Get("text"); v != "" {
		spec.Text = v
	}
	if v := q.Get("mode"); v != "" {
		spec.Mode = mark.Mode(v)
	}
	if v := q.Get("anchor"); v != "" {
		spec.Anchor = mark.Anchor(v)
	}
	if v := q.Get("color"); v != "" {
		color, err := mark.ParseHexColor(v)
		if err != nil {
			return mark.Spec{}, err
		}
		spec.Color = color
	}

	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"font_size", &spec.FontSize},
		{"opacity", &spec.Opacity},
		{"angle", &spec.Angle},
		{"margin", &spec.Margin},
		{"row_spacing", &spec.RowSpacing},
		{"col_spacing", &spec.ColSpacing},
	} {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return mark.Spec{}, errors.New(errors.ErrCodeInvalidSpec, "bad %s %q", f.key, v)
		}
		*f.dst = parsed
	}

	spec = spec.Normalized()
	return spec, spec.Validate()
}
