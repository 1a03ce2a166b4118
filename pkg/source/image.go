// Package source loads and writes the content that watermark units render
// onto: image files for raster surfaces and paginated documents for page
// surfaces.
package source

import (
	"context"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/observability"
)

// LoadImage reads and decodes an image file. Failures come back as
// CONTENT_LOAD_FAILURE so a batch can skip the unit and keep going.
func LoadImage(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderCancelled, err, "load %s", path)
	}

	start := time.Now()
	img, err := imaging.Open(path)
	if err != nil {
		observability.Content().OnLoadError(ctx, "image", path, err)
		return nil, errors.Wrap(errors.ErrCodeContentLoad, err, "load image %s", path)
	}
	observability.Content().OnLoad(ctx, "image", path, time.Since(start))
	return img, nil
}

// SaveImage encodes an image to path; the format follows the file extension.
func SaveImage(ctx context.Context, img image.Image, path string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeRenderCancelled, err, "save %s", path)
	}
	if img == nil {
		return errors.New(errors.ErrCodeInternal, "no image to save")
	}
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrap(errors.ErrCodeContentLoad, err, "save image %s", path)
	}
	return nil
}
