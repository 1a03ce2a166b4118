// Package pkg provides the core libraries for Overmark text watermarking.
//
// # Overview
//
// Overmark places text watermarks - a single anchored mark or a repeating
// diagonal tiling - onto raster images and paginated documents. The pkg
// directory is organized into four main areas:
//
//  1. [mark] - Domain logic (spec, placement geometry, tiling geometry)
//  2. [surface] - Output surfaces (raster canvases, page operation lists)
//  3. [render] - Orchestration (coordinator lifecycle, batch runner)
//  4. [preset] - Persistence (named specs over memory/file/redis/mongo)
//
// # Architecture
//
// The typical data flow through Overmark:
//
//	mark.Spec (text, color, mode, angle)
//	         ↓
//	    [mark/placement] or [mark/tiling] (where each instance goes)
//	         ↓
//	    [surface/raster] or [surface/page] (stage and commit instances)
//	         ↓
//	    PNG/JPEG output or page content streams
//
// # Quick Start
//
// Watermark an image:
//
//	import (
//	    "context"
//	    "github.com/kaltenberg/overmark/pkg/mark"
//	    "github.com/kaltenberg/overmark/pkg/render"
//	    "github.com/kaltenberg/overmark/pkg/source"
//	    "github.com/kaltenberg/overmark/pkg/surface/raster"
//	)
//
//	img, _ := source.LoadImage(ctx, "photo.png")
//	adapter, _ := raster.New(img)
//	coord := render.NewCoordinator("photo", adapter)
//	_, err := coord.Render(ctx, mark.Spec{
//	    Text:     "DRAFT",
//	    FontSize: 48,
//	    Mode:     mark.ModeRepeating,
//	    Angle:    45,
//	    Opacity:  0.4,
//	}.Normalized())
//	_ = source.SaveImage(ctx, adapter.Result(), "photo-marked.png")
//
// Renders are supersedable: a second Render on the same coordinator cancels
// the first, and only the most recent committed render is observable.
package pkg
