// Package export bundles watermarked outputs into a single archive.
package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/kaltenberg/overmark/pkg/errors"
)

// Bundle writes the named files into a zip archive at dest. Entries keep
// their base names; colliding base names get a numeric suffix so every input
// survives in the archive.
func Bundle(ctx context.Context, dest string, paths []string) error {
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "nothing to bundle")
	}

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create archive %s", dest)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	names := entryNames(paths)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return errors.Wrap(errors.ErrCodeRenderCancelled, err, "bundle aborted")
		}
		if err := addEntry(zw, names[i], path); err != nil {
			zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "finalize archive %s", dest)
	}
	return nil
}

func addEntry(zw *zip.Writer, name, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeContentLoad, err, "open %s", path)
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "add %s to archive", name)
	}
	if _, err := io.Copy(w, in); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "copy %s into archive", name)
	}
	return nil
}

// entryNames maps input paths to collision-free archive entry names,
// preserving input order.
func entryNames(paths []string) []string {
	// Count how often each base name appears.
	count := make(map[string]int, len(paths))
	for _, p := range paths {
		count[filepath.Base(p)]++
	}

	seen := make(map[string]int, len(paths))
	names := make([]string, len(paths))
	for i, p := range paths {
		base := filepath.Base(p)
		if count[base] == 1 {
			names[i] = base
			continue
		}
		seen[base]++
		ext := filepath.Ext(base)
		stem := base[:len(base)-len(ext)]
		names[i] = fmt.Sprintf("%s-%d%s", stem, seen[base], ext)
	}
	return names
}

// List returns the entry names inside an archive, sorted. Useful for
// reporting what a bundle contains without extracting it.
func List(dest string) ([]string, error) {
	r, err := zip.OpenReader(dest)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeContentLoad, err, "open archive %s", dest)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names, nil
}
