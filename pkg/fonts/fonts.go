// Package fonts locates and loads TrueType fonts for raster rendering.
//
// Fonts are discovered on the host system rather than embedded: the raster
// measurer only needs a face with honest advance widths, and every platform
// ships at least one of the default candidates. Parsed fonts are cached per
// path; faces are cheap to derive per size.
package fonts

import (
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/kaltenberg/overmark/pkg/errors"
)

// defaultCandidates are tried in order when no font name is configured.
var defaultCandidates = []string{
	"DejaVuSans.ttf",
	"Arial.ttf",
	"LiberationSans-Regular.ttf",
	"FreeSans.ttf",
	"Helvetica.ttf",
}

var (
	mu     sync.Mutex
	parsed = map[string]*truetype.Font{}
)

// Load finds the named font on the system and returns a face at the given
// size. The name is a file name as findfont expects ("DejaVuSans.ttf") or a
// bare family name, in which case ".ttf" is appended.
func Load(name string, size float64) (font.Face, error) {
	if name == "" {
		return Default(size)
	}
	if len(name) < 4 || name[len(name)-4] != '.' {
		name += ".ttf"
	}
	f, err := loadFont(name)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// Default returns a face for the first discoverable candidate font.
func Default(size float64) (font.Face, error) {
	var lastErr error
	for _, name := range defaultCandidates {
		f, err := loadFont(name)
		if err != nil {
			lastErr = err
			continue
		}
		return truetype.NewFace(f, &truetype.Options{Size: size}), nil
	}
	return nil, errors.Wrap(errors.ErrCodeFontNotFound, lastErr, "no usable system font among %v", defaultCandidates)
}

func loadFont(name string) (*truetype.Font, error) {
	path, err := findfont.Find(name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontNotFound, err, "font %q not found", name)
	}

	mu.Lock()
	defer mu.Unlock()
	if f, ok := parsed[path]; ok {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontNotFound, err, "read font %s", path)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontNotFound, err, "parse font %s", path)
	}
	parsed[path] = f
	return f, nil
}
