package preview

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"golang.org/x/image/font/basicfont"

	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/surface/raster"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	src := image.NewRGBA(image.Rect(0, 0, 200, 120))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	base := mark.Spec{
		Text:     "DRAFT",
		FontSize: 13,
		Opacity:  0.5,
		Mode:     mark.ModeSingle,
		Anchor:   mark.AnchorMiddleCenter,
	}

	s, err := New(src, base, nil, raster.WithMeasurer(raster.NewMeasurerWithFace(basicfont.Face7x13)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestPreviewReturnsPNG(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/preview?text=CONFIDENTIAL&angle=45")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 120 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}

func TestPreviewRepeatingMode(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/preview?mode=repeating&row_spacing=30&col_spacing=30")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
}

func TestPreviewBadParams(t *testing.T) {
	ts := newTestServer(t)

	for _, query := range []string{
		"?opacity=high",
		"?mode=sideways",
		"?color=bluish",
	} {
		resp, err := http.Get(ts.URL + "/preview" + query)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", query, resp.StatusCode)
		}
	}
}

func TestPreviewConcurrentRequests(t *testing.T) {
	// Many clients hammering the same render unit: every response is either a
	// complete PNG or a 409 for a superseded render, never a torn image.
	ts := newTestServer(t)

	var wg sync.WaitGroup
	for _, angle := range []string{"0", "15", "30", "45", "60", "75", "90", "105"} {
		wg.Add(1)
		go func(angle string) {
			defer wg.Done()
			for i := 0; i < 4; i++ {
				resp, err := http.Get(ts.URL + "/preview?angle=" + angle)
				if err != nil {
					t.Error(err)
					return
				}
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()

				switch resp.StatusCode {
				case http.StatusOK:
					if _, err := png.Decode(bytes.NewReader(body)); err != nil {
						t.Errorf("angle %s: decode: %v", angle, err)
					}
				case http.StatusConflict:
					// superseded by a concurrent request
				default:
					t.Errorf("angle %s: status = %d", angle, resp.StatusCode)
				}
			}
		}(angle)
	}
	wg.Wait()
}
