package order

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)))
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	return buf.Bytes()
}

func TestDownloadCompletionQueue(t *testing.T) {
	dir := t.TempDir()

	srcPath := filepath.Join(dir, "src.png")
	err := os.WriteFile(srcPath, pngBytes(t, 10, 14), 0644)
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}

	cachedPath := filepath.Join(dir, "cached.png")
	err = os.WriteFile(cachedPath, []byte("already here"), 0644)
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}

	coll := NewCardImageCollection(FaceFront)
	coll.Insert(&CardImage{
		ID:       srcPath,
		Name:     "copied",
		Slots:    []int{0},
		FilePath: filepath.Join(dir, "cache", "copied.png"),
	})
	coll.Insert(&CardImage{Name: "cached", Slots: []int{1}, FilePath: cachedPath})
	coll.Insert(&CardImage{Query: "nowhere", Slots: []int{2}})
	for _, card := range coll.Images {
		card.ResolveFilePath(filepath.Join(dir, "cache"))
	}

	progressed := 0
	cfg := &DownloadConfig{
		Concurrency: 2,
		Progress:    func(card *CardImage) { progressed++ },
	}

	// Every image comes back exactly once, downloaded or errored
	received := 0
	for card := range coll.DownloadImages(context.Background(), cfg) {
		received++
		switch card.Name {
		case "copied":
			if !card.Downloaded || card.Errored {
				t.Errorf("FAIL: local source not copied: %v", card)
			}
			data, err := os.ReadFile(card.FilePath)
			if err != nil || len(data) == 0 {
				t.Errorf("FAIL: cache file missing for %v", card)
			}
		case "cached":
			if !card.Downloaded {
				t.Errorf("FAIL: pre-existing file not treated as downloaded")
			}
		default:
			if !card.Errored || card.Downloaded {
				t.Errorf("FAIL: sourceless image not errored: %v", card)
			}
		}
	}
	if received != len(coll.Images) {
		t.Errorf("FAIL: %d completions for %d images", received, len(coll.Images))
	}
	if progressed != len(coll.Images) {
		t.Errorf("FAIL: %d progress callbacks for %d images", progressed, len(coll.Images))
	}
}

func TestDownloadHTTP(t *testing.T) {
	payload := pngBytes(t, 10, 14)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	coll := NewCardImageCollection(FaceFront)
	coll.Insert(&CardImage{ID: server.URL, Name: "linked", Slots: []int{0}})
	for _, card := range coll.Images {
		card.ResolveFilePath(dir)
	}

	cfg := &DownloadConfig{Client: server.Client()}
	for card := range coll.DownloadImages(context.Background(), cfg) {
		if !card.Downloaded {
			t.Fatalf("FAIL: linked image not downloaded: %v", card)
		}
		data, err := os.ReadFile(card.FilePath)
		if err != nil || !bytes.Equal(data, payload) {
			t.Errorf("FAIL: fetched bytes do not match")
		}
	}
}

func TestDownloadHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	coll := NewCardImageCollection(FaceFront)
	coll.Insert(&CardImage{ID: server.URL, Name: "missing", Slots: []int{0}})
	for _, card := range coll.Images {
		card.ResolveFilePath(dir)
	}

	cfg := &DownloadConfig{Client: server.Client()}
	for card := range coll.DownloadImages(context.Background(), cfg) {
		if !card.Errored {
			t.Errorf("FAIL: missing remote image not errored")
		}
	}
}

func TestDownscale(t *testing.T) {
	// 1400px over 3.5in is 400 DPI, double the configured maximum
	data := pngBytes(t, 1000, 1400)

	out, err := downscale(data, &PostProcessConfig{MaxDPI: 200})
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if img.Bounds().Dy() != 700 || img.Bounds().Dx() != 500 {
		t.Errorf("FAIL: downscaled to %v", img.Bounds())
	}

	// Already under the maximum passes through untouched
	small := pngBytes(t, 100, 140)
	out, err = downscale(small, &PostProcessConfig{MaxDPI: 200})
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if !bytes.Equal(out, small) {
		t.Errorf("FAIL: low-DPI image was re-encoded")
	}
}

func TestResolveFilePath(t *testing.T) {
	dir := t.TempDir()

	existing := filepath.Join(dir, "mine.png")
	err := os.WriteFile(existing, []byte("x"), 0644)
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}

	card := &CardImage{ID: existing}
	if card.ResolveFilePath(dir) != existing {
		t.Errorf("FAIL: existing local file not used as is")
	}

	card = &CardImage{Query: "island", ReqType: RequestCard}
	path := card.ResolveFilePath(dir)
	if filepath.Dir(path) != dir || filepath.Ext(path) != ".png" {
		t.Errorf("FAIL: resolved path %q", path)
	}

	// Stable across calls
	if card.ResolveFilePath(dir) != path {
		t.Errorf("FAIL: path changed on second resolution")
	}
}
