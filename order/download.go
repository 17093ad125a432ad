package order

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"

	"cloud.google.com/go/storage"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/image/draw"
	"golang.org/x/time/rate"
)

// DefaultDownloadConcurrency bounds the number of simultaneous image
// transfers.
const DefaultDownloadConcurrency = 5

// Card dimensions used to derive the effective DPI of a scanned image.
const cardHeightInches = 3.5

// PostProcessConfig controls optional downscaling applied to fetched
// images before they hit disk.
type PostProcessConfig struct {
	// Images above this effective DPI are downscaled to it; zero
	// disables downscaling
	MaxDPI int

	// One of "nearest", "bilinear", "catmullrom"; catmullrom when empty
	Kernel string
}

func (cfg *PostProcessConfig) interpolator() draw.Interpolator {
	switch cfg.Kernel {
	case "nearest":
		return draw.NearestNeighbor
	case "bilinear":
		return draw.BiLinear
	}
	return draw.CatmullRom
}

// DownloadConfig wires the shared resources a download run needs. The
// zero value works for local-file orders.
type DownloadConfig struct {
	Concurrency int

	// HTTP client for link-addressed images; a retrying client is
	// created when nil
	Client *http.Client

	// Bucket serving storage-id-addressed images
	Bucket *storage.BucketHandle

	// Global throttle on per-object metadata lookups, shared by all
	// workers
	Limiter *rate.Limiter

	PostProcess *PostProcessConfig

	// Invoked once per image, success or failure
	Progress func(card *CardImage)

	LogCallback LogCallbackFunc
}

func (cfg *DownloadConfig) printf(format string, a ...interface{}) {
	if cfg.LogCallback != nil {
		cfg.LogCallback("[DL] "+format, a...)
	}
}

func (cfg *DownloadConfig) httpClient() *http.Client {
	if cfg.Client != nil {
		return cfg.Client
	}
	client := retryablehttp.NewClient()
	client.HTTPClient = cleanhttp.DefaultClient()
	client.Logger = nil
	cfg.Client = client.StandardClient()
	return cfg.Client
}

// DownloadImages schedules every member image on a bounded worker pool
// and returns the completion queue. Each image is pushed exactly once,
// downloaded or errored, so the consumer can read len(Images) items
// without risk of blocking forever. Images are delivered in completion
// order, not declaration order.
func (coll *CardImageCollection) DownloadImages(ctx context.Context, cfg *DownloadConfig) <-chan *CardImage {
	if cfg == nil {
		cfg = &DownloadConfig{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultDownloadConcurrency
	}

	jobs := make(chan *CardImage)
	results := make(chan *CardImage, len(coll.Images))
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for card := range jobs {
				err := downloadImage(ctx, cfg, card)
				if err != nil {
					card.Errored = true
					cfg.printf("%s: %s (fix manually via %s)", card, err.Error(), card.DirectLink())
				} else {
					card.Downloaded = true
				}

				results <- card
				if cfg.Progress != nil {
					cfg.Progress(card)
				}
			}
		}()
	}

	go func() {
		for _, card := range coll.Images {
			jobs <- card
		}
		close(jobs)

		wg.Wait()
		close(results)
	}()

	return results
}

func downloadImage(ctx context.Context, cfg *DownloadConfig, card *CardImage) error {
	if card.FilePath == "" {
		return fmt.Errorf("no resolved file path")
	}

	// Nothing to do when a previous run already fetched the file
	info, err := os.Stat(card.FilePath)
	if err == nil && info.Size() > 0 {
		return nil
	}

	data, err := fetchImage(ctx, cfg, card)
	if err != nil {
		return err
	}

	if cfg.PostProcess != nil && cfg.PostProcess.MaxDPI > 0 {
		data, err = downscale(data, cfg.PostProcess)
		if err != nil {
			return err
		}
	}

	err = os.MkdirAll(filepath.Dir(card.FilePath), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(card.FilePath, data, 0644)
}

func fetchImage(ctx context.Context, cfg *DownloadConfig, card *CardImage) ([]byte, error) {
	switch {
	case strings.HasPrefix(card.ID, "http"):
		resp, err := cfg.httpClient().Get(card.ID)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)

	case cfg.Bucket != nil && card.ID != "":
		if cfg.Limiter != nil {
			err := cfg.Limiter.Wait(ctx)
			if err != nil {
				return nil, err
			}
		}

		reader, err := cfg.Bucket.Object(card.ID).NewReader(ctx)
		if err != nil {
			return nil, err
		}
		defer reader.Close()

		return io.ReadAll(reader)

	case card.ID != "":
		// Local source file copied into the cache path
		return os.ReadFile(card.ID)
	}

	return nil, fmt.Errorf("no image source for %s", card.Identifier())
}

// downscale re-encodes an image whose effective DPI exceeds the
// configured maximum, using the configured resampling kernel.
func downscale(data []byte, cfg *PostProcessConfig) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	dpi := float64(bounds.Dy()) / cardHeightInches
	if dpi <= float64(cfg.MaxDPI) {
		return data, nil
	}

	scale := float64(cfg.MaxDPI) / dpi
	width := int(float64(bounds.Dx()) * scale)
	height := int(float64(bounds.Dy()) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	cfg.interpolator().Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	err = png.Encode(&buf, dst)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
