// Package imaging normalizes embedded raster images into PNG or JPEG with
// bounded dimensions and size-aware quality, fronted by an optional bounded
// cache. Normalization failure for an asset is never fatal: the asset comes
// back unprocessed and is rendered as a placeholder downstream.
package imaging

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"

	_ "image/gif" // register decoders for already-encoded payloads

	"github.com/docflow/docflow/internal/content"
)

const (
	// Images above this pixel area are encoded lossy; smaller ones keep
	// lossless PNG.
	jpegAreaThreshold = 640 * 480

	// JPEG quality tiers by pixel area.
	areaSmall     = 1_000_000 // 1 MP
	areaMedium    = 4_000_000 // 4 MP
	qualitySmall  = 85
	qualityMedium = 75
	qualityLarge  = 60

	// maxDimension caps either edge; larger images are downscaled
	// preserving aspect ratio.
	maxDimension = 2000
)

// Normalizer converts extracted image assets into standard encodings.
type Normalizer struct {
	Log   *slog.Logger
	cache *Cache
}

// New returns a Normalizer. cache may be nil to disable caching; output is
// identical either way.
func New(log *slog.Logger, cache *Cache) *Normalizer {
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{Log: log, cache: cache}
}

// Normalize returns a copy of asset with Processed/ProcessedFormat set. On
// failure the asset is returned unmodified along with the error; callers
// decide whether to placeholder it.
func (n *Normalizer) Normalize(asset content.ImageAsset) (content.ImageAsset, error) {
	img, err := decodeAsset(asset)
	if err != nil {
		return asset, fmt.Errorf("decode image %s: %w", asset.ID, err)
	}

	img = clampSize(img)
	b := img.Bounds()
	area := b.Dx() * b.Dy()
	format, quality := targetEncoding(area)

	key := cacheKey(asset, format, quality)
	if blob, ok := n.cache.Get(key); ok {
		asset.Processed = blob
		asset.ProcessedFormat = format
		return asset, nil
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return asset, fmt.Errorf("encode image %s as %s: %w", asset.ID, format, err)
	}

	blob := buf.Bytes()
	n.cache.Put(key, blob)
	asset.Processed = blob
	asset.ProcessedFormat = format
	return asset, nil
}

// targetEncoding picks the output format and, for JPEG, a quality that
// drops as pixel area grows.
func targetEncoding(area int) (format string, quality int) {
	if area <= jpegAreaThreshold {
		return "png", 0
	}
	switch {
	case area <= areaSmall:
		return "jpeg", qualitySmall
	case area <= areaMedium:
		return "jpeg", qualityMedium
	default:
		return "jpeg", qualityLarge
	}
}

// cacheKey identifies a normalization result by source dimensions, target
// encoding, and a cheap content fingerprint.
func cacheKey(asset content.ImageAsset, format string, quality int) string {
	h := fnv.New64a()
	h.Write(asset.Data)
	return fmt.Sprintf("%dx%d:%s:q%d:%016x", asset.Width, asset.Height, format, quality, h.Sum64())
}

// decodeAsset interprets the asset payload: an already-encoded image
// (JPEG/PNG/GIF), or a bare pixel buffer laid out as RGBA, RGB, or
// grayscale matching the declared dimensions.
func decodeAsset(asset content.ImageAsset) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(asset.Data)); err == nil {
		return img, nil
	}

	w, h := asset.Width, asset.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", w, h)
	}

	switch len(asset.Data) {
	case w * h * 4:
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		copy(img.Pix, asset.Data)
		return img, nil
	case w * h * 3:
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < w*h; i++ {
			img.Pix[i*4+0] = asset.Data[i*3+0]
			img.Pix[i*4+1] = asset.Data[i*3+1]
			img.Pix[i*4+2] = asset.Data[i*3+2]
			img.Pix[i*4+3] = 0xff
		}
		return img, nil
	case w * h:
		img := image.NewGray(image.Rect(0, 0, w, h))
		copy(img.Pix, asset.Data)
		return img, nil
	}
	return nil, fmt.Errorf("unrecognized image payload (%d bytes for %dx%d)", len(asset.Data), w, h)
}

// clampSize downscales img so neither edge exceeds maxDimension, keeping
// aspect ratio. Nearest-neighbor is enough here: the cap exists to bound
// memory and output size, not to resample photography.
func clampSize(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDimension && h <= maxDimension {
		return img
	}

	scale := float64(maxDimension) / float64(w)
	if h > w {
		scale = float64(maxDimension) / float64(h)
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	out := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		sy := b.Min.Y + y*h/nh
		for x := 0; x < nw; x++ {
			sx := b.Min.X + x*w/nw
			out.Set(x, y, img.At(sx, sy))
		}
	}
	return out
}
