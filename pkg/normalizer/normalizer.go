// Package normalizer re-encodes downloaded media into canonical PNG
// files. The storefront serves listing images in whatever format its
// CDN holds (jpg, webp, occasionally png already), and some carry an
// EXIF orientation tag that viewers honor but most tooling ignores.
// Normalization bakes the orientation into the pixels and writes a
// PNG next to the source, removing the source once the PNG is safely
// on disk.
package normalizer

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"

	"jdscraper/pkg/config"
	errs "jdscraper/pkg/errors"
	"jdscraper/pkg/logger"
)

// Outcome reports the result of normalizing a single file.
type Outcome struct {
	// Path is the source file as it was handed in.
	Path string
	// OutPath is the canonical PNG. Empty when Err is set.
	OutPath string
	// Removed reports whether the source file was deleted.
	Removed bool
	Err     error
}

// Normalizer converts media files to oriented PNGs.
type Normalizer struct {
	keepOriginals bool
	concurrency   int
	logger        logger.Logger
}

// New builds a Normalizer from the media section of the configuration.
func New(cfg *config.MediaConfig, log logger.Logger) *Normalizer {
	concurrency := cfg.BatchSize
	if concurrency < 1 {
		concurrency = 1
	}
	return &Normalizer{
		keepOriginals: cfg.KeepOriginals,
		concurrency:   concurrency,
		logger:        log.WithField("component", "normalizer"),
	}
}

// Normalize converts the file at path into a PNG written alongside it
// and returns the PNG's path. The source file is deleted only after
// the PNG write fully succeeded, so a failure partway never loses the
// original bytes. A source that is already named *.png is re-encoded
// in place through a temp file rather than deleted.
func (n *Normalizer) Normalize(path string) (Outcome, error) {
	out := Outcome{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		out.Err = errs.NewMediaConversion(path, err)
		return out, out.Err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		out.Err = errs.NewMediaConversion(path, fmt.Errorf("decode: %w", err))
		return out, out.Err
	}

	img = applyOrientation(img, orientationOf(data))

	outPath := pngPath(path)
	if err := writePNG(outPath, img); err != nil {
		out.Err = errs.NewMediaConversion(path, err)
		return out, out.Err
	}
	out.OutPath = outPath

	if outPath != path && !n.keepOriginals {
		if err := os.Remove(path); err != nil {
			// The PNG exists; a leftover source is a nuisance, not a
			// failed conversion.
			n.logger.WithError(err).WithField("path", path).
				Warn("Failed to remove source after conversion")
		} else {
			out.Removed = true
		}
	}

	n.logger.DebugWithFields("Normalized media file", map[string]interface{}{
		"source": path,
		"output": outPath,
		"format": format,
	})
	return out, nil
}

// NormalizeAll converts the given files with bounded parallelism. Each
// file succeeds or fails on its own; one unreadable download never
// blocks its siblings. Outcomes are returned in input order.
func (n *Normalizer) NormalizeAll(paths []string) []Outcome {
	outcomes := make([]Outcome, len(paths))
	sem := make(chan struct{}, n.concurrency)
	var wg sync.WaitGroup

	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i], _ = n.Normalize(p)
		}(i, p)
	}
	wg.Wait()

	var failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		n.logger.WarnWithFields("Some media files failed normalization", map[string]interface{}{
			"total":  len(paths),
			"failed": failed,
		})
	}
	return outcomes
}

// orientationOf reads the EXIF orientation tag, returning 1 (the
// identity) when the file has no EXIF block or no such tag.
func orientationOf(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// applyOrientation bakes an EXIF orientation value into the pixels.
// Values follow the EXIF spec; imaging's rotations are
// counter-clockwise, so orientation 6 (rotate 90 CW) maps to
// Rotate270 and 8 maps to Rotate90.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// pngPath swaps the file's extension for .png, appending it when the
// name has none.
func pngPath(path string) string {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".png") {
		return path
	}
	return strings.TrimSuffix(path, ext) + ".png"
}

// writePNG encodes through a temp file in the same directory and
// renames into place, so readers never see a half-written image and an
// in-place re-encode cannot clobber its own source mid-write.
func writePNG(path string, img image.Image) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".normalize-*.png")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
