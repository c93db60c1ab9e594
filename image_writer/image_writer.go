// Package image_writer saves converted images in the supported container
// formats.
package image_writer

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"

	"pnm2img/contracts"

	"github.com/nfnt/resize"
)

// Options tune the encoders that take parameters.
type Options struct {
	JpegQuality int
	DPI         float64
}

// Extension returns the file extension, dot included, that format uses for
// img.
func Extension(format string, img image.Image) (string, error) {
	enc, ok := encoders[format]
	if !ok {
		return "", fmt.Errorf("no encoder for format %q", format)
	}
	return enc.ext(img), nil
}

var extSamples = []image.Image{
	image.NewGray(image.Rect(0, 0, 1, 1)),
	image.NewRGBA(image.Rect(0, 0, 1, 1)),
}

// Extensions returns every extension format may use, whatever the image.
func Extensions(format string) ([]string, error) {
	enc, ok := encoders[format]
	if !ok {
		return nil, fmt.Errorf("no encoder for format %q", format)
	}
	var exts []string
	for _, img := range extSamples {
		if ext := enc.ext(img); !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	return exts, nil
}

// Save encodes img in format and writes it to <img.Dir>/<img.Name><ext>. The
// file is written under a temporary name and renamed when complete, so a
// failed save leaves no partial output behind.
func Save(img contracts.Image, format string, opts Options) (string, error) {
	enc, ok := encoders[format]
	if !ok {
		return "", fmt.Errorf("no encoder for format %q", format)
	}
	path := filepath.Join(img.Dir, img.Name+enc.ext(img.Img))
	if err := writeFile(path, func(f *os.File) error {
		return enc.encode(f, img.Img, opts)
	}); err != nil {
		return "", fmt.Errorf("save %s: %w", format, err)
	}
	return path, nil
}

// SaveThumbnail writes a PNG preview of img that fits in a size x size box to
// <img.Dir>/<img.Name>-thumb.png. Images already within the box keep their
// size.
func SaveThumbnail(img contracts.Image, size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("invalid thumbnail size %d", size)
	}
	thumb := resize.Thumbnail(uint(size), uint(size), img.Img, resize.Lanczos3)
	path := filepath.Join(img.Dir, img.Name+"-thumb.png")
	if err := writeFile(path, func(f *os.File) error {
		return encodePNG(f, thumb, Options{})
	}); err != nil {
		return "", fmt.Errorf("save thumbnail: %w", err)
	}
	return path, nil
}

// writeFile writes to a uniquely named temporary file next to path and
// renames it into place.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}
	return nil
}
