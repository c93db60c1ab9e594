package image_writer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pnm2img/contracts"
	"pnm2img/netpbm"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage(t *testing.T, img image.Image) contracts.Image {
	t.Helper()
	return contracts.Image{
		Name:   "sample-16bit",
		Dir:    t.TempDir(),
		Source: "sample.pgm",
		Depth:  16,
		Img:    img,
	}
}

func gray16(w, h int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(x*4099 + y*257)})
		}
	}
	return img
}

func TestEveryOutputFormatHasEncoder(t *testing.T) {
	for _, f := range contracts.OutputFormats {
		_, ok := encoders[f]
		require.True(t, ok, "format %s", f)
	}
}

func TestSaveKeeps16Bit(t *testing.T) {
	src := gray16(5, 3)

	t.Run("png", func(t *testing.T) {
		path, err := Save(testImage(t, src), "png", Options{})
		require.NoError(t, err)
		require.Equal(t, ".png", filepath.Ext(path))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		got, err := png.Decode(f)
		require.NoError(t, err)
		g16, ok := got.(*image.Gray16)
		require.True(t, ok, "decoded %T", got)
		require.Equal(t, src.Pix, g16.Pix)
	})

	t.Run("tiff", func(t *testing.T) {
		path, err := Save(testImage(t, src), "tiff", Options{})
		require.NoError(t, err)

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		got, err := tiff.Decode(f)
		require.NoError(t, err)
		g16, ok := got.(*image.Gray16)
		require.True(t, ok, "decoded %T", got)
		require.Equal(t, src.Pix, g16.Pix)
	})

	t.Run("pnm", func(t *testing.T) {
		path, err := Save(testImage(t, src), "pnm", Options{})
		require.NoError(t, err)
		require.Equal(t, ".pgm", filepath.Ext(path))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		raw, err := netpbm.Decode(f)
		require.NoError(t, err)
		require.Equal(t, netpbm.RawPGM, raw.Format)
		require.Equal(t, 65535, raw.MaxValue)
		for i, s := range raw.Samples {
			require.Equal(t, src.Gray16At(i%5, i/5).Y, s, "sample %d", i)
		}
	})
}

func TestSaveReducingFormats(t *testing.T) {
	src := image.NewRGBA64(image.Rect(0, 0, 6, 4))
	for i := 0; i < len(src.Pix); i += 8 {
		copy(src.Pix[i:], []byte{0xff, 0xff, 0x80, 0x00, 0x00, 0x00, 0xff, 0xff})
	}

	t.Run("jpg", func(t *testing.T) {
		path, err := Save(testImage(t, src), "jpg", Options{JpegQuality: 90})
		require.NoError(t, err)
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		got, err := jpeg.Decode(f)
		require.NoError(t, err)
		require.Equal(t, src.Bounds(), got.Bounds())
	})

	t.Run("bmp", func(t *testing.T) {
		path, err := Save(testImage(t, src), "bmp", Options{})
		require.NoError(t, err)
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		got, err := bmp.Decode(f)
		require.NoError(t, err)
		require.Equal(t, src.Bounds(), got.Bounds())
		r, g, b, _ := got.At(2, 1).RGBA()
		require.Equal(t, []uint32{0xffff, 0x8080, 0}, []uint32{r, g, b})
	})

	t.Run("pnm uses ppm for color", func(t *testing.T) {
		path, err := Save(testImage(t, src), "pnm", Options{})
		require.NoError(t, err)
		require.Equal(t, ".ppm", filepath.Ext(path))
	})
}

func TestSavePDF(t *testing.T) {
	path, err := Save(testImage(t, gray16(10, 10)), "pdf", Options{DPI: 72})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-1.7")))
	require.True(t, bytes.Contains(data, []byte("/BitsPerComponent 16")))
}

func TestExtensions(t *testing.T) {
	exts, err := Extensions("pnm")
	require.NoError(t, err)
	require.Equal(t, []string{".pgm", ".ppm"}, exts)

	exts, err = Extensions("png")
	require.NoError(t, err)
	require.Equal(t, []string{".png"}, exts)

	_, err = Extensions("gif")
	require.Error(t, err)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	img := testImage(t, gray16(3, 3))
	path, err := Save(img, "png", Options{})
	require.NoError(t, err)
	_, err = Save(img, "png", Options{})
	require.NoError(t, err)

	entries, err := os.ReadDir(img.Dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, filepath.Base(path), entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestSaveErrors(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		_, err := Save(testImage(t, gray16(1, 1)), "gif", Options{})
		require.Error(t, err)
	})

	t.Run("failed encode leaves nothing behind", func(t *testing.T) {
		img := testImage(t, gray16(2, 2))
		_, err := Save(img, "pdf", Options{DPI: 0})
		require.Error(t, err)
		entries, err := os.ReadDir(img.Dir)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("missing directory", func(t *testing.T) {
		img := testImage(t, gray16(2, 2))
		img.Dir = filepath.Join(img.Dir, "absent")
		_, err := Save(img, "png", Options{})
		require.Error(t, err)
	})
}

func TestSaveThumbnail(t *testing.T) {
	t.Run("shrinks to fit", func(t *testing.T) {
		img := testImage(t, gray16(40, 20))
		path, err := SaveThumbnail(img, 10)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(img.Dir, "sample-16bit-thumb.png"), path)

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		cfg, err := png.DecodeConfig(f)
		require.NoError(t, err)
		require.Equal(t, 10, cfg.Width)
		require.Equal(t, 5, cfg.Height)
	})

	t.Run("small images keep their size", func(t *testing.T) {
		img := testImage(t, gray16(4, 3))
		path, err := SaveThumbnail(img, 10)
		require.NoError(t, err)
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		cfg, err := png.DecodeConfig(f)
		require.NoError(t, err)
		require.Equal(t, 4, cfg.Width)
		require.Equal(t, 3, cfg.Height)
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := SaveThumbnail(testImage(t, gray16(4, 3)), 0)
		require.Error(t, err)
	})
}
