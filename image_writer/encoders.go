package image_writer

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"pnm2img/pdf_writer"

	"github.com/disintegration/imaging"
	pnm "github.com/jbuchbinder/gopnm"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type encoder struct {
	ext    func(img image.Image) string
	encode func(w io.Writer, img image.Image, opts Options) error
}

func fixedExt(ext string) func(image.Image) string {
	return func(image.Image) string { return ext }
}

// encoders is keyed by the canonical names in contracts.OutputFormats.
var encoders = map[string]encoder{
	"png":  {fixedExt(".png"), encodePNG},
	"jpg":  {fixedExt(".jpg"), encodeJPEG},
	"bmp":  {fixedExt(".bmp"), encodeBMP},
	"tiff": {fixedExt(".tiff"), encodeTIFF},
	"pnm":  {pnmExt, encodePNM},
	"pdf":  {fixedExt(".pdf"), encodePDF},
}

// PNG and TIFF keep 16-bit samples; JPEG and BMP reduce them to 8 bits.

func encodePNG(w io.Writer, img image.Image, _ Options) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

func encodeJPEG(w io.Writer, img image.Image, opts Options) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(opts.JpegQuality))
}

func encodeBMP(w io.Writer, img image.Image, _ Options) error {
	return bmp.Encode(w, img)
}

func encodeTIFF(w io.Writer, img image.Image, _ Options) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

func isGray(img image.Image) bool {
	m := img.ColorModel()
	return m == color.GrayModel || m == color.Gray16Model
}

func pnmExt(img image.Image) string {
	if isGray(img) {
		return ".pgm"
	}
	return ".ppm"
}

// encodePNM writes binary PGM or PPM with maxval 255 or 65535 matching the
// image depth.
func encodePNM(w io.Writer, img image.Image, _ Options) error {
	if isGray(img) {
		return pnm.Encode(w, img, pnm.PGM)
	}
	return pnm.Encode(w, img, pnm.PPM)
}

func encodePDF(w io.Writer, img image.Image, opts Options) error {
	pw, err := pdf_writer.NewPDFWriter(w)
	if err != nil {
		return err
	}
	if err := pw.WriteImage(img, opts.DPI); err != nil {
		return err
	}
	return pw.Finish()
}
