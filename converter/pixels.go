package converter

import (
	"encoding/binary"
	"image"
)

// Pixels is a depth-normalized raster: row-major, channel-interleaved samples,
// one byte each at 8 bits or two big-endian bytes each at 16 bits.
type Pixels struct {
	Width    int
	Height   int
	Channels int
	Depth    BitDepth
	Pix      []byte
}

// Sample returns sample i as an unsigned value in [0, p.Depth.MaxValue()].
func (p *Pixels) Sample(i int) int {
	if p.Depth == Depth16 {
		return int(binary.BigEndian.Uint16(p.Pix[2*i:]))
	}
	return int(p.Pix[i])
}

// Image exposes p as an image.Image without rescaling. Gray rasters share
// p.Pix; RGB rasters are copied into an opaque RGBA layout.
func (p *Pixels) Image() image.Image {
	r := image.Rect(0, 0, p.Width, p.Height)
	n := p.Width * p.Height
	switch {
	case p.Channels == 1 && p.Depth == Depth8:
		return &image.Gray{Pix: p.Pix, Stride: p.Width, Rect: r}
	case p.Channels == 1:
		return &image.Gray16{Pix: p.Pix, Stride: 2 * p.Width, Rect: r}
	case p.Depth == Depth8:
		img := image.NewRGBA(r)
		for i := 0; i < n; i++ {
			copy(img.Pix[4*i:4*i+3], p.Pix[3*i:3*i+3])
			img.Pix[4*i+3] = 0xff
		}
		return img
	default:
		img := image.NewRGBA64(r)
		for i := 0; i < n; i++ {
			copy(img.Pix[8*i:8*i+6], p.Pix[6*i:6*i+6])
			img.Pix[8*i+6] = 0xff
			img.Pix[8*i+7] = 0xff
		}
		return img
	}
}
