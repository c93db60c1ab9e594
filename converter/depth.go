package converter

import (
	"encoding/binary"
	"fmt"

	"pnm2img/netpbm"
)

// BitDepth is the number of bits per output channel.
type BitDepth int

const (
	Depth8  BitDepth = 8
	Depth16 BitDepth = 16
)

// MaxValue returns the largest sample value at depth b, or 0 if b is not a
// supported depth.
func (b BitDepth) MaxValue() int {
	switch b {
	case Depth8:
		return 255
	case Depth16:
		return 65535
	}
	return 0
}

// ParseBitDepth accepts 8 or 16.
func ParseBitDepth(bits int) (BitDepth, error) {
	b := BitDepth(bits)
	if b.MaxValue() == 0 {
		return 0, &ConversionError{Kind: UnsupportedDepth, Msg: fmt.Sprintf("%d bits", bits)}
	}
	return b, nil
}

// rescale maps s from [0, from] to [0, to], rounding halves up. The integer
// form (2*s*to + from) / (2*from) is exact, so from == to is the identity.
func rescale(s, from, to uint64) uint64 {
	v := (2*s*to + from) / (2 * from)
	if v > to {
		v = to
	}
	return v
}

// ConvertDepth rescales the samples of raw to the full range of depth. Bitmap
// images are inverted first, so black (1) becomes 0 and white (0) becomes the
// maximum. The result has the same shape as raw; raw is not modified.
func ConvertDepth(raw *netpbm.RawImage, depth BitDepth) (*Pixels, error) {
	target := depth.MaxValue()
	if target == 0 {
		return nil, &ConversionError{Kind: UnsupportedDepth, Msg: fmt.Sprintf("%d bits", int(depth))}
	}
	if raw.MaxValue <= 0 {
		return nil, &ConversionError{Kind: DivisionByZero, Msg: fmt.Sprintf("maxval %d", raw.MaxValue)}
	}
	if n := raw.Width * raw.Height * raw.Channels; raw.Width <= 0 || raw.Height <= 0 || len(raw.Samples) != n {
		return nil, &ConversionError{
			Kind: ShapeMismatch,
			Msg:  fmt.Sprintf("%dx%dx%d image with %d samples", raw.Width, raw.Height, raw.Channels, len(raw.Samples)),
		}
	}

	from, to := uint64(raw.MaxValue), uint64(target)
	invert := raw.Format.IsBitmap()
	bps := int(depth) / 8
	pix := make([]byte, len(raw.Samples)*bps)
	for i, s := range raw.Samples {
		v := uint64(s)
		if v > from {
			v = from
		}
		if invert {
			v = from - v
		}
		out := rescale(v, from, to)
		if bps == 1 {
			pix[i] = uint8(out)
		} else {
			binary.BigEndian.PutUint16(pix[2*i:], uint16(out))
		}
	}

	return &Pixels{
		Width:    raw.Width,
		Height:   raw.Height,
		Channels: raw.Channels,
		Depth:    depth,
		Pix:      pix,
	}, nil
}
