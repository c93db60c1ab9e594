package netpbm

// Encoding is the body encoding of a Netpbm variant.
type Encoding int

const (
	ASCII Encoding = iota
	Binary
)

func (e Encoding) String() string {
	if e == Binary {
		return "binary"
	}
	return "ascii"
}

// Format describes one of the six Netpbm variants. Bitmap variants carry no
// maxval field; their maxval is fixed at 1.
type Format struct {
	Magic       byte
	Encoding    Encoding
	Channels    int
	HasMaxValue bool
}

var (
	PlainPBM = Format{Magic: '1', Encoding: ASCII, Channels: 1}
	PlainPGM = Format{Magic: '2', Encoding: ASCII, Channels: 1, HasMaxValue: true}
	PlainPPM = Format{Magic: '3', Encoding: ASCII, Channels: 3, HasMaxValue: true}
	RawPBM   = Format{Magic: '4', Encoding: Binary, Channels: 1}
	RawPGM   = Format{Magic: '5', Encoding: Binary, Channels: 1, HasMaxValue: true}
	RawPPM   = Format{Magic: '6', Encoding: Binary, Channels: 3, HasMaxValue: true}
)

var formats = [...]Format{PlainPBM, PlainPGM, PlainPPM, RawPBM, RawPGM, RawPPM}

func formatFor(digit byte) (Format, bool) {
	if digit < '1' || digit > '6' {
		return Format{}, false
	}
	return formats[digit-'1'], true
}

// IsBitmap reports whether f is P1 or P4. Bitmap samples use 1 for black.
func (f Format) IsBitmap() bool {
	return !f.HasMaxValue
}

// String returns the magic token, e.g. "P5".
func (f Format) String() string {
	if f.Magic == 0 {
		return "P?"
	}
	return "P" + string(f.Magic)
}

// Name returns the conventional file type: pbm, pgm or ppm.
func (f Format) Name() string {
	switch {
	case f.IsBitmap():
		return "pbm"
	case f.Channels == 3:
		return "ppm"
	default:
		return "pgm"
	}
}
