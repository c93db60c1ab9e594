package netpbm

import "math"

type header struct {
	width    int
	height   int
	maxValue int
}

func (d *decoder) readDimension(name string) (int, error) {
	t, err := d.readToken()
	if err != nil {
		return 0, d.readErr(err, MalformedHeader, "missing %s", name)
	}
	switch {
	case t.digits == 0:
		return 0, d.errorf(MalformedHeader, t.offset, "expected %s", name)
	case t.overflow:
		return 0, d.errorf(MalformedHeader, t.offset, "%s too large", name)
	case t.value == 0:
		return 0, d.errorf(MalformedHeader, t.offset, "%s must be positive", name)
	}
	return t.value, nil
}

// readHeader reads width, height and, when f has one, maxval. The final token
// must be followed by exactly one whitespace byte; the body starts right after.
func (d *decoder) readHeader(f Format) (header, error) {
	var h header
	var err error
	if h.width, err = d.readDimension("width"); err != nil {
		return header{}, err
	}
	if h.height, err = d.readDimension("height"); err != nil {
		return header{}, err
	}
	if h.width > math.MaxInt/h.height/f.Channels {
		return header{}, d.errorf(MalformedHeader, d.off, "image too large: %dx%d", h.width, h.height)
	}

	h.maxValue = 1
	if f.HasMaxValue {
		t, err := d.readToken()
		if err != nil {
			return header{}, d.readErr(err, MalformedHeader, "missing maxval")
		}
		if t.digits == 0 {
			return header{}, d.errorf(MalformedHeader, t.offset, "expected maxval")
		}
		if t.overflow || t.value < 1 || t.value > 65535 {
			return header{}, d.errorf(InvalidMaxValue, t.offset, "maxval must be in [1, 65535]")
		}
		h.maxValue = t.value
	}

	b, err := d.readByte()
	if err != nil {
		return header{}, d.readErr(err, MalformedHeader, "header not terminated")
	}
	if !isSpace(b) {
		return header{}, d.errorf(MalformedHeader, d.off-1, "expected whitespace after header, got %q", b)
	}
	return h, nil
}
