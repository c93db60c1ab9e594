package netpbm

import "encoding/binary"

// chunkSize is the read granularity for binary bodies.
const chunkSize = 64 * 1024

func initialCap(n int) int {
	return min(n, maxInitialSamples)
}

func (d *decoder) readSamples(f Format, h header) ([]uint16, error) {
	n := h.width * h.height * f.Channels
	switch f.Magic {
	case '1':
		return d.readPlainBits(n)
	case '2', '3':
		return d.readPlainSamples(n, h.maxValue)
	case '4':
		return d.readPackedBits(h.width, h.height)
	case '5', '6':
		return d.readRawSamples(n, h.maxValue)
	}
	return nil, d.errorf(UnrecognizedMagic, 0, "unknown format %s", f)
}

// readPlainSamples reads n decimal tokens (P2, P3).
func (d *decoder) readPlainSamples(n, maxValue int) ([]uint16, error) {
	samples := make([]uint16, 0, initialCap(n))
	for len(samples) < n {
		t, err := d.readToken()
		if err != nil {
			return nil, d.readErr(err, TruncatedBody, "got %d of %d samples", len(samples), n)
		}
		if t.digits == 0 {
			b, _ := d.readByte()
			return nil, d.errorf(MalformedBody, t.offset, "unexpected byte %q in sample %d", b, len(samples))
		}
		if t.overflow || t.value > maxValue {
			return nil, d.errorf(SampleOutOfRange, t.offset, "sample %d exceeds maxval %d", len(samples), maxValue)
		}
		samples = append(samples, uint16(t.value))
	}
	return samples, nil
}

// readPlainBits reads n P1 pixels. Each pixel is a single '0' or '1'; the
// separators between pixels are optional.
func (d *decoder) readPlainBits(n int) ([]uint16, error) {
	samples := make([]uint16, 0, initialCap(n))
	for len(samples) < n {
		if err := d.skipSeparators(); err != nil {
			return nil, d.readErr(err, TruncatedBody, "got %d of %d pixels", len(samples), n)
		}
		b, err := d.readByte()
		if err != nil {
			return nil, d.readErr(err, TruncatedBody, "got %d of %d pixels", len(samples), n)
		}
		switch {
		case b == '0' || b == '1':
			samples = append(samples, uint16(b-'0'))
		case isDigit(b):
			return nil, d.errorf(SampleOutOfRange, d.off-1, "bitmap pixel %d is %q", len(samples), b)
		default:
			return nil, d.errorf(MalformedBody, d.off-1, "unexpected byte %q in pixel %d", b, len(samples))
		}
	}
	return samples, nil
}

// readRawSamples reads n fixed-width samples (P5, P6): one byte each when
// maxValue fits in a byte, otherwise two bytes, most significant first.
func (d *decoder) readRawSamples(n, maxValue int) ([]uint16, error) {
	bps := 1
	if maxValue > 255 {
		bps = 2
	}
	samples := make([]uint16, 0, initialCap(n))
	buf := make([]byte, min(n, chunkSize/bps)*bps)
	for remaining := n; remaining > 0; {
		m := min(remaining, len(buf)/bps)
		chunk := buf[:m*bps]
		start := d.off
		if err := d.readFull(chunk); err != nil {
			return nil, d.readErr(err, TruncatedBody, "got %d of %d samples", len(samples), n)
		}
		for i := 0; i < m; i++ {
			var v uint16
			if bps == 1 {
				v = uint16(chunk[i])
			} else {
				v = binary.BigEndian.Uint16(chunk[2*i:])
			}
			if int(v) > maxValue {
				return nil, d.errorf(SampleOutOfRange, start+int64(i*bps), "sample %d is %d, maxval %d", len(samples), v, maxValue)
			}
			samples = append(samples, v)
		}
		remaining -= m
	}
	return samples, nil
}

// readPackedBits reads a P4 body: 8 pixels per byte, most significant bit
// first, each row padded to a whole byte. Padding bits are ignored.
func (d *decoder) readPackedBits(width, height int) ([]uint16, error) {
	rowBytes := (width + 7) / 8
	samples := make([]uint16, 0, initialCap(width*height))
	buf := make([]byte, min(rowBytes, chunkSize))
	for y := 0; y < height; y++ {
		x := 0
		for left := rowBytes; left > 0; {
			chunk := buf[:min(left, len(buf))]
			if err := d.readFull(chunk); err != nil {
				return nil, d.readErr(err, TruncatedBody, "row %d of %d incomplete", y, height)
			}
			for _, b := range chunk {
				for bit := 7; bit >= 0 && x < width; bit-- {
					samples = append(samples, uint16(b>>uint(bit))&1)
					x++
				}
			}
			left -= len(chunk)
		}
	}
	return samples, nil
}
