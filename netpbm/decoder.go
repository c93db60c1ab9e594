// Package netpbm reads the Netpbm family of image formats (PBM, PGM, PPM) in
// both their plain (ASCII) and raw (binary) forms.
//
// Format reference: https://netpbm.sourceforge.net/doc/pbm.html, pgm.html, ppm.html
//
// The decoder produces a RawImage: the samples exactly as declared by the file,
// before any depth normalization.
package netpbm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// maxInitialSamples bounds the up-front allocation so a header that lies
// about its size cannot force a huge allocation before the body is read.
const maxInitialSamples = 1 << 20

type decoder struct {
	r   *bufio.Reader
	off int64
}

func newDecoder(r io.Reader) *decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &decoder{r: br}
}

func (d *decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err == nil {
		d.off++
	}
	return b, err
}

func (d *decoder) unreadByte() {
	if d.r.UnreadByte() == nil {
		d.off--
	}
}

func (d *decoder) readFull(p []byte) error {
	n, err := io.ReadFull(d.r, p)
	d.off += int64(n)
	return err
}

func (d *decoder) errorf(kind ErrorKind, off int64, format string, args ...any) error {
	return &FormatError{Kind: kind, Offset: off, Msg: fmt.Sprintf(format, args...)}
}

// readErr turns a read failure into a FormatError of the given kind when the
// stream simply ran out, and passes other I/O errors through.
func (d *decoder) readErr(err error, kind ErrorKind, format string, args ...any) error {
	if isEOF(err) {
		return &FormatError{Kind: kind, Offset: d.off, Msg: fmt.Sprintf(format, args...), Err: io.ErrUnexpectedEOF}
	}
	return fmt.Errorf("netpbm: read at byte %d: %w", d.off, err)
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Config is the header information of a Netpbm stream.
type Config struct {
	Format   Format
	Width    int
	Height   int
	MaxValue int
}

// DecodeConfig returns the format and dimensions of a Netpbm image without
// reading its body.
func DecodeConfig(r io.Reader) (Config, error) {
	d := newDecoder(r)
	f, err := d.readMagic()
	if err != nil {
		return Config{}, err
	}
	h, err := d.readHeader(f)
	if err != nil {
		return Config{}, err
	}
	return Config{Format: f, Width: h.width, Height: h.height, MaxValue: h.maxValue}, nil
}

// Decode reads a complete Netpbm image from r. Bytes after the body are left
// unread. On error no image is returned.
func Decode(r io.Reader) (*RawImage, error) {
	d := newDecoder(r)
	f, err := d.readMagic()
	if err != nil {
		return nil, err
	}
	h, err := d.readHeader(f)
	if err != nil {
		return nil, err
	}
	samples, err := d.readSamples(f, h)
	if err != nil {
		return nil, err
	}
	return &RawImage{
		Format:   f,
		Width:    h.width,
		Height:   h.height,
		Channels: f.Channels,
		MaxValue: h.maxValue,
		Samples:  samples,
	}, nil
}
