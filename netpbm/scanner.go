package netpbm

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// readMagic reads the two-byte magic token and the single whitespace byte
// that must follow it.
func (d *decoder) readMagic() (Format, error) {
	var magic [2]byte
	if err := d.readFull(magic[:]); err != nil {
		if isEOF(err) {
			return Format{}, d.errorf(UnrecognizedMagic, 0, "stream too short for magic")
		}
		return Format{}, d.readErr(err, UnrecognizedMagic, "")
	}
	if magic[0] != 'P' {
		return Format{}, d.errorf(UnrecognizedMagic, 0, "got %q", magic[:])
	}
	f, ok := formatFor(magic[1])
	if !ok {
		return Format{}, d.errorf(UnrecognizedMagic, 0, "got %q", magic[:])
	}
	b, err := d.readByte()
	if err != nil {
		return Format{}, d.readErr(err, MalformedHeader, "missing whitespace after %s", f)
	}
	if !isSpace(b) {
		return Format{}, d.errorf(MalformedHeader, d.off-1, "expected whitespace after %s, got %q", f, b)
	}
	return f, nil
}

// skipSeparators consumes whitespace and comments. A comment runs from '#' to
// the end of the line. It returns io.EOF if the stream ends first.
func (d *decoder) skipSeparators() error {
	for {
		b, err := d.readByte()
		if err != nil {
			return err
		}
		switch {
		case b == '#':
			if err := d.skipComment(); err != nil {
				return err
			}
		case isSpace(b):
		default:
			d.unreadByte()
			return nil
		}
	}
}

func (d *decoder) skipComment() error {
	for {
		b, err := d.readByte()
		if err != nil {
			return err
		}
		if b == '\n' || b == '\r' {
			return nil
		}
	}
}

// maxToken is the largest value a header or sample token may hold.
const maxToken = 1<<31 - 1

type token struct {
	value    int
	digits   int
	overflow bool
	offset   int64
}

// readToken skips separators and reads a maximal run of ASCII digits. A token
// with no digits means the next byte is neither a separator nor a digit; that
// byte is left unread.
func (d *decoder) readToken() (token, error) {
	if err := d.skipSeparators(); err != nil {
		return token{offset: d.off}, err
	}
	t := token{offset: d.off}
	for {
		b, err := d.readByte()
		if err != nil {
			if t.digits > 0 {
				return t, nil
			}
			return t, err
		}
		if !isDigit(b) {
			d.unreadByte()
			return t, nil
		}
		t.digits++
		if t.overflow {
			continue
		}
		digit := int(b - '0')
		if t.value > (maxToken-digit)/10 {
			t.overflow = true
		} else {
			t.value = t.value*10 + digit
		}
	}
}
