package netpbm

import "fmt"

// ErrorKind classifies a FormatError. Each kind is itself an error, so callers
// can match with errors.Is(err, netpbm.TruncatedBody).
type ErrorKind int

const (
	UnrecognizedMagic ErrorKind = iota + 1
	MalformedHeader
	InvalidMaxValue
	SampleOutOfRange
	TruncatedBody
	MalformedBody
)

var kindNames = map[ErrorKind]string{
	UnrecognizedMagic: "unrecognized magic",
	MalformedHeader:   "malformed header",
	InvalidMaxValue:   "invalid maxval",
	SampleOutOfRange:  "sample out of range",
	TruncatedBody:     "truncated body",
	MalformedBody:     "malformed body",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) Error() string {
	return "netpbm: " + k.String()
}

// A FormatError reports that the input is not a valid Netpbm stream.
// Offset is the byte position at which the problem was detected.
type FormatError struct {
	Kind   ErrorKind
	Offset int64
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	s := fmt.Sprintf("netpbm: %s at byte %d", e.Kind, e.Offset)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}
