package converter

import (
	"errors"
	"fmt"
)

// ErrOutputConflict marks a file whose outputs would overwrite those of an
// earlier file in the same batch, or another input.
var ErrOutputConflict = errors.New("output name conflict")

// ConversionErrorKind classifies a ConversionError.
type ConversionErrorKind int

const (
	DivisionByZero ConversionErrorKind = iota + 1
	UnsupportedDepth
	ShapeMismatch
)

func (k ConversionErrorKind) String() string {
	switch k {
	case DivisionByZero:
		return "division by zero"
	case UnsupportedDepth:
		return "unsupported depth"
	case ShapeMismatch:
		return "shape mismatch"
	}
	return fmt.Sprintf("ConversionErrorKind(%d)", int(k))
}

func (k ConversionErrorKind) Error() string {
	return "convert: " + k.String()
}

// A ConversionError reports a RawImage that cannot be converted. Given an
// image produced by netpbm.Decode it indicates a bug, not bad input.
type ConversionError struct {
	Kind ConversionErrorKind
	Msg  string
}

func (e *ConversionError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Msg
}

func (e *ConversionError) Unwrap() error {
	return e.Kind
}
