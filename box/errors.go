package box

import (
	"errors"
	"fmt"
)

// Code is one of the symbolic result codes a box/descriptor operation can
// fail with.
type Code int

const (
	// CodeFailure is an unclassified failure.
	CodeFailure Code = iota
	// CodeNotEnoughData means a read ran past the bound of its stream or
	// substream.
	CodeNotEnoughData
	// CodeInvalidFormat means the on-wire shape of a box or descriptor could
	// not be interpreted (bad size accounting, truncated header, ...).
	CodeInvalidFormat
	// CodeInvalidParameters means a caller-supplied argument was rejected.
	CodeInvalidParameters
	// CodeOutOfRange means an index or position argument had no valid target.
	CodeOutOfRange
	// CodeInvalidRtpConstructorType means an RTP hint constructor's type byte
	// was not one of the four recognized values.
	CodeInvalidRtpConstructorType
)

func (c Code) String() string {
	switch c {
	case CodeNotEnoughData:
		return "NOT_ENOUGH_DATA"
	case CodeInvalidFormat:
		return "INVALID_FORMAT"
	case CodeInvalidParameters:
		return "INVALID_PARAMETERS"
	case CodeOutOfRange:
		return "OUT_OF_RANGE"
	case CodeInvalidRtpConstructorType:
		return "INVALID_RTP_CONSTRUCTOR_TYPE"
	default:
		return "FAILURE"
	}
}

// AtomError is the chained, code-carrying error returned by box and
// descriptor operations. It plays the same role as the teacher's
// mp4io.ParseError chain, but walks via errors.Unwrap instead of a bespoke
// prev pointer.
type AtomError struct {
	Code   Code
	Debug  string
	Offset int64
	prev   error
}

func (e *AtomError) Error() string {
	if e.prev == nil {
		return fmt.Sprintf("box: %s: %s at offset %d", e.Code, e.Debug, e.Offset)
	}
	return fmt.Sprintf("box: %s: %s at offset %d: %v", e.Code, e.Debug, e.Offset, e.prev)
}

func (e *AtomError) Unwrap() error {
	return e.prev
}

func newErr(code Code, debug string, offset int64, prev error) error {
	return &AtomError{Code: code, Debug: debug, Offset: offset, prev: prev}
}

// CodeOf extracts the Code carried by err, if any, defaulting to
// CodeFailure for an error that isn't an *AtomError.
func CodeOf(err error) Code {
	var ae *AtomError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeFailure
}
