/*
DESCRIPTION
  errors.go provides the typed error taxonomy used throughout the bits
  package and the h264dec package that sits on top of it, so callers can
  distinguish failure kinds without matching on error text.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bits

import "fmt"

// Kind identifies the category of a parser error.
type Kind int

const (
	// KindEndOfStream indicates the bit reader ran out of input while
	// honouring a read request.
	KindEndOfStream Kind = iota

	// KindIO indicates the underlying io.Reader (or io.Seeker, for
	// MoreRBSPData) returned an unexpected error.
	KindIO

	// KindOverflow indicates a decoded value (fixed-width or Exp-Golomb)
	// does not fit in the destination integer type.
	KindOverflow

	// KindInvalidStream indicates a syntax element violated a constraint
	// the bitstream is required to satisfy.
	KindInvalidStream

	// KindNotImplemented indicates a syntactically valid element this
	// module intentionally does not decode.
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindEndOfStream:
		return "end of stream"
	case KindIO:
		return "I/O error"
	case KindOverflow:
		return "overflow"
	case KindInvalidStream:
		return "invalid stream"
	case KindNotImplemented:
		return "not implemented"
	default:
		return "unknown"
	}
}

// Unit names the parser component an Error originated from.
type Unit int

const (
	UnitBitReader Unit = iota
	UnitNal
	UnitSPS
	UnitPPS
)

func (u Unit) String() string {
	switch u {
	case UnitBitReader:
		return "bitreader"
	case UnitNal:
		return "nal"
	case UnitSPS:
		return "sps"
	case UnitPPS:
		return "pps"
	default:
		return "unknown"
	}
}

// Error is the error type raised by this package and by h264dec. Callers
// should use KindOf to inspect the failure category rather than comparing
// Error strings.
type Error struct {
	Kind        Kind
	Unit        Unit
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s: %s", e.Unit, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Unit, e.Kind, e.Description)
}

// NewError constructs an *Error.
func NewError(kind Kind, unit Unit, description string) *Error {
	return &Error{Kind: kind, Unit: unit, Description: description}
}

// KindOf returns the Kind of err if err is, or wraps (via github.com/pkg/errors
// Cause chaining), an *Error produced by this module, and ok == true.
// Otherwise it returns ok == false.
func KindOf(err error) (kind Kind, ok bool) {
	type causer interface{ Cause() error }
	for err != nil {
		if e, match := err.(*Error); match {
			return e.Kind, true
		}
		c, match := err.(causer)
		if !match {
			break
		}
		err = c.Cause()
	}
	return 0, false
}
