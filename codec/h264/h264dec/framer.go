/*
DESCRIPTION
  framer.go locates Annex B start codes in a byte stream and extracts the
  RBSP payload of each NAL unit, as defined in Annex B of the
  specification.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264dec

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ausocean/h264parse/codec/h264/h264dec/bits"
	"github.com/ausocean/utils/logging"
)

// Log describes a function signature required by h264dec for the purpose
// of logging. A nil Log is a silent no-op.
type Log func(lvl int8, msg string, args ...interface{})

// Payload is the decoded body of a NAL unit. *SPS and *PPS implement it;
// slice, SEI, and extension payloads are recognised by Dispatch but never
// produce a Payload, surfacing instead as a KindNotImplemented error.
type Payload interface {
	fmt.Stringer
}

// NalFramer locates NAL unit start codes in an Annex B byte stream and
// frames the unit header and RBSP payload between them.
//
// NalFramer carries no state of its own beyond optional diagnostics
// logging; all position tracking lives in the bits.BitReader passed to
// Next and Parse, so a single NalFramer can walk multiple independent
// streams (sequentially, not concurrently: a bits.BitReader has no
// internal locking).
type NalFramer struct {
	// Log, if non-nil, receives debug-level tracing of NAL boundaries and
	// non-fatal diagnostics (e.g. trailing RBSP bytes left unconsumed by a
	// payload parser).
	Log Log
}

func (f *NalFramer) log(lvl int8, msg string, args ...interface{}) {
	if f.Log != nil {
		f.Log(lvl, msg, args...)
	}
}

// Next advances br to just past the next Annex B start code (0x000001 or
// 0x00000001), byte-aligning br first. Next returns (true, nil) once
// positioned at the start of a NAL unit header, or (false, nil) if the
// stream was exhausted before a start code was found. A non-nil error
// indicates an I/O failure from the underlying reader.
func (f *NalFramer) Next(br *bits.BitReader) (bool, error) {
	var numZeroes int
	br.ByteAlign()
	for {
		b, err := br.B()
		if err != nil {
			if kind, ok := bits.KindOf(err); ok && kind == bits.KindEndOfStream {
				return false, nil
			}
			return false, errors.Wrap(err, "Next")
		}
		switch b {
		case 0x00:
			numZeroes++
		case 0x01:
			if numZeroes == 2 || numZeroes == 3 {
				f.log(logging.Debug, "found start code")
				return true, nil
			}
			numZeroes = 0
		default:
			numZeroes = 0
		}
	}
}

// Parse reads one NAL unit header and its RBSP payload from br, which must
// be positioned immediately after a start code (as Next leaves it) and
// byte-aligned. It returns the header and the de-escaped RBSP bytes (with
// emulation prevention bytes already stripped by the bits.BitReader, and
// the trailing start-code-prefix zero bytes of the next unit, if any,
// trimmed off).
func (f *NalFramer) Parse(br *bits.BitReader) (*NALHeader, []byte, error) {
	if !br.IsByteAligned() {
		return nil, nil, errors.Wrap(
			bits.NewError(bits.KindInvalidStream, bits.UnitNal, "not byte aligned at start of nal"),
			"Parse",
		)
	}

	header, err := parseNALHeader(br)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Parse")
	}

	if !br.IsByteAligned() {
		return nil, nil, errors.Wrap(
			bits.NewError(bits.KindInvalidStream, bits.UnitNal, "not byte aligned at start of nal rbsp"),
			"Parse",
		)
	}

	var rbsp []byte
	var numZeroes int
	for {
		b, err := br.B()
		if err != nil {
			if kind, ok := bits.KindOf(err); ok && kind == bits.KindEndOfStream {
				break
			}
			return nil, nil, errors.Wrap(err, "Parse")
		}
		switch b {
		case 0x00:
			numZeroes++
		case 0x01:
			if numZeroes == 2 || numZeroes == 3 {
				rbsp = rbsp[:len(rbsp)-numZeroes]
				return header, rbsp, nil
			}
			numZeroes = 0
		default:
			numZeroes = 0
		}
		rbsp = append(rbsp, b)
	}

	return header, rbsp, nil
}
