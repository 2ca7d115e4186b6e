/*
DESCRIPTION
  dispatch.go routes a NAL unit's RBSP bytes to the matching payload parser
  based on nal_unit_type, per Table 7-1 of the specification.

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
	"bytes"
	"fmt"

	"github.com/ausocean/h264parse/codec/h264/h264dec/bits"
	"github.com/ausocean/utils/logging"
)

func notImplemented(unit bits.Unit, description string) error {
	return bits.NewError(bits.KindNotImplemented, unit, description)
}

// Dispatch decodes the RBSP payload of a NAL unit described by header,
// routing to the SPS or PPS parser as appropriate. Slice data, SEI, the
// SPS extension, subset SPS, and 3D-AVC/SVC/MVC payloads are recognised but
// return a KindNotImplemented error, per the specification's scope.
//
// In the Next/Parse/Dispatch pipeline, a header carrying an extension
// never reaches here: parseNALHeader already fails with KindNotImplemented
// as soon as it detects one. This check remains for callers that build a
// NALHeader directly rather than obtaining one from Parse.
func (f *NalFramer) Dispatch(header *NALHeader, rbsp []byte) (Payload, error) {
	if header.hasExtension() {
		return nil, header.extensionNotImplemented()
	}

	br := bits.NewBitReader(bytes.NewReader(rbsp))

	var payload Payload
	var err error
	switch header.Type {
	case naluTypeSliceNonIDR:
		err = notImplemented(bits.UnitNal, "slice data non-IDR")
	case naluTypeSliceDataPartA:
		err = notImplemented(bits.UnitNal, "slice data A partition")
	case naluTypeSliceDataPartB:
		err = notImplemented(bits.UnitNal, "slice data B partition")
	case naluTypeSliceDataPartC:
		err = notImplemented(bits.UnitNal, "slice data C partition")
	case naluTypeSliceIDR:
		err = notImplemented(bits.UnitNal, "slice data IDR")
	case naluTypeSEI:
		err = notImplemented(bits.UnitNal, "SEI")
	case naluTypeSPS:
		payload, err = NewSPS(br)
	case naluTypeSPSExtension:
		err = notImplemented(bits.UnitNal, "SPS extension")
	case naluTypeSubsetSPS:
		err = notImplemented(bits.UnitNal, "subset SPS")
	case naluTypePPS:
		payload, err = NewPPS(br)
	default:
		err = notImplemented(bits.UnitNal, fmt.Sprintf("unknown nal_unit_type %d", header.Type))
	}
	if err != nil {
		return nil, err
	}

	if pos, length := br.BytesRead(), uint64(len(rbsp)); pos < length {
		f.log(logging.Debug, "not all rbsp data consumed", "consumed", pos, "length", length)
	}

	return payload, nil
}
