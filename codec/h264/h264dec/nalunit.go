/*
DESCRIPTION
  nalunit.go provides the NAL unit header structure, as defined in section
  7.3.1 of the specification.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
  mrmod <mcmoranbjr@gmail.com>
*/

package h264dec

import (
	"github.com/pkg/errors"

	"github.com/ausocean/h264parse/codec/h264/h264dec/bits"
)

// NAL unit types, as defined in Table 7-1 of the specification. Only the
// types this package can produce a Payload for, or must recognise in order
// to report NotImplemented correctly, are named.
const (
	naluTypeSliceNonIDR        = 1
	naluTypeSliceDataPartA     = 2
	naluTypeSliceDataPartB     = 3
	naluTypeSliceDataPartC     = 4
	naluTypeSliceIDR           = 5
	naluTypeSEI                = 6
	naluTypeSPS                = 7
	naluTypePPS                = 8
	naluTypeSPSExtension       = 13
	naluTypePrefixNALU         = 14
	naluTypeSubsetSPS          = 15
	naluTypeSliceLayerExtRBSP  = 20 // SVC or MVC coded slice extension.
	naluTypeSliceLayerExt3DAVC = 21 // 3D-AVC coded slice extension.
)

// NALHeader describes a network abstraction layer unit header, as defined
// in section 7.3.1 of the specification. Field semantics are defined in
// section 7.4.1.
//
// NALHeader deliberately stops short of decoding the SVC/MVC/3D-AVC
// extension headers that may follow it (nal_unit_header_svc_extension,
// nal_unit_header_mvc_extension, nal_unit_header_3davc_extension): a NAL
// unit carrying one of those extensions is reported by parseNALHeader as
// KindNotImplemented as soon as the extension is detected, matching the
// RBSP payloads (slice data, SEI) this package also declines to decode.
type NALHeader struct {
	// forbidden_zero_bit, always 0.
	ForbiddenZeroBit uint8

	// nal_ref_idc, if not 0 indicates content of NAL contains a sequence
	// parameter set, a sequence parameter set extension, a subset sequence
	// parameter set, a picture parameter set, a slice of a reference
	// picture, a slice data partition of a reference picture, or a prefix
	// NAL preceding a slice of a reference picture.
	RefIdc uint8

	// nal_unit_type, specifies the type of RBSP data contained in the NAL
	// as defined in Table 7-1.
	Type uint8

	// svc_extension_flag, indicates that a nal_unit_header_svc_extension()
	// (G.7.3.1.1) follows, as opposed to an MVC one. Only meaningful when
	// Type is 14 or 20.
	SVCExtensionFlag bool

	// avc_3d_extension_flag, for Type == 21, indicates that a
	// nal_unit_header_3davc_extension() (J.7.3.1.1) follows, as opposed to
	// an MVC one.
	AVC3DExtensionFlag bool
}

// hasExtension reports whether a NAL unit of this Type carries an
// extension header (svc/mvc/3davc) after the one-byte base header.
func (h *NALHeader) hasExtension() bool {
	return h.Type == naluTypePrefixNALU || h.Type == naluTypeSliceLayerExtRBSP || h.Type == naluTypeSliceLayerExt3DAVC
}

// extensionNotImplemented reports the NotImplemented error for a NAL unit
// header extension, naming which one per the flag that distinguishes them.
func (h *NALHeader) extensionNotImplemented() error {
	switch {
	case h.Type == naluTypeSliceLayerExt3DAVC:
		return notImplemented(bits.UnitNal, "3D-AVC extension")
	case h.SVCExtensionFlag:
		return notImplemented(bits.UnitNal, "SVC extension")
	default:
		return notImplemented(bits.UnitNal, "MVC extension")
	}
}

// parseNALHeader reads the forbidden_zero_bit, nal_ref_idc, and
// nal_unit_type fields, plus the leading flag of any extension header, from
// br. br must be byte-aligned, per section 7.3.1; this is not itself
// checked since the only caller (NalFramer.Parse) guarantees it by
// construction.
//
// A NAL unit type carrying an extension header (14, 20, or 21) is reported
// as KindNotImplemented as soon as that extension is detected, since this
// package never decodes the SVC/MVC/3D-AVC extension fields themselves:
// this must happen here rather than in NalFramer.Parse, since reading the
// extension's leading flag leaves br 7 bits short of byte-aligned, which
// would otherwise trip Parse's byte-alignment assertion with the wrong
// error kind.
func parseNALHeader(br *bits.BitReader) (*NALHeader, error) {
	h := &NALHeader{}

	forbidden, err := br.U8(1)
	if err != nil {
		return nil, errors.Wrap(err, "could not read forbidden_zero_bit")
	}
	h.ForbiddenZeroBit = forbidden
	if h.ForbiddenZeroBit != 0 {
		return nil, errors.Wrap(
			bits.NewError(bits.KindInvalidStream, bits.UnitNal, "forbidden_zero_bit is not 0"),
			"parseNALHeader",
		)
	}

	h.RefIdc, err = br.U8(2)
	if err != nil {
		return nil, errors.Wrap(err, "could not read nal_ref_idc")
	}
	h.Type, err = br.U8(5)
	if err != nil {
		return nil, errors.Wrap(err, "could not read nal_unit_type")
	}

	if h.hasExtension() {
		if h.Type != naluTypeSliceLayerExt3DAVC {
			h.SVCExtensionFlag, err = br.Flag()
		} else {
			h.AVC3DExtensionFlag, err = br.Flag()
		}
		if err != nil {
			return nil, errors.Wrap(err, "could not read extension flag")
		}
		return nil, h.extensionNotImplemented()
	}

	return h, nil
}
