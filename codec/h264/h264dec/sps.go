/*
DESCRIPTION
  sps.go implements parsing of the sequence parameter set RBSP syntax
  structure, as defined in section 7.3.2.1.1 of the specification.

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
	"github.com/pkg/errors"

	"github.com/ausocean/h264parse/codec/h264/h264dec/bits"
)

// profileHasChromaInfo lists the profile_idc values for which
// chroma_format_idc and the bit depth/scaling-matrix fields are present in
// the sequence parameter set, per the "if" condition of section
// 7.3.2.1.1.
var profileHasChromaInfo = map[uint8]bool{
	100: true, 110: true, 122: true, 244: true, 44: true,
	83: true, 86: true, 118: true, 128: true, 138: true,
	139: true, 134: true, 135: true,
}

// SPS describes a sequence parameter set, as defined in section 7.3.2.1.1
// of the specification. Scaling matrices and VUI parameters are not
// decoded: a stream that signals either is reported as
// KindNotImplemented.
type SPS struct {
	// profile_idc and level_idc indicate the profile and level to which
	// the coded video sequence conforms.
	ProfileIDC uint8
	LevelIDC   uint8

	// The constraint_setX_flag flags specify the constraints of Annex A
	// this stream conforms to.
	ConstraintSet0Flag bool
	ConstraintSet1Flag bool
	ConstraintSet2Flag bool
	ConstraintSet3Flag bool
	ConstraintSet4Flag bool
	ConstraintSet5Flag bool

	// seq_parameter_set_id identifies this SPS for reference by a PPS.
	// Range: 0 to 31.
	SeqParameterSetID uint8

	// chroma_format_idc specifies the chroma sampling relative to the luma
	// sampling, per section 6.2. Defaults to 1 (4:2:0) when profile_idc
	// doesn't carry this field explicitly. Range: 0 to 3.
	ChromaFormatIDC uint8

	// separate_colour_plane_flag, if true, specifies that the three
	// components of 4:4:4 chroma are coded separately. Only present when
	// ChromaFormatIDC == 3.
	SeparateColourPlaneFlag bool

	// bit_depth_luma_minus8 and bit_depth_chroma_minus8 specify the luma
	// and chroma sample bit depths. Range: 0 to 6 each.
	BitDepthLumaMinus8   uint8
	BitDepthChromaMinus8 uint8

	// qpprime_y_zero_transform_bypass_flag, as defined in section 7.4.2.1.1.
	QPPrimeYZeroTransformBypassFlag bool

	// seq_scaling_matrix_present_flag, if true, means this SPS carries a
	// scaling matrix, which is not supported: such a stream is reported as
	// KindNotImplemented before this flag value is ever observed by a
	// caller.
	SeqScalingMatrixPresentFlag bool

	// log2_max_frame_num_minus4 allows derivation of MaxFrameNum (eq. 7-10).
	// Range: 0 to 12.
	Log2MaxFrameNumMinus4 uint32

	// pic_order_cnt_type specifies the method used to decode picture order
	// count. Range: 0 to 2.
	PicOrderCntType uint8

	// log2_max_pic_order_cnt_lsb_minus4 allows derivation of
	// MaxPicOrderCntLsb (eq. 7-11). Present only when PicOrderCntType == 0.
	Log2MaxPicOrderCntLsbMinus4 uint8

	// The following five fields are present only when PicOrderCntType == 1.
	DeltaPicOrderAlwaysZeroFlag    bool
	OffsetForNonRefPic             int64
	OffsetForTopToBottomField      int64
	NumRefFramesInPicOrderCntCycle uint8
	OffsetForRefFrame              []int64

	// max_num_ref_frames specifies the maximum number of short-term and
	// long-term reference frames.
	MaxNumRefFrames uint8

	// gaps_in_frame_num_value_allowed_flag specifies the allowed values of
	// frame_num in the slice headers of the coded video sequence.
	GapsInFrameNumValueAllowedFlag bool

	// pic_width_in_mbs_minus1 and pic_height_in_map_units_minus1 specify
	// the width and height of a decoded frame, in macroblock units.
	PicWidthInMbsMinus1       uint32
	PicHeightInMapUnitsMinus1 uint32

	// frame_mbs_only_flag, if true, indicates every coded picture is a
	// coded frame comprising a picture of frame macroblocks.
	FrameMBSOnlyFlag bool

	// mb_adaptive_frame_field_flag, if true, indicates this stream may
	// switch between frame and field macroblocks within a picture
	// (MBAFF). Present only when FrameMBSOnlyFlag is false; the
	// specification's own worked text gates this on
	// !FrameMBSOnlyFlag (field pictures are the ones that can be MBAFF,
	// not frame-only ones), which this parser follows.
	MBAdaptiveFrameFieldFlag bool

	// direct_8x8_inference_flag specifies the method used to derive motion
	// vectors for B_Skip/B_Direct_16x16/B_Direct_8x8.
	Direct8x8InferenceFlag bool

	// frame_cropping_flag and the four offsets below specify a cropping
	// rectangle applied to the decoded picture.
	FrameCroppingFlag      bool
	FrameCropLeftOffset    uint32
	FrameCropRightOffset   uint32
	FrameCropTopOffset     uint32
	FrameCropBottomOffset  uint32

	// vui_parameters_present_flag, if true, means this SPS carries VUI
	// parameters, which are not supported: such a stream is reported as
	// KindNotImplemented before this flag value is ever observed by a
	// caller.
	VUIParametersPresentFlag bool
}

// String implements Payload.
func (s *SPS) String() string { return "Sequence parameter set" }

// NewSPS parses a sequence parameter set RBSP from br, following the
// syntax structure of section 7.3.2.1.1.
func NewSPS(br *bits.BitReader) (*SPS, error) {
	s := &SPS{ChromaFormatIDC: 1} // 4:2:0 is the default when unsignalled.

	var err error
	s.ProfileIDC, err = br.B()
	if err != nil {
		return nil, errors.Wrap(err, "could not read profile_idc")
	}
	for _, flag := range []*bool{
		&s.ConstraintSet0Flag, &s.ConstraintSet1Flag, &s.ConstraintSet2Flag,
		&s.ConstraintSet3Flag, &s.ConstraintSet4Flag, &s.ConstraintSet5Flag,
	} {
		*flag, err = br.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "could not read constraint_setX_flag")
		}
	}

	reservedZero2Bits, err := br.U8(2)
	if err != nil {
		return nil, errors.Wrap(err, "could not read reserved_zero_2bits")
	}
	if reservedZero2Bits != 0 {
		return nil, spsErr("reserved_zero_2bits is not 0")
	}

	s.LevelIDC, err = br.B()
	if err != nil {
		return nil, errors.Wrap(err, "could not read level_idc")
	}

	s.SeqParameterSetID, err = br.Ue8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read seq_parameter_set_id")
	}
	if s.SeqParameterSetID > 31 {
		return nil, spsErr("seq_parameter_set_id out of range")
	}

	if profileHasChromaInfo[s.ProfileIDC] {
		s.ChromaFormatIDC, err = br.Ue8()
		if err != nil {
			return nil, errors.Wrap(err, "could not read chroma_format_idc")
		}
		if s.ChromaFormatIDC > 3 {
			return nil, spsErr("chroma_format_idc out of range")
		}
		if s.ChromaFormatIDC == 3 {
			s.SeparateColourPlaneFlag, err = br.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "could not read separate_colour_plane_flag")
			}
		}

		s.BitDepthLumaMinus8, err = br.Ue8()
		if err != nil {
			return nil, errors.Wrap(err, "could not read bit_depth_luma_minus8")
		}
		if s.BitDepthLumaMinus8 > 6 {
			return nil, spsErr("bit_depth_luma_minus8 out of range")
		}

		s.BitDepthChromaMinus8, err = br.Ue8()
		if err != nil {
			return nil, errors.Wrap(err, "could not read bit_depth_chroma_minus8")
		}
		if s.BitDepthChromaMinus8 > 6 {
			return nil, spsErr("bit_depth_chroma_minus8 out of range")
		}

		s.QPPrimeYZeroTransformBypassFlag, err = br.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "could not read qpprime_y_zero_transform_bypass_flag")
		}

		s.SeqScalingMatrixPresentFlag, err = br.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "could not read seq_scaling_matrix_present_flag")
		}
		if s.SeqScalingMatrixPresentFlag {
			return nil, notImplemented(bits.UnitSPS, "seq scaling matrix")
		}
	}

	s.Log2MaxFrameNumMinus4, err = br.Ue32()
	if err != nil {
		return nil, errors.Wrap(err, "could not read log2_max_frame_num_minus4")
	}
	if s.Log2MaxFrameNumMinus4 > 12 {
		return nil, spsErr("log2_max_frame_num_minus4 out of range")
	}

	s.PicOrderCntType, err = br.Ue8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read pic_order_cnt_type")
	}
	switch s.PicOrderCntType {
	case 0:
		s.Log2MaxPicOrderCntLsbMinus4, err = br.Ue8()
		if err != nil {
			return nil, errors.Wrap(err, "could not read log2_max_pic_order_cnt_lsb_minus4")
		}
	case 1:
		s.DeltaPicOrderAlwaysZeroFlag, err = br.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "could not read delta_pic_order_always_zero_flag")
		}
		s.OffsetForNonRefPic, err = br.Se()
		if err != nil {
			return nil, errors.Wrap(err, "could not read offset_for_non_ref_pic")
		}
		s.OffsetForTopToBottomField, err = br.Se()
		if err != nil {
			return nil, errors.Wrap(err, "could not read offset_for_top_to_bottom_field")
		}
		s.NumRefFramesInPicOrderCntCycle, err = br.Ue8()
		if err != nil {
			return nil, errors.Wrap(err, "could not read num_ref_frames_in_pic_order_cnt_cycle")
		}
		s.OffsetForRefFrame = make([]int64, s.NumRefFramesInPicOrderCntCycle)
		for i := range s.OffsetForRefFrame {
			s.OffsetForRefFrame[i], err = br.Se()
			if err != nil {
				return nil, errors.Wrap(err, "could not read offset_for_ref_frame")
			}
		}
	case 2:
		// Nothing further to read; picture order count is derived solely
		// from frame_num, per section 8.2.1.3.
	default:
		return nil, spsErr("pic_order_cnt_type out of range")
	}

	s.MaxNumRefFrames, err = br.Ue8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read max_num_ref_frames")
	}
	s.GapsInFrameNumValueAllowedFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read gaps_in_frame_num_value_allowed_flag")
	}
	s.PicWidthInMbsMinus1, err = br.Ue32()
	if err != nil {
		return nil, errors.Wrap(err, "could not read pic_width_in_mbs_minus1")
	}
	s.PicHeightInMapUnitsMinus1, err = br.Ue32()
	if err != nil {
		return nil, errors.Wrap(err, "could not read pic_height_in_map_units_minus1")
	}
	s.FrameMBSOnlyFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read frame_mbs_only_flag")
	}
	if !s.FrameMBSOnlyFlag {
		s.MBAdaptiveFrameFieldFlag, err = br.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "could not read mb_adaptive_frame_field_flag")
		}
	}
	s.Direct8x8InferenceFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read direct_8x8_inference_flag")
	}

	s.FrameCroppingFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read frame_cropping_flag")
	}
	if s.FrameCroppingFlag {
		for _, field := range []*uint32{
			&s.FrameCropLeftOffset, &s.FrameCropRightOffset,
			&s.FrameCropTopOffset, &s.FrameCropBottomOffset,
		} {
			*field, err = br.Ue32()
			if err != nil {
				return nil, errors.Wrap(err, "could not read frame_crop_offset")
			}
		}
	}

	s.VUIParametersPresentFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read vui_parameters_present_flag")
	}
	if s.VUIParametersPresentFlag {
		return nil, notImplemented(bits.UnitSPS, "vui parameters")
	}

	if !s.FrameMBSOnlyFlag && !s.Direct8x8InferenceFlag {
		return nil, spsErr("direct_8x8_inference_flag must be 1 when frame_mbs_only_flag is 0")
	}

	return s, nil
}

func spsErr(description string) error {
	return errors.Wrap(bits.NewError(bits.KindInvalidStream, bits.UnitSPS, description), "NewSPS")
}
