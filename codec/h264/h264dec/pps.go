/*
DESCRIPTION
  pps.go implements parsing of the picture parameter set RBSP syntax
  structure, as defined in section 7.3.2.2 of the specification.

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

// PPS describes a picture parameter set, as defined in section 7.3.2.2 of
// the specification. Streams with more than one slice group, or a picture
// scaling matrix, are reported as KindNotImplemented: the slice group map
// and scaling matrix syntax structures are not decoded.
type PPS struct {
	// pic_parameter_set_id identifies this PPS for reference by a slice
	// header.
	PicParameterSetID uint8

	// seq_parameter_set_id refers to the active sequence parameter set.
	SeqParameterSetID uint8

	// entropy_coding_mode_flag selects the entropy coding method: CAVLC
	// when false, CABAC when true.
	EntropyCodingModeFlag bool

	// bottom_field_pic_order_in_frame_present_flag, as defined in section
	// 7.4.2.2.
	BottomFieldPicOrderInFramePresentFlag bool

	// num_slice_groups_minus1 specifies the number of slice groups for a
	// picture. Only 0 (a single slice group) is supported.
	NumSliceGroupsMinus1 uint8

	// num_ref_idx_l0_default_active_minus1 and
	// num_ref_idx_l1_default_active_minus1 specify default reference
	// index counts. Range: 0 to 31 each.
	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8

	// weighted_pred_flag and weighted_bipred_idc select the weighted
	// prediction method applied to P/SP and B slices respectively.
	WeightedPredFlag    bool
	WeightedBipredIDC   uint8

	// pic_init_qp_minus26 and pic_init_qs_minus26 specify initial
	// quantisation parameters. Range: -26 to 25 each.
	PicInitQPMinus26 int8
	PicInitQSMinus26 int8

	// chroma_qp_index_offset specifies the offset added to the luma
	// quantisation parameter to derive the chroma one. Range: -12 to 12.
	ChromaQPIndexOffset int8

	// deblocking_filter_control_present_flag, constrained_intra_pred_flag,
	// and redundant_pic_cnt_present_flag, as defined in section 7.4.2.2.
	DeblockingFilterControlPresentFlag bool
	ConstrainedIntraPredFlag           bool
	RedundantPicCntPresentFlag         bool

	// The following three fields are present only when more_rbsp_data()
	// indicates the PPS extension is included in the stream; they default
	// to false/0 otherwise.
	Transform8x8ModeFlag          bool
	PicScalingMatrixPresentFlag   bool
	SecondChromaQPIndexOffset     int8
}

// String implements Payload.
func (p *PPS) String() string { return "Picture parameter set" }

// NewPPS parses a picture parameter set RBSP from br, following the syntax
// structure of section 7.3.2.2.
func NewPPS(br *bits.BitReader) (*PPS, error) {
	p := &PPS{}

	var err error
	p.PicParameterSetID, err = br.Ue8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read pic_parameter_set_id")
	}
	p.SeqParameterSetID, err = br.Ue8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read seq_parameter_set_id")
	}
	p.EntropyCodingModeFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read entropy_coding_mode_flag")
	}
	p.BottomFieldPicOrderInFramePresentFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read bottom_field_pic_order_in_frame_present_flag")
	}

	p.NumSliceGroupsMinus1, err = br.Ue8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read num_slice_groups_minus1")
	}
	if p.NumSliceGroupsMinus1 > 0 {
		return nil, notImplemented(bits.UnitPPS, "slice groups")
	}

	p.NumRefIdxL0DefaultActiveMinus1, err = br.Ue8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read num_ref_idx_l0_default_active_minus1")
	}
	if p.NumRefIdxL0DefaultActiveMinus1 > 31 {
		return nil, ppsErr("num_ref_idx_l0_default_active_minus1 out of range")
	}
	p.NumRefIdxL1DefaultActiveMinus1, err = br.Ue8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read num_ref_idx_l1_default_active_minus1")
	}
	if p.NumRefIdxL1DefaultActiveMinus1 > 31 {
		return nil, ppsErr("num_ref_idx_l1_default_active_minus1 out of range")
	}

	p.WeightedPredFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read weighted_pred_flag")
	}
	p.WeightedBipredIDC, err = br.U8(2)
	if err != nil {
		return nil, errors.Wrap(err, "could not read weighted_bipred_idc")
	}

	p.PicInitQPMinus26, err = br.Se8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read pic_init_qp_minus26")
	}
	if p.PicInitQPMinus26 < -26 || p.PicInitQPMinus26 > 25 {
		return nil, ppsErr("pic_init_qp_minus26 out of range")
	}
	p.PicInitQSMinus26, err = br.Se8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read pic_init_qs_minus26")
	}
	if p.PicInitQSMinus26 < -26 || p.PicInitQSMinus26 > 25 {
		return nil, ppsErr("pic_init_qs_minus26 out of range")
	}
	p.ChromaQPIndexOffset, err = br.Se8()
	if err != nil {
		return nil, errors.Wrap(err, "could not read chroma_qp_index_offset")
	}
	if p.ChromaQPIndexOffset < -12 || p.ChromaQPIndexOffset > 12 {
		return nil, ppsErr("chroma_qp_index_offset out of range")
	}

	p.DeblockingFilterControlPresentFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read deblocking_filter_control_present_flag")
	}
	p.ConstrainedIntraPredFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read constrained_intra_pred_flag")
	}
	p.RedundantPicCntPresentFlag, err = br.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "could not read redundant_pic_cnt_present_flag")
	}

	more, err := br.MoreRBSPData()
	if err != nil {
		return nil, errors.Wrap(err, "could not check more_rbsp_data")
	}
	if more {
		p.Transform8x8ModeFlag, err = br.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "could not read transform_8x8_mode_flag")
		}
		p.PicScalingMatrixPresentFlag, err = br.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "could not read pic_scaling_matrix_present_flag")
		}
		if p.PicScalingMatrixPresentFlag {
			return nil, notImplemented(bits.UnitPPS, "pic scaling matrix")
		}
		p.SecondChromaQPIndexOffset, err = br.Se8()
		if err != nil {
			return nil, errors.Wrap(err, "could not read second_chroma_qp_index_offset")
		}
	}

	if err := br.RBSPTrailingBits(); err != nil {
		return nil, errors.Wrap(err, "could not read rbsp_trailing_bits")
	}

	return p, nil
}

func ppsErr(description string) error {
	return errors.Wrap(bits.NewError(bits.KindInvalidStream, bits.UnitPPS, description), "NewPPS")
}
