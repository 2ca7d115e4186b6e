/*
DESCRIPTION
  pps_test.go tests parsing of picture parameter sets.

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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/h264parse/codec/h264/h264dec/bits"
)

// A minimal valid PPS: all ids/offsets 0, single slice group, no trailing
// PPS extension fields, terminated by rbsp_trailing_bits().
var basicPPS = []byte{0xCE, 0x38, 0x80}

func TestNewPPSBasic(t *testing.T) {
	br := bits.NewBitReader(bytes.NewReader(basicPPS))
	got, err := NewPPS(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &PPS{}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewPPS() mismatch (-want +got):\n%s", diff)
	}
}

// Same as basicPPS but with the more_rbsp_data()-gated PPS extension
// fields present: transform_8x8_mode_flag 1, pic_scaling_matrix_present_flag
// 0, second_chroma_qp_index_offset 0.
var extendedPPS = []byte{0xCE, 0x38, 0xB0}

func TestNewPPSExtensionFields(t *testing.T) {
	br := bits.NewBitReader(bytes.NewReader(extendedPPS))
	got, err := NewPPS(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Transform8x8ModeFlag {
		t.Error("expected Transform8x8ModeFlag true")
	}
	if got.PicScalingMatrixPresentFlag {
		t.Error("expected PicScalingMatrixPresentFlag false")
	}
	if got.SecondChromaQPIndexOffset != 0 {
		t.Errorf("SecondChromaQPIndexOffset = %d, want 0", got.SecondChromaQPIndexOffset)
	}
}

// Same as extendedPPS but with pic_scaling_matrix_present_flag 1, which
// this package does not decode.
var scalingMatrixPPS = []byte{0xCE, 0x38, 0xC0}

func TestNewPPSScalingMatrixNotImplemented(t *testing.T) {
	br := bits.NewBitReader(bytes.NewReader(scalingMatrixPPS))
	_, err := NewPPS(br)
	if err == nil {
		t.Fatal("expected error")
	}
	kind, ok := bits.KindOf(err)
	if !ok || kind != bits.KindNotImplemented {
		t.Errorf("got kind %v, ok %v, want KindNotImplemented", kind, ok)
	}
}

// num_slice_groups_minus1 1 (i.e. 2 slice groups), which this package does
// not decode.
var sliceGroupsPPS = []byte{0xC4}

func TestNewPPSSliceGroupsNotImplemented(t *testing.T) {
	br := bits.NewBitReader(bytes.NewReader(sliceGroupsPPS))
	_, err := NewPPS(br)
	if err == nil {
		t.Fatal("expected error")
	}
	kind, ok := bits.KindOf(err)
	if !ok || kind != bits.KindNotImplemented {
		t.Errorf("got kind %v, ok %v, want KindNotImplemented", kind, ok)
	}
}
