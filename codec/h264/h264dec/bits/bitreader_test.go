/*
DESCRIPTION
  bitreader_test.go tests the BitReader implementation.

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

import (
	"bytes"
	"testing"
)

func TestU(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		ns   []uint
		want []uint64
	}{
		{
			name: "8,8,8,8",
			buf:  []byte{0, 1, 2, 3},
			ns:   []uint{8, 8, 8, 8},
			want: []uint64{0, 1, 2, 3},
		},
		{
			name: "3,5,7,1",
			buf:  []byte{0b10010000, 0b10000001},
			ns:   []uint{3, 5, 7, 1},
			want: []uint64{0b100, 0b10000, 0b1000000, 0b1},
		},
		{
			name: "15,1",
			buf:  []byte{0b10000000, 0b00000011},
			ns:   []uint{15, 1},
			want: []uint64{0b100000000000001, 0b1},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			br := NewBitReader(bytes.NewReader(test.buf))
			for i, n := range test.ns {
				got, err := br.U(n)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != test.want[i] {
					t.Errorf("read %d: got %#b, want %#b", i, got, test.want[i])
				}
			}
		})
	}
}

func TestUe(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want uint64
	}{
		{name: "0", buf: []byte{0b10000000}, want: 0},
		{name: "1", buf: []byte{0b01000000}, want: 1},
		{name: "8", buf: []byte{0b00010010}, want: 8},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			br := NewBitReader(bytes.NewReader(test.buf))
			got, err := br.Ue()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("got %d, want %d", got, test.want)
			}
		})
	}
}

func TestSe(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want int64
	}{
		{name: "0", buf: []byte{0b10000000}, want: 0},
		{name: "1", buf: []byte{0b01000000}, want: 1},
		{name: "-1", buf: []byte{0b01100000}, want: -1},
		{name: "codeNum 2", buf: []byte{0b01100000}, want: -1}, // codeNum 2 -> -1.
		{name: "4", buf: []byte{0b00010000}, want: 4},
		{name: "-4", buf: []byte{0b00010010}, want: -4},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			br := NewBitReader(bytes.NewReader(test.buf))
			got, err := br.Se()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("got %d, want %d", got, test.want)
			}
		})
	}
}

func TestIsByteAligned(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0, 0}))
	if !br.IsByteAligned() {
		t.Fatal("expected initially byte aligned")
	}
	if _, err := br.U(1); err != nil {
		t.Fatal(err)
	}
	if br.IsByteAligned() {
		t.Fatal("expected not byte aligned after reading 1 bit")
	}
	if _, err := br.U(7); err != nil {
		t.Fatal(err)
	}
	if !br.IsByteAligned() {
		t.Fatal("expected byte aligned after completing a byte")
	}
}

func TestByteAlign(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{1, 2}))
	if _, err := br.U(1); err != nil {
		t.Fatal(err)
	}
	br.ByteAlign()
	if !br.IsByteAligned() {
		t.Fatal("expected byte aligned after ByteAlign")
	}
	n, err := br.B()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("got %d, want 2", n)
	}
}

func TestEmulationPreventionByteStripping(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0x00, 0x00, 0x03, 0x00}))
	var got []byte
	for i := 0; i < 3; i++ {
		b, err := br.B()
		if err != nil {
			t.Fatalf("unexpected error on byte %d: %v", i, err)
		}
		got = append(got, b)
	}
	want := []byte{0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReachedEndOfData(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0xff}))
	if _, err := br.B(); err != nil {
		t.Fatal(err)
	}
	if br.ReachedEndOfData() {
		t.Fatal("should not have reached end of data yet")
	}
	_, err := br.B()
	if err == nil {
		t.Fatal("expected error reading past end of data")
	}
	if !br.ReachedEndOfData() {
		t.Fatal("expected ReachedEndOfData to be true")
	}
	if kind, ok := KindOf(err); !ok || kind != KindEndOfStream {
		t.Errorf("got kind %v, ok %v, want KindEndOfStream", kind, ok)
	}
}

func TestRBSPTrailingBits(t *testing.T) {
	// 1 (stop bit), then 0s to the byte boundary.
	br := NewBitReader(bytes.NewReader([]byte{0b10000000}))
	if err := br.RBSPTrailingBits(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	br = NewBitReader(bytes.NewReader([]byte{0b00000000}))
	if err := br.RBSPTrailingBits(); err == nil {
		t.Fatal("expected error when stop bit is 0")
	}

	br = NewBitReader(bytes.NewReader([]byte{0b11000000}))
	if err := br.RBSPTrailingBits(); err == nil {
		t.Fatal("expected error when an alignment bit is 1")
	}
}

func TestMoreRBSPData(t *testing.T) {
	// One byte: a lone rbsp_trailing_bits() structure, nothing more.
	br := NewBitReader(bytes.NewReader([]byte{0b10000000}))
	more, err := br.MoreRBSPData()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if more {
		t.Error("expected no more rbsp data")
	}

	// One data bit, then trailing bits: more_rbsp_data should be true
	// before that bit is consumed.
	br = NewBitReader(bytes.NewReader([]byte{0b11000000}))
	more, err = br.MoreRBSPData()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !more {
		t.Error("expected more rbsp data")
	}
	// Consuming should still work correctly afterwards.
	flag, err := br.Flag()
	if err != nil || !flag {
		t.Fatalf("got (%v, %v), want (true, nil)", flag, err)
	}

	// A second byte entirely follows: more_rbsp_data should be true even
	// though the current byte alone looks like trailing bits.
	br = NewBitReader(bytes.NewReader([]byte{0b10000000, 0x01}))
	more, err = br.MoreRBSPData()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !more {
		t.Error("expected more rbsp data when a further byte follows")
	}
}

func TestMoreRBSPDataRequiresSeeker(t *testing.T) {
	// bytes.Buffer does not implement io.Seeker.
	br := NewBitReader(bytes.NewBufferString("\x80"))
	_, err := br.MoreRBSPData()
	if err == nil {
		t.Fatal("expected error for non-seekable source")
	}
	kind, ok := KindOf(err)
	if !ok || kind != KindIO {
		t.Errorf("got kind %v, ok %v, want KindIO", kind, ok)
	}
}
