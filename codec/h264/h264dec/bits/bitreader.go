/*
DESCRIPTION
  bitreader.go provides a bit reader implementation over an io.Reader data
  source, with transparent removal of H.264 emulation prevention bytes and
  decoding of Exp-Golomb codes, as required to parse Annex B NAL unit RBSP
  payloads.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a bit reader implementation that can read from an
// io.Reader data source, stripping H.264 emulation prevention bytes and
// decoding Exp-Golomb codes as it goes.
package bits

import (
	"io"

	"github.com/pkg/errors"
)

// ReaderOption configures a BitReader at construction time.
type ReaderOption func(*BitReader)

// WithSeeker forces MoreRBSPData to use s for the lookahead it requires,
// instead of asserting the BitReader's own io.Reader as an io.Seeker. This
// is useful when the source passed to NewBitReader no longer exposes Seek
// itself, e.g. because it's wrapped by an io.LimitReader.
func WithSeeker(s io.Seeker) ReaderOption {
	return func(br *BitReader) { br.seeker = s }
}

// BitReader reads individual bits, Exp-Golomb codes, and byte-aligned
// fields from an io.Reader, transparently removing emulation prevention
// bytes (0x00 0x00 0x03 -> 0x00 0x00) as specified by H.264 Annex B.
//
// The zero value is not usable; construct with NewBitReader.
type BitReader struct {
	r      io.Reader
	seeker io.Seeker // non-nil if r (or an override) supports Seek; used by MoreRBSPData.

	cur       byte // current byte being consumed, unconsumed bits held at the MSB end.
	validBits uint8

	numZeroes uint8 // count of consecutive 0x00 bytes seen, for EPB detection.

	pos uint64 // number of raw bytes pulled from r so far.

	eod bool // true once a read past the end of r has been observed.
}

// NewBitReader returns a BitReader that consumes bits from r.
func NewBitReader(r io.Reader, opts ...ReaderOption) *BitReader {
	br := &BitReader{r: r}
	if s, ok := r.(io.Seeker); ok {
		br.seeker = s
	}
	for _, opt := range opts {
		opt(br)
	}
	return br
}

func ioErr(err error) error {
	return errors.Wrap(NewError(KindIO, UnitBitReader, err.Error()), "bitreader")
}

// ensure pulls the next raw byte from r into cur/validBits if the current
// byte has already been fully consumed, stripping an emulation prevention
// byte (the 0x03 of a 0x00 0x00 0x03 sequence) inline as it goes.
func (br *BitReader) ensure() error {
	if br.validBits > 0 {
		return nil
	}

	var buf [1]byte
	n, err := br.r.Read(buf[:])
	if n == 1 {
		b := buf[0]
		br.pos++
		if br.numZeroes == 2 && b == 0x03 {
			br.numZeroes = 0
			return br.ensure()
		}
		if b == 0x00 {
			br.numZeroes++
		} else {
			br.numZeroes = 0
		}
		br.cur = b
		br.validBits = 8
		return nil
	}
	if err == nil || err == io.EOF {
		br.eod = true
		return NewError(KindEndOfStream, UnitBitReader, "no more bits")
	}
	return ioErr(err)
}

// U reads n (0 <= n <= 64) bits and returns them as an unsigned integer,
// most-significant bit first. This implements the u(n) descriptor of
// H.264 section 9.1.
func (br *BitReader) U(n uint) (uint64, error) {
	if n > 64 {
		return 0, errors.Wrap(NewError(KindOverflow, UnitBitReader, "u(n): n > 64"), "U")
	}

	var u uint64
	remaining := n
	for remaining > 0 {
		if err := br.ensure(); err != nil {
			return 0, err
		}
		if uint8(remaining) >= br.validBits {
			muted := 8 - br.validBits
			u <<= br.validBits
			u |= uint64(br.cur >> muted)
			remaining -= uint(br.validBits)
			br.validBits = 0
		} else {
			muted := 8 - uint8(remaining)
			u <<= remaining
			u |= uint64(br.cur >> muted)
			br.cur <<= uint8(remaining)
			br.validBits -= uint8(remaining)
			remaining = 0
		}
	}
	return u, nil
}

// U32 reads n (0 <= n <= 32) bits, returning a KindOverflow error if the
// value does not fit in a uint32.
func (br *BitReader) U32(n uint) (uint32, error) {
	if n > 32 {
		return 0, errors.Wrap(NewError(KindOverflow, UnitBitReader, "u(n): n > 32"), "U32")
	}
	u, err := br.U(n)
	if err != nil {
		return 0, err
	}
	const max = 1<<32 - 1
	if u > max {
		return 0, errors.Wrap(NewError(KindOverflow, UnitBitReader, "u32 overflow"), "U32")
	}
	return uint32(u), nil
}

// U8 reads n (0 <= n <= 8) bits, returning a KindOverflow error if the
// value does not fit in a uint8.
func (br *BitReader) U8(n uint) (uint8, error) {
	if n > 8 {
		return 0, errors.Wrap(NewError(KindOverflow, UnitBitReader, "u(n): n > 8"), "U8")
	}
	u, err := br.U(n)
	if err != nil {
		return 0, err
	}
	const max = 1<<8 - 1
	if u > max {
		return 0, errors.Wrap(NewError(KindOverflow, UnitBitReader, "u8 overflow"), "U8")
	}
	return uint8(u), nil
}

// B reads a single byte (the b(8) descriptor).
func (br *BitReader) B() (byte, error) {
	return br.U8(8)
}

// Flag reads a single bit and returns it as a bool, as used for the
// numerous u(1) flag fields throughout the syntax tables.
func (br *BitReader) Flag() (bool, error) {
	u, err := br.U(1)
	if err != nil {
		return false, err
	}
	return u == 1, nil
}

// Ue reads an unsigned Exp-Golomb code (the ue(v) descriptor of H.264
// section 9.1) and returns codeNum.
func (br *BitReader) Ue() (uint64, error) {
	var leadingZeroes uint
	for {
		bit, err := br.U(1)
		if err != nil {
			return 0, err
		}
		if bit == 1 {
			break
		}
		leadingZeroes++
	}

	suffix, err := br.U(leadingZeroes)
	if err != nil {
		return 0, err
	}

	return (uint64(1)<<leadingZeroes - 1) + suffix, nil
}

// Ue32 reads a ue(v) code, returning a KindOverflow error if codeNum does
// not fit in a uint32.
func (br *BitReader) Ue32() (uint32, error) {
	u, err := br.Ue()
	if err != nil {
		return 0, err
	}
	const max = 1<<32 - 1
	if u > max {
		return 0, errors.Wrap(NewError(KindOverflow, UnitBitReader, "ue32 overflow"), "Ue32")
	}
	return uint32(u), nil
}

// Ue8 reads a ue(v) code, returning a KindOverflow error if codeNum does
// not fit in a uint8.
func (br *BitReader) Ue8() (uint8, error) {
	u, err := br.Ue()
	if err != nil {
		return 0, err
	}
	const max = 1<<8 - 1
	if u > max {
		return 0, errors.Wrap(NewError(KindOverflow, UnitBitReader, "ue8 overflow"), "Ue8")
	}
	return uint8(u), nil
}

// Se reads a signed Exp-Golomb code (the se(v) descriptor of H.264 section
// 9.1.1) and returns its mapped value: codeNum 0,1,2,3,4... maps to
// 0,1,-1,2,-2...
func (br *BitReader) Se() (int64, error) {
	codeNum, err := br.Ue()
	if err != nil {
		return 0, err
	}
	half := int64((codeNum + 1) / 2)
	if codeNum%2 == 1 {
		return half, nil
	}
	return -half, nil
}

// Se8 reads an se(v) code, returning a KindOverflow error if the mapped
// value does not fit in an int8.
func (br *BitReader) Se8() (int8, error) {
	s, err := br.Se()
	if err != nil {
		return 0, err
	}
	if s > 127 || s < -128 {
		return 0, errors.Wrap(NewError(KindOverflow, UnitBitReader, "se8 overflow"), "Se8")
	}
	return int8(s), nil
}

// IsByteAligned reports whether the next bit to be read starts a new byte.
func (br *BitReader) IsByteAligned() bool {
	return br.validBits == 0 || br.validBits == 8
}

// ByteAlign discards any partially consumed byte, so the next read starts
// on a byte boundary.
func (br *BitReader) ByteAlign() {
	br.validBits = 0
}

// ReachedEndOfData reports whether a read has ever failed because the
// underlying source was exhausted.
func (br *BitReader) ReachedEndOfData() bool {
	return br.eod
}

// BytesRead returns the number of raw bytes pulled from the underlying
// io.Reader so far, including any emulation prevention bytes that were
// stripped.
func (br *BitReader) BytesRead() uint64 {
	return br.pos
}

// RBSPTrailingBits consumes the rbsp_trailing_bits() syntax structure of
// H.264 section 7.3.2.11: a single stop bit of 1, followed by zero or more
// 0 bits up to the next byte boundary. It returns a KindInvalidStream
// error if the stop bit isn't 1, or if a later bit before alignment isn't
// 0.
func (br *BitReader) RBSPTrailingBits() error {
	stop, err := br.Flag()
	if err != nil {
		return err
	}
	if !stop {
		return errors.Wrap(
			NewError(KindInvalidStream, UnitBitReader, "rbsp_stop_one_bit is not 1"),
			"RBSPTrailingBits",
		)
	}
	for !br.IsByteAligned() {
		b, err := br.Flag()
		if err != nil {
			return err
		}
		if b {
			return errors.Wrap(
				NewError(KindInvalidStream, UnitBitReader, "rbsp_alignment_zero_bit is not 0"),
				"RBSPTrailingBits",
			)
		}
	}
	return nil
}

// MoreRBSPData implements the more_rbsp_data() function of H.264 section
// 7.2: it reports whether any bits remain before the rbsp_trailing_bits()
// that terminates every RBSP, i.e. whether the remainder of the stream is
// something other than exactly a single set stop bit followed by zero
// bits to the end.
//
// It requires the source passed to NewBitReader (or overridden with
// WithSeeker) to implement io.Seeker, since it must look ahead to the end
// of the stream without consuming it; KindIO is returned when that's not
// available.
func (br *BitReader) MoreRBSPData() (bool, error) {
	if br.seeker == nil {
		return false, errors.Wrap(
			NewError(KindIO, UnitBitReader, "underlying reader is not seekable"),
			"MoreRBSPData",
		)
	}
	if br.eod {
		return false, nil
	}

	curPos, err := br.seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, ioErr(err)
	}
	end, err := br.seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return false, ioErr(err)
	}
	defer br.seeker.Seek(curPos, io.SeekStart)

	var tail []byte
	if n := end - curPos; n > 0 {
		reader, ok := br.seeker.(io.Reader)
		if !ok {
			return false, errors.Wrap(
				NewError(KindIO, UnitBitReader, "seeker does not also implement io.Reader"),
				"MoreRBSPData",
			)
		}
		if _, err := br.seeker.Seek(curPos, io.SeekStart); err != nil {
			return false, ioErr(err)
		}
		tail = make([]byte, n)
		if _, err := io.ReadFull(reader, tail); err != nil {
			return false, ioErr(err)
		}
	}

	bit := func(i int) byte {
		if i < int(br.validBits) {
			return (br.cur >> (7 - uint8(i))) & 1
		}
		i -= int(br.validBits)
		return (tail[i/8] >> (7 - uint(i%8))) & 1
	}

	total := int(br.validBits) + 8*len(tail)
	if total == 0 {
		return false, nil
	}
	if bit(0) != 1 {
		return true, nil
	}
	for i := 1; i < total; i++ {
		if bit(i) != 0 {
			return true, nil
		}
	}
	return false, nil
}
