// Package varint implements the file format's variable-length integers.
//
// A varint is 1 to 9 bytes, most significant group first. Each of the first
// eight bytes contributes its low 7 bits and sets the high bit when another
// byte follows; a ninth byte contributes all 8 bits.
package varint

import (
	"github.com/FocuswithJustin/litereader/core/errors"
)

// MaxLen is the longest encoding.
const MaxLen = 9

// Decode reads the varint starting at buf[offset] and returns its value and
// encoded length. A buffer that ends before the varint terminates yields an
// ErrMalformedVarint error carrying offset.
func Decode(buf []byte, offset int) (uint64, int, error) {
	if offset < 0 || offset >= len(buf) {
		return 0, 0, errors.NewCorruption(errors.ErrMalformedVarint, 0, offset, "offset beyond buffer of %d bytes", len(buf))
	}
	p := buf[offset:]

	// 1 and 2 byte forms cover nearly every cell header.
	if p[0] < 0x80 {
		return uint64(p[0]), 1, nil
	}
	if len(p) > 1 && p[1] < 0x80 {
		return uint64(p[0]&0x7f)<<7 | uint64(p[1]), 2, nil
	}

	var v uint64
	for i := 0; i < MaxLen; i++ {
		if i >= len(p) {
			return 0, 0, errors.NewCorruption(errors.ErrMalformedVarint, 0, offset, "buffer exhausted after %d bytes", i)
		}
		if i == MaxLen-1 {
			return v<<8 | uint64(p[i]), MaxLen, nil
		}
		v = v<<7 | uint64(p[i]&0x7f)
		if p[i]&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	// unreachable: the ninth byte always terminates
	return v, MaxLen, nil
}

// DecodeInt is Decode with the value reinterpreted as a two's complement
// int64, as used for rowids.
func DecodeInt(buf []byte, offset int) (int64, int, error) {
	v, n, err := Decode(buf, offset)
	return int64(v), n, err
}

// Put writes v to p, which must have room for Len(v) bytes, and returns the
// number of bytes written. The reader never writes varints; Put exists to
// build fixtures.
func Put(p []byte, v uint64) int {
	if v <= 0x7f {
		p[0] = byte(v)
		return 1
	}
	if v&(uint64(0xff000000)<<32) != 0 {
		p[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			p[i] = byte(v&0x7f) | 0x80
			v >>= 7
		}
		return 9
	}

	n := Len(v)
	for i := n - 1; i >= 0; i-- {
		b := byte(v & 0x7f)
		if i != n-1 {
			b |= 0x80
		}
		p[i] = b
		v >>= 7
	}
	return n
}

// Append appends the encoding of v to dst.
func Append(dst []byte, v uint64) []byte {
	var buf [MaxLen]byte
	n := Put(buf[:], v)
	return append(dst, buf[:n]...)
}

// Len returns the number of bytes required to encode v.
func Len(v uint64) int {
	switch {
	case v <= 0x7f:
		return 1
	case v <= 0x3fff:
		return 2
	case v <= 0x1fffff:
		return 3
	case v <= 0xfffffff:
		return 4
	case v <= 0x7ffffffff:
		return 5
	case v <= 0x3ffffffffff:
		return 6
	case v <= 0x1ffffffffffff:
		return 7
	case v <= 0xffffffffffffff:
		return 8
	}
	return 9
}
