// Package record decodes row and index-key payloads into typed values.
//
// A record is a header followed by a body. The header starts with a varint
// giving the header length in bytes (including itself), then one varint
// serial type per column. Column bodies follow the header in the same
// order:
//
//	0       NULL
//	1..6    big-endian signed integer of 1, 2, 3, 4, 6 or 8 bytes
//	7       IEEE 754 float64, big-endian
//	8, 9    the integer constants 0 and 1, no body bytes
//	10, 11  reserved, rejected
//	N>=12   even: BLOB of (N-12)/2 bytes, odd: TEXT of (N-13)/2 bytes
package record

import (
	"encoding/binary"
	"math"

	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/varint"
)

// SerialType is a record header type code.
type SerialType uint64

const (
	SerialTypeNull    SerialType = 0
	SerialTypeInt8    SerialType = 1
	SerialTypeInt16   SerialType = 2
	SerialTypeInt24   SerialType = 3
	SerialTypeInt32   SerialType = 4
	SerialTypeInt48   SerialType = 5
	SerialTypeInt64   SerialType = 6
	SerialTypeFloat64 SerialType = 7
	SerialTypeZero    SerialType = 8
	SerialTypeOne     SerialType = 9
)

// MaxValueLen is the largest body a single text or blob value can have.
const MaxValueLen = math.MaxInt32

var intWidths = [...]int{0, 1, 2, 3, 4, 6, 8}

// Len returns the number of body bytes a value of this type occupies.
func (t SerialType) Len() (int, error) {
	switch {
	case t <= SerialTypeInt64:
		return intWidths[t], nil
	case t == SerialTypeFloat64:
		return 8, nil
	case t == SerialTypeZero || t == SerialTypeOne:
		return 0, nil
	case t == 10 || t == 11:
		return 0, errors.NewCorruption(errors.ErrUnsupportedSerialType, 0, -1, "serial type %d is reserved", uint64(t))
	}
	n := (t - 12) / 2
	if n > MaxValueLen {
		return 0, corrupt(-1, "serial type %d is longer than any value", uint64(t))
	}
	return int(n), nil
}

// Header decodes the serial types of payload and returns them with the
// offset at which the body starts.
func Header(payload []byte) ([]SerialType, int, error) {
	hdrLen, n, err := varint.Decode(payload, 0)
	if err != nil {
		return nil, 0, corrupt(0, "header length: %v", err)
	}
	if hdrLen < uint64(n) || hdrLen > uint64(len(payload)) {
		return nil, 0, corrupt(0, "header length %d outside payload of %d bytes", hdrLen, len(payload))
	}

	end := int(hdrLen)
	types := make([]SerialType, 0, end-n)
	for off := n; off < end; {
		st, m, err := varint.Decode(payload[:end], off)
		if err != nil {
			return nil, 0, corrupt(off, "serial type runs past header end %d", end)
		}
		types = append(types, SerialType(st))
		off += m
	}
	return types, end, nil
}

// Decode decodes every column of payload. Text is converted to UTF-8 from
// the database text encoding enc (one of the format.Encoding* values).
func Decode(payload []byte, enc uint32) ([]Value, error) {
	types, off, err := Header(payload)
	if err != nil {
		return nil, err
	}

	values := make([]Value, len(types))
	for i, st := range types {
		size, err := st.Len()
		if err != nil {
			if ce, ok := err.(*errors.CorruptionError); ok {
				ce.Offset = off
			}
			return nil, err
		}
		if size > len(payload)-off {
			return nil, corrupt(off, "column %d needs %d bytes, %d left", i, size, len(payload)-off)
		}
		v, err := decodeValue(st, payload[off:off+size], enc)
		if err != nil {
			return nil, corrupt(off, "column %d: %v", i, err)
		}
		values[i] = v
		off += size
	}
	return values, nil
}

func decodeValue(st SerialType, body []byte, enc uint32) (Value, error) {
	switch {
	case st == SerialTypeNull:
		return NullValue(), nil
	case st <= SerialTypeInt64:
		return IntValue(readInt(body)), nil
	case st == SerialTypeFloat64:
		return FloatValue(math.Float64frombits(binary.BigEndian.Uint64(body))), nil
	case st == SerialTypeZero:
		return IntValue(0), nil
	case st == SerialTypeOne:
		return IntValue(1), nil
	case st%2 == 0:
		b := make([]byte, len(body))
		copy(b, body)
		return BlobValue(b), nil
	}
	s, err := decodeText(body, enc)
	if err != nil {
		return Value{}, err
	}
	v := TextValue(s)
	if enc == encodingUTF16LE || enc == encodingUTF16BE {
		v.stored = make([]byte, len(body))
		copy(v.stored, body)
	}
	return v, nil
}

// readInt sign-extends a big-endian integer of 1 to 8 bytes.
func readInt(b []byte) int64 {
	v := int64(int8(b[0]))
	for _, c := range b[1:] {
		v = v<<8 | int64(c)
	}
	return v
}

func corrupt(offset int, format string, args ...interface{}) error {
	return errors.NewCorruption(errors.ErrCorruptRecord, 0, offset, format, args...)
}

// AliasRowid applies the integer primary key rule: the column that aliases
// the rowid is stored as NULL and reads back as the rowid. col < 0 means
// the table has no alias column.
func AliasRowid(values []Value, col int, rowid int64) {
	if col >= 0 && col < len(values) && values[col].IsNull() {
		values[col] = IntValue(rowid)
	}
}
