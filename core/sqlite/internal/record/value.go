package record

import (
	"bytes"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Kind is the storage class of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "real"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one decoded column value. Only the field selected by Kind is
// meaningful.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
	Blob  []byte

	// stored holds the on-disk bytes of text read from, or bound to, a
	// UTF-16 database. Text comparisons use it when both sides have it.
	stored []byte
}

// NullValue returns NULL.
func NullValue() Value { return Value{} }

// IntValue returns an INTEGER value.
func IntValue(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// FloatValue returns a REAL value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// TextValue returns a TEXT value.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// BlobValue returns a BLOB value.
func BlobValue(b []byte) Value { return Value{Kind: KindBlob, Blob: b} }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Interface returns v as nil, int64, float64, string or []byte.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindInteger:
		return v.Int
	case KindFloat:
		return v.Float
	case KindText:
		return v.Text
	case KindBlob:
		return v.Blob
	}
	return nil
}

// String renders v the way the sqlite3 shell prints it in list mode: NULL
// as the empty string, reals always with a decimal point, blobs raw.
func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return formatFloat(v.Float)
	case KindText:
		return v.Text
	case KindBlob:
		return string(v.Blob)
	}
	return ""
}

// Literal renders v as a SQL literal such as NULL, 42, 'abc' or X'00ff'.
// Quotes inside text are doubled.
func (v Value) Literal() string {
	switch v.Kind {
	case KindInteger, KindFloat:
		return v.String()
	case KindText:
		return "'" + strings.ReplaceAll(v.Text, "'", "''") + "'"
	case KindBlob:
		return "X'" + hex.EncodeToString(v.Blob) + "'"
	}
	return "NULL"
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}
	mant, exp, hasExp := strings.Cut(strconv.FormatFloat(f, 'g', 15, 64), "e")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	if hasExp {
		return mant + "e" + exp
	}
	return mant
}

// class orders storage classes: NULL < numeric < text < blob.
func class(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindInteger, KindFloat:
		return 1
	case KindText:
		return 2
	}
	return 3
}

// Bind returns v with its text in the form a database with text encoding
// enc stores it, so that it orders against decoded values the way the
// BINARY collation does. Values other than text, and any value for a
// UTF-8 database, are returned unchanged.
func Bind(v Value, enc uint32) Value {
	if v.Kind != KindText || v.stored != nil {
		return v
	}
	if b, ok := encodeText(v.Text, enc); ok {
		v.stored = b
	}
	return v
}

// Compare orders two values by the file format's key order: NULLs first,
// then numbers compared numerically, then text and blobs compared bytewise.
// Text from a UTF-16 database compares by its stored code units; bind
// literals with Bind before comparing them against such values.
func Compare(a, b Value) int {
	ca, cb := class(a.Kind), class(b.Kind)
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}
	switch ca {
	case 0:
		return 0
	case 1:
		return compareNumeric(a, b)
	case 2:
		if a.stored != nil && b.stored != nil {
			return bytes.Compare(a.stored, b.stored)
		}
		return strings.Compare(a.Text, b.Text)
	}
	return bytes.Compare(a.Blob, b.Blob)
}

func compareNumeric(a, b Value) int {
	switch {
	case a.Kind == KindInteger && b.Kind == KindInteger:
		return cmpInt(a.Int, b.Int)
	case a.Kind == KindFloat && b.Kind == KindFloat:
		return cmpFloat(a.Float, b.Float)
	case a.Kind == KindInteger:
		return compareIntFloat(a.Int, b.Float)
	}
	return -compareIntFloat(b.Int, a.Float)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case a == b:
		return 0
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return -1
	}
	return 1
}

// compareIntFloat compares exactly, without rounding i to a float64.
func compareIntFloat(i int64, f float64) int {
	switch {
	case math.IsNaN(f):
		return 1
	case f < -9223372036854775808.0:
		return 1
	case f >= 9223372036854775808.0:
		return -1
	}
	fi := int64(f)
	if c := cmpInt(i, fi); c != 0 {
		return c
	}
	frac := f - float64(fi)
	switch {
	case frac > 0:
		return -1
	case frac < 0:
		return 1
	}
	return 0
}

// Equal is SQL equality: false whenever either side is NULL.
func Equal(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return false
	}
	return Compare(a, b) == 0
}

// CompareKeys compares two index keys column by column up to the shorter
// of the two, so a search key that is a prefix of an entry compares equal
// to it. desc[i] reverses column i; a short or nil desc means ascending.
func CompareKeys(a, b []Value, desc []bool) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c := Compare(a[i], b[i])
		if i < len(desc) && desc[i] {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
