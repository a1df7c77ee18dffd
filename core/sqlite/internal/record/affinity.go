package record

import (
	"strconv"
	"strings"
)

// Affinity is a column's preferred storage class, derived from its
// declared type.
type Affinity uint8

const (
	AffinityBlob Affinity = iota // also "none"
	AffinityText
	AffinityNumeric
	AffinityInteger
	AffinityReal
)

func (a Affinity) String() string {
	switch a {
	case AffinityText:
		return "TEXT"
	case AffinityNumeric:
		return "NUMERIC"
	case AffinityInteger:
		return "INTEGER"
	case AffinityReal:
		return "REAL"
	}
	return "BLOB"
}

// IsNumeric reports NUMERIC, INTEGER or REAL.
func (a Affinity) IsNumeric() bool {
	return a == AffinityNumeric || a == AffinityInteger || a == AffinityReal
}

// CoerceLiteral prepares a literal for comparison against a column of the
// given affinity: numeric columns turn numeric-looking text into numbers,
// text columns turn numbers into text, and blob columns leave it alone.
func CoerceLiteral(v Value, column Affinity) Value {
	switch {
	case column.IsNumeric() && v.Kind == KindText:
		if n, ok := parseNumeric(v.Text); ok {
			return n
		}
	case column == AffinityText && (v.Kind == KindInteger || v.Kind == KindFloat):
		return TextValue(v.String())
	}
	return v
}

// parseNumeric accepts decimal integers and reals with optional exponent,
// surrounded by optional whitespace. Reals with no fractional part that fit
// in an int64 become integers.
func parseNumeric(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), true
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789+-.eE", c) {
			return Value{}, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, false
	}
	if f == float64(int64(f)) && f >= -9223372036854775808.0 && f < 9223372036854775808.0 {
		return IntValue(int64(f)), true
	}
	return FloatValue(f), true
}
