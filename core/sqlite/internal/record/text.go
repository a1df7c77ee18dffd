package record

import (
	"golang.org/x/text/encoding/unicode"
)

const (
	encodingUTF16LE = 2
	encodingUTF16BE = 3
)

var (
	utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

// decodeText converts stored text to a Go string.
func decodeText(b []byte, enc uint32) (string, error) {
	switch enc {
	case encodingUTF16LE:
		out, err := utf16le.NewDecoder().Bytes(b)
		return string(out), err
	case encodingUTF16BE:
		out, err := utf16be.NewDecoder().Bytes(b)
		return string(out), err
	}
	return string(b), nil
}

// encodeText converts s to the stored form for a UTF-16 encoding. ok is
// false for UTF-8, where the Go string already is the stored form.
func encodeText(s string, enc uint32) (b []byte, ok bool) {
	var err error
	switch enc {
	case encodingUTF16LE:
		b, err = utf16le.NewEncoder().Bytes([]byte(s))
	case encodingUTF16BE:
		b, err = utf16be.NewEncoder().Bytes([]byte(s))
	default:
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	if b == nil {
		b = []byte{}
	}
	return b, true
}
