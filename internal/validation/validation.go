// Package validation checks user-supplied database paths before they are
// opened and sniffs what kind of file a path holds.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// MaxPathLength is the maximum allowed path length.
const MaxPathLength = 4096

// Common validation errors.
var (
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

// ValidatePath rejects empty or overlong paths and paths containing
// control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// FileType is a file kind recognized by its leading bytes.
type FileType string

const (
	FileTypeUnknown FileType = "unknown"
	FileTypeSQLite  FileType = "sqlite"
	FileTypeXZ      FileType = "xz"
	FileTypeGzip    FileType = "gzip"
	FileTypeZip     FileType = "zip"
)

var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeSQLite, []byte("SQLite format 3\x00")},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
}

// DetectFileType reads the start of r and reports its type.
func DetectFileType(r io.Reader) (FileType, error) {
	buf := make([]byte, 16)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType, nil
		}
	}
	return FileTypeUnknown, nil
}

// DetectFile reports the type of the file at path.
func DetectFile(path string) (FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileTypeUnknown, err
	}
	defer f.Close()
	return DetectFileType(f)
}
