package pager

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/litereader/core/errors"
)

// xzMagic starts every .xz stream.
var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// source is a positioned, read-only view of the database bytes.
type source struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer
}

// openSource opens path for positioned reads. Files that start with the xz
// magic are decompressed into memory first.
func openSource(path string) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path, err)
		}
		return nil, errors.NewIO("open", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.NewIO("stat", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, errors.NewIO("open", path, errors.NewValidation("path", "is a directory"))
	}

	magic := make([]byte, len(xzMagic))
	if n, _ := f.ReadAt(magic, 0); n == len(magic) && bytes.Equal(magic, xzMagic) {
		defer f.Close()
		data, err := decompressXZ(f)
		if err != nil {
			return nil, errors.NewIO("decompress", path, err)
		}
		return &source{r: bytes.NewReader(data), size: int64(len(data))}, nil
	}

	return &source{r: f, size: info.Size(), closer: f}, nil
}

func decompressXZ(r io.Reader) ([]byte, error) {
	xzr, err := xz.NewReader(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(xzr)
}

func (s *source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
