// Package testimage assembles small database images byte by byte for
// tests that need exact control over page layout: overflow chains,
// corrupt pointers, unusual page sizes. Tests that only need realistic
// data should build a file through internal/testdb instead.
package testimage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/varint"
)

// Page types, repeated here so fixtures read like the format tables.
const (
	InteriorIndex = 0x02
	InteriorTable = 0x05
	LeafIndex     = 0x0a
	LeafTable     = 0x0d
)

// Builder accumulates pages. Page 1 always exists.
type Builder struct {
	Header *format.Header
	pages  [][]byte
}

// New returns a builder with an empty page 1.
func New(pageSize int) *Builder {
	h := format.NewHeader(pageSize)
	h.FileChangeCounter = 1
	h.VersionValidFor = 1
	return &Builder{Header: h, pages: [][]byte{make([]byte, pageSize)}}
}

// Usable returns the usable bytes per page.
func (b *Builder) Usable() int { return b.Header.UsableSize() }

// Alloc appends a zeroed page and returns its number.
func (b *Builder) Alloc() uint32 {
	b.pages = append(b.pages, make([]byte, b.Header.PageSize()))
	return uint32(len(b.pages))
}

// Btree lays out a b-tree page: header, pointer array in the given cell
// order, and cell bodies packed downward from the end of the usable area.
func (b *Builder) Btree(n uint32, pageType byte, rightChild uint32, cells ...[]byte) {
	page := b.pages[n-1]
	hdr := 0
	if n == 1 {
		hdr = format.HeaderSize
	}
	size := 8
	if pageType == InteriorIndex || pageType == InteriorTable {
		size = 12
		binary.BigEndian.PutUint32(page[hdr+8:], rightChild)
	}
	page[hdr] = pageType
	binary.BigEndian.PutUint16(page[hdr+3:], uint16(len(cells)))

	top := b.Usable()
	ptrs := hdr + size
	for i, c := range cells {
		top -= len(c)
		if top < ptrs+2*len(cells) {
			panic(fmt.Sprintf("testimage: page %d overflows with %d cells", n, len(cells)))
		}
		copy(page[top:], c)
		binary.BigEndian.PutUint16(page[ptrs+2*i:], uint16(top))
	}
	binary.BigEndian.PutUint16(page[hdr+5:], uint16(top))
}

// Raw gives direct access to page n for corrupting it.
func (b *Builder) Raw(n uint32) []byte { return b.pages[n-1] }

// Spill splits payload for a cell on this builder's pages. The local part
// is returned; the rest is written to a freshly allocated overflow chain
// whose first page is returned (0 when everything fits).
func (b *Builder) Spill(payload []byte, tableLeaf bool) ([]byte, uint32) {
	local := LocalSize(b.Usable(), len(payload), tableLeaf)
	if local == len(payload) {
		return payload, 0
	}
	rest := payload[local:]
	chunk := b.Usable() - 4
	var first, prev uint32
	for len(rest) > 0 {
		n := b.Alloc()
		if prev == 0 {
			first = n
		} else {
			binary.BigEndian.PutUint32(b.pages[prev-1], n)
		}
		k := chunk
		if len(rest) < k {
			k = len(rest)
		}
		copy(b.pages[n-1][4:], rest[:k])
		rest = rest[k:]
		prev = n
	}
	return payload[:local], first
}

// Bytes returns the finished image with the header written to page 1.
func (b *Builder) Bytes() []byte {
	b.Header.DatabaseSize = uint32(len(b.pages))
	copy(b.pages[0], b.Header.Encode())
	return bytes.Join(b.pages, nil)
}

// Reader returns the image as an io.ReaderAt and its size.
func (b *Builder) Reader() (*bytes.Reader, int64) {
	data := b.Bytes()
	return bytes.NewReader(data), int64(len(data))
}

// LocalSize returns how many payload bytes stay on the b-tree page.
func LocalSize(usable, payload int, tableLeaf bool) int {
	maxLocal := (usable-12)*64/255 - 23
	if tableLeaf {
		maxLocal = usable - 35
	}
	if payload <= maxLocal {
		return payload
	}
	minLocal := (usable-12)*32/255 - 23
	k := minLocal + (payload-minLocal)%(usable-4)
	if k <= maxLocal {
		return k
	}
	return minLocal
}

// TableLeafCell encodes a table leaf cell. local is the in-page part of a
// payload of total length size; overflow is its first overflow page.
func TableLeafCell(rowid int64, size int, local []byte, overflow uint32) []byte {
	c := varint.Append(nil, uint64(size))
	c = varint.Append(c, uint64(rowid))
	c = append(c, local...)
	if overflow != 0 {
		c = binary.BigEndian.AppendUint32(c, overflow)
	}
	return c
}

// TableInteriorCell encodes a table interior cell.
func TableInteriorCell(child uint32, rowid int64) []byte {
	c := binary.BigEndian.AppendUint32(nil, child)
	return varint.Append(c, uint64(rowid))
}

// IndexLeafCell encodes an index leaf cell.
func IndexLeafCell(size int, local []byte, overflow uint32) []byte {
	c := varint.Append(nil, uint64(size))
	c = append(c, local...)
	if overflow != 0 {
		c = binary.BigEndian.AppendUint32(c, overflow)
	}
	return c
}

// IndexInteriorCell encodes an index interior cell.
func IndexInteriorCell(child uint32, size int, local []byte, overflow uint32) []byte {
	c := binary.BigEndian.AppendUint32(nil, child)
	return append(c, IndexLeafCell(size, local, overflow)...)
}

// Record encodes values as a record payload. Supported Go types are nil,
// int, int64, float64, string and []byte.
func Record(values ...interface{}) []byte {
	var hdr, body []byte
	for _, v := range values {
		switch x := v.(type) {
		case nil:
			hdr = varint.Append(hdr, 0)
		case int:
			hdr, body = appendInt(hdr, body, int64(x))
		case int64:
			hdr, body = appendInt(hdr, body, x)
		case float64:
			hdr = varint.Append(hdr, 7)
			body = binary.BigEndian.AppendUint64(body, math.Float64bits(x))
		case string:
			hdr = varint.Append(hdr, uint64(13+2*len(x)))
			body = append(body, x...)
		case []byte:
			hdr = varint.Append(hdr, uint64(12+2*len(x)))
			body = append(body, x...)
		default:
			panic(fmt.Sprintf("testimage: unsupported value %T", v))
		}
	}
	n := len(hdr) + 1
	if varint.Len(uint64(n)) > 1 {
		n++
	}
	out := varint.Append(nil, uint64(n))
	out = append(out, hdr...)
	return append(out, body...)
}

func appendInt(hdr, body []byte, v int64) ([]byte, []byte) {
	switch {
	case v == 0:
		return varint.Append(hdr, 8), body
	case v == 1:
		return varint.Append(hdr, 9), body
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return varint.Append(hdr, 1), append(body, byte(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return varint.Append(hdr, 2), binary.BigEndian.AppendUint16(body, uint16(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return varint.Append(hdr, 4), binary.BigEndian.AppendUint32(body, uint32(v))
	}
	return varint.Append(hdr, 6), binary.BigEndian.AppendUint64(body, uint64(v))
}
