package pager

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
)

// PageType is the first byte of a b-tree page header.
type PageType uint8

const (
	// PageTypeOverflow marks a page read as an overflow page; it has no
	// b-tree header.
	PageTypeOverflow      PageType = 0x00
	PageTypeInteriorIndex PageType = 0x02
	PageTypeInteriorTable PageType = 0x05
	PageTypeLeafIndex     PageType = 0x0a
	PageTypeLeafTable     PageType = 0x0d
)

// Page type flags (bit flags in page type byte)
const (
	ptfIntKey = 0x01
	ptfLeaf   = 0x08
)

// Page header offsets
const (
	offsetType       = 0
	offsetFreeblock  = 1
	offsetNumCells   = 3
	offsetCellStart  = 5
	offsetFragmented = 7
	offsetRightChild = 8

	HeaderSizeLeaf     = 8
	HeaderSizeInterior = 12
)

// Valid reports whether t is one of the four b-tree page types.
func (t PageType) Valid() bool {
	switch t {
	case PageTypeInteriorIndex, PageTypeInteriorTable, PageTypeLeafIndex, PageTypeLeafTable:
		return true
	}
	return false
}

func (t PageType) IsLeaf() bool  { return t&ptfLeaf != 0 }
func (t PageType) IsTable() bool { return t&ptfIntKey != 0 }
func (t PageType) IsIndex() bool { return t.Valid() && !t.IsTable() }

func (t PageType) String() string {
	switch t {
	case PageTypeInteriorIndex:
		return "interior-index"
	case PageTypeInteriorTable:
		return "interior-table"
	case PageTypeLeafIndex:
		return "leaf-index"
	case PageTypeLeafTable:
		return "leaf-table"
	case PageTypeOverflow:
		return "overflow"
	}
	return fmt.Sprintf("PageType(0x%02x)", uint8(t))
}

// Page is one page of the file. For b-tree pages the header fields and the
// cell pointer array are decoded; overflow pages only carry Data.
//
// Pages may be shared through the cache and must not be modified.
type Page struct {
	Number          uint32
	Data            []byte // the whole page, reserved bytes included
	Type            PageType
	FirstFreeblock  uint16
	ContentStart    int // 0 on disk means 65536
	FragmentedBytes uint8
	RightChild      uint32 // interior pages only
	// CellPointers are offsets from the start of the page, in pointer
	// array order. That order is the key order of the cells.
	CellPointers []int
	usable       int
}

// CellCount returns the number of cells on the page.
func (p *Page) CellCount() int { return len(p.CellPointers) }

// Cell returns the bytes from cell i to the end of the usable area. Cell
// decoders know their own length.
func (p *Page) Cell(i int) []byte {
	return p.Data[p.CellPointers[i]:p.usable]
}

// HeaderOffset is where the b-tree header starts: 100 on page 1, else 0.
func HeaderOffset(pageNum uint32) int {
	if pageNum == 1 {
		return format.HeaderSize
	}
	return 0
}

// decodeBtreePage decodes the header and pointer array of a b-tree page.
func decodeBtreePage(num uint32, data []byte, usable int) (*Page, error) {
	hdr := HeaderOffset(num)
	if hdr+HeaderSizeLeaf > usable {
		return nil, errors.NewCorruption(errors.ErrCorruptPage, num, hdr, "page too small for a header")
	}

	p := &Page{
		Number:          num,
		Data:            data,
		Type:            PageType(data[hdr+offsetType]),
		FirstFreeblock:  binary.BigEndian.Uint16(data[hdr+offsetFreeblock:]),
		ContentStart:    int(binary.BigEndian.Uint16(data[hdr+offsetCellStart:])),
		FragmentedBytes: data[hdr+offsetFragmented],
		usable:          usable,
	}
	if !p.Type.Valid() {
		return nil, errors.NewCorruption(errors.ErrCorruptPage, num, hdr+offsetType, "unknown page type 0x%02x", uint8(p.Type))
	}
	if p.ContentStart == 0 {
		p.ContentStart = 65536
	}

	size := HeaderSizeLeaf
	if !p.Type.IsLeaf() {
		size = HeaderSizeInterior
		if hdr+size > usable {
			return nil, errors.NewCorruption(errors.ErrCorruptPage, num, hdr, "page too small for an interior header")
		}
		p.RightChild = binary.BigEndian.Uint32(data[hdr+offsetRightChild:])
	}

	n := int(binary.BigEndian.Uint16(data[hdr+offsetNumCells:]))
	ptrs := hdr + size
	end := ptrs + 2*n
	if end > usable {
		return nil, errors.NewCorruption(errors.ErrCorruptPage, num, hdr+offsetNumCells, "%d cells overrun the page", n)
	}
	p.CellPointers = make([]int, n)
	for i := range p.CellPointers {
		off := int(binary.BigEndian.Uint16(data[ptrs+2*i:]))
		if off < end || off >= usable {
			return nil, errors.NewCorruption(errors.ErrCorruptPage, num, ptrs+2*i, "cell %d pointer %d outside [%d, %d)", i, off, end, usable)
		}
		p.CellPointers[i] = off
	}
	return p, nil
}
