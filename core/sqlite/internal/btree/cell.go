package btree

import (
	"encoding/binary"

	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/varint"
)

// Cell is a decoded b-tree cell. Which fields are set depends on the page
// type:
//
//	table leaf       Rowid, payload
//	table interior   LeftChild, Rowid
//	index leaf       payload
//	index interior   LeftChild, payload
type Cell struct {
	LeftChild   uint32
	Rowid       int64
	PayloadSize int
	Local       []byte // in-page part of the payload, aliasing the page
	Overflow    uint32 // first overflow page, 0 when the payload is local
}

// maxPayload is the largest record the format can describe.
const maxPayload = 1<<31 - 1

// LocalSize returns how many bytes of a payload of the given size are
// stored on the b-tree page itself. Table leaves may keep up to usable-35
// bytes; index cells keep less so that a page holds at least four of them.
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

// ParseCell decodes cell i of pg.
func ParseCell(pg *pager.Page, i int, usable int) (Cell, error) {
	var c Cell
	data := pg.Data[:usable]
	off := pg.CellPointers[i]

	if !pg.Type.IsLeaf() {
		if off+4 > usable {
			return c, errors.NewCorruption(errors.ErrCorruptPage, pg.Number, off, "cell %d child pointer truncated", i)
		}
		c.LeftChild = binary.BigEndian.Uint32(data[off:])
		off += 4
	}

	if pg.Type == pager.PageTypeInteriorTable {
		rowid, _, err := varint.DecodeInt(data, off)
		if err != nil {
			return c, errors.AtPage(err, pg.Number)
		}
		c.Rowid = rowid
		return c, nil
	}

	size, n, err := varint.Decode(data, off)
	if err != nil {
		return c, errors.AtPage(err, pg.Number)
	}
	off += n
	if size > maxPayload {
		return c, errors.NewCorruption(errors.ErrCorruptPage, pg.Number, off-n, "cell %d payload size %d", i, size)
	}
	c.PayloadSize = int(size)

	if pg.Type == pager.PageTypeLeafTable {
		rowid, n, err := varint.DecodeInt(data, off)
		if err != nil {
			return c, errors.AtPage(err, pg.Number)
		}
		c.Rowid = rowid
		off += n
	}

	local := LocalSize(usable, c.PayloadSize, pg.Type == pager.PageTypeLeafTable)
	end := off + local
	if local < c.PayloadSize {
		end += 4
	}
	if end > usable {
		return c, errors.NewCorruption(errors.ErrCorruptPage, pg.Number, off, "cell %d payload runs %d bytes past the page", i, end-usable)
	}
	c.Local = data[off : off+local]
	if local < c.PayloadSize {
		c.Overflow = binary.BigEndian.Uint32(data[off+local:])
	}
	return c, nil
}

// Payload returns the full payload of c, following its overflow chain.
// Local payloads alias the page and must not be modified.
func (t *Tree) Payload(c Cell) ([]byte, error) {
	if c.Overflow == 0 {
		return c.Local, nil
	}

	chunk := t.src.UsableSize() - 4
	limit := t.src.PageCount()
	if room := len(c.Local) + int(limit)*chunk; c.PayloadSize > room {
		return nil, errors.NewCorruption(errors.ErrOverflowChainBroken, c.Overflow, -1,
			"payload of %d bytes cannot fit in a file of %d pages", c.PayloadSize, limit)
	}

	buf := make([]byte, len(c.Local), c.PayloadSize)
	copy(buf, c.Local)

	next := c.Overflow
	prev := uint32(0)
	for visited := uint32(0); len(buf) < c.PayloadSize; visited++ {
		if next == 0 {
			return nil, errors.NewCorruption(errors.ErrOverflowChainBroken, prev, 0, "chain ends %d bytes short", c.PayloadSize-len(buf))
		}
		if visited >= limit {
			return nil, errors.NewCorruption(errors.ErrOverflowChainBroken, next, -1, "chain longer than the file, likely a cycle")
		}
		pg, err := t.src.ReadOverflow(next)
		if err != nil {
			return nil, err
		}
		n := c.PayloadSize - len(buf)
		if n > chunk {
			n = chunk
		}
		buf = append(buf, pg.Data[4:4+n]...)
		prev, next = next, binary.BigEndian.Uint32(pg.Data)
	}
	return buf, nil
}
