package btree

import (
	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/pager"
)

// TableCursor walks a table b-tree in rowid order.
//
//	cur := tree.ScanTable(root)
//	for cur.Next() {
//		payload, err := cur.Payload()
//		...
//	}
//	if err := cur.Err(); err != nil { ... }
type TableCursor struct {
	tree  *Tree
	root  uint32
	stack []frame
	init  bool
	cell  Cell
	err   error
}

// ScanTable returns a cursor over every row of the table rooted at root.
// No page is read until the first call to Next.
func (t *Tree) ScanTable(root uint32) *TableCursor {
	return &TableCursor{tree: t, root: root}
}

// Next advances to the next row and reports whether there is one.
func (c *TableCursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.init {
		c.init = true
		if !c.push(c.root) {
			return false
		}
	}

	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		top.idx++
		n := top.page.CellCount()

		if top.page.Type.IsLeaf() {
			if top.idx >= n {
				c.pop()
				continue
			}
			cell, err := ParseCell(top.page, top.idx, c.tree.src.UsableSize())
			if err != nil {
				c.err = err
				return false
			}
			c.cell = cell
			return true
		}

		switch {
		case top.idx < n:
			cell, err := ParseCell(top.page, top.idx, c.tree.src.UsableSize())
			if err != nil {
				c.err = err
				return false
			}
			if !c.push(cell.LeftChild) {
				return false
			}
		case top.idx == n:
			if !c.push(top.page.RightChild) {
				return false
			}
		default:
			c.pop()
		}
	}
	return false
}

func (c *TableCursor) push(n uint32) bool {
	pg, err := c.tree.load(n, len(c.stack), true)
	if err != nil {
		c.err = err
		return false
	}
	c.stack = append(c.stack, frame{page: pg, idx: -1})
	return true
}

func (c *TableCursor) pop() {
	c.stack[len(c.stack)-1] = frame{}
	c.stack = c.stack[:len(c.stack)-1]
}

// Rowid returns the rowid of the current row.
func (c *TableCursor) Rowid() int64 { return c.cell.Rowid }

// Page returns the leaf page holding the current row.
func (c *TableCursor) Page() uint32 {
	if len(c.stack) == 0 {
		return 0
	}
	return c.stack[len(c.stack)-1].page.Number
}

// Payload returns the record of the current row, reading its overflow
// chain if it has one.
func (c *TableCursor) Payload() ([]byte, error) {
	return c.tree.Payload(c.cell)
}

// Err returns the error that stopped the cursor, if any.
func (c *TableCursor) Err() error { return c.err }

// SeekRowid finds the row with the given rowid in the table rooted at
// root and returns its record with the leaf page holding it. found is
// false when no such row exists.
func (t *Tree) SeekRowid(root uint32, rowid int64) (payload []byte, page uint32, found bool, err error) {
	usable := t.src.UsableSize()
	n := root
	for depth := 0; ; depth++ {
		pg, err := t.load(n, depth, true)
		if err != nil {
			return nil, 0, false, err
		}

		// First cell whose rowid is >= the target.
		lo, hi := 0, pg.CellCount()
		var hit Cell
		for lo < hi {
			mid := int(uint(lo+hi) >> 1)
			cell, err := ParseCell(pg, mid, usable)
			if err != nil {
				return nil, 0, false, err
			}
			if cell.Rowid < rowid {
				lo = mid + 1
			} else {
				hi = mid
				hit = cell
			}
		}

		if pg.Type == pager.PageTypeLeafTable {
			if lo == pg.CellCount() || hit.Rowid != rowid {
				return nil, pg.Number, false, nil
			}
			payload, err := t.Payload(hit)
			if err != nil {
				return nil, 0, false, err
			}
			return payload, pg.Number, true, nil
		}

		if lo == pg.CellCount() {
			n = pg.RightChild
		} else {
			n = hit.LeftChild
		}
		if n == 0 {
			return nil, 0, false, errors.NewCorruption(errors.ErrCorruptPage, pg.Number, -1, "null child pointer")
		}
	}
}
