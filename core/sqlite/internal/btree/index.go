package btree

import (
	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
)

// IndexCursor walks an index b-tree in key order. Each entry is decoded
// as it is reached; Key returns every column of the entry, the trailing
// rowid included.
type IndexCursor struct {
	tree *Tree
	root uint32
	seek []record.Value
	desc []bool

	stack []frame
	init  bool
	key   []record.Value
	rowid int64
	err   error
}

// ScanIndex returns a cursor over every entry of the index rooted at root.
func (t *Tree) ScanIndex(root uint32) *IndexCursor {
	return &IndexCursor{tree: t, root: root}
}

// SeekIndex returns a cursor positioned at the first entry whose leading
// columns compare greater than or equal to key, then continuing in index
// order to the end. desc marks descending index columns. The caller stops
// once entries no longer match. Text in key is bound to the file's
// encoding before comparing.
func (t *Tree) SeekIndex(root uint32, key []record.Value, desc []bool) *IndexCursor {
	bound := make([]record.Value, len(key))
	for i, v := range key {
		bound[i] = record.Bind(v, t.src.Encoding())
	}
	return &IndexCursor{tree: t, root: root, seek: bound, desc: desc}
}

// Next advances to the next entry and reports whether there is one.
func (c *IndexCursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.init {
		c.init = true
		var err error
		if c.seek != nil {
			err = c.descendTo(c.seek)
		} else {
			err = c.push(c.root, 0, false)
		}
		if err != nil {
			c.err = err
			return false
		}
	}

	usable := c.tree.src.UsableSize()
	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		n := top.page.CellCount()

		if top.page.Type.IsLeaf() {
			if top.idx >= n {
				c.pop()
				continue
			}
			idx := top.idx
			top.idx++
			return c.emit(top.page, idx)
		}

		if top.idx > n {
			c.pop()
			continue
		}
		if !top.descended {
			top.descended = true
			child := top.page.RightChild
			if top.idx < n {
				cell, err := ParseCell(top.page, top.idx, usable)
				if err != nil {
					c.err = err
					return false
				}
				child = cell.LeftChild
			}
			if err := c.push(child, 0, false); err != nil {
				c.err = err
				return false
			}
			continue
		}
		if top.idx == n {
			c.pop()
			continue
		}
		idx := top.idx
		top.idx++
		top.descended = false
		return c.emit(top.page, idx)
	}
	return false
}

// descendTo builds the stack for a seek: at each level the frame sits at
// the first cell not less than key, with the child below it already on the
// stack.
func (c *IndexCursor) descendTo(key []record.Value) error {
	n := c.root
	for {
		pg, err := c.tree.load(n, len(c.stack), false)
		if err != nil {
			return err
		}
		i, child, err := c.search(pg, key)
		if err != nil {
			return err
		}
		if pg.Type.IsLeaf() {
			c.stack = append(c.stack, frame{page: pg, idx: i})
			return nil
		}
		c.stack = append(c.stack, frame{page: pg, idx: i, descended: true})
		n = child
	}
}

// search returns the first cell of pg whose key is >= key and the child
// page to its left (the right child when every cell is smaller).
func (c *IndexCursor) search(pg *pager.Page, key []record.Value) (int, uint32, error) {
	usable := c.tree.src.UsableSize()
	lo, hi := 0, pg.CellCount()
	child := pg.RightChild
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		cell, err := ParseCell(pg, mid, usable)
		if err != nil {
			return 0, 0, err
		}
		entry, err := c.decode(pg, cell)
		if err != nil {
			return 0, 0, err
		}
		if record.CompareKeys(entry, key, c.desc) < 0 {
			lo = mid + 1
		} else {
			hi = mid
			child = cell.LeftChild
		}
	}
	return lo, child, nil
}

func (c *IndexCursor) emit(pg *pager.Page, i int) bool {
	cell, err := ParseCell(pg, i, c.tree.src.UsableSize())
	if err != nil {
		c.err = err
		return false
	}
	key, err := c.decode(pg, cell)
	if err != nil {
		c.err = err
		return false
	}
	last := key[len(key)-1]
	if last.Kind != record.KindInteger {
		c.err = errors.NewCorruption(errors.ErrCorruptRecord, pg.Number, pg.CellPointers[i], "index entry ends in %s, not a rowid", last.Kind)
		return false
	}
	c.key, c.rowid = key, last.Int
	return true
}

func (c *IndexCursor) decode(pg *pager.Page, cell Cell) ([]record.Value, error) {
	payload, err := c.tree.Payload(cell)
	if err != nil {
		return nil, err
	}
	key, err := record.Decode(payload, c.tree.src.Encoding())
	if err != nil {
		return nil, errors.AtPage(err, pg.Number)
	}
	if len(key) == 0 {
		return nil, errors.NewCorruption(errors.ErrCorruptRecord, pg.Number, -1, "empty index entry")
	}
	return key, nil
}

func (c *IndexCursor) push(n uint32, idx int, descended bool) error {
	pg, err := c.tree.load(n, len(c.stack), false)
	if err != nil {
		return err
	}
	c.stack = append(c.stack, frame{page: pg, idx: idx, descended: descended})
	return nil
}

func (c *IndexCursor) pop() {
	c.stack[len(c.stack)-1] = frame{}
	c.stack = c.stack[:len(c.stack)-1]
}

// Key returns the columns of the current entry, rowid last.
func (c *IndexCursor) Key() []record.Value { return c.key }

// Rowid returns the rowid the current entry points at.
func (c *IndexCursor) Rowid() int64 { return c.rowid }

// Err returns the error that stopped the cursor, if any.
func (c *IndexCursor) Err() error { return c.err }
