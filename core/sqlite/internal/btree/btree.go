// Package btree walks the table and index b-trees of a database file.
//
// A table b-tree is keyed by 64-bit rowid: interior pages hold only
// separator keys and child pointers, and every row lives in a leaf. The
// left child of an interior cell holds rowids less than or equal to the
// cell's key. Index b-trees are keyed by a record whose last column is
// the rowid of the indexed row; interior index cells are entries in their
// own right, so an in-order walk visits child i, then cell i, and finally
// the right child.
//
// Cursors keep an explicit stack of (page, position) frames, bounded by
// MaxDepth, and stop with an error the first time a page fails to decode.
package btree

import (
	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/pager"
)

// MaxDepth bounds the height of a tree. Real files are far shallower; a
// deeper tree means a cycle in the child pointers.
const MaxDepth = 20

// PageSource is the subset of *pager.Pager the trees read from.
type PageSource interface {
	ReadPage(n uint32) (*pager.Page, error)
	ReadOverflow(n uint32) (*pager.Page, error)
	UsableSize() int
	PageCount() uint32
	Encoding() uint32
}

// Tree reads b-trees from a page source. It holds no per-traversal state,
// so one Tree serves any number of concurrent cursors.
type Tree struct {
	src PageSource
}

// New returns a Tree over src.
func New(src PageSource) *Tree {
	return &Tree{src: src}
}

// Encoding returns the text encoding of the underlying file.
func (t *Tree) Encoding() uint32 { return t.src.Encoding() }

// frame is one level of a cursor stack. For interior index pages,
// descended records that child idx has already been walked.
type frame struct {
	page      *pager.Page
	idx       int
	descended bool
}

// load reads page n for a cursor at depth, checking that it belongs to the
// expected kind of tree.
func (t *Tree) load(n uint32, depth int, table bool) (*pager.Page, error) {
	if depth >= MaxDepth {
		return nil, errors.NewCorruption(errors.ErrCorruptPage, n, -1, "tree deeper than %d levels", MaxDepth)
	}
	pg, err := t.src.ReadPage(n)
	if err != nil {
		return nil, err
	}
	if pg.Type.IsTable() != table {
		want := "index"
		if table {
			want = "table"
		}
		return nil, errors.NewCorruption(errors.ErrCorruptPage, n, pager.HeaderOffset(n), "%s page in a %s tree", pg.Type, want)
	}
	return pg, nil
}
