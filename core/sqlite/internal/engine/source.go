package engine

import (
	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/schema"
)

// source yields candidate rows for a plan. values is only called for
// plans that need row contents, so counting never decodes a record.
type source interface {
	next() bool
	rowid() int64
	values() ([]record.Value, error)
	err() error
}

func newSource(tree *btree.Tree, p *Plan) source {
	switch p.Access {
	case RowidSeek:
		return &rowidSource{tree: tree, root: p.Table.RootPage, id: p.rowid}
	case IndexSeek:
		return &indexSource{
			tree: tree,
			root: p.Table.RootPage,
			lit:  p.literal,
			cur:  tree.SeekIndex(p.Index.RootPage, []record.Value{p.literal}, leadingDesc(p.Index)),
		}
	case NoRows:
		return emptySource{}
	}
	return &scanSource{tree: tree, cur: tree.ScanTable(p.Table.RootPage)}
}

func leadingDesc(idx *schema.Index) []bool {
	if len(idx.Desc) == 0 {
		return nil
	}
	return idx.Desc[:1]
}

type scanSource struct {
	tree *btree.Tree
	cur  *btree.TableCursor
}

func (s *scanSource) next() bool   { return s.cur.Next() }
func (s *scanSource) rowid() int64 { return s.cur.Rowid() }
func (s *scanSource) err() error   { return s.cur.Err() }

func (s *scanSource) values() ([]record.Value, error) {
	payload, err := s.cur.Payload()
	if err != nil {
		return nil, err
	}
	vals, err := record.Decode(payload, s.tree.Encoding())
	if err != nil {
		return nil, errors.AtPage(err, s.cur.Page())
	}
	return vals, nil
}

type rowidSource struct {
	tree    *btree.Tree
	root    uint32
	id      int64
	done    bool
	payload []byte
	page    uint32
	e       error
}

func (s *rowidSource) next() bool {
	if s.done {
		return false
	}
	s.done = true
	payload, page, found, err := s.tree.SeekRowid(s.root, s.id)
	if err != nil {
		s.e = err
		return false
	}
	s.payload, s.page = payload, page
	return found
}

func (s *rowidSource) rowid() int64 { return s.id }
func (s *rowidSource) err() error   { return s.e }

func (s *rowidSource) values() ([]record.Value, error) {
	vals, err := record.Decode(s.payload, s.tree.Encoding())
	if err != nil {
		return nil, errors.AtPage(err, s.page)
	}
	return vals, nil
}

// indexSource walks index entries equal to the literal and looks each
// row up in the table.
type indexSource struct {
	tree *btree.Tree
	root uint32
	lit  record.Value
	cur  *btree.IndexCursor
	stop bool
}

func (s *indexSource) next() bool {
	if s.stop || !s.cur.Next() {
		return false
	}
	key := s.cur.Key()
	if len(key) == 0 || record.Compare(key[0], s.lit) != 0 {
		s.stop = true
		return false
	}
	return true
}

func (s *indexSource) rowid() int64 { return s.cur.Rowid() }
func (s *indexSource) err() error   { return s.cur.Err() }

func (s *indexSource) values() ([]record.Value, error) {
	payload, page, found, err := s.tree.SeekRowid(s.root, s.cur.Rowid())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewCorruption(errors.ErrCorruptPage, s.root, 0,
			"index entry points at missing rowid %d", s.cur.Rowid())
	}
	vals, err := record.Decode(payload, s.tree.Encoding())
	if err != nil {
		return nil, errors.AtPage(err, page)
	}
	return vals, nil
}

type emptySource struct{}

func (emptySource) next() bool                      { return false }
func (emptySource) rowid() int64                    { return 0 }
func (emptySource) values() ([]record.Value, error) { return nil, nil }
func (emptySource) err() error                      { return nil }
