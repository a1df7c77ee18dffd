package schema

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
)

// MasterRoot is the root page of the catalog table.
const MasterRoot = 1

// Load reads the catalog from page 1 and parses every table and index
// definition in it. A CREATE statement that cannot be parsed fails the
// whole load with an ErrUnparseableCreate error.
func Load(tree *btree.Tree) (*Schema, error) {
	s := newSchema()

	cur := tree.ScanTable(MasterRoot)
	for cur.Next() {
		payload, err := cur.Payload()
		if err != nil {
			return nil, err
		}
		values, err := record.Decode(payload, tree.Encoding())
		if err != nil {
			return nil, errors.AtPage(err, cur.Page())
		}
		e, err := entryFrom(values)
		if err != nil {
			return nil, errors.AtPage(err, cur.Page())
		}
		s.entries = append(s.entries, e)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

// FromEntries builds a Schema from catalog rows already in hand.
func FromEntries(entries []Entry) (*Schema, error) {
	s := newSchema()
	s.entries = entries
	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

func entryFrom(values []record.Value) (Entry, error) {
	get := func(i int) record.Value {
		if i < len(values) {
			return values[i]
		}
		return record.NullValue()
	}
	e := Entry{
		Type:    get(0).String(),
		Name:    get(1).String(),
		TblName: get(2).String(),
		SQL:     get(4).String(),
	}
	if e.Name == "" {
		return e, errors.NewCorruption(errors.ErrCorruptRecord, 0, -1, "catalog row without a name")
	}
	switch root := get(3); root.Kind {
	case record.KindInteger:
		if root.Int < 0 || root.Int > 1<<32-1 {
			return e, errors.NewCorruption(errors.ErrCorruptRecord, 0, -1, "%s has root page %d", e.Name, root.Int)
		}
		e.RootPage = uint32(root.Int)
	case record.KindNull:
	default:
		return e, errors.NewCorruption(errors.ErrCorruptRecord, 0, -1, "%s has a %s root page", e.Name, root.Kind)
	}
	return e, nil
}

func (s *Schema) build() error {
	var autos []Entry
	for _, e := range s.entries {
		switch e.Type {
		case "table":
			t, err := ParseTable(e.Name, e.SQL)
			if err != nil {
				return err
			}
			t.Name = e.Name
			t.RootPage = e.RootPage
			s.tables[strings.ToLower(e.Name)] = t
			s.ordering = append(s.ordering, t)
		case "index":
			if e.SQL == "" {
				autos = append(autos, e)
				continue
			}
			idx, err := ParseIndex(e.Name, e.SQL)
			if err != nil {
				return err
			}
			idx.Name, idx.Table, idx.RootPage = e.Name, e.TblName, e.RootPage
			s.addIndex(idx)
		default:
			s.other[strings.ToLower(e.Name)] = e.Type
		}
	}

	for _, e := range autos {
		s.addIndex(s.autoIndex(e, autos))
	}
	return nil
}

func (s *Schema) addIndex(idx *Index) {
	s.indexes[strings.ToLower(idx.Name)] = idx
	lt := strings.ToLower(idx.Table)
	s.byTable[lt] = append(s.byTable[lt], idx)
}

// autoIndex describes an index the engine created for a constraint. Its
// key is recovered by matching the sequence number in the index name
// against the table's constraints; when the counts disagree the key is
// left unknown and the index is never used for lookups.
func (s *Schema) autoIndex(e Entry, all []Entry) *Index {
	idx := &Index{Name: e.Name, Table: e.TblName, RootPage: e.RootPage, Auto: true}

	t, ok := s.tables[strings.ToLower(e.TblName)]
	if !ok || t.WithoutRowID {
		return idx
	}
	prefix := "sqlite_autoindex_" + e.TblName + "_"
	if !strings.HasPrefix(e.Name, prefix) {
		return idx
	}
	n, err := strconv.Atoi(e.Name[len(prefix):])
	if err != nil || n < 1 || n > len(t.keys) {
		return idx
	}
	count := 0
	for _, other := range all {
		if strings.EqualFold(other.TblName, e.TblName) {
			count++
		}
	}
	if count != len(t.keys) {
		return idx
	}

	k := t.keys[n-1]
	idx.Columns = k.columns
	idx.Collations = k.collations
	idx.Desc = k.desc
	idx.Unique = true
	return idx
}
