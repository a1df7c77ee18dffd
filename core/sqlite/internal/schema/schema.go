package schema

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/litereader/core/errors"
)

// Entry is one row of the catalog table.
type Entry struct {
	Type     string // "table", "index", "view" or "trigger"
	Name     string
	TblName  string
	RootPage uint32
	SQL      string // empty for automatic indexes
}

// Column is one declared column of a table.
type Column struct {
	Name       string
	Type       string // declared type as written, e.g. "VARCHAR(100)"
	Affinity   Affinity
	PrimaryKey bool
	NotNull    bool
	Collation  string // upper case; empty means BINARY
	Generated  bool
	Stored     bool // generated column kept in the record
}

// Table is a table definition recovered from the catalog.
type Table struct {
	Name     string
	RootPage uint32
	SQL      string
	Columns  []Column
	// RowidAlias is the column that aliases the rowid (an INTEGER PRIMARY
	// KEY), or -1.
	RowidAlias   int
	WithoutRowID bool
	Strict       bool
	Virtual      bool
	Module       string // virtual table module

	keys []key // PRIMARY KEY and UNIQUE keys in declaration order
}

// key is a PRIMARY KEY or UNIQUE constraint; each one gets an automatic
// index unless it is the rowid alias.
type key struct {
	columns     []string
	collations  []string
	desc        []bool
	primary     bool
	columnLevel bool
}

// Index is an index definition recovered from the catalog.
type Index struct {
	Name     string
	Table    string
	RootPage uint32
	SQL      string
	// Columns are the key columns in order. Expression terms are "".
	Columns []string
	// Collations are upper case; "" means the column's own collation.
	Collations []string
	Desc       []bool
	Unique     bool
	Partial    bool
	// Auto marks indexes created for PRIMARY KEY and UNIQUE constraints.
	Auto bool
}

// Schema is the catalog of one database file.
type Schema struct {
	entries  []Entry
	tables   map[string]*Table
	indexes  map[string]*Index
	byTable  map[string][]*Index
	other    map[string]string // views and triggers by name, value is the type
	ordering []*Table
}

func newSchema() *Schema {
	return &Schema{
		tables:  make(map[string]*Table),
		indexes: make(map[string]*Index),
		byTable: make(map[string][]*Index),
		other:   make(map[string]string),
	}
}

// Entries returns the catalog rows in storage order.
func (s *Schema) Entries() []Entry { return s.entries }

// Tables returns the tables in catalog order.
func (s *Schema) Tables() []*Table { return s.ordering }

// TableNames returns the user table names sorted, leaving out the
// sqlite_ internal tables.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.ordering))
	for _, t := range s.ordering {
		if isInternal(t.Name) {
			continue
		}
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// IndexCount returns the number of indexes in the catalog, automatic ones
// included.
func (s *Schema) IndexCount() int { return len(s.indexes) }

// Lookup returns the table with the given name, matched case-insensitively.
// The catalog itself is reachable as sqlite_master or sqlite_schema.
func (s *Schema) Lookup(name string) (*Table, error) {
	lower := strings.ToLower(name)
	if t, ok := s.tables[lower]; ok {
		return t, nil
	}
	switch lower {
	case "sqlite_master", "sqlite_schema":
		return masterTable(name), nil
	}
	nf := errors.NewTableNotFound(name)
	if typ, ok := s.other[lower]; ok {
		nf.Err = errors.NewUnsupported(typ, name+" is a "+typ+", not a table")
	}
	return nil, nf
}

// Index returns the index with the given name.
func (s *Schema) Index(name string) (*Index, bool) {
	idx, ok := s.indexes[strings.ToLower(name)]
	return idx, ok
}

// IndexesOf returns the indexes on a table: declared indexes in catalog
// order, then automatic ones.
func (s *Schema) IndexesOf(table string) []*Index {
	return s.byTable[strings.ToLower(table)]
}

// IndexFor returns an index that can answer an equality filter on column
// of table: its first key column is column, compared with BINARY
// collation, and it covers every row. It returns nil when there is none.
func (s *Schema) IndexFor(table, column string) *Index {
	t, ok := s.tables[strings.ToLower(table)]
	if !ok {
		return nil
	}
	col := t.ColumnIndex(column)
	if col < 0 {
		return nil
	}
	for _, idx := range s.IndexesOf(table) {
		if idx.Partial || idx.RootPage == 0 || len(idx.Columns) == 0 {
			continue
		}
		if !strings.EqualFold(idx.Columns[0], column) {
			continue
		}
		coll := idx.Collations[0]
		if coll == "" {
			coll = t.Columns[col].Collation
		}
		if coll != "" && coll != "BINARY" {
			continue
		}
		return idx
	}
	return nil
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// StorageIndex maps column i to its position in the row record. Virtual
// generated columns are not stored and map to -1.
func (t *Table) StorageIndex(i int) int {
	if t.Columns[i].Generated && !t.Columns[i].Stored {
		return -1
	}
	n := 0
	for _, c := range t.Columns[:i] {
		if !c.Generated || c.Stored {
			n++
		}
	}
	return n
}

func (t *Table) dropPrimaryKey() {
	for i, k := range t.keys {
		if k.primary {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			return
		}
	}
}

func isInternal(name string) bool {
	return len(name) >= 7 && strings.EqualFold(name[:7], "sqlite_")
}

// masterTable describes the catalog table itself.
func masterTable(name string) *Table {
	return &Table{
		Name:       name,
		RootPage:   1,
		RowidAlias: -1,
		Columns: []Column{
			{Name: "type", Type: "text", Affinity: AffinityText},
			{Name: "name", Type: "text", Affinity: AffinityText},
			{Name: "tbl_name", Type: "text", Affinity: AffinityText},
			{Name: "rootpage", Type: "int", Affinity: AffinityInteger},
			{Name: "sql", Type: "text", Affinity: AffinityText},
		},
	}
}
