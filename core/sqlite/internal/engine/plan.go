// Package engine plans and runs the restricted queries the reader answers:
// a projection or COUNT(*) over one table, optionally filtered by a single
// column = literal comparison.
//
// Three access paths exist. A filter on the rowid (or its INTEGER PRIMARY
// KEY alias) becomes a point lookup in the table tree. A filter on a column
// that leads a usable index seeks the index and fetches each matching row
// by rowid. Anything else is a full scan with the filter applied row by
// row. Rows are produced lazily; COUNT keeps only a running total.
package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/schema"
)

// Request is a query against one table.
type Request struct {
	Table string
	// Columns to return in order; nil, empty or "*" means every column.
	Columns []string
	Where   *Filter
	// Count returns a single row holding the number of matches.
	Count bool
}

// Filter is an equality test of one column against a literal.
type Filter struct {
	Column string
	Value  record.Value
}

// Access is the access path a Plan uses.
type Access int

const (
	FullScan Access = iota
	RowidSeek
	IndexSeek
	// NoRows answers a filter that can never match, such as c = NULL,
	// without reading the table.
	NoRows
)

func (a Access) String() string {
	switch a {
	case FullScan:
		return "full-scan"
	case RowidSeek:
		return "rowid-seek"
	case IndexSeek:
		return "index-seek"
	case NoRows:
		return "no-rows"
	}
	return fmt.Sprintf("Access(%d)", int(a))
}

// CountColumn names the single column of a COUNT result.
const CountColumn = "COUNT(*)"

// rowidColumn stands for the rowid in column positions.
const rowidColumn = -2

// Plan is a checked, ready to run Request.
type Plan struct {
	Access  Access
	Table   *schema.Table
	Index   *schema.Index // IndexSeek only
	Columns []string      // result column names
	Count   bool

	proj      []int        // table column per result column
	filterCol int          // -1 when there is no filter
	literal   record.Value // filter literal after affinity
	rowid     int64        // RowidSeek target
	fetch     bool         // rows must be read and decoded
	check     bool         // filter must be evaluated per row
}

// String describes the plan for logs and the CLI, e.g.
// "index-seek users via idx_users_email".
func (p *Plan) String() string {
	var b strings.Builder
	b.WriteString(p.Access.String())
	b.WriteByte(' ')
	b.WriteString(p.Table.Name)
	if p.Index != nil {
		b.WriteString(" via ")
		b.WriteString(p.Index.Name)
	}
	if p.Count {
		b.WriteString(" (count)")
	}
	return b.String()
}

// Prepare resolves names in req against s and picks an access path.
func Prepare(s *schema.Schema, req Request) (*Plan, error) {
	t, err := s.Lookup(req.Table)
	if err != nil {
		return nil, err
	}
	switch {
	case t.Virtual:
		return nil, errors.NewUnsupported("virtual table", t.Name+" uses module "+t.Module)
	case t.WithoutRowID:
		return nil, errors.NewUnsupported("WITHOUT ROWID table", t.Name)
	}

	p := &Plan{Table: t, Count: req.Count, filterCol: -1}

	if req.Count {
		p.Columns = []string{CountColumn}
	} else if err := p.project(req.Columns); err != nil {
		return nil, err
	}

	if req.Where == nil {
		p.Access = FullScan
		p.fetch = !req.Count
		return p, nil
	}

	col, err := p.resolve(req.Where.Column)
	if err != nil {
		return nil, err
	}
	p.filterCol = col
	aff := schema.AffinityInteger
	if col != rowidColumn {
		aff = t.Columns[col].Affinity
	}
	p.literal = record.CoerceLiteral(req.Where.Value, aff)

	switch {
	case p.literal.IsNull():
		p.Access = NoRows
	case col == rowidColumn || col == t.RowidAlias:
		if id, ok := exactInt(p.literal); ok {
			p.Access = RowidSeek
			p.rowid = id
			p.fetch = !req.Count
			break
		}
		p.scanWithFilter()
	default:
		if idx := s.IndexFor(t.Name, t.Columns[col].Name); idx != nil {
			p.Access = IndexSeek
			p.Index = idx
			p.fetch = !req.Count
			break
		}
		p.scanWithFilter()
	}
	return p, nil
}

func (p *Plan) scanWithFilter() {
	p.Access = FullScan
	p.fetch = true
	p.check = true
}

// project fills in the result columns. "*" expands to every declared
// column and may appear alongside named columns.
func (p *Plan) project(cols []string) error {
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	for _, name := range cols {
		if name == "*" {
			for i, c := range p.Table.Columns {
				if c.Generated && !c.Stored {
					continue
				}
				p.proj = append(p.proj, i)
				p.Columns = append(p.Columns, c.Name)
			}
			continue
		}
		i, err := p.resolve(name)
		if err != nil {
			return err
		}
		p.proj = append(p.proj, i)
		if i == rowidColumn {
			p.Columns = append(p.Columns, name)
		} else {
			p.Columns = append(p.Columns, p.Table.Columns[i].Name)
		}
	}
	return nil
}

// resolve maps a column name to its position. rowid, _rowid_ and oid
// name the rowid unless the table declares a column of that name.
func (p *Plan) resolve(name string) (int, error) {
	if i := p.Table.ColumnIndex(name); i >= 0 {
		if p.Table.StorageIndex(i) < 0 {
			return 0, errors.NewUnsupported("virtual generated column", p.Table.Name+"."+p.Table.Columns[i].Name)
		}
		return i, nil
	}
	switch strings.ToLower(name) {
	case "rowid", "_rowid_", "oid":
		return rowidColumn, nil
	}
	return 0, errors.NewColumnNotFound(p.Table.Name, name)
}

// alias fills in the rowid alias column of a decoded record.
func (p *Plan) alias(rowid int64, values []record.Value) {
	if p.Table.RowidAlias >= 0 {
		record.AliasRowid(values, p.Table.StorageIndex(p.Table.RowidAlias), rowid)
	}
}

// value returns table column col of a row whose record has been through
// alias. Columns missing from short records read as NULL.
func (p *Plan) value(col int, rowid int64, values []record.Value) record.Value {
	if col == rowidColumn {
		return record.IntValue(rowid)
	}
	if si := p.Table.StorageIndex(col); si < len(values) {
		return values[si]
	}
	return record.NullValue()
}

// row builds a result row.
func (p *Plan) row(rowid int64, values []record.Value) []record.Value {
	out := make([]record.Value, len(p.proj))
	for i, col := range p.proj {
		out[i] = p.value(col, rowid, values)
	}
	return out
}

// matches evaluates the filter against a decoded row.
func (p *Plan) matches(rowid int64, values []record.Value) bool {
	if p.filterCol == -1 {
		return true
	}
	return record.Equal(p.value(p.filterCol, rowid, values), p.literal)
}

// exactInt reports v as an int64 when it holds an integral number.
func exactInt(v record.Value) (int64, bool) {
	switch v.Kind {
	case record.KindInteger:
		return v.Int, true
	case record.KindFloat:
		if v.Float == math.Trunc(v.Float) && v.Float >= math.MinInt64 && v.Float < math.MaxInt64 {
			return int64(v.Float), true
		}
	}
	return 0, false
}
