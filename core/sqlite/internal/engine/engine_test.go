package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/schema"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/testimage"
)

// fixture builds a small database:
//
//	page 1  catalog
//	page 2  users(id INTEGER PRIMARY KEY, name TEXT, email TEXT, age INT)
//	page 3  idx_users_email
//	page 4  pets(name TEXT, kind TEXT, legs INT), records written before legs existed
//	page 5  gen(a INT, b INT AS (a * 2) VIRTUAL, c INT)
func fixture(t *testing.T) *Engine {
	t.Helper()
	b := testimage.New(1024)
	users, idx, pets, gen := b.Alloc(), b.Alloc(), b.Alloc(), b.Alloc()

	catalog := [][]interface{}{
		{"table", "users", "users", int64(users), "CREATE TABLE users(id INTEGER PRIMARY KEY, name TEXT, email TEXT, age INT)"},
		{"index", "idx_users_email", "users", int64(idx), "CREATE INDEX idx_users_email ON users(email)"},
		{"table", "pets", "pets", int64(pets), "CREATE TABLE pets(name TEXT, kind TEXT, legs INT)"},
		{"table", "gen", "gen", int64(gen), "CREATE TABLE gen(a INT, b INT AS (a * 2) VIRTUAL, c INT)"},
		{"table", "kv", "kv", int64(6), "CREATE TABLE kv(k TEXT PRIMARY KEY, v) WITHOUT ROWID"},
		{"view", "adults", "adults", int64(0), "CREATE VIEW adults AS SELECT * FROM users WHERE age >= 18"},
	}
	var cells [][]byte
	for i, row := range catalog {
		rec := testimage.Record(row...)
		cells = append(cells, testimage.TableLeafCell(int64(i+1), len(rec), rec, 0))
	}
	b.Btree(1, testimage.LeafTable, 0, cells...)

	b.Btree(users, testimage.LeafTable, 0,
		row(1, nil, "alice", "a@x", 30),
		row(2, nil, "bob", "b@x", 25),
		row(3, nil, "carol", "c@x", 30),
		row(4, nil, "dave", "b@x", 41),
	)
	b.Btree(idx, testimage.LeafIndex, 0,
		entry("a@x", 1),
		entry("b@x", 2),
		entry("b@x", 4),
		entry("c@x", 3),
	)
	b.Btree(pets, testimage.LeafTable, 0,
		row(1, "rex", "dog"),
		row(2, "tom", "cat"),
	)
	b.Btree(gen, testimage.LeafTable, 0, row(1, 5, 7))

	r, size := b.Reader()
	p, err := pager.New(r, size, pager.Options{})
	if err != nil {
		t.Fatalf("pager.New() error = %v", err)
	}
	tree := btree.New(p)
	s, err := schema.Load(tree)
	if err != nil {
		t.Fatalf("schema.Load() error = %v", err)
	}
	return New(tree, s)
}

func row(rowid int64, values ...interface{}) []byte {
	rec := testimage.Record(values...)
	return testimage.TableLeafCell(rowid, len(rec), rec, 0)
}

func entry(values ...interface{}) []byte {
	rec := testimage.Record(values...)
	return testimage.IndexLeafCell(len(rec), rec, 0)
}

// collect drains rows into "|"-joined strings.
func collect(t *testing.T, rows *Rows) []string {
	t.Helper()
	var out []string
	for rows.Next() {
		parts := make([]string, len(rows.Row()))
		for i, v := range rows.Row() {
			parts[i] = v.String()
		}
		out = append(out, strings.Join(parts, "|"))
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows.Err() = %v", err)
	}
	return out
}

func where(col string, v record.Value) *Filter {
	return &Filter{Column: col, Value: v}
}

func TestExecute(t *testing.T) {
	e := fixture(t)
	tests := []struct {
		name    string
		req     Request
		access  Access
		columns []string
		want    []string
	}{
		{
			name:    "full scan",
			req:     Request{Table: "users"},
			access:  FullScan,
			columns: []string{"id", "name", "email", "age"},
			want:    []string{"1|alice|a@x|30", "2|bob|b@x|25", "3|carol|c@x|30", "4|dave|b@x|41"},
		},
		{
			name:    "projection",
			req:     Request{Table: "USERS", Columns: []string{"NAME", "rowid"}},
			access:  FullScan,
			columns: []string{"name", "rowid"},
			want:    []string{"alice|1", "bob|2", "carol|3", "dave|4"},
		},
		{
			name:    "star with extra column",
			req:     Request{Table: "pets", Columns: []string{"oid", "*"}},
			access:  FullScan,
			columns: []string{"oid", "name", "kind", "legs"},
			want:    []string{"1|rex|dog|", "2|tom|cat|"},
		},
		{
			name:    "rowid alias seek",
			req:     Request{Table: "users", Columns: []string{"name"}, Where: where("id", record.IntValue(3))},
			access:  RowidSeek,
			columns: []string{"name"},
			want:    []string{"carol"},
		},
		{
			name:   "rowid seek with text literal",
			req:    Request{Table: "users", Columns: []string{"name"}, Where: where("_rowid_", record.TextValue("2"))},
			access: RowidSeek,
			want:   []string{"bob"},
		},
		{
			name:   "rowid seek miss",
			req:    Request{Table: "users", Where: where("id", record.IntValue(99))},
			access: RowidSeek,
		},
		{
			name:   "fractional rowid scans",
			req:    Request{Table: "users", Where: where("id", record.FloatValue(2.5))},
			access: FullScan,
		},
		{
			name:   "integral float seeks",
			req:    Request{Table: "users", Columns: []string{"name"}, Where: where("id", record.FloatValue(4))},
			access: RowidSeek,
			want:   []string{"dave"},
		},
		{
			name:   "index seek",
			req:    Request{Table: "users", Columns: []string{"id", "name"}, Where: where("email", record.TextValue("b@x"))},
			access: IndexSeek,
			want:   []string{"2|bob", "4|dave"},
		},
		{
			name:   "index seek miss",
			req:    Request{Table: "users", Where: where("email", record.TextValue("zzz"))},
			access: IndexSeek,
		},
		{
			name:   "filtered scan",
			req:    Request{Table: "users", Columns: []string{"name"}, Where: where("age", record.IntValue(30))},
			access: FullScan,
			want:   []string{"alice", "carol"},
		},
		{
			name:   "filter literal takes column affinity",
			req:    Request{Table: "users", Columns: []string{"name"}, Where: where("age", record.TextValue("30"))},
			access: FullScan,
			want:   []string{"alice", "carol"},
		},
		{
			name:   "null literal",
			req:    Request{Table: "users", Where: where("name", record.NullValue())},
			access: NoRows,
		},
		{
			name:   "missing trailing column reads as null",
			req:    Request{Table: "pets", Where: where("legs", record.IntValue(4))},
			access: FullScan,
		},
		{
			name:    "virtual generated column skipped by star",
			req:     Request{Table: "gen"},
			access:  FullScan,
			columns: []string{"a", "c"},
			want:    []string{"5|7"},
		},
		{
			name:   "catalog",
			req:    Request{Table: "sqlite_master", Columns: []string{"name"}, Where: where("type", record.TextValue("table"))},
			access: FullScan,
			want:   []string{"users", "pets", "gen", "kv"},
		},
		{
			name:    "count",
			req:     Request{Table: "users", Count: true},
			access:  FullScan,
			columns: []string{CountColumn},
			want:    []string{"4"},
		},
		{
			name:   "count index seek",
			req:    Request{Table: "users", Count: true, Where: where("email", record.TextValue("b@x"))},
			access: IndexSeek,
			want:   []string{"2"},
		},
		{
			name:   "count rowid seek",
			req:    Request{Table: "users", Count: true, Where: where("rowid", record.IntValue(1))},
			access: RowidSeek,
			want:   []string{"1"},
		},
		{
			name:   "count filtered scan",
			req:    Request{Table: "users", Count: true, Where: where("age", record.IntValue(30))},
			access: FullScan,
			want:   []string{"2"},
		},
		{
			name:   "count no rows",
			req:    Request{Table: "users", Count: true, Where: where("age", record.NullValue())},
			access: NoRows,
			want:   []string{"0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := e.Execute(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			defer rows.Close()
			if got := rows.Plan().Access; got != tt.access {
				t.Errorf("access = %v, want %v", got, tt.access)
			}
			if tt.columns != nil && !reflect.DeepEqual(rows.Columns(), tt.columns) {
				t.Errorf("Columns() = %v, want %v", rows.Columns(), tt.columns)
			}
			if got := collect(t, rows); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("rows = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrepareErrors(t *testing.T) {
	e := fixture(t)
	tests := []struct {
		name        string
		req         Request
		want        error
		unsupported bool
	}{
		{"unknown table", Request{Table: "nope"}, apperrors.ErrTableNotFound, false},
		{"unknown column", Request{Table: "users", Columns: []string{"nope"}}, apperrors.ErrColumnNotFound, false},
		{"unknown filter column", Request{Table: "users", Where: where("nope", record.IntValue(1))}, apperrors.ErrColumnNotFound, false},
		{"view", Request{Table: "adults"}, apperrors.ErrTableNotFound, true},
		{"without rowid", Request{Table: "kv"}, nil, true},
		{"virtual generated column", Request{Table: "gen", Columns: []string{"b"}}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Prepare(tt.req)
			if err == nil {
				t.Fatal("Prepare() succeeded")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			var ue *apperrors.UnsupportedError
			if got := errors.As(err, &ue); got != tt.unsupported {
				t.Errorf("UnsupportedError = %v, want %v (%v)", got, tt.unsupported, err)
			}
		})
	}
}

func TestPlanString(t *testing.T) {
	e := fixture(t)
	p, err := e.Prepare(Request{Table: "users", Count: true, Where: where("email", record.TextValue("a@x"))})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.String(), "index-seek users via idx_users_email (count)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRowsContextCancelled(t *testing.T) {
	e := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	rows, err := e.Execute(ctx, Request{Table: "users"})
	if err != nil {
		t.Fatal(err)
	}
	if !rows.Next() {
		t.Fatal("first Next() = false")
	}
	cancel()
	if rows.Next() {
		t.Error("Next() after cancel = true")
	}
	if !errors.Is(rows.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", rows.Err())
	}
}

func TestRowsClose(t *testing.T) {
	e := fixture(t)
	rows, err := e.Execute(context.Background(), Request{Table: "users"})
	if err != nil {
		t.Fatal(err)
	}
	rows.Next()
	if err := rows.Close(); err != nil {
		t.Fatal(err)
	}
	if rows.Next() {
		t.Error("Next() after Close = true")
	}
	if rows.Err() != nil {
		t.Errorf("Err() after Close = %v", rows.Err())
	}
	rows.Close()
}

func TestIndexPointsAtMissingRow(t *testing.T) {
	b := testimage.New(1024)
	users, idx := b.Alloc(), b.Alloc()
	cat := [][]interface{}{
		{"table", "t", "t", int64(users), "CREATE TABLE t(a TEXT)"},
		{"index", "t_a", "t", int64(idx), "CREATE INDEX t_a ON t(a)"},
	}
	var cells [][]byte
	for i, r := range cat {
		rec := testimage.Record(r...)
		cells = append(cells, testimage.TableLeafCell(int64(i+1), len(rec), rec, 0))
	}
	b.Btree(1, testimage.LeafTable, 0, cells...)
	b.Btree(users, testimage.LeafTable, 0, row(1, "x"))
	b.Btree(idx, testimage.LeafIndex, 0, entry("x", 1), entry("x", 9))

	r, size := b.Reader()
	p, err := pager.New(r, size, pager.Options{})
	if err != nil {
		t.Fatal(err)
	}
	tree := btree.New(p)
	s, err := schema.Load(tree)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := New(tree, s).Execute(context.Background(), Request{Table: "t", Where: where("a", record.TextValue("x"))})
	if err != nil {
		t.Fatal(err)
	}
	if !rows.Next() {
		t.Fatalf("first row missing: %v", rows.Err())
	}
	if rows.Next() {
		t.Fatal("second row should fail")
	}
	var ce *apperrors.CorruptionError
	if !errors.As(rows.Err(), &ce) || ce.Page != users {
		t.Errorf("Err() = %v, want corruption at page %d", rows.Err(), users)
	}
}

func TestSeekDecodeErrorHasPage(t *testing.T) {
	b := testimage.New(1024)
	tbl, idx := b.Alloc(), b.Alloc()
	cat := [][]interface{}{
		{"table", "t", "t", int64(tbl), "CREATE TABLE t(a TEXT)"},
		{"index", "t_a", "t", int64(idx), "CREATE INDEX t_a ON t(a)"},
	}
	var cells [][]byte
	for i, r := range cat {
		rec := testimage.Record(r...)
		cells = append(cells, testimage.TableLeafCell(int64(i+1), len(rec), rec, 0))
	}
	b.Btree(1, testimage.LeafTable, 0, cells...)
	bad := []byte{0x02, 0x0a} // serial type 10 is reserved
	b.Btree(tbl, testimage.LeafTable, 0, testimage.TableLeafCell(1, len(bad), bad, 0))
	b.Btree(idx, testimage.LeafIndex, 0, entry("x", 1))

	r, size := b.Reader()
	p, err := pager.New(r, size, pager.Options{})
	if err != nil {
		t.Fatal(err)
	}
	tree := btree.New(p)
	s, err := schema.Load(tree)
	if err != nil {
		t.Fatal(err)
	}
	e := New(tree, s)

	tests := []struct {
		name   string
		where  *Filter
		access Access
	}{
		{"rowid seek", where("rowid", record.IntValue(1)), RowidSeek},
		{"index seek", where("a", record.TextValue("x")), IndexSeek},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := e.Execute(context.Background(), Request{Table: "t", Where: tt.where})
			if err != nil {
				t.Fatal(err)
			}
			if rows.Plan().Access != tt.access {
				t.Fatalf("access = %s, want %s", rows.Plan().Access, tt.access)
			}
			if rows.Next() {
				t.Fatal("Next() = true on a corrupt record")
			}
			var ce *apperrors.CorruptionError
			if !errors.As(rows.Err(), &ce) || ce.Page != tbl {
				t.Errorf("Err() = %v, want corruption at page %d", rows.Err(), tbl)
			}
			if !errors.Is(rows.Err(), apperrors.ErrUnsupportedSerialType) {
				t.Errorf("Err() = %v, want ErrUnsupportedSerialType", rows.Err())
			}
		})
	}
}
