package sqlite_test

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/litereader/core/sqlite"
	"github.com/FocuswithJustin/litereader/internal/testdb"
)

// mixedDB holds a few thousand rows on small pages so the table and its
// indexes are several levels deep. k, k2 and k3 hold the same values of
// mixed storage class; k is indexed ascending, k3 descending and k2 not
// at all.
func mixedDB(t *testing.T) *sqlite.DB {
	t.Helper()
	path := testdb.Build(t,
		"PRAGMA page_size = 512",
		"CREATE TABLE t(id INTEGER PRIMARY KEY, k, k2, k3, label TEXT)",
		`INSERT INTO t(k, label)
		 WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM c WHERE x < 3000)
		 SELECT CASE x % 5
		          WHEN 0 THEN x % 37
		          WHEN 1 THEN 'k' || (x % 11)
		          WHEN 2 THEN (x % 13) + 0.5
		          WHEN 3 THEN NULL
		          ELSE x % 37
		        END,
		        printf('row %05d', x)
		 FROM c`,
		"UPDATE t SET k2 = k, k3 = k",
		"DELETE FROM t WHERE id % 7 = 0",
		"CREATE INDEX t_k ON t(k)",
		"CREATE INDEX t_k3 ON t(k3 DESC)",
	)
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// rowids runs req, which must project only the rowid, and returns the
// sorted result.
func rowids(t *testing.T, db *sqlite.DB, req sqlite.QueryRequest) []int64 {
	t.Helper()
	req.Columns = []string{"id"}
	rows, err := db.Execute(context.Background(), req)
	require.NoError(t, err)
	defer rows.Close()
	var out []int64
	for rows.Next() {
		require.Equal(t, sqlite.KindInteger, rows.Row()[0].Kind)
		out = append(out, rows.Row()[0].Int)
	}
	require.NoError(t, rows.Err())
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestScanRowidsIncrease(t *testing.T) {
	db := mixedDB(t)
	rows, err := db.Execute(context.Background(), sqlite.QueryRequest{Table: "t", Columns: []string{"rowid", "id"}})
	require.NoError(t, err)
	defer rows.Close()

	var last int64
	n := 0
	for rows.Next() {
		id := rows.Row()[0].Int
		require.Greater(t, id, last)
		require.Equal(t, rows.Row()[0], rows.Row()[1])
		last = id
		n++
	}
	require.NoError(t, rows.Err())
	require.Equal(t, 3000-3000/7, n)
}

func TestIndexSeekMatchesScan(t *testing.T) {
	db := mixedDB(t)

	seen := map[string]sqlite.Value{}
	rows, err := db.Execute(context.Background(), sqlite.QueryRequest{Table: "t", Columns: []string{"k"}})
	require.NoError(t, err)
	for rows.Next() {
		v := rows.Row()[0]
		seen[v.Literal()] = v
	}
	require.NoError(t, rows.Err())

	literals := []sqlite.Value{sqlite.Int(999), sqlite.Text("zz"), sqlite.Float(0.25), sqlite.Float(3), sqlite.Blob([]byte("k1"))}
	for _, v := range seen {
		literals = append(literals, v)
	}

	for _, v := range literals {
		scan := sqlite.QueryRequest{Table: "t", Where: &sqlite.Filter{Column: "k2", Value: v}}
		asc := sqlite.QueryRequest{Table: "t", Where: &sqlite.Filter{Column: "k", Value: v}}
		desc := sqlite.QueryRequest{Table: "t", Where: &sqlite.Filter{Column: "k3", Value: v}}

		p, err := db.Prepare(asc)
		require.NoError(t, err)
		if v.IsNull() {
			require.Equal(t, sqlite.NoRows, p.Access)
			continue
		}
		require.Equal(t, sqlite.IndexSeek, p.Access)
		p, err = db.Prepare(desc)
		require.NoError(t, err)
		require.Equal(t, sqlite.IndexSeek, p.Access)
		p, err = db.Prepare(scan)
		require.NoError(t, err)
		require.Equal(t, sqlite.FullScan, p.Access)

		want := rowids(t, db, scan)
		require.Equal(t, want, rowids(t, db, asc), "k = %s", v.Literal())
		require.Equal(t, want, rowids(t, db, desc), "k3 = %s", v.Literal())

		scan.Count, asc.Count = true, true
		require.Equal(t, query(t, db, scan), query(t, db, asc), "COUNT k = %s", v.Literal())
	}
}

func TestIndexSeekMatchesScanUTF16(t *testing.T) {
	path := testdb.Build(t,
		"PRAGMA encoding = 'UTF-16le'",
		"PRAGMA page_size = 512",
		"CREATE TABLE t(id INTEGER PRIMARY KEY, k TEXT, k2 TEXT)",
		`INSERT INTO t(k)
		 WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM c WHERE x < 600)
		 SELECT CASE x % 4
		          WHEN 0 THEN 'a' || x
		          WHEN 1 THEN char(256) || x
		          WHEN 2 THEN char(233) || x
		          ELSE char(65000) || char(128512) || x
		        END
		 FROM c`,
		"UPDATE t SET k2 = k",
		"CREATE INDEX t_k ON t(k)",
	)
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var keys []string
	for x := 1; x <= 600; x++ {
		keys = append(keys, []string{"a", "Ā", "é", "\uFDE8😀"}[x%4]+strconv.Itoa(x))
	}
	keys = append(keys, "a3", "Ā", "zz", "")

	for i, k := range keys {
		scan := sqlite.QueryRequest{Table: "t", Where: &sqlite.Filter{Column: "k2", Value: sqlite.Text(k)}}
		seek := sqlite.QueryRequest{Table: "t", Where: &sqlite.Filter{Column: "k", Value: sqlite.Text(k)}}
		p, err := db.Prepare(seek)
		require.NoError(t, err)
		require.Equal(t, sqlite.IndexSeek, p.Access)

		want := rowids(t, db, scan)
		if i < 600 {
			require.Equal(t, []int64{int64(i + 1)}, want, "k = %q", k)
		}
		require.Equal(t, want, rowids(t, db, seek), "k = %q", k)
	}
}

func TestCountMatchesScan(t *testing.T) {
	db := mixedDB(t)
	n := len(rowids(t, db, sqlite.QueryRequest{Table: "t"}))
	got := query(t, db, sqlite.QueryRequest{Table: "t", Count: true})
	require.Equal(t, [][]string{{sqlite.Int(int64(n)).String()}}, got)
}

func TestRowidAliasEqualsRowid(t *testing.T) {
	db := mixedDB(t)
	rows, err := db.Execute(context.Background(), sqlite.QueryRequest{Table: "t", Columns: []string{"id", "_rowid_", "oid"}})
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		r := rows.Row()
		require.Equal(t, r[1], r[0])
		require.Equal(t, r[2], r[0])
	}
	require.NoError(t, rows.Err())
}

func TestConcurrentQueries(t *testing.T) {
	db := mixedDB(t)
	want := rowids(t, db, sqlite.QueryRequest{Table: "t", Where: &sqlite.Filter{Column: "k", Value: sqlite.Int(5)}})

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			col := "k"
			if i%2 == 1 {
				col = "k2"
			}
			rows, err := db.Execute(context.Background(), sqlite.QueryRequest{
				Table:   "t",
				Columns: []string{"id"},
				Where:   &sqlite.Filter{Column: col, Value: sqlite.Int(5)},
			})
			if err != nil {
				errs <- err.Error()
				return
			}
			defer rows.Close()
			n := 0
			for rows.Next() {
				n++
			}
			if rows.Err() != nil {
				errs <- rows.Err().Error()
			} else if n != len(want) {
				errs <- col + ": wrong row count"
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
