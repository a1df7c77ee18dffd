package sqlite_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/litereader/core/sqlite"
	"github.com/FocuswithJustin/litereader/internal/testdb"
)

// renderDriver formats a value scanned from database/sql the way
// Value.String formats the same stored value.
func renderDriver(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

// Results from the reader agree with the SQL driver that wrote the file.
func TestAgreesWithDriver(t *testing.T) {
	path := testdb.Build(t,
		"PRAGMA page_size = 1024",
		"CREATE TABLE people(id INTEGER PRIMARY KEY, name TEXT NOT NULL, city TEXT, age INTEGER, note)",
		"CREATE INDEX people_city ON people(city)",
		"CREATE TABLE events(kind TEXT, who INTEGER, payload BLOB)",
		`INSERT INTO people(name, city, age, note)
		 WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM c WHERE x < 400)
		 SELECT 'person' || x,
		        CASE x % 4 WHEN 0 THEN 'Oslo' WHEN 1 THEN 'Lima' WHEN 2 THEN 'Kyiv' ELSE NULL END,
		        18 + x % 60,
		        CASE WHEN x % 9 = 0 THEN hex(randomblob(300)) ELSE NULL END
		 FROM c`,
		`INSERT INTO events(kind, who)
		 WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM c WHERE x < 250)
		 SELECT CASE x % 3 WHEN 0 THEN 'login' WHEN 1 THEN 'logout' ELSE 'error' END, x % 40 FROM c`,
	)
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()

	tests := []struct {
		sql string
		req sqlite.QueryRequest
	}{
		{
			"SELECT * FROM people",
			sqlite.QueryRequest{Table: "people"},
		},
		{
			"SELECT name, age FROM people WHERE city = 'Lima'",
			sqlite.QueryRequest{Table: "people", Columns: []string{"name", "age"}, Where: &sqlite.Filter{Column: "city", Value: sqlite.Text("Lima")}},
		},
		{
			"SELECT id FROM people WHERE age = '33'",
			sqlite.QueryRequest{Table: "people", Columns: []string{"id"}, Where: &sqlite.Filter{Column: "age", Value: sqlite.Text("33")}},
		},
		{
			"SELECT name FROM people WHERE id = 250",
			sqlite.QueryRequest{Table: "people", Columns: []string{"name"}, Where: &sqlite.Filter{Column: "id", Value: sqlite.Int(250)}},
		},
		{
			"SELECT COUNT(*) FROM people WHERE city = 'Oslo'",
			sqlite.QueryRequest{Table: "people", Count: true, Where: &sqlite.Filter{Column: "city", Value: sqlite.Text("Oslo")}},
		},
		{
			"SELECT rowid, kind, who FROM events",
			sqlite.QueryRequest{Table: "events", Columns: []string{"rowid", "kind", "who"}},
		},
		{
			"SELECT COUNT(*) FROM events WHERE who = 7",
			sqlite.QueryRequest{Table: "events", Count: true, Where: &sqlite.Filter{Column: "who", Value: sqlite.Int(7)}},
		},
		{
			"SELECT type, name, tbl_name, rootpage FROM sqlite_master",
			sqlite.QueryRequest{Table: "sqlite_master", Columns: []string{"type", "name", "tbl_name", "rootpage"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			want := testdb.Query(t, path, renderDriver, tt.sql)
			got := query(t, db, tt.req)
			if strings.Contains(tt.sql, "WHERE city") {
				// The driver may answer from the index in a different order.
				require.ElementsMatch(t, want, got)
				return
			}
			require.Equal(t, want, got)
		})
	}
}
