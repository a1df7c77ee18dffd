// Package testdb writes real database files for tests through a SQL
// driver, so readers are checked against files produced by the reference
// implementation rather than by hand.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite
//   - -tags cgo_sqlite: mattn/go-sqlite3
package testdb

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// DriverName returns the database/sql driver used to write fixtures.
func DriverName() string { return driverName }

// DriverType returns "purego" or "cgo".
func DriverType() string { return driverType }

// Build creates a database in a temporary directory by running stmts in
// order and returns its path. The file is closed before Build returns.
func Build(t testing.TB, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db := Open(t, path)
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			t.Fatalf("testdb: %q: %v", stmt, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("testdb: close: %v", err)
	}
	return path
}

// Open opens path with the fixture driver. The handle is closed when the
// test ends.
func Open(t testing.TB, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open(driverName, path)
	if err != nil {
		t.Fatalf("testdb: open %s: %v", path, err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// Query runs a query through the driver and returns every row with each
// value rendered by render.
func Query(t testing.TB, path string, render func(any) string, query string, args ...any) [][]string {
	t.Helper()
	db := Open(t, path)
	rows, err := db.Query(query, args...)
	if err != nil {
		t.Fatalf("testdb: %q: %v", query, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		t.Fatal(err)
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			t.Fatal(err)
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = render(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}
