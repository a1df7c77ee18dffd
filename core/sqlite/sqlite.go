// Package sqlite reads database files in the SQLite 3 on-disk format and
// answers simple queries against them without any write path.
//
// A DB is opened once; its header and schema are loaded at open time and
// never change afterwards. Queries are structured requests (see
// QueryRequest) rather than SQL text:
//
//	db, err := sqlite.Open("app.db")
//	if err != nil { ... }
//	defer db.Close()
//
//	rows, err := db.Execute(ctx, sqlite.QueryRequest{
//		Table:   "users",
//		Columns: []string{"name"},
//		Where:   &sqlite.Filter{Column: "id", Value: sqlite.Int(2)},
//	})
//	for rows.Next() {
//		fmt.Println(rows.Row()[0])
//	}
//
// A DB is safe for concurrent use. Each Rows value belongs to one
// goroutine.
package sqlite

import (
	"context"

	"github.com/FocuswithJustin/litereader/core/cache"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/engine"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/schema"
	"github.com/FocuswithJustin/litereader/internal/logging"
)

// DB is an open, read-only database file.
type DB struct {
	pager  *pager.Pager
	schema *schema.Schema
	engine *engine.Engine
}

type options struct {
	cachePages int
}

// Option configures Open.
type Option func(*options)

// WithPageCache sets how many decoded pages are kept in memory. Zero
// disables the cache.
func WithPageCache(pages int) Option {
	return func(o *options) {
		if pages < 0 {
			pages = 0
		}
		o.cachePages = pages
	}
}

// Open opens the database at path, which may be xz-compressed, and loads
// its schema.
func Open(path string, opts ...Option) (*DB, error) {
	o := options{cachePages: cache.DefaultPageCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	p, err := pager.Open(path, pager.Options{CacheSize: o.cachePages})
	if err != nil {
		return nil, err
	}
	tree := btree.New(p)
	s, err := schema.Load(tree)
	if err != nil {
		p.Close()
		return nil, err
	}

	h := p.Header()
	logging.DatabaseOpened(path, p.PageSize(), p.PageCount(),
		"encoding", h.EncodingName(),
		"tables", len(s.TableNames()),
		"indexes", s.IndexCount(),
	)
	return &DB{pager: p, schema: s, engine: engine.New(tree, s)}, nil
}

// Path returns the path the database was opened from.
func (db *DB) Path() string { return db.pager.Path() }

// Schema returns the catalog loaded at open time.
func (db *DB) Schema() *Schema { return db.schema }

// Prepare validates req and reports the plan Execute would use, without
// reading any rows.
func (db *DB) Prepare(req QueryRequest) (*Plan, error) {
	return db.engine.Prepare(req)
}

// Execute runs req. Rows are produced lazily as the caller calls Next;
// abandoning a Rows part way is safe.
func (db *DB) Execute(ctx context.Context, req QueryRequest) (*Rows, error) {
	return db.engine.Execute(ctx, req)
}

// Close releases the underlying file.
func (db *DB) Close() error {
	return db.pager.Close()
}
