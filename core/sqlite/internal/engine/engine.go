package engine

import (
	"context"
	"time"

	"github.com/FocuswithJustin/litereader/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/schema"
	"github.com/FocuswithJustin/litereader/internal/logging"
)

// Engine answers requests against one database.
type Engine struct {
	tree   *btree.Tree
	schema *schema.Schema
}

// New returns an engine reading tree and resolving names against s.
func New(tree *btree.Tree, s *schema.Schema) *Engine {
	return &Engine{tree: tree, schema: s}
}

// Prepare checks req and chooses its access path without reading rows.
// The filter literal is bound to the file's text encoding.
func (e *Engine) Prepare(req Request) (*Plan, error) {
	p, err := Prepare(e.schema, req)
	if err != nil {
		return nil, err
	}
	p.literal = record.Bind(p.literal, e.tree.Encoding())
	return p, nil
}

// Execute plans req and returns its rows. Rows are read as the caller
// iterates; the context is checked on every call to Rows.Next.
func (e *Engine) Execute(ctx context.Context, req Request) (*Rows, error) {
	ctx = logging.EnsureRequestID(ctx)
	p, err := e.Prepare(req)
	if err != nil {
		return nil, err
	}
	logging.QueryPlanned(ctx, p.Table.Name, p.String())
	return &Rows{ctx: ctx, plan: p, src: newSource(e.tree, p), start: time.Now()}, nil
}
