package engine

import (
	"context"
	"time"

	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
	"github.com/FocuswithJustin/litereader/internal/logging"
)

// Rows is a lazily evaluated result. Each call to Next reads only as many
// pages as it takes to find the next matching row.
type Rows struct {
	ctx   context.Context
	plan  *Plan
	src   source
	row   []record.Value
	n     int64
	start time.Time
	err   error
	done  bool
}

// Columns returns the result column names.
func (r *Rows) Columns() []string { return r.plan.Columns }

// Plan returns the plan being executed.
func (r *Rows) Plan() *Plan { return r.plan }

// Next advances to the next row. It returns false at the end of the
// result, on error, or once the context is cancelled.
func (r *Rows) Next() bool {
	if r.done {
		return false
	}
	if err := r.ctx.Err(); err != nil {
		r.finish(err)
		return false
	}
	if r.plan.Count {
		return r.count()
	}
	for r.src.next() {
		rowid := r.src.rowid()
		var vals []record.Value
		if r.plan.fetch {
			v, err := r.values(rowid)
			if err != nil {
				r.finish(err)
				return false
			}
			vals = v
		}
		if r.plan.check && !r.plan.matches(rowid, vals) {
			continue
		}
		r.row = r.plan.row(rowid, vals)
		r.n++
		return true
	}
	r.finish(r.src.err())
	return false
}

// count drains the source on the first call and yields the total.
func (r *Rows) count() bool {
	if r.row != nil {
		r.finish(nil)
		return false
	}
	var total int64
	for r.src.next() {
		if r.plan.check {
			rowid := r.src.rowid()
			vals, err := r.values(rowid)
			if err != nil {
				r.finish(err)
				return false
			}
			if !r.plan.matches(rowid, vals) {
				continue
			}
		}
		total++
		if total&0x3ff == 0 {
			if err := r.ctx.Err(); err != nil {
				r.finish(err)
				return false
			}
		}
	}
	if err := r.src.err(); err != nil {
		r.finish(err)
		return false
	}
	r.row = []record.Value{record.IntValue(total)}
	r.n = 1
	return true
}

func (r *Rows) values(rowid int64) ([]record.Value, error) {
	vals, err := r.src.values()
	if err != nil {
		return nil, err
	}
	r.plan.alias(rowid, vals)
	return vals, nil
}

// Row returns the current row. The slice is not reused between calls.
func (r *Rows) Row() []record.Value { return r.row }

// Err returns the error that ended iteration, if any.
func (r *Rows) Err() error { return r.err }

// Close stops iteration early. It is safe to call more than once.
func (r *Rows) Close() error {
	r.finish(nil)
	return nil
}

func (r *Rows) finish(err error) {
	if r.done {
		return
	}
	r.done = true
	r.err = err
	r.row = nil
	logging.QueryFinished(r.ctx, r.plan.Table.Name, r.n, time.Since(r.start), err)
}
