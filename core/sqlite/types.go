package sqlite

import (
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/engine"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/schema"
)

// Query types.
type (
	// QueryRequest selects columns, or a count, from one table.
	QueryRequest = engine.Request
	// Filter is a single column = literal condition.
	Filter = engine.Filter
	// Rows is a lazy, single pass result.
	Rows = engine.Rows
	// Plan is the access path chosen for a request.
	Plan = engine.Plan
	// Access names a plan's access path.
	Access = engine.Access
)

// Access paths.
const (
	FullScan  = engine.FullScan
	RowidSeek = engine.RowidSeek
	IndexSeek = engine.IndexSeek
	NoRows    = engine.NoRows
)

// CountColumn is the column name of a COUNT result.
const CountColumn = engine.CountColumn

// Schema types.
type (
	Schema = schema.Schema
	Entry  = schema.Entry
	Table  = schema.Table
	Column = schema.Column
	Index  = schema.Index
)

// Value types.
type (
	// Value is one column value.
	Value = record.Value
	// Kind is the storage class of a Value.
	Kind = record.Kind
)

// Storage classes.
const (
	KindNull    = record.KindNull
	KindInteger = record.KindInteger
	KindFloat   = record.KindFloat
	KindText    = record.KindText
	KindBlob    = record.KindBlob
)

func Null() Value            { return record.NullValue() }
func Int(i int64) Value      { return record.IntValue(i) }
func Float(f float64) Value  { return record.FloatValue(f) }
func Text(s string) Value    { return record.TextValue(s) }
func Blob(b []byte) Value    { return record.BlobValue(b) }
func Compare(a, b Value) int { return record.Compare(a, b) }
