package schema

import (
	"strings"

	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
)

// Affinity is re-exported from the record package, which applies it.
type Affinity = record.Affinity

const (
	AffinityBlob    = record.AffinityBlob
	AffinityText    = record.AffinityText
	AffinityNumeric = record.AffinityNumeric
	AffinityInteger = record.AffinityInteger
	AffinityReal    = record.AffinityReal
)

// DetermineAffinity derives a column's affinity from its declared type.
// The first matching rule wins:
//
//  1. contains "INT"                   -> INTEGER
//  2. contains "CHAR", "CLOB", "TEXT"  -> TEXT
//  3. contains "BLOB", or no type      -> BLOB
//  4. contains "REAL", "FLOA", "DOUB"  -> REAL
//  5. otherwise                        -> NUMERIC
func DetermineAffinity(typeName string) Affinity {
	if typeName == "" {
		return AffinityBlob
	}
	upper := strings.ToUpper(typeName)

	if strings.Contains(upper, "INT") {
		return AffinityInteger
	}
	if strings.Contains(upper, "CHAR") ||
		strings.Contains(upper, "CLOB") ||
		strings.Contains(upper, "TEXT") {
		return AffinityText
	}
	if strings.Contains(upper, "BLOB") {
		return AffinityBlob
	}
	if strings.Contains(upper, "REAL") ||
		strings.Contains(upper, "FLOA") ||
		strings.Contains(upper, "DOUB") {
		return AffinityReal
	}
	return AffinityNumeric
}

// strictAffinity is DetermineAffinity for STRICT tables, where ANY columns
// keep values exactly as given.
func strictAffinity(typeName string) Affinity {
	if strings.EqualFold(typeName, "ANY") {
		return AffinityBlob
	}
	return DetermineAffinity(typeName)
}
