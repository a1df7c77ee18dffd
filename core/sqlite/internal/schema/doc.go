// Package schema loads the catalog table stored on page 1 and describes the
// tables and indexes it lists.
//
// Every catalog row has five columns:
//
//	type      "table", "index", "view" or "trigger"
//	name      object name
//	tbl_name  table the object belongs to
//	rootpage  root page of the object's b-tree, 0 for views and triggers
//	sql       the CREATE statement, NULL for automatic indexes
//
// Column order, declared types and index key columns are recovered from
// the CREATE text by a small structural parser (see ParseColumns). It reads
// names, types and the handful of constraints that change how rows are
// stored: INTEGER PRIMARY KEY, COLLATE, generated columns and WITHOUT ROWID.
// Everything else in the statement is skipped.
//
// Affinity follows the usual declared-type rules:
//
//	affinity := schema.DetermineAffinity("VARCHAR(100)")  // AffinityText
//	affinity := schema.DetermineAffinity("BIGINT")        // AffinityInteger
//	affinity := schema.DetermineAffinity("DECIMAL(10,2)") // AffinityNumeric
//
// A Schema is built once when a database is opened and never changes, so it
// may be shared by concurrent queries without locking.
package schema
