//go:build !cgo_sqlite

package testdb

import (
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"
	driverType = "purego"
)
