package sqlite

import (
	"context"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/litereader/core/sqlite/internal/pager"
)

// Info summarizes a database file.
type Info struct {
	Path          string `json:"path"`
	PageSize      int    `json:"page_size"`
	PageCount     uint32 `json:"page_count"`
	Encoding      string `json:"encoding"`
	ReservedBytes int    `json:"reserved_bytes"`
	ChangeCounter uint32 `json:"change_counter"`
	SchemaCookie  uint32 `json:"schema_cookie"`
	SchemaFormat  uint32 `json:"schema_format"`
	UserVersion   uint32 `json:"user_version"`
	SQLiteVersion uint32 `json:"sqlite_version"`
	Tables        int    `json:"tables"`
	Indexes       int    `json:"indexes"`
}

// Info returns header fields and catalog counts. Tables counts user
// tables only.
func (db *DB) Info() Info {
	h := db.pager.Header()
	return Info{
		Path:          db.pager.Path(),
		PageSize:      db.pager.PageSize(),
		PageCount:     db.pager.PageCount(),
		Encoding:      h.EncodingName(),
		ReservedBytes: int(h.ReservedSpace),
		ChangeCounter: h.FileChangeCounter,
		SchemaCookie:  h.SchemaCookie,
		SchemaFormat:  h.SchemaFormat,
		UserVersion:   h.UserVersion,
		SQLiteVersion: h.SQLiteVersion,
		Tables:        len(db.schema.TableNames()),
		Indexes:       db.schema.IndexCount(),
	}
}

// Stats reports page reads since open.
type Stats = pager.Stats

// Stats returns page read counters and page cache statistics.
func (db *DB) Stats() Stats { return db.pager.Stats() }

// Digest returns the hex BLAKE3-256 hash of pages 1 through PageCount.
// Two files with the same digest hold the same database content.
func (db *DB) Digest(ctx context.Context) (string, error) {
	h := blake3.New()
	for n := uint32(1); n <= db.pager.PageCount(); n++ {
		if n%256 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		page, err := db.pager.ReadRaw(n)
		if err != nil {
			return "", err
		}
		h.Write(page)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
