package format

import (
	"encoding/binary"

	"github.com/FocuswithJustin/litereader/core/errors"
)

// File format constants
const (
	// HeaderSize is the database header size in bytes.
	HeaderSize = 100

	// MagicString is the 16-byte magic prefix, including the NUL.
	MagicString = "SQLite format 3\000"

	MinPageSize = 512
	MaxPageSize = 65536

	// MinUsableSize is the smallest usable page area the format allows.
	MinUsableSize = 480
)

// Header offsets
const (
	OffsetMagic             = 0
	OffsetPageSize          = 16 // 2 bytes, 1 means 65536
	OffsetWriteVersion      = 18
	OffsetReadVersion       = 19
	OffsetReservedSpace     = 20
	OffsetMaxPayloadFrac    = 21
	OffsetMinPayloadFrac    = 22
	OffsetLeafPayloadFrac   = 23
	OffsetFileChangeCounter = 24
	OffsetDatabaseSize      = 28
	OffsetFirstFreelist     = 32
	OffsetFreelistCount     = 36
	OffsetSchemaCookie      = 40
	OffsetSchemaFormat      = 44
	OffsetDefaultCacheSize  = 48
	OffsetLargestRootPage   = 52
	OffsetTextEncoding      = 56
	OffsetUserVersion       = 60
	OffsetIncrVacuum        = 64
	OffsetAppID             = 68
	OffsetVersionValidFor   = 92
	OffsetSQLiteVersion     = 96
)

// Text encodings
const (
	EncodingUTF8    = 1
	EncodingUTF16LE = 2
	EncodingUTF16BE = 3
)

// Header is the decoded file header.
type Header struct {
	RawPageSize       uint16 // as stored; use PageSize()
	WriteVersion      uint8
	ReadVersion       uint8
	ReservedSpace     uint8
	MaxPayloadFrac    uint8
	MinPayloadFrac    uint8
	LeafPayloadFrac   uint8
	FileChangeCounter uint32
	DatabaseSize      uint32 // in-header page count, see PageCount
	FirstFreelist     uint32
	FreelistCount     uint32
	SchemaCookie      uint32
	SchemaFormat      uint32
	DefaultCacheSize  uint32
	LargestRootPage   uint32
	TextEncoding      uint32
	UserVersion       uint32
	IncrVacuum        uint32
	AppID             uint32
	VersionValidFor   uint32
	SQLiteVersion     uint32
}

func invalid(offset int, format string, args ...interface{}) error {
	return errors.NewCorruption(errors.ErrInvalidHeader, 1, offset, format, args...)
}

// Parse decodes and validates the header in data.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return invalid(-1, "file is %d bytes, header needs %d", len(data), HeaderSize)
	}
	if string(data[OffsetMagic:OffsetMagic+16]) != MagicString {
		return invalid(OffsetMagic, "bad magic %q", data[OffsetMagic:OffsetMagic+16])
	}

	be := binary.BigEndian
	h.RawPageSize = be.Uint16(data[OffsetPageSize:])
	h.WriteVersion = data[OffsetWriteVersion]
	h.ReadVersion = data[OffsetReadVersion]
	h.ReservedSpace = data[OffsetReservedSpace]
	h.MaxPayloadFrac = data[OffsetMaxPayloadFrac]
	h.MinPayloadFrac = data[OffsetMinPayloadFrac]
	h.LeafPayloadFrac = data[OffsetLeafPayloadFrac]
	h.FileChangeCounter = be.Uint32(data[OffsetFileChangeCounter:])
	h.DatabaseSize = be.Uint32(data[OffsetDatabaseSize:])
	h.FirstFreelist = be.Uint32(data[OffsetFirstFreelist:])
	h.FreelistCount = be.Uint32(data[OffsetFreelistCount:])
	h.SchemaCookie = be.Uint32(data[OffsetSchemaCookie:])
	h.SchemaFormat = be.Uint32(data[OffsetSchemaFormat:])
	h.DefaultCacheSize = be.Uint32(data[OffsetDefaultCacheSize:])
	h.LargestRootPage = be.Uint32(data[OffsetLargestRootPage:])
	h.TextEncoding = be.Uint32(data[OffsetTextEncoding:])
	h.UserVersion = be.Uint32(data[OffsetUserVersion:])
	h.IncrVacuum = be.Uint32(data[OffsetIncrVacuum:])
	h.AppID = be.Uint32(data[OffsetAppID:])
	h.VersionValidFor = be.Uint32(data[OffsetVersionValidFor:])
	h.SQLiteVersion = be.Uint32(data[OffsetSQLiteVersion:])

	return h.Validate()
}

// Validate checks the fields against the supported subset.
func (h *Header) Validate() error {
	pageSize := h.PageSize()
	if !IsValidPageSize(pageSize) {
		return invalid(OffsetPageSize, "page size %d is not a power of two in [%d, %d]", h.RawPageSize, MinPageSize, MaxPageSize)
	}
	if int(h.ReservedSpace) >= pageSize || h.UsableSize() < MinUsableSize {
		return invalid(OffsetReservedSpace, "%d reserved bytes leave %d usable of %d", h.ReservedSpace, h.UsableSize(), pageSize)
	}
	if h.ReadVersion < 1 || h.ReadVersion > 2 {
		return invalid(OffsetReadVersion, "read version %d", h.ReadVersion)
	}
	if h.MaxPayloadFrac != 64 || h.MinPayloadFrac != 32 || h.LeafPayloadFrac != 32 {
		return invalid(OffsetMaxPayloadFrac, "payload fractions %d/%d/%d, want 64/32/32",
			h.MaxPayloadFrac, h.MinPayloadFrac, h.LeafPayloadFrac)
	}
	// 0 appears in files that never had a schema written.
	if h.SchemaFormat > 4 {
		return invalid(OffsetSchemaFormat, "schema format %d", h.SchemaFormat)
	}
	if h.TextEncoding > EncodingUTF16BE {
		return invalid(OffsetTextEncoding, "text encoding %d", h.TextEncoding)
	}
	return nil
}

// PageSize returns the page size in bytes, mapping the stored value 1 to
// 65536.
func (h *Header) PageSize() int {
	if h.RawPageSize == 1 {
		return MaxPageSize
	}
	return int(h.RawPageSize)
}

// UsableSize is the page size minus the reserved bytes at the end of every
// page.
func (h *Header) UsableSize() int {
	return h.PageSize() - int(h.ReservedSpace)
}

// Encoding returns the text encoding, treating an unset field as UTF-8.
func (h *Header) Encoding() uint32 {
	if h.TextEncoding == 0 {
		return EncodingUTF8
	}
	return h.TextEncoding
}

// EncodingName returns "UTF-8", "UTF-16le" or "UTF-16be".
func (h *Header) EncodingName() string {
	switch h.Encoding() {
	case EncodingUTF16LE:
		return "UTF-16le"
	case EncodingUTF16BE:
		return "UTF-16be"
	}
	return "UTF-8"
}

// PageCount returns the number of pages in a file of fileSize bytes.
func (h *Header) PageCount(fileSize int64) uint32 {
	if h.DatabaseSize != 0 && h.FileChangeCounter == h.VersionValidFor {
		return h.DatabaseSize
	}
	return uint32(fileSize / int64(h.PageSize()))
}

// Encode writes the header back to its 100-byte form. The reader never
// writes files; Encode builds fixtures.
func (h *Header) Encode() []byte {
	data := make([]byte, HeaderSize)
	be := binary.BigEndian
	copy(data, MagicString)
	be.PutUint16(data[OffsetPageSize:], h.RawPageSize)
	data[OffsetWriteVersion] = h.WriteVersion
	data[OffsetReadVersion] = h.ReadVersion
	data[OffsetReservedSpace] = h.ReservedSpace
	data[OffsetMaxPayloadFrac] = h.MaxPayloadFrac
	data[OffsetMinPayloadFrac] = h.MinPayloadFrac
	data[OffsetLeafPayloadFrac] = h.LeafPayloadFrac
	be.PutUint32(data[OffsetFileChangeCounter:], h.FileChangeCounter)
	be.PutUint32(data[OffsetDatabaseSize:], h.DatabaseSize)
	be.PutUint32(data[OffsetFirstFreelist:], h.FirstFreelist)
	be.PutUint32(data[OffsetFreelistCount:], h.FreelistCount)
	be.PutUint32(data[OffsetSchemaCookie:], h.SchemaCookie)
	be.PutUint32(data[OffsetSchemaFormat:], h.SchemaFormat)
	be.PutUint32(data[OffsetDefaultCacheSize:], h.DefaultCacheSize)
	be.PutUint32(data[OffsetLargestRootPage:], h.LargestRootPage)
	be.PutUint32(data[OffsetTextEncoding:], h.TextEncoding)
	be.PutUint32(data[OffsetUserVersion:], h.UserVersion)
	be.PutUint32(data[OffsetIncrVacuum:], h.IncrVacuum)
	be.PutUint32(data[OffsetAppID:], h.AppID)
	be.PutUint32(data[OffsetVersionValidFor:], h.VersionValidFor)
	be.PutUint32(data[OffsetSQLiteVersion:], h.SQLiteVersion)
	return data
}

// NewHeader returns a header with the defaults a fresh file would carry.
func NewHeader(pageSize int) *Header {
	raw := uint16(pageSize)
	if pageSize == MaxPageSize {
		raw = 1
	}
	return &Header{
		RawPageSize:     raw,
		WriteVersion:    1,
		ReadVersion:     1,
		MaxPayloadFrac:  64,
		MinPayloadFrac:  32,
		LeafPayloadFrac: 32,
		SchemaFormat:    4,
		TextEncoding:    EncodingUTF8,
		SQLiteVersion:   3046000,
	}
}

// IsValidPageSize reports whether size is a power of two in [512, 65536].
func IsValidPageSize(size int) bool {
	if size < MinPageSize || size > MaxPageSize {
		return false
	}
	return size&(size-1) == 0
}
