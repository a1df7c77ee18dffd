package format

import (
	"encoding/binary"
	"errors"
	"testing"

	apperrors "github.com/FocuswithJustin/litereader/core/errors"
)

func TestIsValidPageSize(t *testing.T) {
	tests := []struct {
		size int
		want bool
	}{
		{256, false},
		{512, true},
		{1024, true},
		{4000, false},
		{4096, true},
		{32768, true},
		{65536, true},
		{131072, false},
		{0, false},
	}
	for _, tt := range tests {
		if got := IsValidPageSize(tt.size); got != tt.want {
			t.Errorf("IsValidPageSize(%d) = %v, want %v", tt.size, got, tt.want)
		}
	}
}

func TestHeader_Parse(t *testing.T) {
	h := NewHeader(4096)
	h.FileChangeCounter = 9
	h.VersionValidFor = 9
	h.DatabaseSize = 12
	h.SchemaCookie = 3
	h.ReservedSpace = 16

	var got Header
	if err := got.Parse(h.Encode()); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got != *h {
		t.Errorf("Parse() = %+v, want %+v", got, *h)
	}
	if got.PageSize() != 4096 || got.UsableSize() != 4080 {
		t.Errorf("PageSize/UsableSize = %d/%d, want 4096/4080", got.PageSize(), got.UsableSize())
	}
	if got.SchemaCookie != 3 {
		t.Errorf("SchemaCookie = %d, want 3", got.SchemaCookie)
	}
}

func TestHeader_ParseMaxPageSize(t *testing.T) {
	data := NewHeader(MaxPageSize).Encode()
	if v := binary.BigEndian.Uint16(data[OffsetPageSize:]); v != 1 {
		t.Fatalf("stored page size = %d, want 1", v)
	}
	var h Header
	if err := h.Parse(data); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if h.PageSize() != 65536 {
		t.Errorf("PageSize() = %d, want 65536", h.PageSize())
	}
}

func TestHeader_ParseInvalid(t *testing.T) {
	valid := func() []byte { return NewHeader(4096).Encode() }

	tests := []struct {
		name       string
		data       func() []byte
		wantOffset int
	}{
		{"too short", func() []byte { return valid()[:50] }, -1},
		{"bad magic", func() []byte {
			d := valid()
			copy(d, "SQLite format 4\x00")
			return d
		}, OffsetMagic},
		{"page size not power of two", func() []byte {
			d := valid()
			binary.BigEndian.PutUint16(d[OffsetPageSize:], 4000)
			return d
		}, OffsetPageSize},
		{"page size too small", func() []byte {
			d := valid()
			binary.BigEndian.PutUint16(d[OffsetPageSize:], 256)
			return d
		}, OffsetPageSize},
		{"page size zero", func() []byte {
			d := valid()
			binary.BigEndian.PutUint16(d[OffsetPageSize:], 0)
			return d
		}, OffsetPageSize},
		{"reserved leaves too little", func() []byte {
			d := NewHeader(512).Encode()
			d[OffsetReservedSpace] = 100
			return d
		}, OffsetReservedSpace},
		{"read version", func() []byte {
			d := valid()
			d[OffsetReadVersion] = 3
			return d
		}, OffsetReadVersion},
		{"payload fraction", func() []byte {
			d := valid()
			d[OffsetMaxPayloadFrac] = 50
			return d
		}, OffsetMaxPayloadFrac},
		{"schema format", func() []byte {
			d := valid()
			binary.BigEndian.PutUint32(d[OffsetSchemaFormat:], 5)
			return d
		}, OffsetSchemaFormat},
		{"text encoding", func() []byte {
			d := valid()
			binary.BigEndian.PutUint32(d[OffsetTextEncoding:], 4)
			return d
		}, OffsetTextEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h Header
			err := h.Parse(tt.data())
			if !errors.Is(err, apperrors.ErrInvalidHeader) {
				t.Fatalf("Parse() error = %v, want ErrInvalidHeader", err)
			}
			if !errors.Is(err, apperrors.ErrOpen) {
				t.Errorf("Parse() error %v is not an open error", err)
			}
			var ce *apperrors.CorruptionError
			if !errors.As(err, &ce) {
				t.Fatalf("Parse() error %T is not a CorruptionError", err)
			}
			if ce.Offset != tt.wantOffset || ce.Page != 1 {
				t.Errorf("location = page %d offset %d, want page 1 offset %d", ce.Page, ce.Offset, tt.wantOffset)
			}
		})
	}
}

func TestHeader_PageCount(t *testing.T) {
	tests := []struct {
		name     string
		dbSize   uint32
		counter  uint32
		validFor uint32
		fileSize int64
		want     uint32
	}{
		{"header trusted", 7, 3, 3, 4096 * 9, 7},
		{"stale counter", 7, 4, 3, 4096 * 9, 9},
		{"zero in header", 0, 3, 3, 4096 * 2, 2},
		{"partial trailing page", 0, 0, 0, 4096*2 + 100, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeader(4096)
			h.DatabaseSize = tt.dbSize
			h.FileChangeCounter = tt.counter
			h.VersionValidFor = tt.validFor
			if got := h.PageCount(tt.fileSize); got != tt.want {
				t.Errorf("PageCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHeader_Encoding(t *testing.T) {
	tests := []struct {
		raw  uint32
		want uint32
		name string
	}{
		{0, EncodingUTF8, "UTF-8"},
		{EncodingUTF8, EncodingUTF8, "UTF-8"},
		{EncodingUTF16LE, EncodingUTF16LE, "UTF-16le"},
		{EncodingUTF16BE, EncodingUTF16BE, "UTF-16be"},
	}
	for _, tt := range tests {
		h := Header{TextEncoding: tt.raw}
		if got := h.Encoding(); got != tt.want {
			t.Errorf("Encoding(%d) = %d, want %d", tt.raw, got, tt.want)
		}
		if got := h.EncodingName(); got != tt.name {
			t.Errorf("EncodingName(%d) = %q, want %q", tt.raw, got, tt.name)
		}
	}
}

func BenchmarkHeader_Parse(b *testing.B) {
	data := NewHeader(4096).Encode()
	var h Header
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = h.Parse(data)
	}
}
