// Package pager reads fixed-size pages from a database file.
//
// Page n (1-based) starts at byte (n-1)*pageSize. Page 1 also holds the
// 100-byte file header, so its b-tree header starts at offset 100. Decoded
// pages can be kept in a read-through LRU cache; the file is assumed not
// to change while it is open, so cached pages are never invalidated.
package pager

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/FocuswithJustin/litereader/core/cache"
	apperrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
)

// Options configures a Pager.
type Options struct {
	// CacheSize is the number of decoded pages to keep; 0 disables caching.
	CacheSize int
}

// Stats counts page reads that reached the underlying file.
type Stats struct {
	TablePages    int64
	IndexPages    int64
	OverflowPages int64
	Cache         cache.Stats
}

// Pager serves pages of one open database. It is safe for concurrent use
// when the underlying io.ReaderAt is.
type Pager struct {
	src       *source
	path      string
	header    format.Header
	pageSize  int
	usable    int
	pageCount uint32
	cache     cache.Cache[uint32, *Page]

	tableReads    atomic.Int64
	indexReads    atomic.Int64
	overflowReads atomic.Int64
}

// Open opens the database file at path and reads its header.
func Open(path string, opts Options) (*Pager, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	p, err := newPager(src, opts)
	if err != nil {
		src.Close()
		return nil, err
	}
	p.path = path
	return p, nil
}

// New builds a Pager over an in-memory or otherwise opened database image
// of size bytes.
func New(r io.ReaderAt, size int64, opts Options) (*Pager, error) {
	return newPager(&source{r: r, size: size}, opts)
}

func newPager(src *source, opts Options) (*Pager, error) {
	buf := make([]byte, format.HeaderSize)
	if n, err := src.r.ReadAt(buf, 0); n < len(buf) {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, apperrors.NewIO("read header", "", err)
		}
		return nil, apperrors.NewCorruption(apperrors.ErrInvalidHeader, 1, -1, "file is %d bytes, header needs %d", n, format.HeaderSize)
	}

	p := &Pager{src: src}
	if err := p.header.Parse(buf); err != nil {
		return nil, err
	}
	p.pageSize = p.header.PageSize()
	p.usable = p.header.UsableSize()
	p.pageCount = p.header.PageCount(src.size)
	if p.pageCount == 0 {
		return nil, apperrors.NewCorruption(apperrors.ErrInvalidHeader, 1, format.OffsetDatabaseSize, "file holds no complete page")
	}
	if opts.CacheSize > 0 {
		p.cache = cache.NewLRUCache[uint32, *Page](cache.Config{MaxSize: opts.CacheSize})
	}
	return p, nil
}

// Close releases the file.
func (p *Pager) Close() error {
	if p.cache != nil {
		p.cache.Clear()
	}
	return p.src.Close()
}

// Header returns the decoded file header.
func (p *Pager) Header() format.Header { return p.header }

// Path returns the path given to Open, or "" for New.
func (p *Pager) Path() string { return p.path }

// PageSize returns the page size in bytes.
func (p *Pager) PageSize() int { return p.pageSize }

// UsableSize returns the page size minus reserved bytes.
func (p *Pager) UsableSize() int { return p.usable }

// PageCount returns the number of pages in the file.
func (p *Pager) PageCount() uint32 { return p.pageCount }

// Encoding returns the text encoding of the database.
func (p *Pager) Encoding() uint32 { return p.header.Encoding() }

// Stats reports read counters and cache statistics.
func (p *Pager) Stats() Stats {
	s := Stats{
		TablePages:    p.tableReads.Load(),
		IndexPages:    p.indexReads.Load(),
		OverflowPages: p.overflowReads.Load(),
	}
	if p.cache != nil {
		s.Cache = p.cache.Stats()
	}
	return s
}

// ReadPage returns b-tree page n with its header decoded.
func (p *Pager) ReadPage(n uint32) (*Page, error) {
	pg, err := cache.GetOrLoad(p.cache, n, p.loadBtree)
	if err != nil {
		return nil, err
	}
	if pg.Type == PageTypeOverflow {
		return nil, apperrors.NewCorruption(apperrors.ErrCorruptPage, n, -1, "overflow page used as a b-tree page")
	}
	return pg, nil
}

// ReadOverflow returns overflow page n. Only Data is set.
func (p *Pager) ReadOverflow(n uint32) (*Page, error) {
	pg, err := cache.GetOrLoad(p.cache, n, p.loadOverflow)
	if err != nil {
		return nil, err
	}
	if pg.Type != PageTypeOverflow {
		return nil, apperrors.NewCorruption(apperrors.ErrOverflowChainBroken, n, -1, "overflow chain enters %s page", pg.Type)
	}
	return pg, nil
}

// ReadRaw returns a private copy of page n without touching the cache.
func (p *Pager) ReadRaw(n uint32) ([]byte, error) {
	return p.read(n, apperrors.ErrCorruptPage)
}

func (p *Pager) loadBtree(n uint32) (*Page, error) {
	data, err := p.read(n, apperrors.ErrCorruptPage)
	if err != nil {
		return nil, err
	}
	pg, err := decodeBtreePage(n, data, p.usable)
	if err != nil {
		return nil, err
	}
	if pg.Type.IsTable() {
		p.tableReads.Add(1)
	} else {
		p.indexReads.Add(1)
	}
	return pg, nil
}

func (p *Pager) loadOverflow(n uint32) (*Page, error) {
	data, err := p.read(n, apperrors.ErrOverflowChainBroken)
	if err != nil {
		return nil, err
	}
	p.overflowReads.Add(1)
	return &Page{Number: n, Data: data, Type: PageTypeOverflow, usable: p.usable}, nil
}

// read loads page n; kind is the error reported for a page number outside
// the file.
func (p *Pager) read(n uint32, kind error) ([]byte, error) {
	if n < 1 || n > p.pageCount {
		return nil, apperrors.NewCorruption(kind, n, -1, "page number outside 1..%d", p.pageCount)
	}
	data := make([]byte, p.pageSize)
	off := int64(n-1) * int64(p.pageSize)
	if got, err := p.src.r.ReadAt(data, off); got < len(data) {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, apperrors.NewIO("read page", p.path, err)
		}
		return nil, apperrors.NewCorruption(apperrors.ErrCorruptPage, n, got, "short page: %d of %d bytes", got, p.pageSize)
	}
	return data, nil
}
