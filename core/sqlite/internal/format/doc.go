// Package format decodes the 100-byte file header that starts every
// database file.
//
// # Database File Header
//
// The header is read once when a database is opened and is immutable
// afterwards. Parse rejects anything outside the supported subset with an
// error matching errors.ErrInvalidHeader:
//
//   - Magic string other than "SQLite format 3\x00"
//   - Page size that is not a power of two in [512, 65536] (the stored value
//     1 means 65536)
//   - Reserved bytes per page leaving fewer than 480 usable bytes
//   - Read version above 2, or payload fractions other than 64/32/32
//   - Unknown text encoding or schema format
//
// Example usage:
//
//	data := make([]byte, format.HeaderSize)
//	if _, err := f.ReadAt(data, 0); err != nil {
//	    return err
//	}
//	var h format.Header
//	if err := h.Parse(data); err != nil {
//	    return err
//	}
//	fmt.Println(h.PageSize(), h.UsableSize(), h.EncodingName())
//
// # Page Count
//
// The in-header page count is only trusted when it is non-zero and the
// change counter matches the version-valid-for field; legacy writers did
// not maintain it. PageCount falls back to the file size otherwise.
//
// # References
//
//   - File Format: https://www.sqlite.org/fileformat.html
package format
