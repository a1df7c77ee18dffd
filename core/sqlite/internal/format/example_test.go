package format_test

import (
	"fmt"
	"log"

	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
)

// Example decodes a header and derives the page geometry from it.
func Example() {
	data := format.NewHeader(4096).Encode()

	var h format.Header
	if err := h.Parse(data); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Page size: %d\n", h.PageSize())
	fmt.Printf("Usable size: %d\n", h.UsableSize())
	fmt.Printf("Encoding: %s\n", h.EncodingName())
	fmt.Printf("Pages in 3 pages of file: %d\n", h.PageCount(3*4096))

	// Output:
	// Page size: 4096
	// Usable size: 4096
	// Encoding: UTF-8
	// Pages in 3 pages of file: 3
}

// ExampleIsValidPageSize demonstrates page size validation.
func ExampleIsValidPageSize() {
	for _, size := range []int{512, 4096, 4000, 65536, 131072} {
		fmt.Printf("Page size %6d: %v\n", size, format.IsValidPageSize(size))
	}

	// Output:
	// Page size    512: true
	// Page size   4096: true
	// Page size   4000: false
	// Page size  65536: true
	// Page size 131072: false
}
