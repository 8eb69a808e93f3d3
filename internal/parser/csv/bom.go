package csv

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// stripBOM wraps r so a leading UTF-8 byte order mark never reaches the first
// header label. Spreadsheet exports frequently start with one.
func stripBOM(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
}
