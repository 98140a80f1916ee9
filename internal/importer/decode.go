package importer

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// newCSVReader decodes r as UTF-8 (a UTF-16 BOM switches decoders), drops a
// leading BOM and replaces invalid byte sequences with U+FFFD before the CSV
// parser sees them.
//
// BOMOverride hands the rest of the stream to a no-op transformer once it has
// consumed a UTF-8 BOM, so a second UTF-8 decoder does the sanitising.
func newCSVReader(r io.Reader) *csv.Reader {
	decoded := transform.NewReader(r, transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		unicode.UTF8.NewDecoder(),
	))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	return cr
}

// toRecord pairs cells with headers. Missing trailing cells stay absent and
// surplus cells are dropped; with duplicate headers the rightmost column wins.
func toRecord(header, cells []string) Record {
	rec := make(Record, len(header))

	for i, h := range header {
		if i >= len(cells) {
			break
		}
		rec[h] = cells[i]
	}

	return rec
}
