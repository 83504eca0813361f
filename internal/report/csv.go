package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// FileName is the fixed name of the downloadable link export
const FileName = "urls.csv"

// EncodeURLs serializes the generated links as a header-less,
// index-less CSV blob: one URL literal per line, UTF-8. An empty list
// yields an empty blob, for which no download should be offered.
func EncodeURLs(urls []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	for _, u := range urls {
		if err := w.Write([]string{u}); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
