package sheets

import (
	"context"
	"encoding/csv"
	"strings"

	"github.com/pokrovsky/timetable-api/internal/fetch"
)

// RowsFromCSV parses a tab's CSV export into ragged rows.
func RowsFromCSV(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// FetchRows downloads and parses one tab of a document.
func FetchRows(ctx context.Context, f fetch.Fetcher, docURL, tab string) ([][]string, error) {
	exportURL, err := CSVExportURL(docURL, tab)
	if err != nil {
		return nil, err
	}
	text, err := f.Get(ctx, exportURL)
	if err != nil {
		return nil, err
	}
	return RowsFromCSV(text)
}
