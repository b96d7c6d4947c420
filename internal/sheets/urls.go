// Package sheets resolves published spreadsheet documents: locating the
// document behind a schedule page, discovering its tabs and fetching tab
// exports as raw rows.
package sheets

import (
	"fmt"
	"net/url"
	"strings"
)

const spreadsheetHost = "docs.google.com/spreadsheets"

// IsDocumentURL reports whether the URL already points at a spreadsheet
// document rather than a schedule page.
func IsDocumentURL(raw string) bool {
	return strings.Contains(raw, spreadsheetHost)
}

// DocumentID extracts the spreadsheet identifier from a document URL.
func DocumentID(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse document url: %w", err)
	}
	parts := strings.Split(u.Path, "/")
	for i, p := range parts {
		if p == "d" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("document url %q has no id segment", raw)
}

func rebuild(raw, tail string, query url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse document url: %w", err)
	}
	id, err := DocumentID(raw)
	if err != nil {
		return "", err
	}
	u.Path = fmt.Sprintf("/spreadsheets/d/%s/%s", id, tail)
	u.RawQuery = query.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// HTMLViewURL rewrites a document URL into its lightweight htmlview form.
func HTMLViewURL(raw string) (string, error) {
	return rebuild(raw, "htmlview", url.Values{})
}

// CSVExportURL rewrites a document URL into the CSV export of one tab.
func CSVExportURL(raw, tab string) (string, error) {
	return rebuild(raw, "export", url.Values{"format": {"csv"}, "gid": {tab}})
}
