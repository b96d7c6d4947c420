// Package grid extracts structured per-class timetables from the free-form
// spreadsheet grids the school publishes. The layout has no fixed schema:
// header rows, time columns and subject columns shift from tab to tab, so
// everything here is heuristic and degrades to "absent" instead of failing.
package grid

// Grid is an immutable ragged matrix of raw cell text as exported from one
// sheet tab.
type Grid struct {
	rows [][]string
}

// New wraps raw rows. The slice is not copied; callers must not mutate it.
func New(rows [][]string) Grid {
	return Grid{rows: rows}
}

// Cell returns the raw cell text, or "" when the coordinate falls outside
// the ragged row.
func (g Grid) Cell(r, c int) string {
	if r < 0 || r >= len(g.rows) {
		return ""
	}
	row := g.rows[r]
	if c < 0 || c >= len(row) {
		return ""
	}
	return row[c]
}

// Rows returns the row count.
func (g Grid) Rows() int {
	return len(g.rows)
}

// Cols returns the width of the widest row.
func (g Grid) Cols() int {
	max := 0
	for _, row := range g.rows {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// HeaderRef locates one class label inside a grid.
type HeaderRef struct {
	Row        int
	TimeCol    int
	SubjectCol int
}

// CabinetRef records where a class's cabinet column sits. Col is -1 when no
// reliable column was detected; Right is the rightmost column schedule
// extraction may touch for this class.
type CabinetRef struct {
	Col   int
	Right int
}

// Entry is one extracted lesson: time-range text, subject text and a room
// code or delivery-mode token. Empty strings mean "could not determine".
type Entry struct {
	Time    string `json:"time"`
	Subject string `json:"subject"`
	Cabinet string `json:"cabinet,omitempty"`
}

// ParsedTab bundles everything derived from one fetched tab. Built once per
// (date, tab) and never mutated afterwards.
type ParsedTab struct {
	Grid     Grid
	Labels   map[string]HeaderRef
	Headers  []int
	Cabinets map[string]CabinetRef
}

// Parse runs the full header/cabinet analysis over raw rows.
func Parse(rows [][]string) ParsedTab {
	g := New(rows)
	labels, headers := ParseHeaders(g)
	return ParsedTab{
		Grid:     g,
		Labels:   labels,
		Headers:  headers,
		Cabinets: BuildCabinetMap(g, labels, headers),
	}
}

// LabelSet returns the canonical labels found on the tab.
func (t ParsedTab) LabelSet() []string {
	out := make([]string, 0, len(t.Labels))
	for l := range t.Labels {
		out = append(out, l)
	}
	return out
}

// HasGrade reports whether any label on the tab belongs to the given grade.
func (t ParsedTab) HasGrade(grade int) bool {
	for l := range t.Labels {
		if GradeFromLabel(l) == grade {
			return true
		}
	}
	return false
}
