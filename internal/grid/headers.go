package grid

import (
	"strings"

	"github.com/pokrovsky/timetable-api/internal/textutil"
)

// headerScanLimit bounds the header scan; published grids never come close.
const headerScanLimit = 400

const timeMarker = "время"

// ParseHeaders scans the grid for header rows (any row whose cells mention
// the time marker) and indexes every class label found on them. When a label
// repeats the last occurrence wins; that is malformed input but not fatal.
func ParseHeaders(g Grid) (map[string]HeaderRef, []int) {
	labels := make(map[string]HeaderRef)
	var headers []int

	limit := g.Rows()
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	cols := g.Cols()

	for i := 0; i < limit; i++ {
		timeCol := -1
		for j := 0; j < cols; j++ {
			if strings.Contains(strings.ToLower(textutil.Norm(g.Cell(i, j))), timeMarker) {
				timeCol = j
				break
			}
		}
		if timeCol < 0 {
			continue
		}
		headers = append(headers, i)
		for j := 0; j < cols; j++ {
			if label := ParseClassLabel(g.Cell(i, j)); label != "" {
				labels[label] = HeaderRef{Row: i, TimeCol: timeCol, SubjectCol: j}
			}
		}
	}
	return labels, headers
}

// NextHeader returns the first header row strictly below idx, or totalRows
// when the class's section runs to the end of the grid.
func NextHeader(headers []int, idx, totalRows int) int {
	for _, h := range headers {
		if h > idx {
			return h
		}
	}
	return totalRows
}

// RightBoundary returns the subject column of the next class label sharing
// the same header row, or the grid's last column when the label is rightmost.
func RightBoundary(labels map[string]HeaderRef, label string, totalCols int) int {
	ref, ok := labels[label]
	if !ok {
		return totalCols - 1
	}
	next := totalCols - 1
	for _, other := range labels {
		if other.Row == ref.Row && other.SubjectCol > ref.SubjectCol && other.SubjectCol < next {
			next = other.SubjectCol
		}
	}
	return next
}

// detectCabinetColumn searches just right of the subject column for a column
// that either is titled with the cabinet marker or actually contains room
// codes. Returns -1 when nothing convincing is found.
func detectCabinetColumn(g Grid, hdr, subjCol, endRow, rightBound int) int {
	last := subjCol + 3
	if rightBound < last {
		last = rightBound
	}

	for cand := subjCol + 1; cand <= last; cand++ {
		if strings.Contains(strings.ToLower(textutil.Norm(g.Cell(hdr, cand))), "каб") {
			return cand
		}
	}

	sampleEnd := hdr + 19
	if endRow < sampleEnd {
		sampleEnd = endRow
	}
	best, hits := -1, -1
	for cand := subjCol + 1; cand <= last; cand++ {
		cnt := 0
		for r := hdr + 1; r < sampleEnd; r++ {
			if ExtractCabinet(g.Cell(r, cand)) != "" {
				cnt++
			}
		}
		if cnt > hits {
			best, hits = cand, cnt
		}
	}
	if hits > 0 {
		return best
	}
	return -1
}

// BuildCabinetMap computes, for every label, the detected cabinet column and
// the right boundary schedule extraction must not cross.
func BuildCabinetMap(g Grid, labels map[string]HeaderRef, headers []int) map[string]CabinetRef {
	totalCols, totalRows := g.Cols(), g.Rows()
	out := make(map[string]CabinetRef, len(labels))
	for label, ref := range labels {
		end := NextHeader(headers, ref.Row, totalRows)
		right := RightBoundary(labels, label, totalCols)
		out[label] = CabinetRef{
			Col:   detectCabinetColumn(g, ref.Row, ref.SubjectCol, end, right),
			Right: right,
		}
	}
	return out
}
