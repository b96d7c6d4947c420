package grid

import (
	"regexp"
	"strings"

	"github.com/pokrovsky/timetable-api/internal/textutil"
)

var (
	timeSepRx = regexp.MustCompile(`\s*[-–—]\s*`)

	// School assembly entries are dropped from schedules entirely.
	lineykaRx      = regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])линейк[аи](?:[^\p{L}\d]|$)`)
	subjectSplitRx = regexp.MustCompile(`[;,/|\n]+`)
)

func normalizeTime(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, ".", ":"))
	return timeSepRx.ReplaceAllString(s, " - ")
}

// stripAssembly removes every sub-entry denoting a school line-up ceremony.
// Returns "" when nothing remains.
func stripAssembly(subject string) string {
	if subject == "" {
		return ""
	}
	s := strings.TrimSpace(textutil.UnifyHyphens(textutil.NormLines(subject)))
	var keep []string
	for _, part := range subjectSplitRx.Split(s, -1) {
		t := strings.TrimSpace(part)
		if t == "" || lineykaRx.MatchString(t) {
			continue
		}
		keep = append(keep, t)
	}
	return strings.Join(keep, " / ")
}

// ExtractSchedule walks the rows owned by one class label and emits lesson
// entries in row order. The cabinet is searched at subjectCol+1, first on the
// following row then on the current one, never crossing the label's right
// boundary and never left of the subject column.
//
// Grids sometimes transpose a pair: subject on one row, its time on the next.
// That case is detected with exactly one row of lookahead; deeper gaps are
// out of reach and such entries are dropped.
func ExtractSchedule(g Grid, labels map[string]HeaderRef, headers []int, label string, cab CabinetRef) []Entry {
	ref, ok := labels[label]
	if !ok {
		return nil
	}
	end := NextHeader(headers, ref.Row, g.Rows())

	rightBound := cab.Right
	if rightBound <= 0 {
		rightBound = g.Cols() - 1
	}

	grab := func(r, c int) string {
		if c > rightBound {
			return ""
		}
		return ExtractCabinet(g.Cell(r, c))
	}

	var out []Entry
	for r := ref.Row + 1; r < end; {
		subject := strings.TrimSpace(textutil.NormLines(g.Cell(r, ref.SubjectCol)))
		if subject != "" && isBareClassLabel(subject) {
			break
		}

		tHere := textutil.NormLines(g.Cell(r, ref.TimeCol))
		tNext := ""
		if r+1 < end {
			tNext = textutil.NormLines(g.Cell(r+1, ref.TimeCol))
		}

		// Transposed pair: subject on this row, time on the next.
		if subject != "" && tNext != "" && tHere == "" && r+1 < end {
			cabText := grab(r+1, ref.SubjectCol+1)
			if cabText == "" {
				cabText = grab(r, ref.SubjectCol+1)
			}
			if clean := stripAssembly(subject); clean != "" {
				out = append(out, Entry{Time: normalizeTime(tNext), Subject: clean, Cabinet: cabText})
			}
			r += 2
			continue
		}

		timeRange := normalizeTime(tHere)
		cabText := ""
		if subject != "" {
			if r+1 < end {
				cabText = grab(r+1, ref.SubjectCol+1)
			}
			if cabText == "" {
				cabText = grab(r, ref.SubjectCol+1)
			}
		}

		if timeRange == "" && subject == "" {
			r++
			continue
		}

		if clean := stripAssembly(subject); clean != "" {
			out = append(out, Entry{Time: timeRange, Subject: clean, Cabinet: cabText})
		}
		r++
	}
	return out
}

// ExtractScheduleFree extracts a class's schedule without relying on a
// detected cabinet column. The room is searched over a fixed priority list
// strictly inside the label's own zone, bounded by the neighbouring class
// and subjectCol+3, never left of the subject column:
// next row +1, next row +0, this row +1, this row +0, then +2 as a last
// resort on either row.
func ExtractScheduleFree(g Grid, labels map[string]HeaderRef, headers []int, label string) []Entry {
	ref, ok := labels[label]
	if !ok {
		return nil
	}
	end := NextHeader(headers, ref.Row, g.Rows())

	rightBound := RightBoundary(labels, label, g.Cols()-1)
	if ref.SubjectCol+3 < rightBound {
		rightBound = ref.SubjectCol + 3
	}

	grab := func(r, c int) string {
		if r < 0 || r >= g.Rows() || c < 0 || c > rightBound {
			return ""
		}
		return ExtractCabinet(g.Cell(r, c))
	}

	var out []Entry
	for r := ref.Row + 1; r < end; {
		subject := strings.TrimSpace(textutil.NormLines(g.Cell(r, ref.SubjectCol)))
		if subject != "" && isBareClassLabel(subject) {
			break
		}

		tHere := textutil.NormLines(g.Cell(r, ref.TimeCol))
		tNext := ""
		if r+1 < end {
			tNext = textutil.NormLines(g.Cell(r+1, ref.TimeCol))
		}

		var timeRange string
		jump := 1
		if subject != "" && tNext != "" && tHere == "" && r+1 < end {
			timeRange = normalizeTime(tNext)
			jump = 2
		} else {
			timeRange = normalizeTime(tHere)
		}

		cabText := ""
		if r+1 < end {
			cabText = grab(r+1, ref.SubjectCol+1)
			if cabText == "" {
				cabText = grab(r+1, ref.SubjectCol)
			}
		}
		if cabText == "" {
			cabText = grab(r, ref.SubjectCol+1)
			if cabText == "" {
				cabText = grab(r, ref.SubjectCol)
			}
		}
		if cabText == "" {
			if r+1 < end {
				cabText = grab(r+1, ref.SubjectCol+2)
			}
			if cabText == "" {
				cabText = grab(r, ref.SubjectCol+2)
			}
		}

		if timeRange == "" && subject == "" {
			r += jump
			continue
		}

		if clean := stripAssembly(subject); clean != "" {
			out = append(out, Entry{Time: timeRange, Subject: clean, Cabinet: cabText})
		}
		r += jump
	}
	return out
}
