package grid

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pokrovsky/timetable-api/internal/textutil"
)

var (
	classLabelRx  = regexp.MustCompile(`(\d{1,2})\s*([^\d\s][^\d]*)`)
	classPureRx   = regexp.MustCompile(`^\s*\d{1,2}\s*[A-Za-zА-Яа-яЁё]{1,6}\s*$`)
	labelSuffixRx = regexp.MustCompile(`[ \-\d]+`)
	gradeRx       = regexp.MustCompile(`^(\d{1,2})`)
)

// ParseClassLabel extracts the canonical "grade+section" label from a header
// cell, e.g. " 10  Б " -> "10Б". Returns "" when the cell does not look like
// a class label.
func ParseClassLabel(cell string) string {
	s := strings.ReplaceAll(strings.ToUpper(textutil.Norm(cell)), "Ё", "Е")
	m := classLabelRx.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	suffix := labelSuffixRx.ReplaceAllString(m[2], "")
	if suffix == "" {
		return ""
	}
	return m[1] + suffix
}

// GradeFromLabel returns the leading grade number of a canonical label,
// or 0 when the label has none.
func GradeFromLabel(label string) int {
	m := gradeRx.FindStringSubmatch(label)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// isBareClassLabel reports whether the text is nothing but a class label,
// which marks the start of the next section bleeding into this one.
func isBareClassLabel(s string) bool {
	return classPureRx.MatchString(s)
}
