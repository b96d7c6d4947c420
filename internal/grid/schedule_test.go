package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractFor(t *testing.T, g Grid, label string) []Entry {
	t.Helper()
	labels, headers := ParseHeaders(g)
	require.Contains(t, labels, label)
	cabs := BuildCabinetMap(g, labels, headers)
	return ExtractSchedule(g, labels, headers, label, cabs[label])
}

func TestExtractScheduleBasic(t *testing.T) {
	g := testGrid()
	entries := extractFor(t, g, "10А")

	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Time: "09:00 - 09:45", Subject: "Математика", Cabinet: "305"}, entries[0])
	assert.Equal(t, Entry{Time: "10:00 - 10:45", Subject: "Русский", Cabinet: "Г3-04"}, entries[1])
}

func TestExtractScheduleStopsAtNextHeader(t *testing.T) {
	// The 10А section must never read past the header row at index 4,
	// whatever the rows below it contain.
	g := New([][]string{
		{"Время", "10А", "", "10Б"},
		{"09:00-09:45", "Математика", "", "Физика"},
		{"10:00-10:45", "Русский", "", "Химия"},
		{"11:00-11:45", "Физика", "", "Биология"},
		{"Время", "11А"},
		{"09:00-09:45", "История"},
	})
	entries := extractFor(t, g, "10А")
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.NotEqual(t, "История", e.Subject)
	}
}

func TestExtractScheduleStopsAtBareClassLabel(t *testing.T) {
	g := New([][]string{
		{"Время", "10А"},
		{"09:00-09:45", "Математика"},
		{"", "10Б"},
		{"10:00-10:45", "Химия"},
	})
	entries := extractFor(t, g, "10А")
	require.Len(t, entries, 1)
	assert.Equal(t, "Математика", entries[0].Subject)
}

func TestExtractScheduleTransposedPair(t *testing.T) {
	// Subject on one row, its time on the next: merged into one entry,
	// consuming two rows.
	g := New([][]string{
		{"Время", "10А", ""},
		{"", "Математика", ""},
		{"09:00-09:45", "", "каб. 305"},
		{"10:00-10:45", "Русский", ""},
	})
	entries := extractFor(t, g, "10А")
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Time: "09:00 - 09:45", Subject: "Математика", Cabinet: "305"}, entries[0])
	assert.Equal(t, "Русский", entries[1].Subject)
}

func TestExtractScheduleAssemblyFiltering(t *testing.T) {
	g := New([][]string{
		{"Время", "10А"},
		{"08:30-08:45", "Линейка"},
		{"09:00-09:45", "Линейка / Математика"},
	})
	entries := extractFor(t, g, "10А")
	require.Len(t, entries, 1)
	assert.Equal(t, "Математика", entries[0].Subject)
}

func TestExtractScheduleSkipsEmptyRows(t *testing.T) {
	g := New([][]string{
		{"Время", "10А"},
		{"", ""},
		{"09:00-09:45", "Математика"},
		{"", ""},
	})
	entries := extractFor(t, g, "10А")
	require.Len(t, entries, 1)
}

func TestExtractScheduleNeverCrossesRightBoundary(t *testing.T) {
	// 10Б's cabinet sits right after 10А's boundary; 10А must not pick it up.
	g := New([][]string{
		{"Время", "10А", "10Б", ""},
		{"09:00-09:45", "Математика", "Физика", "каб. 305"},
	})
	labels, headers := ParseHeaders(g)
	cabs := BuildCabinetMap(g, labels, headers)
	entries := ExtractSchedule(g, labels, headers, "10А", cabs["10А"])
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].Cabinet)
}

func TestExtractScheduleFreePriorities(t *testing.T) {
	// Room on the next row at subjectCol+1 is the primary location.
	g := New([][]string{
		{"Время", "10А", "", "", ""},
		{"09:00-09:45", "Математика", "", "", ""},
		{"", "", "Г3-04", "", ""},
	})
	labels, headers := ParseHeaders(g)
	entries := ExtractScheduleFree(g, labels, headers, "10А")
	require.Len(t, entries, 1)
	assert.Equal(t, "Г3-04", entries[0].Cabinet)
}

func TestExtractScheduleFreeSameColumnFallback(t *testing.T) {
	// Room in the subject column of the following row.
	g := New([][]string{
		{"Время", "10А", "", ""},
		{"09:00-09:45", "Математика", "", ""},
		{"", "каб. 210", "", ""},
	})
	labels, headers := ParseHeaders(g)
	entries := ExtractScheduleFree(g, labels, headers, "10А")
	require.Len(t, entries, 1)
	assert.Equal(t, "210", entries[0].Cabinet)
}

func TestExtractScheduleFreeNeverLooksLeft(t *testing.T) {
	g := New([][]string{
		{"Время", "", "10А"},
		{"09:00-09:45", "каб. 111", "Математика"},
	})
	labels, headers := ParseHeaders(g)
	entries := ExtractScheduleFree(g, labels, headers, "10А")
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].Cabinet)
}

func TestExtractScheduleUnknownLabel(t *testing.T) {
	g := testGrid()
	labels, headers := ParseHeaders(g)
	assert.Nil(t, ExtractSchedule(g, labels, headers, "12Я", CabinetRef{}))
	assert.Nil(t, ExtractScheduleFree(g, labels, headers, "12Я"))
}

func TestNormalizeTime(t *testing.T) {
	assert.Equal(t, "9:00 - 9:45", normalizeTime("9.00-9.45"))
	assert.Equal(t, "09:00 - 09:45", normalizeTime("09:00 – 09:45"))
	assert.Equal(t, "", normalizeTime("  "))
}
