package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid() Grid {
	return New([][]string{
		{"Время", "10А", "", "10Б"},
		{"09:00-09:45", "Математика", "", "Физика"},
		{"", "", "каб. 305", ""},
		{"10:00-10:45", "Русский", "Г3-04", "Химия"},
		{"Время", "11А"},
		{"09:00-09:45", "История"},
	})
}

func TestParseHeaders(t *testing.T) {
	g := testGrid()
	labels, headers := ParseHeaders(g)

	assert.Equal(t, []int{0, 4}, headers)
	require.Contains(t, labels, "10А")
	require.Contains(t, labels, "10Б")
	require.Contains(t, labels, "11А")

	assert.Equal(t, HeaderRef{Row: 0, TimeCol: 0, SubjectCol: 1}, labels["10А"])
	assert.Equal(t, HeaderRef{Row: 0, TimeCol: 0, SubjectCol: 3}, labels["10Б"])
	assert.Equal(t, HeaderRef{Row: 4, TimeCol: 0, SubjectCol: 1}, labels["11А"])

	// Header rows come out strictly increasing and every label points into one.
	for label, ref := range labels {
		assert.Greater(t, NextHeader(headers, ref.Row, g.Rows()), ref.Row, "label %s", label)
	}
}

func TestNextHeader(t *testing.T) {
	headers := []int{0, 4}
	assert.Equal(t, 4, NextHeader(headers, 0, 6))
	assert.Equal(t, 6, NextHeader(headers, 4, 6))
	assert.Equal(t, 6, NextHeader(headers, 5, 6))
}

func TestRightBoundary(t *testing.T) {
	labels, _ := ParseHeaders(testGrid())
	// 10А is bounded by 10Б's subject column, 10Б by the last column.
	assert.Equal(t, 3, RightBoundary(labels, "10А", 4))
	assert.Equal(t, 3, RightBoundary(labels, "10Б", 4))
	assert.Equal(t, 3, RightBoundary(labels, "нет", 4))
}

func TestBuildCabinetMap(t *testing.T) {
	g := testGrid()
	labels, headers := ParseHeaders(g)
	cabs := BuildCabinetMap(g, labels, headers)

	require.Contains(t, cabs, "10А")
	// Column 2 holds room codes for 10А.
	assert.Equal(t, 2, cabs["10А"].Col)
	assert.GreaterOrEqual(t, cabs["10А"].Right, labels["10А"].SubjectCol)
}

func TestHeaderScanLimit(t *testing.T) {
	rows := make([][]string, 500)
	for i := range rows {
		rows[i] = []string{"", ""}
	}
	rows[450] = []string{"Время", "10А"}
	labels, headers := ParseHeaders(New(rows))
	assert.Empty(t, labels)
	assert.Empty(t, headers)
}
