package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCabinetModeBeatsRoomCode(t *testing.T) {
	// A room code embedded in prose about a mode must not win.
	assert.Equal(t, "офлайн", ExtractCabinet("офлайн, каб. 305"))
	assert.Equal(t, "онлайн", ExtractCabinet("урок пройдёт online, каб. Г3-04"))
	assert.Equal(t, "дистант", ExtractCabinet("дистанционное обучение"))
	assert.Equal(t, "дистант", ExtractCabinet("удалённо"))
	assert.Equal(t, "офлайн", ExtractCabinet("очно"))
}

func TestExtractCabinetHyphenVariants(t *testing.T) {
	for _, in := range []string{"г3 - 04", "Г3–04", "г3−04", "Г3—04"} {
		assert.Equal(t, "Г3-04", ExtractCabinet(in), "input %q", in)
	}
}

func TestExtractCabinetPatterns(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"каб. 305", "305"},
		{"кабинет: Г3-04", "Г3-04"},
		{"Г3-04/Г4-03", "Г3-04/Г4-03"},
		{"спортзал 2", "СПОРТЗАЛ2"},
		{"актовый зал", "АКТОВЫЙЗАЛ"},
		{"ауд. 12", "АУД.12"},
		{"ёлка в каб. 305", "305"},
		{"", ""},
		{"Математика", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractCabinet(tt.in), "input %q", tt.in)
	}
}

func TestExtractCabinetFirstMatchingLineWins(t *testing.T) {
	assert.Equal(t, "305", ExtractCabinet("каб. 305\nонлайн"))
	assert.Equal(t, "онлайн", ExtractCabinet("онлайн\nкаб. 305"))
	// Lines without a match are skipped, not fatal.
	assert.Equal(t, "Г2-21", ExtractCabinet("примечание\nГ2-21"))
}

func TestIsPhysicalCabinet(t *testing.T) {
	assert.True(t, IsPhysicalCabinet("Г3-04"))
	assert.True(t, IsPhysicalCabinet("СПОРТЗАЛ2"))
	assert.False(t, IsPhysicalCabinet(""))
	assert.False(t, IsPhysicalCabinet("онлайн"))
	assert.False(t, IsPhysicalCabinet("ОФЛАЙН"))
}

func TestSplitCabinets(t *testing.T) {
	assert.Equal(t, []string{"Г3-04", "Г4-03"}, SplitCabinets("Г3-04/Г4-03"))
	assert.Equal(t, []string{"Г3-04"}, SplitCabinets("г3-04; дистант"))
	assert.Nil(t, SplitCabinets(""))
	assert.Nil(t, SplitCabinets("онлайн"))
}
