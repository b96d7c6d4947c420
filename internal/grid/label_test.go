package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClassLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" 10  Б ", "10Б"},
		{"10Б", "10Б"},
		{"7 в", "7В"},
		{"5-А", "5А"},
		{"9 ё", "9Е"},
		{"Время", ""},
		{"", ""},
		{"10", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseClassLabel(tt.in), "input %q", tt.in)
	}
}

func TestGradeFromLabel(t *testing.T) {
	assert.Equal(t, 10, GradeFromLabel("10Б"))
	assert.Equal(t, 5, GradeFromLabel("5А"))
	assert.Equal(t, 0, GradeFromLabel("Б"))
	assert.Equal(t, 0, GradeFromLabel(""))
}

func TestIsBareClassLabel(t *testing.T) {
	assert.True(t, isBareClassLabel("10Б"))
	assert.True(t, isBareClassLabel(" 7 в "))
	assert.False(t, isBareClassLabel("Математика"))
	assert.False(t, isBareClassLabel("10Б Математика"))
}
