package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+1 (234) 567-8900", "+12345678900"},
		{"1-234-567-8900", "12345678900"},
		{"555.123.4567", "5551234567"},
		{"  (11) 98765 4321 ", "11987654321"},
		{"+12345678900", "+12345678900"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{
		"+1 (234) 567-8900",
		"1-234-567-8900",
		"(555) 123-4567",
		"555.123.4567",
		"+442070313000",
	}
	for _, p := range valid {
		assert.True(t, IsValid(p), p)
	}

	invalid := []string{
		"",
		"   ",
		"abc",
		"12",
		"+1 234 567 8900 ext 12",
		"123456789012345678",
		"++12345",
	}
	for _, p := range invalid {
		assert.False(t, IsValid(p), p)
	}
}

func TestKeyMatchesAcrossFormats(t *testing.T) {
	a := Key(Normalize("+1 (234) 567-8900"))
	b := Key(Normalize("1-234-567-8900"))

	assert.Equal(t, "12345678900", a)
	assert.Equal(t, a, b)
}

func TestFormatForDisplay(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", FormatForDisplay("5551234567"))
	assert.Equal(t, "+12345678900", FormatForDisplay("+12345678900"))
	assert.Equal(t, "12345", FormatForDisplay("12345"))

	once := FormatForDisplay(Normalize("(555) 123-4567"))
	assert.Equal(t, once, FormatForDisplay(Normalize(once)))
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "US", Region("+16502530000"))
	assert.Equal(t, "GB", Region("+442070313000"))
	assert.Equal(t, "", Region("6502530000"))
	assert.Equal(t, "", Region(""))
}
