package feedstock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   float64
		wantOK bool
	}{
		{name: "plain", raw: "3.5", want: 3.5, wantOK: true},
		{name: "padded", raw: "  7 ", want: 7, wantOK: true},
		{name: "range midpoint", raw: "10-20", want: 15, wantOK: true},
		{name: "range with spaces", raw: "10 - 20", want: 15, wantOK: true},
		{name: "negative is not a range", raw: "-5", want: -5, wantOK: true},
		{name: "scientific notation", raw: "1e-3", want: 0.001, wantOK: true},
		{name: "empty", raw: ""},
		{name: "whitespace", raw: "   "},
		{name: "nan", raw: "nan"},
		{name: "NaN", raw: "NaN"},
		{name: "None", raw: "None"},
		{name: "null", raw: "NULL"},
		{name: "infinity", raw: "Inf"},
		{name: "text", raw: "abc"},
		{name: "two hyphens", raw: "1-2-3"},
		{name: "half range", raw: "10-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, raw := range []string{"true", "TRUE", "t", "yes", "Y", "1", "1.0", "2"} {
		assert.True(t, ParseBool(raw), raw)
	}
	for _, raw := range []string{"false", "f", "no", "0", "0.0", "", "nan", "maybe"} {
		assert.False(t, ParseBool(raw), raw)
	}
}

func TestCleanHeader(t *testing.T) {
	assert.Equal(t, "Type", CleanHeader("\ufeff\"Type\" "))
	assert.Equal(t, "C (%)", CleanHeader("  C (%)\t"))
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, "rice husk", NameKey("  Rice   Husk "))
	assert.Equal(t, "rice husk", NameKey("RICE\tHUSK"))
	// Fullwidth letters fold under NFKC.
	assert.Equal(t, "rice", NameKey("Ｒｉｃｅ"))
	assert.Equal(t, "", NameKey("   "))
}
