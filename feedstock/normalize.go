package feedstock

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NumericColumns lists the reference dataset columns that are converted to numbers on
// load. Columns not listed here keep their raw text.
var NumericColumns = []string{
	"Cellulose",
	"Hemicellulose",
	"Lignin",
	"Ash content",
	"Moisture content",
	"O (%)",
	"C (%)",
	"Fixed carbon content",
	"Volatile matter",
	"Final Temperature",
	"Heating Rate",
	"Residence Time (min)",
	"Residence Time",
	"Biochar Yield (%)",
	"H/C ratio",
	"O/C ratio",
	"pH",
	"pore size",
}

var absentTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
}

// ParseNumber converts a raw cell into a number. Plain numbers parse directly, "low-high"
// ranges return their midpoint, and blanks, sentinel tokens, infinities or anything
// unparseable report false.
func ParseNumber(raw string) (float64, bool) {
	val := strings.TrimSpace(raw)
	if _, ok := absentTokens[strings.ToLower(val)]; ok {
		return 0, false
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		if math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	if idx := strings.Index(val, "-"); idx > 0 {
		parts := strings.Split(val, "-")
		if len(parts) != 2 {
			return 0, false
		}
		low, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return 0, false
		}
		high, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return 0, false
		}
		return (low + high) / 2.0, true
	}
	return 0, false
}

// ParseBool reports whether a boolean challenge cell is set. Numbers count as true when
// non-zero.
func ParseBool(raw string) bool {
	val := strings.ToLower(strings.TrimSpace(raw))
	switch val {
	case "true", "t", "yes", "y":
		return true
	case "false", "f", "no", "n":
		return false
	}
	if f, ok := ParseNumber(val); ok {
		return f != 0
	}
	return false
}

// CleanHeader strips whitespace, a leading BOM and stray double quotes from a header cell.
func CleanHeader(name string) string {
	name = cleanCell(name)
	name = strings.ReplaceAll(name, `"`, "")
	return strings.TrimSpace(name)
}

// NameKey is the identity used for feedstock names: NFKC normalised, whitespace collapsed
// and lower-cased.
func NameKey(name string) string {
	normed := norm.NFKC.String(name)
	normed = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, normed)
	return strings.ToLower(strings.Join(strings.Fields(normed), " "))
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func isNumericColumn(name string) bool {
	for _, col := range NumericColumns {
		if col == name {
			return true
		}
	}
	return false
}
