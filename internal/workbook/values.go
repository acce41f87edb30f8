package workbook

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseFloat coerces a cell to a number. Thousands separators are accepted;
// anything else that does not parse is reported as missing.
func ParseFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseInt coerces a cell holding a whole number, such as "2024" or "2024.0"
func ParseInt(s string) (int, bool) {
	f, ok := ParseFloat(s)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// ParseDecimal coerces a cell to an exact decimal
func ParseDecimal(s string) decimal.NullDecimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.NullDecimal{}
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return decimal.NewNullDecimal(d)
	}
	if f, ok := ParseFloat(s); ok {
		return decimal.NewNullDecimal(decimal.NewFromFloat(f))
	}
	return decimal.NullDecimal{}
}

// IsBlank reports whether a cell is empty after trimming
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// NormalizeCode normalizes a numeric code cell such as a ZIP or FIPS code:
// trim, drop a trailing ".0" and left-pad with zeros to width. It reports
// false unless the result is exactly width digits.
func NormalizeCode(raw string, width int) (string, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), ".0")
	if s == "" || len(s) > width {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return strings.Repeat("0", width-len(s)) + s, true
}

// builtInDateFormats are the built-in number format IDs that render dates or times
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// IsDateFormat reports whether a cell number format renders a date or time.
// A custom format code takes precedence over the built-in ID.
func IsDateFormat(numFmt int, custom *string) bool {
	if custom != nil && *custom != "" {
		return isDateFormatCode(*custom)
	}
	return builtInDateFormats[numFmt]
}

// isDateFormatCode looks for y, m, d, h or s outside quoted literals,
// bracketed sections and escaped characters
func isDateFormatCode(code string) bool {
	// Only the first section applies to positive numbers
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			inBracket = c != ']'
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			switch c | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}
