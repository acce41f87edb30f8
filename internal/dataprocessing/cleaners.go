package dataprocessing

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"liheapcli/internal/workbook"
)

var (
	zipRunPattern   = regexp.MustCompile(`\d{5}`)
	amountStrip     = regexp.MustCompile(`[^0-9.\-]`)
	yyyymmddPattern = regexp.MustCompile(`^(\d+)(\.0+)?$`)
)

// createdOnLayout renders dates read from date-formatted cells
const createdOnLayout = "2006-01-02 15:04:05"

// dateLayouts are tried in order for textual dates. The two-digit-year
// layouts cover excelize's rendering of the built-in date formats.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"01-02-06",
	"1-2-06",
	"01/02/06",
	"1/2/06",
	"1/2/06 15:04",
	"01-02-2006",
	"2-Jan-06",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// CleanZip extracts the first run of five digits from a raw ZIP cell after
// dropping a trailing ".0". It reports false when no such run exists.
func CleanZip(raw string) (string, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), ".0")
	match := zipRunPattern.FindString(s)
	if match == "" {
		return "", false
	}
	return match, true
}

// NormalizeZipKey normalizes a ZIP join key from a generated or reference
// table: trim, drop ".0" and left-pad to five digits.
func NormalizeZipKey(raw string) (string, bool) {
	return workbook.NormalizeCode(raw, 5)
}

// ParseDate parses a Created_On cell. Digit-only values (optionally with a
// ".0" suffix) are read as YYYYMMDD. Anything unparseable yields the zero time.
func ParseDate(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}
	}

	if m := yyyymmddPattern.FindStringSubmatch(s); m != nil {
		t, err := time.Parse("20060102", m[1])
		if err != nil {
			return time.Time{}
		}
		return t
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// YearMonth formats a date as "YYYY-MM", or "" for the zero time
func YearMonth(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01")
}

// CleanPledgeAmount strips everything except digits, '.' and '-' and parses
// the rest as an exact decimal.
func CleanPledgeAmount(raw string) decimal.NullDecimal {
	s := amountStrip.ReplaceAllString(raw, "")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

