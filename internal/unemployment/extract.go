package unemployment

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"liheapcli/internal/crosswalk"
	"liheapcli/internal/workbook"
	"liheapcli/pkg/contracts/domain"
)

// Metadata keys and table headers of a BLS LAUS profile sheet
const (
	MetaSeriesID    = "Series ID"
	MetaSeriesTitle = "Series Title"
	MetaArea        = "Area"

	HeaderYear   = "Year"
	HeaderPeriod = "Period"
	HeaderValue  = "Observation Value"
)

// ErrSheetSkipped marks a sheet without a usable monthly table
var ErrSheetSkipped = errors.New("sheet skipped")

// Skip reasons
const (
	ReasonNoTable       = "no Year/Period table"
	ReasonNoValueColumn = "missing Observation Value column"
)

// SheetSkipError names the sheet and why it was skipped. It matches ErrSheetSkipped.
type SheetSkipError struct {
	Sheet  string
	Reason string
}

func (e *SheetSkipError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrSheetSkipped, e.Sheet, e.Reason)
}

// Is reports whether target is ErrSheetSkipped
func (e *SheetSkipError) Is(target error) bool {
	return target == ErrSheetSkipped
}

var monthlyPeriod = regexp.MustCompile(`^M(0[1-9]|1[0-2])$`)

// SheetResult is the annual series extracted from one profile sheet
type SheetResult struct {
	Sheet    string
	Metadata map[string]string
	Annual   []domain.CountyAnnualUnemployment
	// FIPSMissing is set when the series ID is too short to carry a county code
	FIPSMissing bool
}

// ExtractSheet parses one profile sheet: the key/value metadata block above
// the monthly table, then the table itself averaged per calendar year.
// Only periods M01 through M12 are used; M13 is the published annual average.
func ExtractSheet(name string, grid [][]string) (SheetResult, error) {
	res := SheetResult{Sheet: name}

	headerRow := findTableHeader(grid)
	if headerRow < 0 {
		res.Metadata = extractMetadata(grid)
		return res, &SheetSkipError{Sheet: name, Reason: ReasonNoTable}
	}
	res.Metadata = extractMetadata(grid[:headerRow])

	table := workbook.NewTable(name, grid, headerRow)
	valueCol := table.Col(HeaderValue)
	if valueCol < 0 {
		return res, &SheetSkipError{Sheet: name, Reason: ReasonNoValueColumn}
	}
	yearCol := table.Col(HeaderYear)
	periodCol := table.Col(HeaderPeriod)

	values := make(map[int][]float64)
	periods := make(map[int]map[string]bool)
	for _, row := range table.Rows {
		period := table.Get(row, periodCol)
		if !monthlyPeriod.MatchString(period) {
			continue
		}
		year, ok := workbook.ParseInt(table.Get(row, yearCol))
		if !ok {
			continue
		}
		v, ok := workbook.ParseFloat(table.Get(row, valueCol))
		if !ok {
			continue
		}
		values[year] = append(values[year], v)
		if periods[year] == nil {
			periods[year] = make(map[string]bool)
		}
		periods[year][period] = true
	}

	seriesID := res.Metadata[MetaSeriesID]
	seriesTitle := res.Metadata[MetaSeriesTitle]
	county := CountyName(seriesTitle, res.Metadata[MetaArea])
	fips, ok := crosswalk.DeriveCountyFIPS(seriesID)
	res.FIPSMissing = !ok

	years := make([]int, 0, len(values))
	for y := range values {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		res.Annual = append(res.Annual, domain.CountyAnnualUnemployment{
			County:           county,
			SeriesID:         seriesID,
			SeriesTitle:      seriesTitle,
			CountyFIPS:       fips,
			Year:             y,
			UnemploymentRate: stat.Mean(values[y], nil),
			MonthCount:       len(periods[y]),
		})
	}
	return res, nil
}

// CountyName derives "Glenn County" from a series title such as
// "Unemployment Rate: Glenn County, CA (U)". When the title yields nothing,
// an Area value naming a county is used instead.
func CountyName(seriesTitle, area string) string {
	s := strings.TrimSpace(seriesTitle)
	s = strings.ReplaceAll(s, "Unemployment Rate: ", "")
	s = strings.ReplaceAll(s, " (U)", "")
	s = strings.ReplaceAll(s, ", CA", "")
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	if strings.Contains(area, "County") {
		return strings.TrimSpace(strings.ReplaceAll(area, ", CA", ""))
	}
	return ""
}

// findTableHeader returns the row whose first two cells are Year and Period, or -1
func findTableHeader(grid [][]string) int {
	for i, row := range grid {
		if len(row) < 2 {
			continue
		}
		if strings.TrimSpace(row[0]) == HeaderYear && strings.TrimSpace(row[1]) == HeaderPeriod {
			return i
		}
	}
	return -1
}

// extractMetadata reads key/value pairs from the first two columns.
// Later keys overwrite earlier ones.
func extractMetadata(rows [][]string) map[string]string {
	meta := make(map[string]string)
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		key := strings.TrimSuffix(strings.TrimSpace(row[0]), ":")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value := ""
		if len(row) > 1 {
			value = strings.TrimSpace(row[1])
		}
		meta[key] = value
	}
	return meta
}
