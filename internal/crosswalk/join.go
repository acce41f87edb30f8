package crosswalk

import (
	"database/sql"
	"sort"

	"liheapcli/internal/config"
	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/exporter"
	"liheapcli/internal/workbook"
	"liheapcli/pkg/contracts/domain"
)

// ZipUnemploymentColumns is the column order of the stage-5 output
var ZipUnemploymentColumns = []string{
	domain.ColZipCode,
	domain.ColYear,
	domain.ColUnemploymentRate,
	domain.ColCounty,
	domain.ColCountyFIPS,
	domain.ColZipCountyWeight,
}

type countyYear struct {
	fips string
	year int
}

// JoinUnemployment expands every ZIP assignment over the distinct years of
// the county table and left-joins the county rate on (County_FIPS, Year).
// The result has len(assignments) * len(years) rows, ordered by ZIP then year;
// a county missing from the table leaves the rate and name empty. When the
// county table has no years at all, each assignment still yields one row with
// a missing year (0) and rate.
func JoinUnemployment(assignments []domain.ZipCountyAssignment, counties []domain.CountyAnnualUnemployment) []domain.ZipUnemployment {
	byKey := make(map[countyYear]domain.CountyAnnualUnemployment, len(counties))
	yearSet := make(map[int]bool)
	for _, c := range counties {
		yearSet[c.Year] = true
		k := countyYear{fips: c.CountyFIPS, year: c.Year}
		if _, seen := byKey[k]; !seen {
			byKey[k] = c
		}
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	sorted := append([]domain.ZipCountyAssignment(nil), assignments...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ZipCode < sorted[j].ZipCode })

	if len(years) == 0 {
		out := make([]domain.ZipUnemployment, len(sorted))
		for i, a := range sorted {
			out[i] = domain.ZipUnemployment{ZipCode: a.ZipCode, CountyFIPS: a.CountyFIPS, Weight: a.Weight}
		}
		return out
	}

	out := make([]domain.ZipUnemployment, 0, len(sorted)*len(years))
	for _, a := range sorted {
		for _, y := range years {
			zu := domain.ZipUnemployment{
				ZipCode:    a.ZipCode,
				Year:       y,
				CountyFIPS: a.CountyFIPS,
				Weight:     a.Weight,
			}
			if c, ok := byKey[countyYear{fips: a.CountyFIPS, year: y}]; ok {
				zu.UnemploymentRate = sql.NullFloat64{Float64: c.UnemploymentRate, Valid: true}
				zu.County = sql.NullString{String: c.County, Valid: c.County != ""}
			}
			out = append(out, zu)
		}
	}
	return out
}

// JoinStats summarizes a stage-5 result
type JoinStats struct {
	Rows       int
	UniqueZips int
	Counties   int
	WithRate   int
	Years      []int
}

// Summarize computes JoinStats over rows
func Summarize(rows []domain.ZipUnemployment) JoinStats {
	stats := JoinStats{Rows: len(rows)}
	zips := make(map[string]bool)
	counties := make(map[string]bool)
	years := make(map[int]bool)
	for _, r := range rows {
		zips[r.ZipCode] = true
		if r.Year != 0 {
			years[r.Year] = true
		}
		if r.County.Valid {
			counties[r.County.String] = true
		}
		if r.UnemploymentRate.Valid {
			stats.WithRate++
		}
	}
	stats.UniqueZips = len(zips)
	stats.Counties = len(counties)
	for y := range years {
		stats.Years = append(stats.Years, y)
	}
	sort.Ints(stats.Years)
	return stats
}

// ZipUnemploymentTable renders stage-5 rows as the zip_unemployment sheet
func ZipUnemploymentTable(rows []domain.ZipUnemployment) exporter.Table {
	out := make([][]any, len(rows))
	for i, r := range rows {
		var year any
		if r.Year != 0 {
			year = r.Year
		}
		out[i] = []any{r.ZipCode, year, r.UnemploymentRate, r.County, r.CountyFIPS, r.Weight}
	}
	return exporter.Table{
		Sheet:   config.SheetZipUnemployment,
		Columns: exporter.TextColumns(ZipUnemploymentColumns, domain.ColZipCode, domain.ColCountyFIPS),
		Rows:    out,
	}
}

// ReadZipUnemployment loads the sheet written by ZipUnemploymentTable
func ReadZipUnemployment(path string) ([]domain.ZipUnemployment, error) {
	table, err := workbook.ReadTable(path, config.SheetZipUnemployment)
	if err != nil {
		return nil, err
	}
	if missing := table.Missing(domain.ColZipCode, domain.ColYear, domain.ColUnemploymentRate); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(path, missing)
	}

	zipCol := table.Col(domain.ColZipCode)
	yearCol := table.Col(domain.ColYear)
	rateCol := table.Col(domain.ColUnemploymentRate)
	countyCol := table.Col(domain.ColCounty)
	fipsCol := table.Col(domain.ColCountyFIPS)
	weightCol := table.Col(domain.ColZipCountyWeight)

	out := make([]domain.ZipUnemployment, 0, table.Len())
	for _, row := range table.Rows {
		zip, ok := workbook.NormalizeCode(table.Get(row, zipCol), 5)
		if !ok {
			continue
		}
		// A blank year is a ZIP whose county table had no years
		year, _ := workbook.ParseInt(table.Get(row, yearCol))
		zu := domain.ZipUnemployment{ZipCode: zip, Year: year}
		if rate, ok := workbook.ParseFloat(table.Get(row, rateCol)); ok {
			zu.UnemploymentRate = sql.NullFloat64{Float64: rate, Valid: true}
		}
		if county := table.Get(row, countyCol); county != "" {
			zu.County = sql.NullString{String: county, Valid: true}
		}
		zu.CountyFIPS, _ = workbook.NormalizeCode(table.Get(row, fipsCol), 5)
		zu.Weight, _ = workbook.ParseFloat(table.Get(row, weightCol))
		out = append(out, zu)
	}
	return out, nil
}
