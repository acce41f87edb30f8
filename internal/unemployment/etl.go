package unemployment

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"liheapcli/internal/config"
	"liheapcli/internal/crosswalk"
	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/exporter"
	"liheapcli/internal/workbook"
	"liheapcli/pkg/contracts/domain"
)

// Result is the output of one unemployment ETL run
type Result struct {
	Full        []domain.CountyAnnualUnemployment
	Partial     []domain.CountyAnnualUnemployment
	Sheets      int
	Processed   int
	FIPSMissing int
	Skipped     *apperrors.SkipReport
}

// ETL converts a multi-sheet BLS LAUS profile workbook into annual county rates
type ETL struct {
	logger *slog.Logger
}

// NewETL creates an unemployment ETL
func NewETL(logger *slog.Logger) *ETL {
	if logger == nil {
		logger = slog.Default()
	}
	return &ETL{logger: logger}
}

// Run extracts every sheet of the workbook at path. Sheets without a usable
// table are skipped and reported; a workbook with no usable sheet is an error.
func (e *ETL) Run(ctx context.Context, path string) (*Result, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	res := &Result{Skipped: &apperrors.SkipReport{}}
	var annual []domain.CountyAnnualUnemployment
	for _, sheet := range wb.SheetNames() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Sheets++

		grid, err := wb.Rows(sheet)
		if err != nil {
			res.Skipped.Add(sheet, "unreadable")
			e.logger.WarnContext(ctx, "sheet_skipped", slog.String("sheet", sheet), slog.String("error", err.Error()))
			continue
		}

		sr, err := ExtractSheet(sheet, grid)
		var skip *SheetSkipError
		if errors.As(err, &skip) {
			res.Skipped.Add(sheet, skip.Reason)
			e.logger.WarnContext(ctx, "sheet_skipped", slog.String("sheet", sheet), slog.String("reason", skip.Reason))
			continue
		}
		if err != nil {
			return nil, err
		}

		if sr.FIPSMissing {
			res.FIPSMissing++
			e.logger.WarnContext(ctx, "county_fips_underivable",
				slog.String("sheet", sheet),
				slog.String("series_id", sr.Metadata[MetaSeriesID]))
		}
		res.Processed++
		annual = append(annual, sr.Annual...)
	}

	if res.Processed == 0 {
		return nil, apperrors.NewPreconditionError("no usable county sheets in unemployment workbook").
			WithContext("path", path).
			WithContext("sheets", res.Sheets)
	}

	res.Full, res.Partial = Partition(annual)
	e.logger.InfoContext(ctx, "unemployment_extracted",
		slog.Int("sheets", res.Sheets),
		slog.Int("processed", res.Processed),
		slog.Int("skipped", res.Skipped.Len()),
		slog.Int("full_year_rows", len(res.Full)),
		slog.Int("partial_year_rows", len(res.Partial)),
		slog.Any("full_years", distinctYears(res.Full)),
		slog.Any("partial_years", distinctYears(res.Partial)))
	return res, nil
}

// Partition splits annual rows into complete years (twelve months) and
// partial years, each sorted by county and year.
func Partition(rows []domain.CountyAnnualUnemployment) (full, partial []domain.CountyAnnualUnemployment) {
	for _, r := range rows {
		if r.IsPartialYear() {
			partial = append(partial, r)
		} else {
			full = append(full, r)
		}
	}
	sortByCountyYear(full)
	sortByCountyYear(partial)
	return full, partial
}

func sortByCountyYear(rows []domain.CountyAnnualUnemployment) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].County != rows[j].County {
			return rows[i].County < rows[j].County
		}
		return rows[i].Year < rows[j].Year
	})
}

func distinctYears(rows []domain.CountyAnnualUnemployment) []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range rows {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	sort.Ints(years)
	return years
}

var fullYearColumns = []string{
	domain.ColYear,
	domain.ColUnemploymentRate,
	domain.ColCounty,
	domain.ColSeriesID,
	domain.ColSeriesTitle,
	domain.ColCountyFIPS,
}

// FullYearsTable renders complete years as the Full_Years sheet
func FullYearsTable(rows []domain.CountyAnnualUnemployment) exporter.Table {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.Year, r.UnemploymentRate, r.County, r.SeriesID, r.SeriesTitle, r.CountyFIPS}
	}
	return exporter.Table{
		Sheet:   config.SheetFullYears,
		Columns: exporter.TextColumns(fullYearColumns, domain.ColSeriesID, domain.ColCountyFIPS),
		Rows:    out,
	}
}

// PartialYearsTable renders partial years as the YTD sheet with their month counts
func PartialYearsTable(rows []domain.CountyAnnualUnemployment) exporter.Table {
	cols := append(append([]string{}, fullYearColumns...), domain.ColMonthCount, domain.ColIsPartialYear)
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.Year, r.UnemploymentRate, r.County, r.SeriesID, r.SeriesTitle, r.CountyFIPS, r.MonthCount, true}
	}
	return exporter.Table{
		Sheet:   config.SheetPartialYears,
		Columns: exporter.TextColumns(cols, domain.ColSeriesID, domain.ColCountyFIPS),
		Rows:    out,
	}
}

// Tables returns both output sheets of a run
func (r *Result) Tables() []exporter.Table {
	return []exporter.Table{FullYearsTable(r.Full), PartialYearsTable(r.Partial)}
}

// ReadCounties loads the annual county table written by Run. Partial years
// are included only when requested. County_FIPS is derived from Series_ID
// when the column is absent or blank; rows where neither yields a code, or
// without a numeric year and rate, are counted in dropped.
func ReadCounties(path string, includePartial bool) (rows []domain.CountyAnnualUnemployment, dropped int, err error) {
	sheets := []string{config.SheetFullYears}
	if includePartial {
		sheets = append(sheets, config.SheetPartialYears)
	}

	for _, sheet := range sheets {
		table, err := workbook.ReadTable(path, sheet)
		if err != nil {
			return nil, 0, err
		}
		if missing := table.Missing(domain.ColYear, domain.ColCounty, domain.ColUnemploymentRate); len(missing) > 0 {
			return nil, 0, apperrors.NewSchemaError(path, missing)
		}
		fipsCol := table.Col(domain.ColCountyFIPS)
		seriesCol := table.Col(domain.ColSeriesID)
		if fipsCol < 0 && seriesCol < 0 {
			return nil, 0, apperrors.NewSchemaError(path, []string{domain.ColCountyFIPS})
		}
		yearCol := table.Col(domain.ColYear)
		countyCol := table.Col(domain.ColCounty)
		rateCol := table.Col(domain.ColUnemploymentRate)
		titleCol := table.Col(domain.ColSeriesTitle)
		monthsCol := table.Col(domain.ColMonthCount)

		for _, row := range table.Rows {
			year, ok := workbook.ParseInt(table.Get(row, yearCol))
			rate, rok := workbook.ParseFloat(table.Get(row, rateCol))
			if !ok || !rok {
				dropped++
				continue
			}
			seriesID := table.Get(row, seriesCol)
			fips, ok := workbook.NormalizeCode(table.Get(row, fipsCol), 5)
			if !ok {
				fips, ok = crosswalk.DeriveCountyFIPS(seriesID)
			}
			if !ok {
				dropped++
				continue
			}
			rec := domain.CountyAnnualUnemployment{
				County:           table.Get(row, countyCol),
				SeriesID:         seriesID,
				SeriesTitle:      table.Get(row, titleCol),
				CountyFIPS:       fips,
				Year:             year,
				UnemploymentRate: rate,
				MonthCount:       domain.FullYearMonths,
			}
			if n, ok := workbook.ParseInt(table.Get(row, monthsCol)); ok {
				rec.MonthCount = n
			}
			rows = append(rows, rec)
		}
	}
	return rows, dropped, nil
}
