package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"liheapcli/internal/config"
	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/exporter"
	"liheapcli/internal/workbook"
	"liheapcli/pkg/contracts/domain"
)

// AggregateStats summarizes one aggregation run
type AggregateStats struct {
	InputRows    int
	InvalidRows  int
	OutsideYears int
	Groups       int
	UniqueZips   int
	MinYear      int
	MaxYear      int
	TotalPledge  decimal.Decimal
	MeanPledge   decimal.Decimal
	MeanRecords  float64
}

// Aggregator groups pledge records by ZIP code and calendar year
type Aggregator struct {
	minYear int
	maxYear int
	logger  *slog.Logger
}

// NewAggregator creates an aggregator that keeps years in [minYear, maxYear]
func NewAggregator(minYear, maxYear int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{minYear: minYear, maxYear: maxYear, logger: logger}
}

// ReadPledges loads the cleaned pledge sheet written by the normalizer
func ReadPledges(path string) ([]domain.PledgeRecord, error) {
	table, err := workbook.ReadTable(path, config.SheetPledges)
	if err != nil {
		return nil, err
	}
	if missing := table.Missing(domain.ColZipCode, domain.ColYearMonth, domain.ColPledgeAmount); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(path, missing)
	}

	cityCol := table.Col(domain.ColCity)
	zipCol := table.Col(domain.ColZipCode)
	ymCol := table.Col(domain.ColYearMonth)
	amountCol := table.Col(domain.ColPledgeAmount)

	records := make([]domain.PledgeRecord, 0, table.Len())
	for _, row := range table.Rows {
		records = append(records, domain.PledgeRecord{
			City:         table.Get(row, cityCol),
			ZipCode:      table.Get(row, zipCol),
			YearMonth:    table.Get(row, ymCol),
			PledgeAmount: workbook.ParseDecimal(table.Get(row, amountCol)),
		})
	}
	return records, nil
}

// Aggregate sums pledge amounts per (ZIP, year). record_count counts the
// non-missing amounts. Rows with an unusable ZIP or YearMo are dropped, as
// are years outside the configured window. Output is sorted by ZIP, year.
func (a *Aggregator) Aggregate(ctx context.Context, records []domain.PledgeRecord) ([]domain.ZipYearAggregate, AggregateStats) {
	stats := AggregateStats{InputRows: len(records)}
	groups := make(map[domain.ZipYearKey]*domain.ZipYearAggregate)

	for _, rec := range records {
		zip, ok := NormalizeZipKey(rec.ZipCode)
		year, yok := yearOf(rec.YearMonth)
		if !ok || !yok {
			stats.InvalidRows++
			continue
		}
		if year < a.minYear || year > a.maxYear {
			stats.OutsideYears++
			continue
		}

		key := domain.ZipYearKey{ZipCode: zip, Year: year}
		agg, exists := groups[key]
		if !exists {
			agg = &domain.ZipYearAggregate{ZipCode: zip, Year: year, TotalPledge: decimal.Zero}
			groups[key] = agg
		}
		if rec.PledgeAmount.Valid {
			agg.TotalPledge = agg.TotalPledge.Add(rec.PledgeAmount.Decimal)
			agg.RecordCount++
		}
	}

	out := make([]domain.ZipYearAggregate, 0, len(groups))
	for _, agg := range groups {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZipCode != out[j].ZipCode {
			return out[i].ZipCode < out[j].ZipCode
		}
		return out[i].Year < out[j].Year
	})

	a.summarize(out, &stats)
	if stats.OutsideYears > 0 {
		a.logger.WarnContext(ctx, "records_outside_valid_years",
			slog.Int("removed", stats.OutsideYears),
			slog.Int("min_year", a.minYear),
			slog.Int("max_year", a.maxYear))
	}
	a.logger.InfoContext(ctx, "aggregation_complete",
		slog.Int("input_rows", stats.InputRows),
		slog.Int("invalid_rows", stats.InvalidRows),
		slog.Int("zip_year_groups", stats.Groups),
		slog.Int("unique_zips", stats.UniqueZips),
		slog.Int("year_min", stats.MinYear),
		slog.Int("year_max", stats.MaxYear),
		slog.String("total_pledge", stats.TotalPledge.StringFixed(2)),
		slog.String("mean_pledge", stats.MeanPledge.StringFixed(2)),
		slog.Float64("mean_records", stats.MeanRecords))

	return out, stats
}

func (a *Aggregator) summarize(out []domain.ZipYearAggregate, stats *AggregateStats) {
	stats.Groups = len(out)
	stats.TotalPledge = decimal.Zero
	if len(out) == 0 {
		return
	}

	zips := make(map[string]bool)
	records := 0
	stats.MinYear, stats.MaxYear = out[0].Year, out[0].Year
	for _, agg := range out {
		zips[agg.ZipCode] = true
		records += agg.RecordCount
		stats.TotalPledge = stats.TotalPledge.Add(agg.TotalPledge)
		if agg.Year < stats.MinYear {
			stats.MinYear = agg.Year
		}
		if agg.Year > stats.MaxYear {
			stats.MaxYear = agg.Year
		}
	}
	n := decimal.NewFromInt(int64(len(out)))
	stats.UniqueZips = len(zips)
	stats.MeanPledge = stats.TotalPledge.Div(n)
	stats.MeanRecords = float64(records) / float64(len(out))
}

// yearOf extracts the year of a "YYYY-MM" value
func yearOf(ym string) (int, bool) {
	if len(ym) < 7 || ym[4] != '-' {
		return 0, false
	}
	year, err := strconv.Atoi(ym[:4])
	if err != nil {
		return 0, false
	}
	month, err := strconv.Atoi(ym[5:7])
	if err != nil || month < 1 || month > 12 {
		return 0, false
	}
	return year, true
}

// ZipYearTable renders aggregates as the ZipYear sheet
func ZipYearTable(aggs []domain.ZipYearAggregate) exporter.Table {
	cols := []string{domain.ColZipCode, domain.ColYear, domain.ColTotalPledge, domain.ColRecordCount}
	rows := make([][]any, len(aggs))
	for i, a := range aggs {
		rows[i] = []any{a.ZipCode, a.Year, a.TotalPledge, a.RecordCount}
	}
	return exporter.Table{
		Sheet:   config.SheetZipYear,
		Columns: exporter.TextColumns(cols, domain.ColZipCode),
		Rows:    rows,
	}
}

// ReadZipYear loads the ZipYear sheet written by the aggregator
func ReadZipYear(path string) ([]domain.ZipYearAggregate, error) {
	table, err := workbook.ReadTable(path, config.SheetZipYear)
	if err != nil {
		return nil, err
	}
	if missing := table.Missing(domain.ColZipCode, domain.ColYear, domain.ColTotalPledge, domain.ColRecordCount); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(path, missing)
	}

	zipCol := table.Col(domain.ColZipCode)
	yearCol := table.Col(domain.ColYear)
	totalCol := table.Col(domain.ColTotalPledge)
	countCol := table.Col(domain.ColRecordCount)

	out := make([]domain.ZipYearAggregate, 0, table.Len())
	for _, row := range table.Rows {
		zip, ok := NormalizeZipKey(table.Get(row, zipCol))
		year, yok := workbook.ParseInt(table.Get(row, yearCol))
		if !ok || !yok {
			continue
		}
		total := workbook.ParseDecimal(table.Get(row, totalCol))
		count, _ := workbook.ParseInt(table.Get(row, countCol))
		out = append(out, domain.ZipYearAggregate{
			ZipCode:     zip,
			Year:        year,
			TotalPledge: total.Decimal,
			RecordCount: count,
		})
	}
	return out, nil
}
