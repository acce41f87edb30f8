package join

import (
	"context"
	"log/slog"
	"sort"

	"liheapcli/pkg/contracts/domain"
)

// Coverage counts how many rows of a joined table carry each indicator
type Coverage struct {
	Rows             int
	UniqueZips       int
	Years            []int
	WithIncome       int
	WithPopulation   int
	WithUnemployment int
}

// Percent returns n as a percentage of Rows
func (c Coverage) Percent(n int) float64 {
	if c.Rows == 0 {
		return 0
	}
	return float64(n) / float64(c.Rows) * 100
}

// CombinedCoverage measures indicator coverage of the stage-3 table
func CombinedCoverage(records []domain.CombinedRecord) Coverage {
	var cov Coverage
	zips := make(map[string]bool)
	years := make(map[int]bool)
	for _, r := range records {
		cov.Rows++
		zips[r.ZipCode] = true
		years[r.Year] = true
		if r.MedianIncome.Valid {
			cov.WithIncome++
		}
		if r.Population.Valid {
			cov.WithPopulation++
		}
	}
	cov.UniqueZips = len(zips)
	cov.Years = sortedYears(years)
	return cov
}

// FinalCoverage measures indicator coverage of the final table
func FinalCoverage(records []domain.FinalRecord) Coverage {
	combined := make([]domain.CombinedRecord, len(records))
	withUnemployment := 0
	for i, r := range records {
		combined[i] = r.CombinedRecord
		if r.UnemploymentRate.Valid {
			withUnemployment++
		}
	}
	cov := CombinedCoverage(combined)
	cov.WithUnemployment = withUnemployment
	return cov
}

// Log emits the coverage_report event
func (c Coverage) Log(ctx context.Context, logger *slog.Logger, table string) {
	logger.InfoContext(ctx, "coverage_report",
		slog.String("table", table),
		slog.Int("rows", c.Rows),
		slog.Int("unique_zips", c.UniqueZips),
		slog.Any("years", c.Years),
		slog.Int("with_income", c.WithIncome),
		slog.Float64("income_pct", c.Percent(c.WithIncome)),
		slog.Int("with_population", c.WithPopulation),
		slog.Float64("population_pct", c.Percent(c.WithPopulation)),
		slog.Int("with_unemployment", c.WithUnemployment),
		slog.Float64("unemployment_pct", c.Percent(c.WithUnemployment)))
}

func sortedYears(m map[int]bool) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
