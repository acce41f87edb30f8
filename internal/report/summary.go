package report

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"

	"liheapcli/internal/config"
	"liheapcli/internal/exporter"
	"liheapcli/internal/join"
	"liheapcli/pkg/contracts/domain"
)

// MinCorrelationRows is the fewest complete pairs a correlation is reported for
const MinCorrelationRows = 3

// Correlation is the Pearson coefficient of total_pledge against one indicator
type Correlation struct {
	Indicator string
	N         int
	R         float64
	Valid     bool
}

// Distribution describes total_pledge across ZIP-year rows
type Distribution struct {
	Min, Q25, Median, Mean, Q75, Max float64
	Total                            decimal.Decimal
}

// Summary is the analysis summary of the final table
type Summary struct {
	Coverage     join.Coverage
	ZipOverlap   int
	Pledges      Distribution
	Correlations []Correlation
}

// Build computes the summary of the final records. overlap is the number of
// pledge ZIP codes that matched an unemployment rate.
func Build(records []domain.FinalRecord, overlap int) Summary {
	s := Summary{
		Coverage:   join.FinalCoverage(records),
		ZipOverlap: overlap,
		Pledges:    distribution(records),
	}

	indicators := []struct {
		name  string
		value func(domain.FinalRecord) (float64, bool)
	}{
		{domain.ColMedianIncome, func(r domain.FinalRecord) (float64, bool) {
			return r.MedianIncome.Decimal.InexactFloat64(), r.MedianIncome.Valid
		}},
		{domain.ColPopulation, func(r domain.FinalRecord) (float64, bool) {
			return float64(r.Population.Int64), r.Population.Valid
		}},
		{domain.ColUnemploymentRate, func(r domain.FinalRecord) (float64, bool) {
			return r.UnemploymentRate.Float64, r.UnemploymentRate.Valid
		}},
	}
	for _, ind := range indicators {
		var x, y []float64
		for _, r := range records {
			if v, ok := ind.value(r); ok {
				x = append(x, r.TotalPledge.InexactFloat64())
				y = append(y, v)
			}
		}
		s.Correlations = append(s.Correlations, pearson(ind.name, x, y))
	}
	return s
}

func pearson(name string, x, y []float64) Correlation {
	c := Correlation{Indicator: name, N: len(x)}
	if len(x) < MinCorrelationRows {
		return c
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return c
	}
	c.R, c.Valid = r, true
	return c
}

func distribution(records []domain.FinalRecord) Distribution {
	d := Distribution{Total: decimal.Zero}
	if len(records) == 0 {
		return d
	}
	x := make([]float64, len(records))
	for i, r := range records {
		x[i] = r.TotalPledge.InexactFloat64()
		d.Total = d.Total.Add(r.TotalPledge)
	}
	sort.Float64s(x)
	d.Min, d.Max = x[0], x[len(x)-1]
	d.Q25 = stat.Quantile(0.25, stat.Empirical, x, nil)
	d.Median = stat.Quantile(0.5, stat.Empirical, x, nil)
	d.Q75 = stat.Quantile(0.75, stat.Empirical, x, nil)
	d.Mean = stat.Mean(x, nil)
	return d
}

// Table renders the summary as the two-column Summary sheet
func (s Summary) Table() exporter.Table {
	p := message.NewPrinter(language.English)
	cov := s.Coverage

	var rows [][]any
	add := func(metric, value string) { rows = append(rows, []any{metric, value}) }

	add("rows", p.Sprintf("%d", cov.Rows))
	add("unique_zips", p.Sprintf("%d", cov.UniqueZips))
	add("years", yearsLabel(cov.Years))
	add("zip_overlap_unemployment", p.Sprintf("%d", s.ZipOverlap))
	add("income_coverage_pct", p.Sprintf("%.1f", cov.Percent(cov.WithIncome)))
	add("population_coverage_pct", p.Sprintf("%.1f", cov.Percent(cov.WithPopulation)))
	add("unemployment_coverage_pct", p.Sprintf("%.1f", cov.Percent(cov.WithUnemployment)))
	add("total_pledge_sum", p.Sprintf("%.2f", s.Pledges.Total.InexactFloat64()))
	add("total_pledge_min", p.Sprintf("%.2f", s.Pledges.Min))
	add("total_pledge_q25", p.Sprintf("%.2f", s.Pledges.Q25))
	add("total_pledge_median", p.Sprintf("%.2f", s.Pledges.Median))
	add("total_pledge_mean", p.Sprintf("%.2f", s.Pledges.Mean))
	add("total_pledge_q75", p.Sprintf("%.2f", s.Pledges.Q75))
	add("total_pledge_max", p.Sprintf("%.2f", s.Pledges.Max))
	for _, c := range s.Correlations {
		value := "n/a"
		if c.Valid {
			value = p.Sprintf("%.4f", c.R)
		}
		add("corr_total_pledge_"+c.Indicator, value)
		add("corr_n_"+c.Indicator, p.Sprintf("%d", c.N))
	}

	return exporter.Table{
		Sheet:   config.SheetSummary,
		Columns: exporter.TextColumns([]string{"metric", "value"}, "value"),
		Rows:    rows,
	}
}

// Log emits the analysis_summary event
func (s Summary) Log(ctx context.Context, logger *slog.Logger) {
	attrs := []any{
		slog.Int("rows", s.Coverage.Rows),
		slog.Int("zip_overlap", s.ZipOverlap),
		slog.String("total_pledge", s.Pledges.Total.StringFixed(2)),
		slog.Float64("median_pledge", s.Pledges.Median),
	}
	for _, c := range s.Correlations {
		if c.Valid {
			attrs = append(attrs, slog.Float64("corr_"+c.Indicator, c.R))
		}
	}
	logger.InfoContext(ctx, "analysis_summary", attrs...)
}

func yearsLabel(years []int) string {
	if len(years) == 0 {
		return ""
	}
	first := strconv.Itoa(years[0])
	if len(years) == 1 {
		return first
	}
	return first + "-" + strconv.Itoa(years[len(years)-1])
}
