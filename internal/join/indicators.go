package join

import (
	"database/sql"
	"math"
	"strings"

	"liheapcli/internal/config"
	"liheapcli/internal/dataprocessing"
	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/exporter"
	"liheapcli/internal/workbook"
	"liheapcli/pkg/contracts/domain"
)

// Reference column names in the ACS extracts
const (
	ColZipCode          = "ZIPCODE"
	ColIncome           = "Median household income in the past 12 months (in 2023 inflation-adjusted dollars)"
	incomeHeaderPrefix  = "Median household income"
	ColPopulationSource = "Population"
)

// CombinedColumns is the column order of the stage-3 output
var CombinedColumns = []string{
	domain.ColZipCode,
	domain.ColYear,
	domain.ColTotalPledge,
	domain.ColRecordCount,
	domain.ColMedianIncome,
	domain.ColPopulation,
}

// ReadIncome loads ZIP-level median household income. The income column is
// matched exactly first and then by its "Median household income" prefix, so
// extracts for other ACS vintages are accepted.
func ReadIncome(path, sheet string) ([]domain.GeoIndicator, error) {
	table, err := workbook.ReadTable(path, sheet)
	if err != nil {
		return nil, err
	}

	zipCol := table.Col(ColZipCode)
	incomeCol := table.Col(ColIncome)
	if incomeCol < 0 {
		incomeCol = findPrefix(table.Headers, incomeHeaderPrefix)
	}
	var missing []string
	if zipCol < 0 {
		missing = append(missing, ColZipCode)
	}
	if incomeCol < 0 {
		missing = append(missing, ColIncome)
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(path, missing)
	}

	out := make([]domain.GeoIndicator, 0, table.Len())
	for _, row := range table.Rows {
		zip, ok := dataprocessing.NormalizeZipKey(table.Get(row, zipCol))
		if !ok {
			continue
		}
		out = append(out, domain.GeoIndicator{
			ZipCode:      zip,
			MedianIncome: workbook.ParseDecimal(table.Get(row, incomeCol)),
		})
	}
	return out, nil
}

// ReadPopulation loads ZIP-level total population
func ReadPopulation(path, sheet string) ([]domain.GeoIndicator, error) {
	table, err := workbook.ReadTable(path, sheet)
	if err != nil {
		return nil, err
	}
	if missing := table.Missing(ColZipCode, ColPopulationSource); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(path, missing)
	}

	zipCol := table.Col(ColZipCode)
	popCol := table.Col(ColPopulationSource)
	out := make([]domain.GeoIndicator, 0, table.Len())
	for _, row := range table.Rows {
		zip, ok := dataprocessing.NormalizeZipKey(table.Get(row, zipCol))
		if !ok {
			continue
		}
		ind := domain.GeoIndicator{ZipCode: zip}
		if f, ok := workbook.ParseFloat(table.Get(row, popCol)); ok {
			ind.Population = sql.NullInt64{Int64: int64(math.Round(f)), Valid: true}
		}
		out = append(out, ind)
	}
	return out, nil
}

// AttachIndicators left-joins income and population onto every aggregate by
// ZIP code alone; the same snapshot applies to every year of a ZIP. When a
// reference table repeats a ZIP, its first row wins, so the output always has
// exactly one row per aggregate.
func AttachIndicators(aggs []domain.ZipYearAggregate, income, population []domain.GeoIndicator) []domain.CombinedRecord {
	incomeByZip := firstByZip(income)
	popByZip := firstByZip(population)

	out := make([]domain.CombinedRecord, len(aggs))
	for i, agg := range aggs {
		rec := domain.CombinedRecord{ZipYearAggregate: agg}
		if ind, ok := incomeByZip[agg.ZipCode]; ok {
			rec.MedianIncome = ind.MedianIncome
		}
		if ind, ok := popByZip[agg.ZipCode]; ok {
			rec.Population = ind.Population
		}
		out[i] = rec
	}
	return out
}

// CombinedTable renders stage-3 records as the Combined_Data sheet
func CombinedTable(records []domain.CombinedRecord) exporter.Table {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.ZipCode, r.Year, r.TotalPledge, r.RecordCount, r.MedianIncome, r.Population}
	}
	return exporter.Table{
		Sheet:   config.SheetACSCombined,
		Columns: exporter.TextColumns(CombinedColumns, domain.ColZipCode),
		Rows:    rows,
	}
}

// ReadCombined loads the Combined_Data sheet written by stage 3
func ReadCombined(path string) ([]domain.CombinedRecord, error) {
	table, err := workbook.ReadTable(path, config.SheetACSCombined)
	if err != nil {
		return nil, err
	}
	if missing := table.Missing(CombinedColumns...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(path, missing)
	}

	cols := make(map[string]int, len(CombinedColumns))
	for _, c := range CombinedColumns {
		cols[c] = table.Col(c)
	}

	out := make([]domain.CombinedRecord, 0, table.Len())
	for _, row := range table.Rows {
		zip, ok := dataprocessing.NormalizeZipKey(table.Get(row, cols[domain.ColZipCode]))
		year, yok := workbook.ParseInt(table.Get(row, cols[domain.ColYear]))
		if !ok || !yok {
			continue
		}
		count, _ := workbook.ParseInt(table.Get(row, cols[domain.ColRecordCount]))
		rec := domain.CombinedRecord{
			ZipYearAggregate: domain.ZipYearAggregate{
				ZipCode:     zip,
				Year:        year,
				TotalPledge: workbook.ParseDecimal(table.Get(row, cols[domain.ColTotalPledge])).Decimal,
				RecordCount: count,
			},
			MedianIncome: workbook.ParseDecimal(table.Get(row, cols[domain.ColMedianIncome])),
		}
		if pop, ok := workbook.ParseInt(table.Get(row, cols[domain.ColPopulation])); ok {
			rec.Population = sql.NullInt64{Int64: int64(pop), Valid: true}
		}
		out = append(out, rec)
	}
	return out, nil
}

func firstByZip(rows []domain.GeoIndicator) map[string]domain.GeoIndicator {
	m := make(map[string]domain.GeoIndicator, len(rows))
	for _, r := range rows {
		if _, seen := m[r.ZipCode]; !seen {
			m[r.ZipCode] = r
		}
	}
	return m
}

func findPrefix(headers []string, prefix string) int {
	for i, h := range headers {
		if strings.HasPrefix(h, prefix) {
			return i
		}
	}
	return -1
}
