package join

import (
	"database/sql"
	"sort"

	"liheapcli/internal/config"
	"liheapcli/internal/exporter"
	"liheapcli/pkg/contracts/domain"
)

// AttachUnemployment left-joins ZIP unemployment onto every combined record
// by (ZIP, year). Repeated right-hand keys keep their first row. The result
// is sorted by ZIP and year and has exactly one row per combined record.
func AttachUnemployment(combined []domain.CombinedRecord, zipUnemployment []domain.ZipUnemployment) []domain.FinalRecord {
	byKey := make(map[domain.ZipYearKey]domain.ZipUnemployment, len(zipUnemployment))
	for _, z := range zipUnemployment {
		if _, seen := byKey[z.Key()]; !seen {
			byKey[z.Key()] = z
		}
	}

	out := make([]domain.FinalRecord, len(combined))
	for i, c := range combined {
		rec := domain.FinalRecord{CombinedRecord: c}
		if z, ok := byKey[c.Key()]; ok {
			rec.UnemploymentRate = z.UnemploymentRate
			rec.County = z.County
			if z.CountyFIPS != "" {
				rec.CountyFIPS = sql.NullString{String: z.CountyFIPS, Valid: true}
			}
		}
		out[i] = rec
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ZipCode != out[j].ZipCode {
			return out[i].ZipCode < out[j].ZipCode
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// ZipOverlap counts the ZIP codes of combined that have at least one
// unemployment row with a rate.
func ZipOverlap(combined []domain.CombinedRecord, zipUnemployment []domain.ZipUnemployment) int {
	withRate := make(map[string]bool)
	for _, z := range zipUnemployment {
		if z.UnemploymentRate.Valid {
			withRate[z.ZipCode] = true
		}
	}
	seen := make(map[string]bool)
	overlap := 0
	for _, c := range combined {
		if seen[c.ZipCode] {
			continue
		}
		seen[c.ZipCode] = true
		if withRate[c.ZipCode] {
			overlap++
		}
	}
	return overlap
}

// FinalTable renders the final analysis table
func FinalTable(records []domain.FinalRecord) exporter.Table {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{
			r.ZipCode, r.Year, r.TotalPledge, r.RecordCount,
			r.MedianIncome, r.Population,
			r.UnemploymentRate, r.County, r.CountyFIPS,
		}
	}
	return exporter.Table{
		Sheet:   config.SheetFinal,
		Columns: exporter.TextColumns(domain.FinalColumns, domain.ColZipCode, domain.ColCountyFIPS),
		Rows:    rows,
	}
}
