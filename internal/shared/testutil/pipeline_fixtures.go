package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
)

// PipelineInputs are the input locations of a generated pipeline fixture
type PipelineInputs struct {
	PledgeDir      string
	IncomeFile     string
	PopulationFile string
	BLSWorkbook    string
	CrosswalkFile  string
	GeoNamesFile   string
}

// DefaultPipelineInputs places every input under dir using the default
// relative layout
func DefaultPipelineInputs(dir string) PipelineInputs {
	return PipelineInputs{
		PledgeDir:      filepath.Join(dir, "data/raw/pledges"),
		IncomeFile:     filepath.Join(dir, "data/reference/acs_median_income.xlsx"),
		PopulationFile: filepath.Join(dir, "data/reference/acs_population.xlsx"),
		BLSWorkbook:    filepath.Join(dir, "data/reference/bls_laus_county_profiles.xlsx"),
		CrosswalkFile:  filepath.Join(dir, "data/reference/hud_zip_county.xlsx"),
		GeoNamesFile:   filepath.Join(dir, "data_geonames/US.txt"),
	}
}

// WritePipelineFixtures writes a small but complete set of pipeline inputs.
//
// Pledges: one valid export with a banner above its header and one export
// missing Pledge Amount, which is rejected. After cleaning there are three
// ZIP-years: 92101/2024 (150.00 over 2 pledges), 96161/2024 (75.00) and
// 90001/2025 (25.50, city filled from GeoNames). The crosswalk assigns 96161
// to Nevada County (06057) over Placer, and the BLS workbook has full years
// 2023 and 2024 plus a 2025 partial year for Los Angeles, so 90001/2025 finds
// no full-year rate.
func WritePipelineFixtures(t *testing.T, in PipelineInputs) {
	t.Helper()

	WriteWorkbook(t, filepath.Join(in.PledgeDir, "2024_pledges.xlsx"),
		SheetFixture{Name: "Export", Rows: [][]any{
			{"SDG&E LIHEAP pledge export"},
			{nil},
			{"City", "Zip Code", "Created On", "Pledge Amount"},
			{"San Diego", 92101, "01/15/2024", "$100.00"},
			{"San Diego", "92101.0", "01/15/2024", "100"},
			{nil, 92101, 20240220, 50},
			{"Truckee", 96161, "2024-03-01", 75},
			{nil, 90001, "2025-02-01", 25.5},
			{"Chula Vista", 91910, "2022-12-01", 10},
			{"Nowhere", "CA 9", "2024-04-01", 5},
		}})
	WriteWorkbook(t, filepath.Join(in.PledgeDir, "notes.xlsx"),
		SheetFixture{Name: "Sheet1", Rows: [][]any{
			{"City", "ZIP", "Created On"},
			{"San Diego", 92101, "01/15/2024"},
		}})

	WriteWorkbook(t, in.IncomeFile, SheetFixture{Name: "Data Clean", Rows: [][]any{
		{"ZIPCODE", "Median household income in the past 12 months (in 2022 inflation-adjusted dollars)"},
		{92101, 78250},
		{96161, 90000},
	}})
	WriteWorkbook(t, in.PopulationFile, SheetFixture{Name: "Clean data", Rows: [][]any{
		{"ZIPCODE", "Population"},
		{92101, 38000},
		{90001, 57000.4},
	}})

	WriteWorkbook(t, in.BLSWorkbook,
		BLSProfileSheet("San Diego", "Unemployment Rate: San Diego County, CA (U)", "LAUCN060730000000003", map[int]int{2023: 12, 2024: 12}, 3),
		BLSProfileSheet("Nevada", "Unemployment Rate: Nevada County, CA (U)", "LAUCN060570000000003", map[int]int{2024: 12}, 2),
		BLSProfileSheet("Los Angeles", "Unemployment Rate: Los Angeles County, CA (U)", "LAUCN060370000000003", map[int]int{2024: 12, 2025: 3}, 4),
		SheetFixture{Name: "Notes", Rows: [][]any{{"Downloaded from bls.gov"}}},
	)

	WriteWorkbook(t, in.CrosswalkFile, SheetFixture{Name: "Export Worksheet", Rows: [][]any{
		{"ZIP", "COUNTY", "USPS_ZIP_PREF_CITY", "USPS_ZIP_PREF_STATE", "RES_RATIO", "TOT_RATIO"},
		{92101, 6073, "SAN DIEGO", "CA", 1, 1},
		{96161, 6061, "TRUCKEE", "CA", 0.4, 0.4},
		{96161, 6057, "TRUCKEE", "CA", 0.6, 0.6},
		{90001, 6037, "LOS ANGELES", "CA", 1, 1},
		{"02108", 25025, "BOSTON", "MA", 1, 1},
	}})

	WriteFile(t, in.GeoNamesFile, "US\t90001\tLos Angeles\tCalifornia\tCA\n"+
		"US\t92101\tSan Diego\tCalifornia\tCA\n")
}

// BLSProfileSheet renders one LAUS county profile sheet. Month m of each year
// has value base+m, so a full year averages base+6.5.
func BLSProfileSheet(name, title, seriesID string, months map[int]int, base float64) SheetFixture {
	rows := [][]any{
		{"Labor Force Statistics from the Current Population Survey"},
		{"Series ID:", seriesID},
		{"Series Title:", title},
		{nil},
		{"Year", "Period", "Label", "Observation Value"},
	}
	for _, year := range []int{2023, 2024, 2025} {
		for m := 1; m <= months[year]; m++ {
			rows = append(rows, []any{year, fmt.Sprintf("M%02d", m), fmt.Sprintf("%d %02d", year, m), base + float64(m)})
		}
	}
	return SheetFixture{Name: name, Rows: rows}
}
