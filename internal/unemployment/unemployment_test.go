package unemployment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liheapcli/internal/config"
	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/exporter"
	"liheapcli/internal/shared/testutil"
	"liheapcli/pkg/contracts/domain"
)

func profileGrid(title, seriesID string, months map[int]int, value float64) [][]string {
	grid := [][]string{
		{"Labor Force Statistics from the Current Population Survey"},
		{"Series ID:", seriesID},
		{"Series Title:", title},
		{"Area:", "Glenn County, CA"},
		{},
		{"Year", "Period", "Label", "Observation Value"},
	}
	for _, year := range []int{2023, 2024, 2025} {
		for m := 1; m <= months[year]; m++ {
			grid = append(grid, []string{fmt.Sprint(year), fmt.Sprintf("M%02d", m), "", fmt.Sprint(value + float64(m))})
		}
		if months[year] == 12 {
			grid = append(grid, []string{fmt.Sprint(year), "M13", "Annual", "99"})
		}
	}
	return grid
}

func TestExtractSheet(t *testing.T) {
	grid := profileGrid("Unemployment Rate: Glenn County, CA (U)", "LAUCN060210000000003",
		map[int]int{2023: 12, 2024: 12, 2025: 6}, 4)
	grid = append(grid,
		[]string{"2025", "M06", "", "10"},
		[]string{"2025", "M07", "", "(P)"},
		[]string{"n/a", "M01", "", "3"},
	)

	res, err := ExtractSheet("Glenn", grid)
	require.NoError(t, err)

	assert.Equal(t, "LAUCN060210000000003", res.Metadata[MetaSeriesID])
	assert.False(t, res.FIPSMissing)
	require.Len(t, res.Annual, 3)

	first := res.Annual[0]
	assert.Equal(t, "Glenn County", first.County)
	assert.Equal(t, "06021", first.CountyFIPS)
	assert.Equal(t, 2023, first.Year)
	assert.Equal(t, 12, first.MonthCount)
	assert.InDelta(t, 10.5, first.UnemploymentRate, 1e-9, "M13 must not enter the mean")

	partial := res.Annual[2]
	assert.Equal(t, 2025, partial.Year)
	assert.Equal(t, 6, partial.MonthCount, "duplicate periods count once")
	assert.InDelta(t, (5+6+7+8+9+10+10)/7.0, partial.UnemploymentRate, 1e-9)
}

func TestExtractSheet_Skips(t *testing.T) {
	tests := []struct {
		name   string
		grid   [][]string
		reason string
	}{
		{
			name:   "no table",
			grid:   [][]string{{"Series ID:", "LAUCN060010000000003"}, {"Notes"}},
			reason: ReasonNoTable,
		},
		{
			name:   "no value column",
			grid:   [][]string{{"Series ID:", "LAUCN060010000000003"}, {"Year", "Period", "Value"}, {"2024", "M01", "4"}},
			reason: ReasonNoValueColumn,
		},
		{
			name:   "empty sheet",
			grid:   nil,
			reason: ReasonNoTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractSheet("S", tt.grid)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSheetSkipped))

			var skip *SheetSkipError
			require.True(t, errors.As(err, &skip))
			assert.Equal(t, tt.reason, skip.Reason)
		})
	}
}

func TestExtractSheet_ShortSeriesID(t *testing.T) {
	res, err := ExtractSheet("S", profileGrid("Unemployment Rate: Kern County, CA (U)", "LAUCN06", map[int]int{2024: 12}, 1))
	require.NoError(t, err)
	assert.True(t, res.FIPSMissing)
	require.Len(t, res.Annual, 1)
	assert.Empty(t, res.Annual[0].CountyFIPS)
}

func TestCountyName(t *testing.T) {
	tests := []struct {
		title, area, want string
	}{
		{"Unemployment Rate: Glenn County, CA (U)", "", "Glenn County"},
		{"  Unemployment Rate: San Diego County, CA (U) ", "Ignored County", "San Diego County"},
		{"", "Kern County, CA", "Kern County"},
		{"", "California", ""},
		{"Unemployment Rate: , CA (U)", "Inyo County, CA", "Inyo County"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, CountyName(tt.title, tt.area))
		})
	}
}

func TestPartition(t *testing.T) {
	rows := []domain.CountyAnnualUnemployment{
		{County: "Kern County", Year: 2024, MonthCount: 12},
		{County: "Alameda County", Year: 2025, MonthCount: 6},
		{County: "Alameda County", Year: 2024, MonthCount: 12},
		{County: "Alameda County", Year: 2023, MonthCount: 12},
	}

	full, partial := Partition(rows)

	require.Len(t, full, 3)
	assert.Equal(t, []int{2023, 2024, 2024}, []int{full[0].Year, full[1].Year, full[2].Year})
	assert.Equal(t, "Kern County", full[2].County)
	require.Len(t, partial, 1)
	assert.Equal(t, 2025, partial[0].Year)
}

func gridFixture(name string, grid [][]string) testutil.SheetFixture {
	rows := make([][]any, len(grid))
	for i, row := range grid {
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		rows[i] = cells
	}
	return testutil.SheetFixture{Name: name, Rows: rows}
}

func TestETL_Run(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	path := testutil.WriteWorkbook(t, filepath.Join(t.TempDir(), "laus.xlsx"),
		gridFixture("Glenn", profileGrid("Unemployment Rate: Glenn County, CA (U)", "LAUCN060210000000003", map[int]int{2023: 12, 2025: 3}, 4)),
		gridFixture("Notes", [][]string{{"Downloaded 2026-01-01"}}),
		gridFixture("Alameda", profileGrid("Unemployment Rate: Alameda County, CA (U)", "LAUCN060010000000003", map[int]int{2023: 12}, 2)),
	)

	res, err := NewETL(logger).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Sheets)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, []string{"Notes"}, res.Skipped.Sources())
	require.Len(t, res.Full, 2)
	assert.Equal(t, "Alameda County", res.Full[0].County)
	require.Len(t, res.Partial, 1)
	assert.Equal(t, 3, res.Partial[0].MonthCount)
	testutil.AssertLogged(t, handler, slog.LevelWarn, "sheet_skipped")
	testutil.AssertLogged(t, handler, slog.LevelInfo, "unemployment_extracted")
}

func TestETL_Run_NoUsableSheets(t *testing.T) {
	path := testutil.WriteWorkbook(t, filepath.Join(t.TempDir(), "laus.xlsx"),
		gridFixture("Notes", [][]string{{"nothing here"}}))

	_, err := NewETL(nil).Run(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypePrecondition))
}

func TestTables_RoundTrip(t *testing.T) {
	full := []domain.CountyAnnualUnemployment{
		{County: "Alameda County", SeriesID: "LAUCN060010000000003", SeriesTitle: "t", CountyFIPS: "06001", Year: 2024, UnemploymentRate: 4.25, MonthCount: 12},
	}
	partial := []domain.CountyAnnualUnemployment{
		{County: "Alameda County", SeriesID: "LAUCN060010000000003", SeriesTitle: "t", CountyFIPS: "06001", Year: 2025, UnemploymentRate: 5, MonthCount: 6},
	}
	res := &Result{Full: full, Partial: partial}

	tables := res.Tables()
	require.Len(t, tables, 2)
	assert.NotContains(t, tables[0].Header(), domain.ColMonthCount)
	assert.Equal(t, config.SheetPartialYears, tables[1].Sheet)
	assert.Contains(t, tables[1].Header(), domain.ColIsPartialYear)

	path := filepath.Join(t.TempDir(), "county.xlsx")
	require.NoError(t, exporter.NewXLSXWriter(nil).Write(path, tables...))

	back, dropped, err := ReadCounties(path, false)
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, full, back)

	back, _, err = ReadCounties(path, true)
	require.NoError(t, err)
	assert.Equal(t, append(full, partial...), back)
}

func TestReadCounties_DerivesFIPS(t *testing.T) {
	path := testutil.WriteWorkbook(t, filepath.Join(t.TempDir(), "county.xlsx"),
		testutil.SheetFixture{Name: config.SheetFullYears, Rows: [][]any{
			{"Year", "unemployment_rate", "County", "Series_ID"},
			{2024, 4.5, "Alameda County", "LAUCN060010000000003"},
			{2024, 5.5, "Nowhere", "LAU"},
			{"x", 1, "Bad Year", "LAUCN060010000000003"},
		}})

	rows, dropped, err := ReadCounties(path, false)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, rows, 1)
	assert.Equal(t, "06001", rows[0].CountyFIPS)
	assert.Equal(t, domain.FullYearMonths, rows[0].MonthCount)
}
