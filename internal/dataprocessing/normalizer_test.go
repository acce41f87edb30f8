package dataprocessing

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/exporter"
	"liheapcli/internal/geonames"
	"liheapcli/internal/shared/testutil"
	"liheapcli/pkg/contracts/domain"
)

func writePledgeFixtures(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()

	valid := testutil.WriteWorkbook(t, filepath.Join(dir, "a_valid.xlsx"),
		testutil.SheetFixture{Name: "Export", Rows: [][]any{
			{"SDG&E LIHEAP export"},
			{nil},
			{"City", "Zip Code", "Created On", "Pledge Amount"},
			{"San Diego", 92101, "01/15/2024", "$100.00"},
			{"San Diego", "92101.0", "01/15/2024", "100"},
			{nil, 92101, 20240220, 50},
			{"Chula Vista", "CA 919", "2024-03-01", 10},
			{"Chula Vista", 91910, "2022-12-01", 10},
		}})
	missing := testutil.WriteWorkbook(t, filepath.Join(dir, "b_missing.xlsx"),
		testutil.SheetFixture{Name: "Sheet1", Rows: [][]any{
			{"City", "ZIP", "Created On"},
			{"San Diego", 92101, "01/15/2024"},
		}})
	noCity := testutil.WriteWorkbook(t, filepath.Join(dir, "c_nocity.xlsx"),
		testutil.SheetFixture{Name: "Sheet1", Rows: [][]any{
			{"ZIP", "Created_On", "Pledge_Amount"},
			{90001, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), 25.5},
		}})

	return []string{valid, missing, noCity}
}

func newTestNormalizer(t *testing.T) (*Normalizer, *testutil.BufferedSlogHandler) {
	logger, handler := testutil.NewTestLogger(t)
	lookup := &stubLookup{places: geonames.Places{
		Source: geonames.SourceLocal,
		Names:  map[string]string{"90001": "LOS ANGELES"},
	}}
	window := YearMonthRange{Start: "2023-01", End: "2025-06"}
	return NewNormalizer(window, NewCityBackfiller(lookup, logger), logger), handler
}

func TestReadPledgeFile(t *testing.T) {
	paths := writePledgeFixtures(t)

	rows, missing, err := ReadPledgeFile(paths[0])
	require.NoError(t, err)
	assert.Empty(t, missing)
	require.Len(t, rows, 5)
	assert.Equal(t, RawPledge{
		City:         "San Diego",
		ZipCode:      "92101",
		CreatedOn:    "01/15/2024",
		PledgeAmount: "$100.00",
		SourceFile:   "a_valid.xlsx",
	}, rows[0])
	assert.Equal(t, "20240220", rows[2].CreatedOn)

	_, missing, err = ReadPledgeFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, []string{domain.ColPledgeAmount}, missing)

	rows, missing, err = ReadPledgeFile(paths[2])
	require.NoError(t, err)
	assert.Empty(t, missing)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].City)
	assert.Equal(t, "25.5", rows[0].PledgeAmount)
}

func TestReadPledgeFile_DateCells(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		numFmt    string
		createdOn string
		yearMonth string
	}{
		{"slashed date and time", time.Date(2024, 1, 31, 14, 30, 0, 0, time.UTC), "yyyy/mm/dd hh:mm", "2024-01-31 14:30:00", "2024-01"},
		{"day first with dots", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), "dd.mm.yyyy", "2024-02-05 00:00:00", "2024-02"},
		{"abbreviated month", time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), "mmm-yy", "2023-11-01 00:00:00", "2023-11"},
		{"long month", time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), "mmmm d, yyyy", "2025-06-30 00:00:00", "2025-06"},
		{"quoted literal", time.Date(2024, 4, 9, 0, 0, 0, 0, time.UTC), `"on "yyyy-mm-dd`, "2024-04-09 00:00:00", "2024-04"},
		{"default time style", time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), "", "2024-03-15 09:00:00", "2024-03"},
		{"text date", "01/15/2024", "", "01/15/2024", "2024-01"},
		{"yyyymmdd number", 20240220, "", "20240220", "2024-02"},
		{"serial without a date format", 45322, "#,##0", "45322", ""},
	}

	path := filepath.Join(t.TempDir(), "styled.xlsx")
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"City", "Zip Code", "Created On", "Pledge Amount"}))
	for i, tt := range tests {
		row := i + 2
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]any{"San Diego", 92101, tt.value, 10}))
		if tt.numFmt == "" {
			continue
		}
		code := tt.numFmt
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
		require.NoError(t, err)
		cell := fmt.Sprintf("C%d", row)
		require.NoError(t, f.SetCellStyle(sheet, cell, cell, style))
	}
	require.NoError(t, f.SaveAs(path))

	rows, missing, err := ReadPledgeFile(path)
	require.NoError(t, err)
	assert.Empty(t, missing)
	require.Len(t, rows, len(tests))

	records, dropped := Clean(rows)
	assert.Zero(t, dropped)
	require.Len(t, records, len(tests))

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.createdOn, rows[i].CreatedOn)
			assert.Equal(t, tt.yearMonth, records[i].YearMonth)
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	n, handler := newTestNormalizer(t)

	result, err := n.Normalize(context.Background(), writePledgeFixtures(t))
	require.NoError(t, err)

	assert.Equal(t, NormalizeStats{
		FilesFound:    3,
		FilesAccepted: 2,
		RawRows:       6,
		DroppedZip:    1,
		Duplicates:    1,
		OutsideWindow: 1,
		OutputRows:    3,
		Fill: FillReport{
			MissingBefore:  2,
			FilledInternal: 1,
			FilledExternal: 1,
			MissingAfter:   0,
			InternalZips:   2,
			ExternalSource: geonames.SourceLocal,
		},
	}, result.Stats)

	require.Len(t, result.Records, 3)
	type row struct{ City, Zip, YM, Amount string }
	var got []row
	for _, r := range result.Records {
		got = append(got, row{r.City, r.ZipCode, r.YearMonth, r.PledgeAmount.Decimal.String()})
	}
	assert.Equal(t, []row{
		{"LOS ANGELES", "90001", "2025-06", "25.5"},
		{"SAN DIEGO", "92101", "2024-01", "100"},
		{"SAN DIEGO", "92101", "2024-02", "50"},
	}, got)

	require.Equal(t, 1, result.Skipped.Len())
	skip := result.Skipped.Skipped()[0]
	assert.Equal(t, "b_missing.xlsx", skip.Source)
	assert.Equal(t, []string{domain.ColPledgeAmount}, skip.Missing)
	assert.Equal(t, 1, handler.CountMessage("file_skipped"))

	for _, r := range result.Records {
		assert.Regexp(t, `^\d{5}$`, r.ZipCode)
	}
}

func TestNormalizer_Preconditions(t *testing.T) {
	n, _ := newTestNormalizer(t)

	_, err := n.Normalize(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypePrecondition))

	paths := writePledgeFixtures(t)
	_, err = n.Normalize(context.Background(), paths[1:2])
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypePrecondition))
}

func TestNormalizer_UnreadableFileSkipped(t *testing.T) {
	n, _ := newTestNormalizer(t)
	paths := writePledgeFixtures(t)
	bogus := filepath.Join(t.TempDir(), "legacy.xls")
	testutil.WriteFile(t, bogus, "not a workbook")

	result, err := n.Normalize(context.Background(), []string{bogus, paths[0]})
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy.xls"}, result.Skipped.Sources())
}

func TestNormalizer_Deterministic(t *testing.T) {
	paths := writePledgeFixtures(t)

	n1, _ := newTestNormalizer(t)
	first, err := n1.Normalize(context.Background(), paths)
	require.NoError(t, err)

	n2, _ := newTestNormalizer(t)
	second, err := n2.Normalize(context.Background(), []string{paths[2], paths[1], paths[0]})
	require.NoError(t, err)

	assert.Equal(t, exporter.Checksum(PledgeTable(first.Records)), exporter.Checksum(PledgeTable(second.Records)))
}

func TestPledgeTables(t *testing.T) {
	n, _ := newTestNormalizer(t)
	result, err := n.Normalize(context.Background(), writePledgeFixtures(t))
	require.NoError(t, err)

	raw := CombinedRawTable(result.Raw)
	assert.Equal(t, []string{"City", "Zip_Code", "Created_On", "Pledge_Amount", "SourceFile"}, raw.Header())
	assert.Len(t, raw.Rows, 6)

	path := filepath.Join(t.TempDir(), "clean.xlsx")
	require.NoError(t, exporter.NewXLSXWriter(nil).Write(path, PledgeTable(result.Records)))

	back, err := ReadPledges(path)
	require.NoError(t, err)
	require.Len(t, back, 3)
	assert.Equal(t, "90001", back[0].ZipCode)
	assert.Equal(t, "2025-06", back[0].YearMonth)
	assert.True(t, back[0].PledgeAmount.Decimal.Equal(result.Records[0].PledgeAmount.Decimal))
}
