package dataprocessing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liheapcli/internal/exporter"
	"liheapcli/pkg/contracts/domain"
)

func TestAggregator_Aggregate(t *testing.T) {
	records := []domain.PledgeRecord{
		pledge("92101", "2024-01", "100", ""),
		pledge("92101", "2024-11", "50.25", ""),
		pledge("92101", "2025-02", "10", ""),
		pledge("92101", "2024-05", "", ""),
		pledge("2108.0", "2023-07", "5", ""),
		pledge("91910", "2022-12", "99", ""),
		pledge("91910", "", "1", ""),
		pledge("bad", "2024-01", "1", ""),
	}

	got, stats := NewAggregator(2023, 2025, nil).Aggregate(context.Background(), records)

	want := []domain.ZipYearAggregate{
		{ZipCode: "02108", Year: 2023, TotalPledge: decimal.NewFromInt(5), RecordCount: 1},
		{ZipCode: "92101", Year: 2024, TotalPledge: decimal.RequireFromString("150.25"), RecordCount: 2},
		{ZipCode: "92101", Year: 2025, TotalPledge: decimal.NewFromInt(10), RecordCount: 1},
	}
	if diff := cmp.Diff(want, got, decimalComparer); diff != "" {
		t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 8, stats.InputRows)
	assert.Equal(t, 2, stats.InvalidRows)
	assert.Equal(t, 1, stats.OutsideYears)
	assert.Equal(t, 3, stats.Groups)
	assert.Equal(t, 2, stats.UniqueZips)
	assert.Equal(t, 2023, stats.MinYear)
	assert.Equal(t, 2025, stats.MaxYear)
	assert.Equal(t, "165.25", stats.TotalPledge.String())
	assert.InDelta(t, 4.0/3.0, stats.MeanRecords, 1e-9)
}

func TestAggregator_Empty(t *testing.T) {
	got, stats := NewAggregator(2023, 2025, nil).Aggregate(context.Background(), nil)
	assert.Empty(t, got)
	assert.Equal(t, 0, stats.Groups)
}

func TestYearOf(t *testing.T) {
	y, ok := yearOf("2024-03")
	assert.True(t, ok)
	assert.Equal(t, 2024, y)

	for _, bad := range []string{"", "2024", "2024-13", "20240301", "abcd-01"} {
		_, ok := yearOf(bad)
		assert.False(t, ok, bad)
	}
}

func TestZipYearTable_RoundTrip(t *testing.T) {
	aggs := []domain.ZipYearAggregate{
		{ZipCode: "02108", Year: 2023, TotalPledge: decimal.RequireFromString("1234.56"), RecordCount: 3},
		{ZipCode: "92101", Year: 2024, TotalPledge: decimal.NewFromInt(40), RecordCount: 1},
	}
	path := filepath.Join(t.TempDir(), "zip_year.xlsx")
	require.NoError(t, exporter.NewXLSXWriter(nil).Write(path, ZipYearTable(aggs)))

	back, err := ReadZipYear(path)
	require.NoError(t, err)
	if diff := cmp.Diff(aggs, back, decimalComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
