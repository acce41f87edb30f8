package exporter

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liheapcli/internal/shared/testutil"
)

func sampleTable() Table {
	return Table{
		Sheet:   "ZipYear",
		Columns: TextColumns([]string{"Zip_Code", "Year", "total_pledge", "Median_Income", "County"}, "Zip_Code"),
		Rows: [][]any{
			{"02108", 2024, decimal.RequireFromString("1234.56"), decimal.NullDecimal{}, sql.NullString{String: "Suffolk", Valid: true}},
			{"92101", 2023, decimal.NewFromInt(40), decimal.NewNullDecimal(decimal.NewFromInt(78250)), sql.NullString{}},
		},
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"int", 42, "42"},
		{"float", 5.25, "5.25"},
		{"bool", true, "true"},
		{"date", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), "2024-01-31"},
		{"zero date", time.Time{}, ""},
		{"decimal", decimal.RequireFromString("10.50"), "10.5"},
		{"null decimal", decimal.NullDecimal{}, ""},
		{"null float", sql.NullFloat64{Float64: 4.1, Valid: true}, "4.1"},
		{"null int missing", sql.NullInt64{}, ""},
		{"null int", sql.NullInt64{Int64: 1200, Valid: true}, "1200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}

func TestTableRecords(t *testing.T) {
	table := sampleTable()
	assert.Equal(t, []string{"Zip_Code", "Year", "total_pledge", "Median_Income", "County"}, table.Header())
	assert.Equal(t, [][]string{
		{"02108", "2024", "1234.56", "", "Suffolk"},
		{"92101", "2023", "40", "78250", ""},
	}, table.Records())
}

func TestXLSXWriter_KeepsTextZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.xlsx")
	second := Table{Sheet: "YTD", Columns: TextColumns([]string{"County"}), Rows: [][]any{{"Alameda County"}}}

	require.NoError(t, NewXLSXWriter(nil).Write(path, sampleTable(), second))

	rows := testutil.ReadSheet(t, path, "ZipYear")
	require.Len(t, rows, 3)
	assert.Equal(t, "Zip_Code", rows[0][0])
	assert.Equal(t, "02108", rows[1][0])
	assert.Equal(t, "1234.56", rows[1][2])
	assert.Equal(t, "Suffolk", rows[1][4])
	assert.Equal(t, "78250", rows[2][3])

	ytd := testutil.ReadSheet(t, path, "YTD")
	assert.Equal(t, [][]string{{"County"}, {"Alameda County"}}, ytd)
}

func TestXLSXWriter_NoTables(t *testing.T) {
	err := NewXLSXWriter(nil).Write(filepath.Join(t.TempDir(), "empty.xlsx"))
	assert.Error(t, err)
}

func TestCSVWriter_WriteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "zip.csv")
	require.NoError(t, NewCSVWriter(nil).WriteTable(path, sampleTable()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t,
		"Zip_Code,Year,total_pledge,Median_Income,County\n02108,2024,1234.56,,Suffolk\n92101,2023,40,78250,\n",
		string(data[3:]))
}

func TestChecksum(t *testing.T) {
	a := Checksum(sampleTable())
	assert.Len(t, a, 64)
	assert.Equal(t, a, Checksum(sampleTable()))

	changed := sampleTable()
	changed.Rows[0][1] = 2025
	assert.NotEqual(t, a, Checksum(changed))
}
