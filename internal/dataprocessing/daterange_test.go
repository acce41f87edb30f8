package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"liheapcli/pkg/contracts/domain"
)

func TestYearMonthRange_Contains(t *testing.T) {
	window := YearMonthRange{Start: "2023-01", End: "2025-06"}

	tests := []struct {
		ym   string
		want bool
	}{
		{"2025-07", false},
		{"2025-06", true},
		{"2023-01", true},
		{"2022-12", false},
		{"2024-03", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ym, func(t *testing.T) {
			assert.Equal(t, tt.want, window.Contains(tt.ym))
		})
	}
}

func TestYearMonthRange_OpenBounds(t *testing.T) {
	tests := []struct {
		name   string
		window YearMonthRange
		ym     string
		want   bool
	}{
		{"start only, later month", YearMonthRange{Start: "2024-01"}, "2030-12", true},
		{"start only, earlier month", YearMonthRange{Start: "2024-01"}, "2023-12", false},
		{"start only, missing month", YearMonthRange{Start: "2024-01"}, "", false},
		{"end only, earlier month", YearMonthRange{End: "2024-01"}, "1999-01", true},
		{"end only, later month", YearMonthRange{End: "2024-01"}, "2024-02", false},
		{"end only, missing month", YearMonthRange{End: "2024-01"}, "", false},
		{"open, missing month", YearMonthRange{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.window.Contains(tt.ym))
		})
	}

	startOnly := YearMonthRange{Start: "2024-01"}
	filtered := startOnly.Filter([]domain.PledgeRecord{
		{ZipCode: "92101", YearMonth: ""},
		{ZipCode: "92101", YearMonth: "2024-05"},
	})
	assert.Equal(t, []domain.PledgeRecord{{ZipCode: "92101", YearMonth: "2024-05"}}, filtered)

	open := YearMonthRange{}
	assert.True(t, open.IsOpen())
	assert.True(t, open.Contains(""))
	assert.Equal(t, "... to ...", open.String())
}

func TestYearMonthRange_Filter(t *testing.T) {
	records := []domain.PledgeRecord{
		{ZipCode: "92101", YearMonth: "2022-12"},
		{ZipCode: "92101", YearMonth: "2023-01"},
		{ZipCode: "92101", YearMonth: ""},
	}

	open := YearMonthRange{}.Filter(records)
	assert.Len(t, open, 3, "no bounds means no filtering")

	bounded := YearMonthRange{Start: "2023-01", End: "2025-06"}.Filter(records)
	assert.Equal(t, []domain.PledgeRecord{records[1]}, bounded)
}
