package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"liheapcli/pkg/contracts/domain"
)

func TestDetectHeaderRow(t *testing.T) {
	tests := []struct {
		name string
		grid [][]string
		want int
	}{
		{
			name: "title and blank rows above header",
			grid: [][]string{
				{"SDG&E LIHEAP pledges"},
				{},
				{"City", "Zip Code", "Created On", "Pledge Amount"},
				{"San Diego", "92101", "01/31/2024", "$100.00"},
			},
			want: 2,
		},
		{
			name: "header on first row",
			grid: [][]string{
				{"City", "ZIP", "Created_On", "Pledge_Amount"},
				{"Chula Vista", "91910", "20240105", "50"},
			},
			want: 0,
		},
		{
			name: "numeric rows do not qualify",
			grid: [][]string{
				{"1", "2", "3"},
				{"note", "", ""},
				{"Zip", "Date", "Amount"},
			},
			want: 2,
		},
		{
			name: "only one alphabetic cell",
			grid: [][]string{
				{"Total", "100", "200"},
			},
			want: 0,
		},
		{
			name: "empty grid",
			grid: nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectHeaderRow(tt.grid))
		})
	}
}

func TestDetectHeaderRow_Lookahead(t *testing.T) {
	grid := make([][]string, HeaderLookahead)
	for i := range grid {
		grid[i] = []string{"x"}
	}
	grid = append(grid, []string{"City", "Zip", "Amount"})
	assert.Equal(t, 0, DetectHeaderRow(grid))
}

func TestMapHeaders(t *testing.T) {
	headers := []string{
		"  CV_EnergyAssistance[City(Service Address)] ",
		"Zip   Code",
		"CV_EnergyAssistance[Created on (MM/DD/YYYY)]",
		"[Pledge_Amount]",
		"Agency",
	}

	got := MapHeaders(headers)

	assert.Equal(t, []string{
		domain.ColCity,
		domain.ColZipCode,
		domain.ColCreatedOn,
		domain.ColPledgeAmount,
		"Agency",
	}, got)
	assert.Empty(t, MissingRequired(got))
}

func TestMissingRequired(t *testing.T) {
	got := MissingRequired(MapHeaders([]string{"City", "ZIP", "Created On"}))
	assert.Equal(t, []string{domain.ColPledgeAmount}, got)

	assert.Equal(t, RequiredColumns, MissingRequired(nil))
}

func TestColumnMapping_Canonical(t *testing.T) {
	canonical := map[string]bool{}
	for _, c := range PledgeColumns {
		canonical[c] = true
	}
	for _, alias := range ColumnMapping {
		assert.True(t, canonical[alias.Canonical], alias.Spelling)
		assert.Equal(t, NormalizeHeader(alias.Spelling), alias.Spelling, "spellings are stored normalized")
	}
}
