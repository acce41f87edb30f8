package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMissingCity(t *testing.T) {
	tests := []struct {
		city string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"NAN", true},
		{"nan", true},
		{" San Diego ", false},
		{"NANTUCKET", false},
	}

	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMissingCity(tt.city))
			assert.Equal(t, !tt.want, PledgeRecord{City: tt.city}.HasCity())
		})
	}
}

func TestCountyAnnualUnemployment_IsPartialYear(t *testing.T) {
	assert.False(t, CountyAnnualUnemployment{MonthCount: 12}.IsPartialYear())
	assert.True(t, CountyAnnualUnemployment{MonthCount: 6}.IsPartialYear())
}

func TestFinalColumnsOrder(t *testing.T) {
	assert.Equal(t, []string{
		"Zip_Code", "Year", "total_pledge", "record_count", "Median_Income",
		"Population", "unemployment_rate", "County", "County_FIPS",
	}, FinalColumns)
}
