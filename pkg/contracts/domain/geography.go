package domain

import (
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"
)

// GeoIndicator is a cross-sectional census indicator for one ZIP code.
// The same snapshot applies to every year of that ZIP.
type GeoIndicator struct {
	ZipCode      string              `json:"zip_code" db:"zip_code"`
	MedianIncome decimal.NullDecimal `json:"median_income" db:"median_income"`
	Population   sql.NullInt64       `json:"population" db:"population"`
}

// ZipCountyAssignment maps a ZIP code to its dominant county
type ZipCountyAssignment struct {
	ZipCode    string  `json:"zip_code" db:"zip_code"`
	CountyFIPS string  `json:"county_fips" db:"county_fips"`
	Weight     float64 `json:"weight" db:"weight"`
}

// IsMissingCity reports whether a city value is blank or the "NAN" placeholder
func IsMissingCity(city string) bool {
	c := strings.TrimSpace(city)
	return c == "" || strings.EqualFold(c, "NAN")
}
