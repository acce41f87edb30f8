package domain

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// CombinedRecord is a ZIP-year aggregate with its census indicators attached
type CombinedRecord struct {
	ZipYearAggregate
	MedianIncome decimal.NullDecimal `json:"median_income" db:"median_income"`
	Population   sql.NullInt64       `json:"population" db:"population"`
}

// FinalRecord is one row of the final analysis table
type FinalRecord struct {
	CombinedRecord
	UnemploymentRate sql.NullFloat64 `json:"unemployment_rate" db:"unemployment_rate"`
	County           sql.NullString  `json:"county" db:"county"`
	CountyFIPS       sql.NullString  `json:"county_fips" db:"county_fips"`
}
