package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PledgeRecord is one normalized energy-assistance pledge.
// Empty City, zero CreatedOn, empty YearMonth and an invalid PledgeAmount mean missing.
type PledgeRecord struct {
	City         string              `json:"city" db:"city"`
	ZipCode      string              `json:"zip_code" db:"zip_code" validate:"required,len=5,numeric"`
	CreatedOn    time.Time           `json:"created_on" db:"created_on"`
	YearMonth    string              `json:"year_month" db:"year_month"`
	PledgeAmount decimal.NullDecimal `json:"pledge_amount" db:"pledge_amount"`
	SourceFile   string              `json:"source_file" db:"source_file"`
}

// HasCity reports whether the record carries a usable city
func (p PledgeRecord) HasCity() bool {
	return !IsMissingCity(p.City)
}

// ZipYearAggregate is the pledge total for one ZIP code and calendar year
type ZipYearAggregate struct {
	ZipCode     string          `json:"zip_code" db:"zip_code" validate:"required,len=5,numeric"`
	Year        int             `json:"year" db:"year"`
	TotalPledge decimal.Decimal `json:"total_pledge" db:"total_pledge"`
	RecordCount int             `json:"record_count" db:"record_count"`
}

// Key returns the (ZIP, year) join key
func (a ZipYearAggregate) Key() ZipYearKey {
	return ZipYearKey{ZipCode: a.ZipCode, Year: a.Year}
}

// ZipYearKey identifies one ZIP code's records within one calendar year
type ZipYearKey struct {
	ZipCode string
	Year    int
}
