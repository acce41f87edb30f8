package domain

import "database/sql"

// FullYearMonths is the number of monthly observations in a complete year
const FullYearMonths = 12

// CountyAnnualUnemployment is the mean monthly unemployment rate of one county and year
type CountyAnnualUnemployment struct {
	County           string  `json:"county" db:"county"`
	SeriesID         string  `json:"series_id" db:"series_id"`
	SeriesTitle      string  `json:"series_title" db:"series_title"`
	CountyFIPS       string  `json:"county_fips" db:"county_fips"`
	Year             int     `json:"year" db:"year"`
	UnemploymentRate float64 `json:"unemployment_rate" db:"unemployment_rate"`
	MonthCount       int     `json:"month_count" db:"month_count" validate:"min=1,max=12"`
}

// IsPartialYear reports whether fewer than twelve months were observed
func (c CountyAnnualUnemployment) IsPartialYear() bool {
	return c.MonthCount < FullYearMonths
}

// ZipUnemployment is a county unemployment rate attached to a ZIP code
type ZipUnemployment struct {
	ZipCode          string          `json:"zip_code" db:"zip_code"`
	Year             int             `json:"year" db:"year"`
	UnemploymentRate sql.NullFloat64 `json:"unemployment_rate" db:"unemployment_rate"`
	County           sql.NullString  `json:"county" db:"county"`
	CountyFIPS       string          `json:"county_fips" db:"county_fips"`
	Weight           float64         `json:"zip_to_county_weight" db:"zip_to_county_weight"`
}

// Key returns the (ZIP, year) join key
func (z ZipUnemployment) Key() ZipYearKey {
	return ZipYearKey{ZipCode: z.ZipCode, Year: z.Year}
}
