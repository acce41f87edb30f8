package domain

// Canonical column names shared by every stage table
const (
	ColCity         = "City"
	ColZipCode      = "Zip_Code"
	ColCreatedOn    = "Created_On"
	ColPledgeAmount = "Pledge_Amount"
	ColYearMonth    = "YearMo"
	ColSourceFile   = "SourceFile"

	ColYear        = "Year"
	ColTotalPledge = "total_pledge"
	ColRecordCount = "record_count"

	ColMedianIncome = "Median_Income"
	ColPopulation   = "Population"

	ColCounty           = "County"
	ColCountyFIPS       = "County_FIPS"
	ColSeriesID         = "Series_ID"
	ColSeriesTitle      = "Series_Title"
	ColUnemploymentRate = "unemployment_rate"
	ColMonthCount       = "month_count"
	ColIsPartialYear    = "is_partial_year"
	ColZipCountyWeight  = "zip_to_county_weight"
)

// FinalColumns is the column order of the final analysis table
var FinalColumns = []string{
	ColZipCode,
	ColYear,
	ColTotalPledge,
	ColRecordCount,
	ColMedianIncome,
	ColPopulation,
	ColUnemploymentRate,
	ColCounty,
	ColCountyFIPS,
}
