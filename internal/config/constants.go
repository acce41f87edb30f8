package config

import "time"

// Application constants
const (
	AppName    = "LIHEAP ETL"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable (LIHEAP_PLEDGES_INPUT_DIR, ...)
	EnvPrefix = "LIHEAP"
)

// Default pipeline window
const (
	DefaultStartYearMonth = "2023-01"
	DefaultEndYearMonth   = "2025-06"
	DefaultMinYear        = 2023
	DefaultMaxYear        = 2025
	DefaultState          = "CA"
)

// Default file locations, relative to Paths.BaseDir
const (
	DefaultLogFile = "logs/liheap.log"

	DefaultPledgeInputDir  = "data/raw/pledges"
	DefaultCombinedRawFile = "data/interim/liheap_combined_raw.xlsx"
	DefaultCleanPledgeFile = "data/clean/liheap_clean.xlsx"
	DefaultZipYearFile     = "data/clean/liheap_zip_year.xlsx"

	DefaultIncomeFile      = "data/reference/acs_median_income.xlsx"
	DefaultPopulationFile  = "data/reference/acs_population.xlsx"
	DefaultACSCombinedFile = "data/clean/liheap_acs_combined.xlsx"

	DefaultBLSWorkbook            = "data/reference/bls_laus_county_profiles.xlsx"
	DefaultCountyUnemploymentFile = "data/clean/bls_county_unemployment.xlsx"

	DefaultCrosswalkFile       = "data/reference/hud_zip_county.xlsx"
	DefaultZipUnemploymentFile = "data/clean/zip_unemployment.xlsx"
	DefaultZipUnemploymentCSV  = "data/clean/zip_unemployment.csv"

	DefaultFinalFile    = "data/final/liheap_full_combined.xlsx"
	DefaultManifestFile = "data/final/run_manifest.json"
	DefaultMetricsFile  = "data/final/metrics.prom"

	DefaultGeoNamesLocalFile = "data_geonames/US.txt"
)

// GeoNames reference source
const (
	DefaultGeoNamesURL     = "https://download.geonames.org/export/zip/US.zip"
	DefaultGeoNamesTimeout = 10 * time.Second
	GeoNamesArchiveMember  = "US.txt"
)

// Operation timeouts
const (
	DefaultStageTimeout = 30 * time.Minute
)

// Sheet names read or written by the stages
const (
	SheetIncome          = "Data Clean"
	SheetPopulation      = "Clean data"
	SheetCombinedRaw     = "Combined_Raw"
	SheetPledges         = "LIHEAP_Data"
	SheetZipYear         = "ZipYear"
	SheetACSCombined     = "Combined_Data"
	SheetFullYears       = "Full_Years"
	SheetPartialYears    = "YTD"
	SheetZipUnemployment = "zip_unemployment"
	SheetFinal           = "LIHEAP_Full_Combined"
	SheetSummary         = "Summary"
)
