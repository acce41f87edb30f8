package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "liheapcli/internal/errors"
)

// Config represents the complete pipeline configuration
type Config struct {
	Logging      LoggingConfig      `yaml:"logging" envconfig:"LOGGING"`
	Paths        PathsConfig        `yaml:"paths" envconfig:"PATHS"`
	Pledges      PledgesConfig      `yaml:"pledges" envconfig:"PLEDGES"`
	Aggregate    AggregateConfig    `yaml:"aggregate" envconfig:"AGGREGATE"`
	ACS          ACSConfig          `yaml:"acs" envconfig:"ACS"`
	Unemployment UnemploymentConfig `yaml:"unemployment" envconfig:"UNEMPLOYMENT"`
	Crosswalk    CrosswalkConfig    `yaml:"crosswalk" envconfig:"CROSSWALK"`
	Final        FinalConfig        `yaml:"final" envconfig:"FINAL"`
	GeoNames     GeoNamesConfig     `yaml:"geonames" envconfig:"GEONAMES"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" envconfig:"TELEMETRY"`
	Operations   OperationsConfig   `yaml:"operations" envconfig:"OPERATIONS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains the base directory every relative path resolves against
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR" validate:"required"`
}

// PledgesConfig configures the normalizer stage
type PledgesConfig struct {
	InputDir       string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	CombinedOutput string `yaml:"combined_output" envconfig:"COMBINED_OUTPUT" validate:"required"`
	Output         string `yaml:"output" envconfig:"OUTPUT" validate:"required"`
	StartYearMonth string `yaml:"start_year_month" envconfig:"START_YEAR_MONTH" validate:"omitempty,datetime=2006-01"`
	EndYearMonth   string `yaml:"end_year_month" envconfig:"END_YEAR_MONTH" validate:"omitempty,datetime=2006-01"`
}

// AggregateConfig configures the ZIP-year aggregator stage
type AggregateConfig struct {
	Output  string `yaml:"output" envconfig:"OUTPUT" validate:"required"`
	MinYear int    `yaml:"min_year" envconfig:"MIN_YEAR" validate:"gte=1900,lte=2100,ltefield=MaxYear"`
	MaxYear int    `yaml:"max_year" envconfig:"MAX_YEAR" validate:"gte=1900,lte=2100"`
}

// ACSConfig configures the income and population join
type ACSConfig struct {
	IncomeFile      string `yaml:"income_file" envconfig:"INCOME_FILE" validate:"required"`
	IncomeSheet     string `yaml:"income_sheet" envconfig:"INCOME_SHEET"`
	PopulationFile  string `yaml:"population_file" envconfig:"POPULATION_FILE" validate:"required"`
	PopulationSheet string `yaml:"population_sheet" envconfig:"POPULATION_SHEET"`
	Output          string `yaml:"output" envconfig:"OUTPUT" validate:"required"`
}

// UnemploymentConfig configures the county unemployment ETL
type UnemploymentConfig struct {
	Workbook string `yaml:"workbook" envconfig:"WORKBOOK" validate:"required"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"required"`
}

// CrosswalkConfig configures the ZIP to county resolver
type CrosswalkConfig struct {
	File                string `yaml:"file" envconfig:"FILE" validate:"required"`
	State               string `yaml:"state" envconfig:"STATE" validate:"required,len=2"`
	IncludePartialYears bool   `yaml:"include_partial_years" envconfig:"INCLUDE_PARTIAL_YEARS"`
	Output              string `yaml:"output" envconfig:"OUTPUT" validate:"required"`
	CSVOutput           string `yaml:"csv_output" envconfig:"CSV_OUTPUT"`
}

// FinalConfig configures the final join
type FinalConfig struct {
	Output     string `yaml:"output" envconfig:"OUTPUT" validate:"required"`
	SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
}

// GeoNamesConfig configures the ZIP to place-name reference source
type GeoNamesConfig struct {
	URL       string        `yaml:"url" envconfig:"URL" validate:"omitempty,url"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	LocalFile string        `yaml:"local_file" envconfig:"LOCAL_FILE"`
	UseHTTP   bool          `yaml:"use_http" envconfig:"USE_HTTP"`
}

// TelemetryConfig configures metrics and tracing output
type TelemetryConfig struct {
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
}

// OperationsConfig configures stage orchestration
type OperationsConfig struct {
	StageTimeout time.Duration `yaml:"stage_timeout" envconfig:"STAGE_TIMEOUT" validate:"gt=0"`
	ManifestFile string        `yaml:"manifest_file" envconfig:"MANIFEST_FILE"`
}

// Load builds the configuration from defaults, an optional YAML file and
// LIHEAP_* environment variables, in increasing order of precedence.
// An empty configFile falls back to the well-known locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).WithContext("path", configFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	cfg.ResolvePaths()
	return cfg, nil
}

// loadFromFile overlays the keys present in a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct tags and the cross-field rules tags cannot express
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	start, end := c.Pledges.StartYearMonth, c.Pledges.EndYearMonth
	if start != "" && end != "" && start > end {
		return fmt.Errorf("start year-month %s is after end year-month %s", start, end)
	}
	if c.GeoNames.UseHTTP && c.GeoNames.URL == "" {
		return fmt.Errorf("geonames url is required when use_http is enabled")
	}
	return nil
}

// getConfigFilePath returns the first config file found in the common locations
func getConfigFilePath() string {
	locations := []string{
		"liheap.yaml",
		"configs/liheap.yaml",
		"../configs/liheap.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			BaseDir: ".",
		},
		Pledges: PledgesConfig{
			InputDir:       DefaultPledgeInputDir,
			CombinedOutput: DefaultCombinedRawFile,
			Output:         DefaultCleanPledgeFile,
			StartYearMonth: DefaultStartYearMonth,
			EndYearMonth:   DefaultEndYearMonth,
		},
		Aggregate: AggregateConfig{
			Output:  DefaultZipYearFile,
			MinYear: DefaultMinYear,
			MaxYear: DefaultMaxYear,
		},
		ACS: ACSConfig{
			IncomeFile:      DefaultIncomeFile,
			IncomeSheet:     SheetIncome,
			PopulationFile:  DefaultPopulationFile,
			PopulationSheet: SheetPopulation,
			Output:          DefaultACSCombinedFile,
		},
		Unemployment: UnemploymentConfig{
			Workbook: DefaultBLSWorkbook,
			Output:   DefaultCountyUnemploymentFile,
		},
		Crosswalk: CrosswalkConfig{
			File:      DefaultCrosswalkFile,
			State:     DefaultState,
			Output:    DefaultZipUnemploymentFile,
			CSVOutput: DefaultZipUnemploymentCSV,
		},
		Final: FinalConfig{
			Output: DefaultFinalFile,
		},
		GeoNames: GeoNamesConfig{
			URL:       DefaultGeoNamesURL,
			Timeout:   DefaultGeoNamesTimeout,
			LocalFile: DefaultGeoNamesLocalFile,
			UseHTTP:   true,
		},
		Telemetry: TelemetryConfig{
			MetricsFile: DefaultMetricsFile,
		},
		Operations: OperationsConfig{
			StageTimeout: DefaultStageTimeout,
			ManifestFile: DefaultManifestFile,
		},
	}
}
