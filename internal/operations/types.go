package operations

import (
	"time"
)

// Stage identifiers, in pipeline order
const (
	StageIDNormalize    = "normalize"
	StageIDAggregate    = "aggregate"
	StageIDJoinACS      = "join-acs"
	StageIDUnemployment = "unemployment"
	StageIDZipCounty    = "zip-county"
	StageIDFinal        = "final"
)

// Stage names
const (
	StageNameNormalize    = "Pledge Normalization"
	StageNameAggregate    = "ZIP-Year Aggregation"
	StageNameJoinACS      = "ACS Income and Population Join"
	StageNameUnemployment = "County Unemployment ETL"
	StageNameZipCounty    = "ZIP to County Unemployment"
	StageNameFinal        = "Final Join"
)

// StageOrder lists every stage ID in execution order
var StageOrder = []string{
	StageIDNormalize,
	StageIDAggregate,
	StageIDJoinACS,
	StageIDUnemployment,
	StageIDZipCounty,
	StageIDFinal,
}

// Data types recorded in the manifest
const (
	DataPledgeFiles        = "pledge_files"
	DataCombinedRaw        = "combined_raw"
	DataCleanPledges       = "clean_pledges"
	DataZipYear            = "zip_year"
	DataACSCombined        = "acs_combined"
	DataCountyUnemployment = "county_unemployment"
	DataZipUnemployment    = "zip_unemployment"
	DataZipUnemploymentCSV = "zip_unemployment_csv"
	DataFinal              = "final"
	DataFinalSQLite        = "final_sqlite"
)

// Context keys for values passed between stages of one run
const (
	ContextKeyRunID       = "run_id"
	ContextKeyFilesFound  = "files_found"
	ContextKeyGeoSource   = "geonames_source"
	ContextKeyZipOverlap  = "zip_overlap"
	ContextKeyRowsWritten = "rows_written"
)

// Default timeouts
const (
	DefaultStageTimeout = 30 * time.Minute
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration. Stages are
// deterministic file transforms, so only retryable errors get a second try.
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest asks the manager to run the pipeline or a single stage
type OperationRequest struct {
	ID string `json:"id"`
	// Step selects one stage; empty runs every registered stage
	Step       string                 `json:"step,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the response from an operation execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Manifest *PipelineManifest     `json:"manifest,omitempty"`
	Error    string                `json:"error,omitempty"`
}
