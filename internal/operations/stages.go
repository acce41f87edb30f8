package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"liheapcli/internal/config"
	"liheapcli/internal/crosswalk"
	"liheapcli/internal/dataprocessing"
	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/exporter"
	"liheapcli/internal/files"
	"liheapcli/internal/geonames"
	"liheapcli/internal/infrastructure"
	"liheapcli/internal/join"
	"liheapcli/internal/report"
	"liheapcli/internal/store"
	"liheapcli/internal/unemployment"
	"liheapcli/internal/validation"
	"liheapcli/pkg/contracts/domain"
)

// StageOptions carries the collaborators shared by every stage
type StageOptions struct {
	Metrics *infrastructure.PipelineMetrics
	// GeoLookup overrides the lookup built from the GeoNames config
	GeoLookup geonames.Lookup
}

// stageRuntime holds what each stage needs to read, write and report
type stageRuntime struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *infrastructure.PipelineMetrics
	validator *validation.FileValidator
	xlsx      *exporter.XLSXWriter
	csv       *exporter.CSVWriter
}

func newStageRuntime(cfg *config.Config, logger *slog.Logger, options *StageOptions, stageID string) stageRuntime {
	if logger == nil {
		logger = slog.Default()
	}
	if options == nil {
		options = &StageOptions{}
	}
	logger = infrastructure.WithComponent(logger, stageID)
	return stageRuntime{
		cfg:       cfg,
		logger:    logger,
		metrics:   options.Metrics,
		validator: validation.NewFileValidator(logger),
		xlsx:      exporter.NewXLSXWriter(logger),
		csv:       exporter.NewCSVWriter(logger),
	}
}

// writeWorkbook writes tables to one workbook, logs a checksum per sheet and
// records the output in the manifest under the first table's row count
func (r stageRuntime) writeWorkbook(ctx context.Context, state *OperationState, stageID, dataType, path string, tables ...exporter.Table) error {
	if err := r.validator.ValidateOutputDirectory(filepath.Dir(path)); err != nil {
		return err
	}
	if err := r.xlsx.Write(path, tables...); err != nil {
		return err
	}

	var checksum string
	for i, t := range tables {
		sum := exporter.Checksum(t)
		if i == 0 {
			checksum = sum
		}
		r.logger.InfoContext(ctx, "output_written",
			slog.String("path", path),
			slog.String("sheet", t.Sheet),
			slog.Int("rows", len(t.Rows)),
			slog.String("checksum", sum))
	}

	state.Manifest.AddOutput(&DataInfo{
		Type:      dataType,
		Path:      path,
		Rows:      len(tables[0].Rows),
		Checksum:  checksum,
		CreatedBy: stageID,
	})
	return nil
}

func (r stageRuntime) recordInput(state *OperationState, dataType, path string, files ...string) {
	state.Manifest.AddInput(&DataInfo{Type: dataType, Path: path, Files: files})
}

// NormalizeStage unifies raw pledge exports into clean pledge records
type NormalizeStage struct {
	BaseStage
	stageRuntime
	lookup geonames.Lookup
}

// NewNormalizeStage creates the pledge normalization stage
func NewNormalizeStage(cfg *config.Config, logger *slog.Logger, options *StageOptions) *NormalizeStage {
	rt := newStageRuntime(cfg, logger, options, StageIDNormalize)
	var lookup geonames.Lookup
	if options != nil {
		lookup = options.GeoLookup
	}
	if lookup == nil {
		lookup = geonames.NewFromConfig(cfg.GeoNames, rt.logger)
	}
	return &NormalizeStage{
		BaseStage: NewBaseStage(StageIDNormalize, StageNameNormalize, nil).WithIO(
			[]DataRequirement{{Type: DataPledgeFiles, Path: cfg.Pledges.InputDir, Dir: true}},
			[]DataOutput{
				{Type: DataCombinedRaw, Path: cfg.Pledges.CombinedOutput, Sheets: []string{config.SheetCombinedRaw}},
				{Type: DataCleanPledges, Path: cfg.Pledges.Output, Sheets: []string{config.SheetPledges}},
			}),
		stageRuntime: rt,
		lookup:       lookup,
	}
}

// Validate checks the pledge input directory
func (s *NormalizeStage) Validate(state *OperationState) error {
	if err := s.validator.ValidateInputDirectory(s.cfg.Pledges.InputDir); err != nil {
		return NewValidationError(s.ID(), err.Error())
	}
	return nil
}

// Execute discovers, normalizes and writes the pledge records
func (s *NormalizeStage) Execute(ctx context.Context, state *OperationState) error {
	found, err := files.NewDiscovery(s.cfg.Paths.BaseDir).FindExcelFiles(s.cfg.Pledges.InputDir)
	if err != nil {
		return apperrors.NewStorageError("failed to list pledge files", err)
	}
	paths := files.Paths(found)
	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.Name
	}
	s.recordInput(state, DataPledgeFiles, s.cfg.Pledges.InputDir, names...)
	state.SetContext(ContextKeyFilesFound, len(paths))

	window := dataprocessing.YearMonthRange{Start: s.cfg.Pledges.StartYearMonth, End: s.cfg.Pledges.EndYearMonth}
	normalizer := dataprocessing.NewNormalizer(window, dataprocessing.NewCityBackfiller(s.lookup, s.logger), s.logger)

	result, err := normalizer.Normalize(ctx, paths)
	if err != nil {
		return err
	}

	stats := result.Stats
	s.metrics.RecordRows(ctx, s.ID(), stats.RawRows, stats.OutputRows)
	s.metrics.RecordSkipped(ctx, s.ID(), "file", result.Skipped.Len())
	s.metrics.RecordDropped(ctx, s.ID(), "missing_zip", stats.DroppedZip)
	s.metrics.RecordDropped(ctx, s.ID(), "duplicate", stats.Duplicates)
	s.metrics.RecordDropped(ctx, s.ID(), "outside_window", stats.OutsideWindow)
	if stats.Fill.ExternalSource != "" {
		s.metrics.RecordGeoSource(ctx, stats.Fill.ExternalSource)
		state.SetContext(ContextKeyGeoSource, stats.Fill.ExternalSource)
	}

	if err := s.writeWorkbook(ctx, state, s.ID(), DataCombinedRaw, s.cfg.Pledges.CombinedOutput,
		dataprocessing.CombinedRawTable(result.Raw)); err != nil {
		return err
	}
	if err := s.writeWorkbook(ctx, state, s.ID(), DataCleanPledges, s.cfg.Pledges.Output,
		dataprocessing.PledgeTable(result.Records)); err != nil {
		return err
	}

	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("files_found", stats.FilesFound)
	stepState.SetMetadata("files_accepted", stats.FilesAccepted)
	stepState.SetMetadata("rows", stats.OutputRows)
	if skipped := result.Skipped.ErrorOrNil(); skipped != nil {
		stepState.SetMetadata("skipped", skipped.Error())
	}
	return nil
}

// AggregateStage groups clean pledges by ZIP code and year
type AggregateStage struct {
	BaseStage
	stageRuntime
}

// NewAggregateStage creates the ZIP-year aggregation stage
func NewAggregateStage(cfg *config.Config, logger *slog.Logger, options *StageOptions) *AggregateStage {
	return &AggregateStage{
		BaseStage: NewBaseStage(StageIDAggregate, StageNameAggregate, []string{StageIDNormalize}).WithIO(
			[]DataRequirement{{Type: DataCleanPledges, Path: cfg.Pledges.Output}},
			[]DataOutput{{Type: DataZipYear, Path: cfg.Aggregate.Output, Sheets: []string{config.SheetZipYear}}}),
		stageRuntime: newStageRuntime(cfg, logger, options, StageIDAggregate),
	}
}

// Execute aggregates the clean pledge workbook
func (s *AggregateStage) Execute(ctx context.Context, state *OperationState) error {
	s.recordInput(state, DataCleanPledges, s.cfg.Pledges.Output)
	records, err := dataprocessing.ReadPledges(s.cfg.Pledges.Output)
	if err != nil {
		return err
	}

	aggs, stats := dataprocessing.NewAggregator(s.cfg.Aggregate.MinYear, s.cfg.Aggregate.MaxYear, s.logger).Aggregate(ctx, records)
	s.metrics.RecordRows(ctx, s.ID(), stats.InputRows, stats.Groups)
	s.metrics.RecordDropped(ctx, s.ID(), "invalid_key", stats.InvalidRows)
	s.metrics.RecordDropped(ctx, s.ID(), "outside_years", stats.OutsideYears)

	if err := s.writeWorkbook(ctx, state, s.ID(), DataZipYear, s.cfg.Aggregate.Output, dataprocessing.ZipYearTable(aggs)); err != nil {
		return err
	}

	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("groups", stats.Groups)
	stepState.SetMetadata("unique_zips", stats.UniqueZips)
	stepState.SetMetadata("total_pledge", stats.TotalPledge.StringFixed(2))
	return nil
}

// JoinACSStage attaches median income and population to ZIP-year rows
type JoinACSStage struct {
	BaseStage
	stageRuntime
}

// NewJoinACSStage creates the ACS join stage
func NewJoinACSStage(cfg *config.Config, logger *slog.Logger, options *StageOptions) *JoinACSStage {
	return &JoinACSStage{
		BaseStage: NewBaseStage(StageIDJoinACS, StageNameJoinACS, []string{StageIDAggregate}).WithIO(
			[]DataRequirement{
				{Type: DataZipYear, Path: cfg.Aggregate.Output},
				{Type: "acs_income", Path: cfg.ACS.IncomeFile},
				{Type: "acs_population", Path: cfg.ACS.PopulationFile},
			},
			[]DataOutput{{Type: DataACSCombined, Path: cfg.ACS.Output, Sheets: []string{config.SheetACSCombined}}}),
		stageRuntime: newStageRuntime(cfg, logger, options, StageIDJoinACS),
	}
}

// Execute left-joins the ACS indicators onto the ZIP-year table
func (s *JoinACSStage) Execute(ctx context.Context, state *OperationState) error {
	for _, in := range s.RequiredInputs() {
		s.recordInput(state, in.Type, in.Path)
	}

	aggs, err := dataprocessing.ReadZipYear(s.cfg.Aggregate.Output)
	if err != nil {
		return err
	}
	income, err := join.ReadIncome(s.cfg.ACS.IncomeFile, s.cfg.ACS.IncomeSheet)
	if err != nil {
		return err
	}
	population, err := join.ReadPopulation(s.cfg.ACS.PopulationFile, s.cfg.ACS.PopulationSheet)
	if err != nil {
		return err
	}

	combined := join.AttachIndicators(aggs, income, population)
	s.metrics.RecordRows(ctx, s.ID(), len(aggs), len(combined))
	cov := join.CombinedCoverage(combined)
	cov.Log(ctx, s.logger, config.SheetACSCombined)

	if err := s.writeWorkbook(ctx, state, s.ID(), DataACSCombined, s.cfg.ACS.Output, join.CombinedTable(combined)); err != nil {
		return err
	}

	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("rows", len(combined))
	stepState.SetMetadata("income_pct", cov.Percent(cov.WithIncome))
	stepState.SetMetadata("population_pct", cov.Percent(cov.WithPopulation))
	return nil
}

// UnemploymentStage extracts annual county unemployment from the BLS workbook
type UnemploymentStage struct {
	BaseStage
	stageRuntime
}

// NewUnemploymentStage creates the county unemployment ETL stage
func NewUnemploymentStage(cfg *config.Config, logger *slog.Logger, options *StageOptions) *UnemploymentStage {
	return &UnemploymentStage{
		BaseStage: NewBaseStage(StageIDUnemployment, StageNameUnemployment, nil).WithIO(
			[]DataRequirement{{Type: "bls_workbook", Path: cfg.Unemployment.Workbook}},
			[]DataOutput{{Type: DataCountyUnemployment, Path: cfg.Unemployment.Output,
				Sheets: []string{config.SheetFullYears, config.SheetPartialYears}}}),
		stageRuntime: newStageRuntime(cfg, logger, options, StageIDUnemployment),
	}
}

// Execute runs the BLS ETL and writes the full-year and YTD sheets
func (s *UnemploymentStage) Execute(ctx context.Context, state *OperationState) error {
	s.recordInput(state, "bls_workbook", s.cfg.Unemployment.Workbook)

	res, err := unemployment.NewETL(s.logger).Run(ctx, s.cfg.Unemployment.Workbook)
	if err != nil {
		return err
	}
	s.metrics.RecordRows(ctx, s.ID(), res.Sheets, len(res.Full)+len(res.Partial))
	s.metrics.RecordSkipped(ctx, s.ID(), "sheet", res.Skipped.Len())

	if err := s.writeWorkbook(ctx, state, s.ID(), DataCountyUnemployment, s.cfg.Unemployment.Output, res.Tables()...); err != nil {
		return err
	}

	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("sheets_processed", res.Processed)
	stepState.SetMetadata("full_years", len(res.Full))
	stepState.SetMetadata("partial_years", len(res.Partial))
	stepState.SetMetadata("fips_missing", res.FIPSMissing)
	return nil
}

// ZipCountyStage attaches county unemployment to ZIP codes via the crosswalk
type ZipCountyStage struct {
	BaseStage
	stageRuntime
}

// NewZipCountyStage creates the ZIP to county unemployment stage
func NewZipCountyStage(cfg *config.Config, logger *slog.Logger, options *StageOptions) *ZipCountyStage {
	outputs := []DataOutput{{Type: DataZipUnemployment, Path: cfg.Crosswalk.Output, Sheets: []string{config.SheetZipUnemployment}}}
	if cfg.Crosswalk.CSVOutput != "" {
		outputs = append(outputs, DataOutput{Type: DataZipUnemploymentCSV, Path: cfg.Crosswalk.CSVOutput})
	}
	return &ZipCountyStage{
		BaseStage: NewBaseStage(StageIDZipCounty, StageNameZipCounty, []string{StageIDUnemployment}).WithIO(
			[]DataRequirement{
				{Type: DataCountyUnemployment, Path: cfg.Unemployment.Output},
				{Type: "hud_crosswalk", Path: cfg.Crosswalk.File},
			},
			outputs),
		stageRuntime: newStageRuntime(cfg, logger, options, StageIDZipCounty),
	}
}

// Execute assigns each ZIP its dominant county and joins the annual rates
func (s *ZipCountyStage) Execute(ctx context.Context, state *OperationState) error {
	for _, in := range s.RequiredInputs() {
		s.recordInput(state, in.Type, in.Path)
	}

	counties, dropped, err := unemployment.ReadCounties(s.cfg.Unemployment.Output, s.cfg.Crosswalk.IncludePartialYears)
	if err != nil {
		return err
	}
	if dropped > 0 {
		s.logger.WarnContext(ctx, "county_rows_dropped", slog.Int("rows", dropped))
		s.metrics.RecordDropped(ctx, s.ID(), "invalid_county_row", dropped)
	}
	if len(counties) == 0 {
		s.logger.WarnContext(ctx, "county_table_empty",
			slog.String("path", s.cfg.Unemployment.Output),
			slog.Bool("include_partial_years", s.cfg.Crosswalk.IncludePartialYears))
	}

	rows, err := crosswalk.ReadRows(s.cfg.Crosswalk.File)
	if err != nil {
		return err
	}
	assignments := crosswalk.DominantCounties(rows, s.cfg.Crosswalk.State)
	s.logger.InfoContext(ctx, "dominant_counties_assigned",
		slog.String("state", s.cfg.Crosswalk.State),
		slog.Int("crosswalk_rows", len(rows)),
		slog.Int("zips", len(assignments)))

	joined := crosswalk.JoinUnemployment(assignments, counties)
	stats := crosswalk.Summarize(joined)
	s.logger.InfoContext(ctx, "zip_unemployment_joined",
		slog.Int("rows", stats.Rows),
		slog.Int("unique_zips", stats.UniqueZips),
		slog.Int("counties", stats.Counties),
		slog.Int("with_rate", stats.WithRate),
		slog.Any("years", stats.Years),
		slog.Bool("include_partial_years", s.cfg.Crosswalk.IncludePartialYears))
	s.metrics.RecordRows(ctx, s.ID(), len(assignments), len(joined))

	table := crosswalk.ZipUnemploymentTable(joined)
	if err := s.writeWorkbook(ctx, state, s.ID(), DataZipUnemployment, s.cfg.Crosswalk.Output, table); err != nil {
		return err
	}
	if path := s.cfg.Crosswalk.CSVOutput; path != "" {
		if err := s.csv.WriteTable(path, table); err != nil {
			return err
		}
		state.Manifest.AddOutput(&DataInfo{
			Type:      DataZipUnemploymentCSV,
			Path:      path,
			Rows:      len(table.Rows),
			Checksum:  exporter.Checksum(table),
			CreatedBy: s.ID(),
		})
	}

	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("rows", stats.Rows)
	stepState.SetMetadata("with_rate", stats.WithRate)
	return nil
}

// FinalStage joins ZIP unemployment onto the ACS-enriched pledge table
type FinalStage struct {
	BaseStage
	stageRuntime
}

// NewFinalStage creates the final join stage
func NewFinalStage(cfg *config.Config, logger *slog.Logger, options *StageOptions) *FinalStage {
	outputs := []DataOutput{{Type: DataFinal, Path: cfg.Final.Output, Sheets: []string{config.SheetFinal, config.SheetSummary}}}
	if cfg.Final.SQLitePath != "" {
		outputs = append(outputs, DataOutput{Type: DataFinalSQLite, Path: cfg.Final.SQLitePath})
	}
	return &FinalStage{
		BaseStage: NewBaseStage(StageIDFinal, StageNameFinal, []string{StageIDJoinACS, StageIDZipCounty}).WithIO(
			[]DataRequirement{
				{Type: DataACSCombined, Path: cfg.ACS.Output},
				{Type: DataZipUnemployment, Path: cfg.Crosswalk.Output},
			},
			outputs),
		stageRuntime: newStageRuntime(cfg, logger, options, StageIDFinal),
	}
}

// Execute produces the final table, its summary and the optional SQLite copy
func (s *FinalStage) Execute(ctx context.Context, state *OperationState) error {
	for _, in := range s.RequiredInputs() {
		s.recordInput(state, in.Type, in.Path)
	}

	combined, err := join.ReadCombined(s.cfg.ACS.Output)
	if err != nil {
		return err
	}
	zipUnemployment, err := crosswalk.ReadZipUnemployment(s.cfg.Crosswalk.Output)
	if err != nil {
		return err
	}

	overlap := join.ZipOverlap(combined, zipUnemployment)
	state.SetContext(ContextKeyZipOverlap, overlap)
	if overlap == 0 {
		s.logger.WarnContext(ctx, "zip_overlap_empty",
			slog.Int("pledge_rows", len(combined)),
			slog.Int("unemployment_rows", len(zipUnemployment)))
	} else {
		s.logger.InfoContext(ctx, "zip_overlap", slog.Int("zips", overlap))
	}

	final := join.AttachUnemployment(combined, zipUnemployment)
	s.metrics.RecordRows(ctx, s.ID(), len(combined), len(final))

	summary := report.Build(final, overlap)
	summary.Coverage.Log(ctx, s.logger, config.SheetFinal)
	summary.Log(ctx, s.logger)

	if err := s.writeWorkbook(ctx, state, s.ID(), DataFinal, s.cfg.Final.Output,
		join.FinalTable(final), summary.Table()); err != nil {
		return err
	}
	state.SetContext(ContextKeyRowsWritten, len(final))

	if path := s.cfg.Final.SQLitePath; path != "" {
		if err := s.exportSQLite(ctx, state, path, final); err != nil {
			return err
		}
	}

	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("rows", len(final))
	stepState.SetMetadata("zip_overlap", overlap)
	stepState.SetMetadata("unemployment_pct", summary.Coverage.Percent(summary.Coverage.WithUnemployment))
	return nil
}

func (s *FinalStage) exportSQLite(ctx context.Context, state *OperationState, path string, final []domain.FinalRecord) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ReplaceFinal(ctx, state.RunID(), final); err != nil {
		return err
	}
	n, err := db.CountFinal(ctx)
	if err != nil {
		return err
	}
	if n != len(final) {
		return apperrors.NewStorageError(fmt.Sprintf("sqlite export wrote %d rows, expected %d", n, len(final)), nil)
	}
	s.logger.InfoContext(ctx, "sqlite_exported", slog.String("path", path), slog.Int("rows", n))
	state.Manifest.AddOutput(&DataInfo{Type: DataFinalSQLite, Path: path, Rows: n, CreatedBy: s.ID()})
	return nil
}

// StageFactory builds every pipeline stage in execution order
func StageFactory(cfg *config.Config, logger *slog.Logger, options *StageOptions) []Step {
	if options == nil {
		options = &StageOptions{}
	}
	return []Step{
		NewNormalizeStage(cfg, logger, options),
		NewAggregateStage(cfg, logger, options),
		NewJoinACSStage(cfg, logger, options),
		NewUnemploymentStage(cfg, logger, options),
		NewZipCountyStage(cfg, logger, options),
		NewFinalStage(cfg, logger, options),
	}
}

// NewPipelineRegistry registers every stage from StageFactory
func NewPipelineRegistry(cfg *config.Config, logger *slog.Logger, options *StageOptions) (*Registry, error) {
	registry := NewRegistry()
	for _, step := range StageFactory(cfg, logger, options) {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	if err := registry.ValidateDependencies(); err != nil {
		return nil, err
	}
	return registry, nil
}
