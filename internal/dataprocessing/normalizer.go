package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"liheapcli/internal/config"
	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/exporter"
	"liheapcli/internal/workbook"
	"liheapcli/pkg/contracts/domain"
)

// RawPledge is one accepted source row after column mapping, before cleaning
type RawPledge struct {
	City         string
	ZipCode      string
	CreatedOn    string
	PledgeAmount string
	SourceFile   string
}

// NormalizeStats counts what each normalization step did
type NormalizeStats struct {
	FilesFound    int
	FilesAccepted int
	RawRows       int
	DroppedZip    int
	Duplicates    int
	OutsideWindow int
	OutputRows    int
	Fill          FillReport
}

// NormalizeResult is the output of the pledge normalizer
type NormalizeResult struct {
	Raw     []RawPledge
	Records []domain.PledgeRecord
	Skipped *apperrors.SkipReport
	Stats   NormalizeStats
}

// Normalizer unifies heterogeneous pledge exports into canonical records
type Normalizer struct {
	window     YearMonthRange
	backfiller *CityBackfiller
	logger     *slog.Logger
}

// NewNormalizer creates a normalizer for the given window
func NewNormalizer(window YearMonthRange, backfiller *CityBackfiller, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if backfiller == nil {
		backfiller = NewCityBackfiller(nil, logger)
	}
	return &Normalizer{window: window, backfiller: backfiller, logger: logger}
}

// ReadPledgeFile reads the first sheet of a raw pledge workbook. It returns
// the mapped rows, or the required columns the file lacks.
func ReadPledgeFile(path string) ([]RawPledge, []string, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer wb.Close()

	raw, err := wb.Rows("")
	if err != nil {
		return nil, nil, err
	}
	if len(raw) == 0 {
		return nil, RequiredColumns, nil
	}

	headerRow := DetectHeaderRow(raw)
	headers := MapHeaders(raw[headerRow])
	if missing := MissingRequired(headers); len(missing) > 0 {
		return nil, missing, nil
	}

	table := workbook.NewTable(filepath.Base(path), nil, 0)
	table.SetHeaders(headers)
	cityCol := table.Col(domain.ColCity)
	zipCol := table.Col(domain.ColZipCode)
	dateCol := table.Col(domain.ColCreatedOn)
	amountCol := table.Col(domain.ColPledgeAmount)

	source := filepath.Base(path)
	var rows []RawPledge
	for i := headerRow + 1; i < len(raw); i++ {
		if isBlank(raw[i]) {
			continue
		}
		rows = append(rows, RawPledge{
			City:         table.Get(raw[i], cityCol),
			ZipCode:      table.Get(raw[i], zipCol),
			CreatedOn:    createdOn(wb, i, dateCol, table.Get(raw[i], dateCol)),
			PledgeAmount: table.Get(raw[i], amountCol),
			SourceFile:   source,
		})
	}
	return rows, nil, nil
}

// createdOn renders a Created_On cell. Date-formatted numeric cells are
// converted from their serial; anything else is kept as stored for ParseDate.
func createdOn(wb *workbook.Workbook, row, col int, value string) string {
	if value == "" {
		return value
	}
	if t, ok := wb.DateCell("", row, col); ok {
		return t.Format(createdOnLayout)
	}
	return value
}

// LoadAll reads every file in order. Files that cannot be read or lack a
// required column are recorded in the skip report and left out.
func (n *Normalizer) LoadAll(ctx context.Context, paths []string) ([]RawPledge, *apperrors.SkipReport, error) {
	if len(paths) == 0 {
		return nil, nil, apperrors.NewPreconditionError("no Excel files (.xls or .xlsx) found in the pledge input directory")
	}

	skipped := &apperrors.SkipReport{}
	var all []RawPledge
	accepted := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		name := filepath.Base(path)
		rows, missing, err := ReadPledgeFile(path)
		switch {
		case err != nil:
			skipped.Add(name, fmt.Sprintf("unreadable: %v", err))
			n.logger.WarnContext(ctx, "file_skipped",
				slog.String("file", name),
				slog.String("reason", "unreadable"),
				slog.String("error", err.Error()))
			continue
		case len(missing) > 0:
			skipped.Add(name, "missing required columns", missing...)
			n.logger.WarnContext(ctx, "file_skipped",
				slog.String("file", name),
				slog.String("reason", "missing required columns"),
				slog.Any("missing", missing))
			continue
		}

		accepted++
		all = append(all, rows...)
		n.logger.InfoContext(ctx, "file_normalized",
			slog.String("file", name),
			slog.Int("rows", len(rows)))
	}

	if accepted == 0 {
		return nil, skipped, apperrors.NewPreconditionError(
			"no valid files after normalization; check column mappings and required columns").
			WithContext("skipped", skipped.Len())
	}
	return all, skipped, nil
}

// Clean converts raw rows into pledge records. Rows without a usable ZIP
// code are dropped and counted.
func Clean(raw []RawPledge) ([]domain.PledgeRecord, int) {
	records := make([]domain.PledgeRecord, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		zip, ok := CleanZip(r.ZipCode)
		if !ok {
			dropped++
			continue
		}
		created := ParseDate(r.CreatedOn)
		records = append(records, domain.PledgeRecord{
			City:         r.City,
			ZipCode:      zip,
			CreatedOn:    created,
			YearMonth:    YearMonth(created),
			PledgeAmount: CleanPledgeAmount(r.PledgeAmount),
			SourceFile:   r.SourceFile,
		})
	}
	return records, dropped
}

// Normalize runs load, clean, deduplicate, city backfill and window filter
func (n *Normalizer) Normalize(ctx context.Context, paths []string) (*NormalizeResult, error) {
	n.logger.InfoContext(ctx, "normalize_start", slog.Int("files_found", len(paths)))

	raw, skipped, err := n.LoadAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	result := &NormalizeResult{Raw: raw, Skipped: skipped}
	result.Stats.FilesFound = len(paths)
	result.Stats.FilesAccepted = len(paths) - skipped.Len()
	result.Stats.RawRows = len(raw)

	records, dropped := Clean(raw)
	result.Stats.DroppedZip = dropped
	n.logger.InfoContext(ctx, "clean_complete",
		slog.Int("rows", len(records)),
		slog.Int("dropped_missing_zip", dropped))

	records, removed := Deduplicate(records)
	result.Stats.Duplicates = removed
	n.logger.InfoContext(ctx, "dedup_complete", slog.Int("duplicates_removed", removed))

	records, result.Stats.Fill = n.backfiller.Fill(ctx, records)

	before := len(records)
	records = n.window.Filter(records)
	result.Stats.OutsideWindow = before - len(records)
	n.logger.InfoContext(ctx, "date_filter_complete",
		slog.String("window", n.window.String()),
		slog.Bool("applied", !n.window.IsOpen()),
		slog.Int("rows", len(records)),
		slog.Int("removed", result.Stats.OutsideWindow))

	result.Records = records
	result.Stats.OutputRows = len(records)

	for _, skip := range skipped.Skipped() {
		n.logger.InfoContext(ctx, "skipped_file_report",
			slog.String("file", skip.Source),
			slog.String("reason", skip.Reason),
			slog.String("missing", strings.Join(skip.Missing, ", ")))
	}
	return result, nil
}

// CombinedRawTable renders the mapped rows before cleaning
func CombinedRawTable(raw []RawPledge) exporter.Table {
	cols := append(append([]string{}, PledgeColumns...), domain.ColSourceFile)
	rows := make([][]any, len(raw))
	for i, r := range raw {
		rows[i] = []any{blankToNil(r.City), blankToNil(r.ZipCode), blankToNil(r.CreatedOn), blankToNil(r.PledgeAmount), r.SourceFile}
	}
	return exporter.Table{
		Sheet:   config.SheetCombinedRaw,
		Columns: exporter.TextColumns(cols, domain.ColZipCode, domain.ColCreatedOn, domain.ColPledgeAmount),
		Rows:    rows,
	}
}

// PledgeTable renders the cleaned records as the LIHEAP_Data sheet
func PledgeTable(records []domain.PledgeRecord) exporter.Table {
	cols := []string{domain.ColCity, domain.ColZipCode, domain.ColYearMonth, domain.ColPledgeAmount}
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{blankToNil(r.City), r.ZipCode, blankToNil(r.YearMonth), r.PledgeAmount}
	}
	return exporter.Table{
		Sheet:   config.SheetPledges,
		Columns: exporter.TextColumns(cols, domain.ColZipCode),
		Rows:    rows,
	}
}

func blankToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
