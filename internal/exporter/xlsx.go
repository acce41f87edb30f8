package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	numFmtText = 49 // "@"
	numFmtDate = 14 // "mm-dd-yy"
)

// XLSXWriter writes stage tables as workbook sheets
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger}
}

// Write saves the tables to path, one sheet per table in the given order.
// An existing file is replaced.
func (w *XLSXWriter) Write(filePath string, tables ...Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write to %s", filePath)
	}

	f := excelize.NewFile()
	defer f.Close()

	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtText})
	if err != nil {
		return fmt.Errorf("failed to create text style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtDate})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	for i, table := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), table.Sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", table.Sheet, err)
			}
		} else if _, err := f.NewSheet(table.Sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", table.Sheet, err)
		}

		if err := writeSheet(f, table, textStyle, dateStyle); err != nil {
			return err
		}

		w.logger.Debug("sheet_written",
			slog.String("file_path", filePath),
			slog.String("sheet", table.Sheet),
			slog.Int("rows", len(table.Rows)))
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", filePath, err)
	}

	w.logger.Info("Workbook written",
		slog.String("file_path", filePath),
		slog.Int("sheets", len(tables)))
	return nil
}

func writeSheet(f *excelize.File, table Table, textStyle, dateStyle int) error {
	sw, err := f.NewStreamWriter(table.Sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer for %s: %w", table.Sheet, err)
	}

	header := make([]any, len(table.Columns))
	for i, name := range table.Header() {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", table.Sheet, err)
	}

	for r, row := range table.Rows {
		values := make([]any, len(table.Columns))
		for c, col := range table.Columns {
			if c >= len(row) {
				continue
			}
			values[c] = xlsxValue(row[c], col, textStyle, dateStyle)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+2, table.Sheet, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet %s: %w", table.Sheet, err)
	}
	return nil
}

// xlsxValue converts a row value into what the stream writer stores.
// Missing values become empty cells.
func xlsxValue(v any, col Column, textStyle, dateStyle int) any {
	val := cellValue(v)
	if val == nil {
		return nil
	}
	if col.Text {
		return excelize.Cell{StyleID: textStyle, Value: FormatValue(val)}
	}
	switch x := val.(type) {
	case decimal.Decimal:
		return x.InexactFloat64()
	case time.Time:
		return excelize.Cell{StyleID: dateStyle, Value: x}
	default:
		return x
	}
}
