package workbook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "liheapcli/internal/errors"
)

// Workbook is an open spreadsheet file
type Workbook struct {
	f    *excelize.File
	path string
}

// Open opens a workbook for reading
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	return &Workbook{f: f, path: path}, nil
}

// Close releases the underlying file
func (w *Workbook) Close() error {
	return w.f.Close()
}

// Path returns the file the workbook was opened from
func (w *Workbook) Path() string {
	return w.path
}

// SheetNames returns the sheet names in workbook order
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// Rows returns every row of a sheet. An empty sheet name selects the first
// sheet. Numeric cells come back as stored rather than through their number
// format, which keeps dates as serial numbers and avoids rounding.
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	sheet, err := w.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}

	rows, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err).
			WithContext("path", w.path)
	}
	return rows, nil
}

// DateCell returns the time held by a numeric cell whose style carries a date
// or time number format. row and col are zero-based indexes into the grid
// returned by Rows. Text cells and plain numbers report false.
func (w *Workbook) DateCell(sheet string, row, col int) (time.Time, bool) {
	sheet, err := w.resolveSheet(sheet)
	if err != nil {
		return time.Time{}, false
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return time.Time{}, false
	}

	typ, err := w.f.GetCellType(sheet, cell)
	if err != nil || typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
		return time.Time{}, false
	}
	raw, err := w.f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return time.Time{}, false
	}

	styleID, err := w.f.GetCellStyle(sheet, cell)
	if err != nil {
		return time.Time{}, false
	}
	style, err := w.f.GetStyle(styleID)
	if err != nil || !IsDateFormat(style.NumFmt, style.CustomNumFmt) {
		return time.Time{}, false
	}

	t, err := excelize.ExcelDateToTime(serial, w.date1904())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (w *Workbook) date1904() bool {
	props, err := w.f.GetWorkbookProps()
	return err == nil && props.Date1904 != nil && *props.Date1904
}

func (w *Workbook) resolveSheet(sheet string) (string, error) {
	if sheet != "" {
		return sheet, nil
	}
	sheets := w.f.GetSheetList()
	if len(sheets) == 0 {
		return "", apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", w.path)
	}
	return sheets[0], nil
}

// ReadTable opens path and returns the sheet as a table whose header is the first row
func ReadTable(path, sheet string) (*Table, error) {
	w, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	rows, err := w.Rows(sheet)
	if err != nil {
		return nil, err
	}
	name := sheet
	if name == "" {
		name = w.SheetNames()[0]
	}
	return NewTable(name, rows, 0), nil
}

// Table is a sheet split into a header row and data rows.
// Data rows are padded to the header width and blank rows are dropped.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
	index   map[string]int
}

// NewTable builds a table using grid[headerRow] as the header
func NewTable(name string, grid [][]string, headerRow int) *Table {
	t := &Table{Name: name, index: make(map[string]int)}
	if headerRow < 0 || headerRow >= len(grid) {
		return t
	}

	t.SetHeaders(grid[headerRow])
	for _, row := range grid[headerRow+1:] {
		if isBlankRow(row) {
			continue
		}
		padded := make([]string, len(t.Headers))
		copy(padded, row)
		t.Rows = append(t.Rows, padded)
	}
	return t
}

// SetHeaders replaces the header row. When a name repeats, the leftmost column wins lookups.
func (t *Table) SetHeaders(headers []string) {
	t.Headers = make([]string, len(headers))
	t.index = make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		t.Headers[i] = h
		if _, dup := t.index[h]; !dup && h != "" {
			t.index[h] = i
		}
	}
}

// Col returns the index of a column, or -1
func (t *Table) Col(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Missing returns the names that are not columns of the table
func (t *Table) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if t.Col(n) < 0 {
			missing = append(missing, n)
		}
	}
	return missing
}

// Get returns the trimmed cell of row at col, or "" when col is absent
func (t *Table) Get(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
