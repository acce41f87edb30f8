package exporter

// Column describes one output column
type Column struct {
	Name string
	// Text stores the column with the "@" number format so values such as
	// ZIP codes keep their leading zeros.
	Text bool
}

// Table is one named sheet of stage output.
// Row values may be nil, strings, integers, floats, bools, time.Time,
// decimal.Decimal or the database/sql and decimal Null* wrappers.
type Table struct {
	Sheet   string
	Columns []Column
	Rows    [][]any
}

// Header returns the column names in order
func (t Table) Header() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Records renders every row through FormatValue
func (t Table) Records() [][]string {
	records := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		for j := range t.Columns {
			if j < len(row) {
				rec[j] = FormatValue(row[j])
			}
		}
		records[i] = rec
	}
	return records
}

// TextColumns marks the named columns as text and everything else as general
func TextColumns(names []string, text ...string) []Column {
	isText := make(map[string]bool, len(text))
	for _, n := range text {
		isText[n] = true
	}
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Text: isText[n]}
	}
	return cols
}
