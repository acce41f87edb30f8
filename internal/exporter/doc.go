// Package exporter writes stage tables to disk.
//
// A Table is a named sheet with ordered columns and rows of loosely typed
// values. Missing values are carried as nil or as the sql.Null* and
// decimal.NullDecimal wrappers and are written as empty cells.
//
// XLSXWriter: writes one or more tables as sheets of a workbook. Columns
// marked Text (ZIP codes, FIPS codes) are stored as strings with the "@"
// number format so leading zeros survive a round trip through Excel.
//
// CSVWriter: writes a table as CSV with an optional UTF-8 BOM for Excel.
//
// Checksum: SHA-256 of a table's CSV rendering, logged after every stage so
// repeated runs can be compared.
//
// Example usage:
//
//	table := exporter.Table{
//		Sheet:   "ZipYear",
//		Columns: exporter.TextColumns([]string{"Zip_Code", "Year"}, "Zip_Code"),
//		Rows:    [][]any{{"92101", 2024}},
//	}
//	err := exporter.NewXLSXWriter(logger).Write("out.xlsx", table)
package exporter
