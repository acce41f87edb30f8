// Package files provides file discovery for the pledge normalizer.
//
// Discovery walks an input directory recursively and returns every Excel
// workbook (*.xls, *.xlsx, *.xlsm) in file-name order, so the combined
// output of a run never depends on directory iteration order.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/path/to/base")
//	workbooks, err := discovery.FindExcelFiles("data/raw/pledges")
package files
