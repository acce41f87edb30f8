// Package unemployment turns a BLS LAUS county profile workbook, one sheet
// per county, into annual county unemployment rates.
//
// Each sheet carries a key/value metadata block followed by a monthly table
// whose header row starts with Year and Period. The annual rate is the mean
// of the monthly observations M01 through M12; years with fewer than twelve
// months are kept apart as partial years.
package unemployment
