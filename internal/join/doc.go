// Package join implements the left joins of stages 3 and 6.
//
// AttachIndicators adds ACS median income and population to ZIP/year
// aggregates by ZIP code only. AttachUnemployment adds ZIP-level unemployment
// by (ZIP, year). Both keep exactly one output row per left-hand row: unmatched
// keys leave the indicator missing and repeated right-hand keys keep their
// first row.
package join
