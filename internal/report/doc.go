// Package report builds the Summary sheet of the final analysis table:
// indicator coverage, the distribution of ZIP-year pledge totals and the
// Pearson correlation of total_pledge with each indicator.
package report
