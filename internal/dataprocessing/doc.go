// Package dataprocessing implements the first two pipeline stages: pledge
// normalization and ZIP/year aggregation.
//
// Normalizer turns a directory of heterogeneous pledge exports into one
// canonical table:
//
//   - DetectHeaderRow finds the real header below any title rows
//   - MapHeaders rewrites the known header spellings in ColumnMapping to the
//     canonical City, Zip_Code, Created_On and Pledge_Amount columns; files
//     lacking a required column are skipped and reported
//   - CleanZip, ParseDate and CleanPledgeAmount coerce fields, turning
//     unparseable values into missing ones
//   - Deduplicate keeps one record per (Zip_Code, YearMo, Pledge_Amount)
//   - CityBackfiller fills missing cities from the data itself, then from a
//     geonames.Lookup
//   - YearMonthRange restricts records to an inclusive YYYY-MM window
//
// Aggregator sums pledges per ZIP code and calendar year inside the valid
// year range.
//
// Example usage:
//
//	backfiller := dataprocessing.NewCityBackfiller(lookup, logger)
//	window := dataprocessing.YearMonthRange{Start: "2023-01", End: "2025-06"}
//	result, err := dataprocessing.NewNormalizer(window, backfiller, logger).Normalize(ctx, paths)
//
//	aggs, stats := dataprocessing.NewAggregator(2023, 2025, logger).Aggregate(ctx, result.Records)
package dataprocessing
