package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"liheapcli/internal/geonames"
	"liheapcli/pkg/contracts/domain"
)

// FillReport summarizes one city backfill pass
type FillReport struct {
	MissingBefore  int
	FilledInternal int
	FilledExternal int
	MissingAfter   int
	InternalZips   int
	ExternalSource string
}

// CityBackfiller fills missing City values, first from the majority city of
// the same ZIP in the data itself and then from an external ZIP lookup.
type CityBackfiller struct {
	lookup geonames.Lookup
	logger *slog.Logger
	upper  cases.Caser
}

// NewCityBackfiller creates a backfiller. A nil lookup disables the external step.
func NewCityBackfiller(lookup geonames.Lookup, logger *slog.Logger) *CityBackfiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &CityBackfiller{
		lookup: lookup,
		logger: logger,
		upper:  cases.Upper(language.Und),
	}
}

// BuildZipCityMap returns, per ZIP, the most frequent normalized city among
// records that have one. Ties go to the lexicographically smallest city.
func (b *CityBackfiller) BuildZipCityMap(records []domain.PledgeRecord) map[string]string {
	counts := make(map[string]map[string]int)
	for _, rec := range records {
		if !rec.HasCity() {
			continue
		}
		city := b.normalize(rec.City)
		if counts[rec.ZipCode] == nil {
			counts[rec.ZipCode] = make(map[string]int)
		}
		counts[rec.ZipCode][city]++
	}

	result := make(map[string]string, len(counts))
	for zip, cities := range counts {
		names := make([]string, 0, len(cities))
		for name := range cities {
			names = append(names, name)
		}
		sort.Strings(names)

		best := names[0]
		for _, name := range names[1:] {
			if cities[name] > cities[best] {
				best = name
			}
		}
		result[zip] = best
	}
	return result
}

// Fill returns a copy of records with City backfilled and normalized to
// trimmed upper case. Unfilled cities are left empty.
func (b *CityBackfiller) Fill(ctx context.Context, records []domain.PledgeRecord) ([]domain.PledgeRecord, FillReport) {
	out := make([]domain.PledgeRecord, len(records))
	copy(out, records)

	var report FillReport
	for _, rec := range out {
		if !rec.HasCity() {
			report.MissingBefore++
		}
	}

	internal := b.BuildZipCityMap(out)
	report.InternalZips = len(internal)

	remaining := 0
	for i := range out {
		if out[i].HasCity() {
			continue
		}
		if city, ok := internal[out[i].ZipCode]; ok {
			out[i].City = city
			report.FilledInternal++
			continue
		}
		remaining++
	}

	b.logger.InfoContext(ctx, "city_internal_fill",
		slog.Int("missing_before", report.MissingBefore),
		slog.Int("zip_city_map_size", report.InternalZips),
		slog.Int("missing_after_internal", remaining))

	if remaining > 0 && b.lookup != nil {
		places, err := b.lookup.Load(ctx)
		if err != nil {
			b.logger.WarnContext(ctx, "city_external_lookup_failed", slog.String("error", err.Error()))
		}
		report.ExternalSource = places.Source

		if places.Len() == 0 {
			b.logger.WarnContext(ctx, "city_external_lookup_empty")
		}
		for i := range out {
			if out[i].HasCity() {
				continue
			}
			if city, ok := places.Get(out[i].ZipCode); ok {
				out[i].City = city
				report.FilledExternal++
			}
		}
	}

	for i := range out {
		if out[i].HasCity() {
			out[i].City = b.normalize(out[i].City)
		} else {
			out[i].City = ""
			report.MissingAfter++
		}
	}

	b.logger.InfoContext(ctx, "city_backfill_complete",
		slog.Int("missing_before", report.MissingBefore),
		slog.Int("filled_internal", report.FilledInternal),
		slog.Int("filled_external", report.FilledExternal),
		slog.Int("missing_after", report.MissingAfter),
		slog.String("external_source", report.ExternalSource))

	return out, report
}

func (b *CityBackfiller) normalize(city string) string {
	return b.upper.String(strings.TrimSpace(city))
}
