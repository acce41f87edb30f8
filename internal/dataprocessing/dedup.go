package dataprocessing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"liheapcli/pkg/contracts/domain"
)

// Deduplicate sorts records by (ZipCode, YearMonth, PledgeAmount) ascending,
// missing values last, and keeps the first record of each key. It returns the
// surviving records and the number removed. The input slice is not modified.
func Deduplicate(records []domain.PledgeRecord) ([]domain.PledgeRecord, int) {
	sorted := make([]domain.PledgeRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareDedupKey(sorted[i], sorted[j]) < 0
	})

	out := make([]domain.PledgeRecord, 0, len(sorted))
	for i, rec := range sorted {
		if i > 0 && compareDedupKey(sorted[i-1], rec) == 0 {
			continue
		}
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}

func compareDedupKey(a, b domain.PledgeRecord) int {
	if c := compareMissingLast(a.ZipCode, b.ZipCode); c != 0 {
		return c
	}
	if c := compareMissingLast(a.YearMonth, b.YearMonth); c != 0 {
		return c
	}
	return compareAmount(a.PledgeAmount, b.PledgeAmount)
}

func compareMissingLast(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(a, b)
}

func compareAmount(a, b decimal.NullDecimal) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return 1
	case !b.Valid:
		return -1
	}
	return a.Decimal.Cmp(b.Decimal)
}
