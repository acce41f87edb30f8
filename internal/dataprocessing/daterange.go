package dataprocessing

import "liheapcli/pkg/contracts/domain"

// YearMonthRange is an inclusive "YYYY-MM" window. An empty bound is open.
type YearMonthRange struct {
	Start string
	End   string
}

// IsOpen reports whether neither bound is set
func (r YearMonthRange) IsOpen() bool {
	return r.Start == "" && r.End == ""
}

// Contains reports whether ym falls inside the window. Zero-padded
// "YYYY-MM" strings order lexicographically. A missing ym is only inside an
// open window.
func (r YearMonthRange) Contains(ym string) bool {
	if r.IsOpen() {
		return true
	}
	if ym == "" {
		return false
	}
	if r.Start != "" && ym < r.Start {
		return false
	}
	if r.End != "" && ym > r.End {
		return false
	}
	return true
}

// Filter returns the records whose YearMonth is inside the window.
// An open window returns the input unchanged.
func (r YearMonthRange) Filter(records []domain.PledgeRecord) []domain.PledgeRecord {
	if r.IsOpen() {
		return records
	}
	out := make([]domain.PledgeRecord, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.YearMonth) {
			out = append(out, rec)
		}
	}
	return out
}

// String renders the window for logs
func (r YearMonthRange) String() string {
	start, end := r.Start, r.End
	if start == "" {
		start = "..."
	}
	if end == "" {
		end = "..."
	}
	return start + " to " + end
}
