package dataprocessing

import (
	"regexp"
	"strings"

	"liheapcli/pkg/contracts/domain"
)

// HeaderLookahead is how many leading rows DetectHeaderRow inspects
const HeaderLookahead = 10

var (
	letterPattern     = regexp.MustCompile(`[A-Za-z]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// DetectHeaderRow returns the index of the first row, within the first
// HeaderLookahead rows, that has at least 3 non-empty cells and at least 2
// cells containing a letter. It returns 0 when no row qualifies.
func DetectHeaderRow(grid [][]string) int {
	for i := 0; i < len(grid) && i < HeaderLookahead; i++ {
		nonEmpty, alpha := 0, 0
		for _, cell := range grid[i] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			nonEmpty++
			if letterPattern.MatchString(cell) {
				alpha++
			}
		}
		if nonEmpty >= 3 && alpha >= 2 {
			return i
		}
	}
	return 0
}

// ColumnAlias maps one raw header spelling to a canonical column
type ColumnAlias struct {
	Spelling  string
	Canonical string
}

// ColumnMapping lists every known raw header spelling in the pledge exports
var ColumnMapping = []ColumnAlias{
	{"CV_EnergyAssistance[City(Service Address)]", domain.ColCity},
	{"Service City", domain.ColCity},
	{"City", domain.ColCity},

	{"CV_EnergyAssistance[Post Code (Service Address)]", domain.ColZipCode},
	{"CV_EnergyAssistance[Zipcode (Business Partner Address)]", domain.ColZipCode},
	{"Zipcode (Business Partner Address)", domain.ColZipCode},
	{"Zip Code", domain.ColZipCode},
	{"ZIP", domain.ColZipCode},
	{"Zip_Code", domain.ColZipCode},

	{"CV_EnergyAssistance[created On (Pledge Details)]", domain.ColCreatedOn},
	{"CV_EnergyAssistance[Created On (Pledge Details)]", domain.ColCreatedOn},
	{"CV_EnergyAssistance[Created on (MM/DD/YYYY)]", domain.ColCreatedOn},
	{"CV_EnergyAssistance[Created On (PL)]", domain.ColCreatedOn},
	{"Created_On", domain.ColCreatedOn},
	{"Created On", domain.ColCreatedOn},

	{"[Pledge_Amount]", domain.ColPledgeAmount},
	{"Pledge Amount", domain.ColPledgeAmount},
	{"Pledge_Amount", domain.ColPledgeAmount},
	{"CV_EnergyAssistance[Pledge Amount]", domain.ColPledgeAmount},
}

// RequiredColumns must be present after mapping or the file is rejected
var RequiredColumns = []string{domain.ColZipCode, domain.ColCreatedOn, domain.ColPledgeAmount}

// PledgeColumns are the canonical columns kept from every accepted file
var PledgeColumns = []string{domain.ColCity, domain.ColZipCode, domain.ColCreatedOn, domain.ColPledgeAmount}

var canonicalBySpelling = func() map[string]string {
	m := make(map[string]string, len(ColumnMapping))
	for _, alias := range ColumnMapping {
		m[alias.Spelling] = alias.Canonical
	}
	return m
}()

// NormalizeHeader trims a header and collapses runs of whitespace
func NormalizeHeader(h string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(h), " ")
}

// MapHeaders normalizes each header and rewrites known spellings to their
// canonical name. Unknown headers pass through normalized.
func MapHeaders(headers []string) []string {
	mapped := make([]string, len(headers))
	for i, h := range headers {
		h = NormalizeHeader(h)
		if canonical, ok := canonicalBySpelling[h]; ok {
			h = canonical
		}
		mapped[i] = h
	}
	return mapped
}

// MissingRequired returns the required columns absent from headers
func MissingRequired(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
