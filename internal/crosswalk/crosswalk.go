package crosswalk

import (
	"sort"
	"strings"

	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/workbook"
	"liheapcli/pkg/contracts/domain"
)

// HUD ZIP-COUNTY crosswalk columns
const (
	ColZIP    = "ZIP"
	ColCounty = "COUNTY"
	ColState  = "USPS_ZIP_PREF_STATE"
	ColRatio  = "TOT_RATIO"
)

// Row is one ZIP/county pair of the HUD crosswalk
type Row struct {
	Zip    string
	County string
	State  string
	Ratio  float64
}

// DeriveCountyFIPS extracts the five-digit county FIPS code from a LAUS
// series ID: state digits at [5:7] and county digits at [7:10], so
// "LAUCN060010000000003" yields "06001". IDs shorter than ten characters
// or with non-numeric code digits report false.
func DeriveCountyFIPS(seriesID string) (string, bool) {
	id := strings.TrimSpace(seriesID)
	if len(id) < 10 {
		return "", false
	}
	return workbook.NormalizeCode(id[5:7]+id[7:10], 5)
}

// ReadRows loads the first sheet of a HUD crosswalk workbook
func ReadRows(path string) ([]Row, error) {
	table, err := workbook.ReadTable(path, "")
	if err != nil {
		return nil, err
	}
	if missing := table.Missing(ColZIP, ColCounty, ColState, ColRatio); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(path, missing)
	}

	zipCol := table.Col(ColZIP)
	countyCol := table.Col(ColCounty)
	stateCol := table.Col(ColState)
	ratioCol := table.Col(ColRatio)

	rows := make([]Row, 0, table.Len())
	for _, r := range table.Rows {
		ratio, _ := workbook.ParseFloat(table.Get(r, ratioCol))
		rows = append(rows, Row{
			Zip:    table.Get(r, zipCol),
			County: table.Get(r, countyCol),
			State:  table.Get(r, stateCol),
			Ratio:  ratio,
		})
	}
	return rows, nil
}

// DominantCounties assigns every ZIP of state to the county holding its
// largest TOT_RATIO. Ties go to the row that appears first. Rows whose ZIP
// or county code cannot be normalized are ignored. Output is sorted by ZIP.
func DominantCounties(rows []Row, state string) []domain.ZipCountyAssignment {
	best := make(map[string]domain.ZipCountyAssignment)
	for _, r := range rows {
		if !strings.EqualFold(strings.TrimSpace(r.State), state) {
			continue
		}
		zip, ok := workbook.NormalizeCode(r.Zip, 5)
		if !ok {
			continue
		}
		county, ok := workbook.NormalizeCode(r.County, 5)
		if !ok {
			continue
		}
		if cur, seen := best[zip]; seen && cur.Weight >= r.Ratio {
			continue
		}
		best[zip] = domain.ZipCountyAssignment{ZipCode: zip, CountyFIPS: county, Weight: r.Ratio}
	}

	out := make([]domain.ZipCountyAssignment, 0, len(best))
	for _, a := range best {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZipCode < out[j].ZipCode })
	return out
}
