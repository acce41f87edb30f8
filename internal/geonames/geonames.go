package geonames

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column positions in the GeoNames postal code dump
const (
	colPostalCode = 1
	colPlaceName  = 2
)

// Places maps 5-digit ZIP codes to upper-cased place names
type Places struct {
	Source string
	Names  map[string]string
}

// Get returns the place name of a ZIP code
func (p Places) Get(zip string) (string, bool) {
	name, ok := p.Names[zip]
	return name, ok
}

// Len returns the number of ZIP codes known
func (p Places) Len() int {
	return len(p.Names)
}

// Lookup loads a ZIP to place-name mapping
type Lookup interface {
	Source() string
	Load(ctx context.Context) (Places, error)
}

// ErrEmpty is returned when a source parsed successfully but held no usable rows
var ErrEmpty = errors.New("no postal codes found")

// ParseTSV reads the tab-separated GeoNames layout. The first place name seen
// for a postal code wins; rows with a blank code or name are ignored.
func ParseTSV(r io.Reader, source string) (Places, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	upper := cases.Upper(language.Und)
	names := make(map[string]string)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Places{}, fmt.Errorf("failed to read %s: %w", source, err)
		}
		if len(record) <= colPlaceName {
			continue
		}
		code := strings.TrimSpace(record[colPostalCode])
		place := strings.TrimSpace(record[colPlaceName])
		if code == "" || place == "" {
			continue
		}
		if _, seen := names[code]; !seen {
			names[code] = upper.String(place)
		}
	}

	if len(names) == 0 {
		return Places{}, fmt.Errorf("%s: %w", source, ErrEmpty)
	}
	return Places{Source: source, Names: names}, nil
}

// ParseArchive extracts member from a zip archive held in memory and parses it
func ParseArchive(data []byte, member, source string) (Places, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Places{}, fmt.Errorf("failed to open archive: %w", err)
	}

	f, err := zr.Open(member)
	if err != nil {
		return Places{}, fmt.Errorf("archive member %s: %w", member, err)
	}
	defer f.Close()

	return ParseTSV(f, source)
}
