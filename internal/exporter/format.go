package exporter

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// FormatValue renders a cell value for CSV output and checksums.
// Missing values render as the empty string.
func FormatValue(v any) string {
	switch val := cellValue(v).(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return formatInt(val)
	case float64:
		return formatFloat(val)
	case bool:
		return formatBool(val)
	case time.Time:
		return val.Format("2006-01-02")
	case decimal.Decimal:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// cellValue unwraps the nullable wrappers into a plain value or nil
func cellValue(v any) any {
	switch val := v.(type) {
	case decimal.NullDecimal:
		if !val.Valid {
			return nil
		}
		return val.Decimal
	case sql.NullFloat64:
		if !val.Valid {
			return nil
		}
		return val.Float64
	case sql.NullInt64:
		if !val.Valid {
			return nil
		}
		return val.Int64
	case sql.NullString:
		if !val.Valid {
			return nil
		}
		return val.String
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val
	default:
		return v
	}
}

// formatFloat formats a float with the shortest representation that round-trips
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
