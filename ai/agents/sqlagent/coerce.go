package sqlagent

import (
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hrygo/wealthsense/store"
	"github.com/hrygo/wealthsense/store/db/dbutil"
)

var numericTypes = map[string]bool{
	"DECIMAL": true, "NUMERIC": true, "DEC": true,
	"INT": true, "INTEGER": true, "TINYINT": true, "SMALLINT": true, "MEDIUMINT": true, "BIGINT": true,
	"INT2": true, "INT4": true, "INT8": true,
	"FLOAT": true, "FLOAT4": true, "FLOAT8": true, "DOUBLE": true, "REAL": true,
}

// baseType strips length, precision and signedness: "UNSIGNED BIGINT" and
// "DECIMAL(15, 2)" become "BIGINT" and "DECIMAL".
func baseType(dbType string) string {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimPrefix(t, "UNSIGNED ")
	if fields := strings.Fields(t); len(fields) > 0 {
		t = fields[0]
	}
	return t
}

func isNumericType(dbType string) bool {
	return numericTypes[baseType(dbType)]
}

func isTemporalType(dbType string) bool {
	switch baseType(dbType) {
	case "DATE", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ", "TIME", "TIMETZ":
		return true
	}
	return false
}

// formatTime renders t as ISO-8601: a calendar date for DATE columns,
// RFC 3339 otherwise.
func formatTime(t time.Time, dbType string) string {
	if baseType(dbType) == "DATE" {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// CoerceValue converts a raw driver value into its payload form: numbers
// become decimal.Decimal, temporal values ISO-8601 strings and byte strings
// text. Values that fail to convert are kept as text.
func CoerceValue(v any, col *store.Column) any {
	dbType := ""
	if col != nil {
		dbType = col.DatabaseType
	}

	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return val
	case int64:
		return decimal.NewFromInt(val)
	case int32:
		return decimal.NewFromInt32(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(val), 0)
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat32(val)
	case decimal.Decimal:
		return val
	case time.Time:
		return formatTime(val, dbType)
	case []byte:
		return coerceText(string(val), dbType)
	case string:
		return coerceText(val, dbType)
	default:
		return val
	}
}

func coerceText(s, dbType string) any {
	switch {
	case isNumericType(dbType):
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			return d
		}
	case isTemporalType(dbType):
		if t, err := dbutil.ParseTime(s); err == nil && !t.IsZero() {
			return formatTime(t, dbType)
		}
	}
	return s
}

// CoerceRows applies CoerceValue to every cell.
func CoerceRows(columns []*store.Column, rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		coerced := make([]any, len(row))
		for j, v := range row {
			var col *store.Column
			if j < len(columns) {
				col = columns[j]
			}
			coerced[j] = CoerceValue(v, col)
		}
		out[i] = coerced
	}
	return out
}
