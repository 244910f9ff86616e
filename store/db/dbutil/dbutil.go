// Package dbutil holds the database/sql plumbing shared by the relational drivers.
package dbutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/wealthsense/store"
)

// TransactionColumns is the projection used by every driver for the transactions table.
const TransactionColumns = "id, client_name, transaction_type, stock_symbol, quantity, price_per_share, total_amount, transaction_date, status, relationship_manager"

// QueryReadOnly runs query inside a transaction begun with opts and always
// rolls it back, so nothing the statement does can be committed.
func QueryReadOnly(ctx context.Context, db *sql.DB, opts *sql.TxOptions, query string, maxRows int) (*store.QueryResult, error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, store.WrapUnavailable(errors.Wrap(err, "failed to begin read-only transaction"))
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, store.WrapUnavailable(err)
	}
	defer rows.Close()

	return collect(rows, maxRows)
}

func collect(rows *sql.Rows, maxRows int) (*store.QueryResult, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, store.WrapUnavailable(err)
	}
	result := &store.QueryResult{
		Columns: make([]*store.Column, len(types)),
		Rows:    [][]any{},
	}
	for i, ct := range types {
		result.Columns[i] = &store.Column{
			Name:         ct.Name(),
			DatabaseType: strings.ToUpper(ct.DatabaseTypeName()),
		}
	}

	for rows.Next() {
		if maxRows > 0 && len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}
		values := make([]any, len(types))
		dest := make([]any, len(types))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, store.WrapUnavailable(err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, store.WrapUnavailable(err)
	}
	return result, nil
}

// CollectSchema groups (table, column, type) rows, ordered by table, into table schemas.
func CollectSchema(rows *sql.Rows) ([]*store.TableSchema, error) {
	var tables []*store.TableSchema
	var current *store.TableSchema
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, errors.Wrap(err, "failed to scan schema row")
		}
		if current == nil || current.Name != table {
			current = &store.TableSchema{Name: table}
			tables = append(tables, current)
		}
		current.Columns = append(current.Columns, &store.Column{
			Name:         column,
			DatabaseType: strings.ToUpper(dataType),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, store.WrapUnavailable(err)
	}
	return tables, nil
}

// LimitClause renders a LIMIT clause, or nothing when limit <= 0.
func LimitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

// ScanTransaction scans one row selected with TransactionColumns.
func ScanTransaction(rows *sql.Rows) (*store.Transaction, error) {
	var t store.Transaction
	var date any
	if err := rows.Scan(
		&t.ID,
		&t.ClientName,
		&t.TransactionType,
		&t.StockSymbol,
		&t.Quantity,
		&t.PricePerShare,
		&t.TotalAmount,
		&date,
		&t.Status,
		&t.RelationshipManager,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan transaction")
	}
	parsed, err := ParseTime(date)
	if err != nil {
		return nil, err
	}
	t.TransactionDate = parsed
	return &t, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime converts a driver-provided temporal value into time.Time.
// Drivers differ: time.Time (pq, mysql with parseTime, sqlite DATETIME), or text.
func ParseTime(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case []byte:
		return ParseTime(string(val))
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errors.Errorf("unrecognized time value %q", val)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, errors.Errorf("unsupported time value of type %T", v)
	}
}
