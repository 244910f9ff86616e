package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/wealthsense/store"
	"github.com/hrygo/wealthsense/store/db/dbutil"
)

// ============================================================================
// SQLITE SUPPORT POLICY
// ============================================================================
// SQLite is supported for development and tests. The handle opened here is
// query-only: every connection carries PRAGMA query_only, so the agent and
// the dashboard can read but never change the file. Seeding happens through
// a separate writable handle owned by whoever prepares the file.
// ============================================================================

type DB struct {
	db *sql.DB
}

// NewDB opens a database specified by its database driver name and a
// driver-specific data source name, usually consisting of at least a
// database name and connection information.
func NewDB(dsn string) (store.Driver, error) {
	// Ensure a DSN is set before attempting to open the database.
	if dsn == "" {
		return nil, errors.New("dsn required")
	}

	// Notes:
	// - When using the `modernc.org/sqlite` driver, each pragma must be prefixed with `_pragma=`.
	// - query_only is per connection, so it is part of the DSN rather than a one-off statement.
	//
	// References:
	// - https://pkg.go.dev/modernc.org/sqlite#Driver.Open
	// - https://www.sqlite.org/pragma.html#pragma_query_only
	sqliteDB, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", dsn)
	}

	sqliteDB.SetMaxOpenConns(4)
	sqliteDB.SetMaxIdleConns(4)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	return &DB{db: sqliteDB}, nil
}

func withPragmas(dsn string) string {
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + "_pragma=busy_timeout(10000)&_pragma=query_only(1)"
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (*DB) Dialect() string {
	return "sqlite"
}

func (d *DB) DescribeSchema(ctx context.Context) ([]*store.TableSchema, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT m.name, p.name, p.type
		FROM sqlite_master m
		JOIN pragma_table_info(m.name) p
		WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
		ORDER BY m.name, p.cid`)
	if err != nil {
		return nil, store.WrapUnavailable(errors.Wrap(err, "failed to describe schema"))
	}
	defer rows.Close()

	return dbutil.CollectSchema(rows)
}

// ExecuteReadOnly relies on the query_only pragma; the transaction is still
// rolled back so nothing outlives the call.
func (d *DB) ExecuteReadOnly(ctx context.Context, query string, maxRows int) (*store.QueryResult, error) {
	return dbutil.QueryReadOnly(ctx, d.db, nil, query, maxRows)
}

func (d *DB) ListTransactions(ctx context.Context, find *store.FindTransaction) ([]*store.Transaction, error) {
	if find == nil {
		find = &store.FindTransaction{}
	}
	where, args := whereSince(find)
	query := "SELECT " + dbutil.TransactionColumns + " FROM transactions" + where +
		" ORDER BY transaction_date DESC" + dbutil.LimitClause(find.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.WrapUnavailable(errors.Wrap(err, "failed to list transactions"))
	}
	defer rows.Close()

	list := []*store.Transaction{}
	for rows.Next() {
		t, err := dbutil.ScanTransaction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.WrapUnavailable(err)
	}
	return list, nil
}

func (d *DB) CountTransactions(ctx context.Context, find *store.FindTransaction) (int64, error) {
	where, args := whereSince(find)
	var count int64
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions"+where, args...).Scan(&count); err != nil {
		return 0, store.WrapUnavailable(errors.Wrap(err, "failed to count transactions"))
	}
	return count, nil
}

// Dates are stored as "YYYY-MM-DD HH:MM:SS" text, which orders lexically.
func whereSince(find *store.FindTransaction) (string, []any) {
	if find == nil || find.Since == nil {
		return "", nil
	}
	return " WHERE transaction_date >= ?", []any{find.Since.UTC().Format("2006-01-02 15:04:05")}
}
