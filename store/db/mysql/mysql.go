package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/hrygo/wealthsense/store"
	"github.com/hrygo/wealthsense/store/db/dbutil"
)

type DB struct {
	db *sql.DB
}

// NewDB opens a MySQL database. parseTime is forced on so DATETIME and
// TIMESTAMP columns arrive as time.Time, and times are read in UTC.
func NewDB(dsn string) (store.Driver, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse mysql dsn")
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mysql connector")
	}
	mysqlDB := sql.OpenDB(connector)

	mysqlDB.SetMaxOpenConns(10)
	mysqlDB.SetMaxIdleConns(5)
	mysqlDB.SetConnMaxLifetime(30 * time.Minute)
	mysqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return &DB{db: mysqlDB}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (*DB) Dialect() string {
	return "mysql"
}

func (d *DB) DescribeSchema(ctx context.Context) ([]*store.TableSchema, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, store.WrapUnavailable(errors.Wrap(err, "failed to describe schema"))
	}
	defer rows.Close()

	return dbutil.CollectSchema(rows)
}

// ExecuteReadOnly uses START TRANSACTION READ ONLY; MySQL rejects writes inside it.
func (d *DB) ExecuteReadOnly(ctx context.Context, query string, maxRows int) (*store.QueryResult, error) {
	return dbutil.QueryReadOnly(ctx, d.db, &sql.TxOptions{ReadOnly: true}, query, maxRows)
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

func whereSince(find *store.FindTransaction) (string, []any) {
	if find == nil || find.Since == nil {
		return "", nil
	}
	return " WHERE transaction_date >= ?", []any{find.Since.UTC()}
}
