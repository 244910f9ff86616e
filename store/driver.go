package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

var (
	// ErrUnavailable marks failures reaching a store (connection refused, pool
	// closed, bad connection). Callers treat it as unrecoverable for the call.
	ErrUnavailable = errors.New("store unavailable")

	// ErrDocumentStoreUnavailable is returned when no document store was configured
	// or it could not be reached at startup.
	ErrDocumentStoreUnavailable = errors.New("document store unavailable")
)

// Driver is the relational store holding transactional and operational records.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Dialect is the SQL dialect name used in prompts: mysql, postgres or sqlite.
	Dialect() string

	// DescribeSchema lists user tables with their columns.
	DescribeSchema(ctx context.Context) ([]*TableSchema, error)

	// ExecuteReadOnly runs a single statement in a read-only transaction that is
	// always rolled back. At most maxRows rows are returned (maxRows <= 0 means no cap).
	ExecuteReadOnly(ctx context.Context, query string, maxRows int) (*QueryResult, error)

	ListTransactions(ctx context.Context, find *FindTransaction) ([]*Transaction, error)
	CountTransactions(ctx context.Context, find *FindTransaction) (int64, error)
}

// DocumentDriver is the document store holding client profiles.
type DocumentDriver interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	ListClients(ctx context.Context, find *FindClient) ([]*Client, error)
	GetClientStats(ctx context.Context) (*ClientStats, error)
}
