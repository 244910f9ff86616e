package store

import (
	"fmt"
	"strings"
)

// TableSchema describes one relational table.
type TableSchema struct {
	Name    string    `json:"name"`
	Columns []*Column `json:"columns"`
}

// Column describes one column of a table or of a result set.
type Column struct {
	Name         string `json:"name"`
	DatabaseType string `json:"database_type"` // upper-cased engine type name, e.g. DECIMAL, DATETIME
}

// ColumnNames returns the column names in table order.
func (t *TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// String renders the table as "name(col TYPE, ...)".
func (t *TableSchema) String() string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if c.DatabaseType == "" {
			cols[i] = c.Name
			continue
		}
		cols[i] = fmt.Sprintf("%s %s", c.Name, c.DatabaseType)
	}
	return fmt.Sprintf("%s(%s)", t.Name, strings.Join(cols, ", "))
}

// QueryResult is the raw result of a read-only statement.
type QueryResult struct {
	Columns   []*Column
	Rows      [][]any
	Truncated bool // more rows were available than the cap allowed
}
