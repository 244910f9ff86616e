package sqlagent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReadOnly_Accepts(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT * FROM transactions", "SELECT * FROM transactions"},
		{"  select name from relationship_managers;  ", "select name from relationship_managers"},
		{"WITH t AS (SELECT 1) SELECT * FROM t", "WITH t AS (SELECT 1) SELECT * FROM t"},
		{"(SELECT 1)", "(SELECT 1)"},
		{"SHOW TABLES", "SHOW TABLES"},
		{"DESCRIBE transactions", "DESCRIBE transactions"},
		{"EXPLAIN SELECT 1", "EXPLAIN SELECT 1"},
		{"-- top clients\nSELECT client_name FROM transactions", "-- top clients\nSELECT client_name FROM transactions"},
		{"SELECT /* total */ SUM(total_amount) FROM transactions", "SELECT /* total */ SUM(total_amount) FROM transactions"},
		{"SELECT 1; -- done", "SELECT 1"},
		{"SELECT 1 -- a; b", "SELECT 1"},
		{"SELECT updated_at, created_by FROM t", "SELECT updated_at, created_by FROM t"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CheckReadOnly(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckReadOnly_QuotedTextIsLeftAlone(t *testing.T) {
	tests := []string{
		"SELECT client_name FROM transactions WHERE stock_symbol = '/*' OR status = '*/'",
		"SELECT client_name FROM transactions WHERE stock_symbol = 'A--B' AND status = 'COMPLETED'",
		"SELECT client_name FROM transactions WHERE status = 'done; ok'",
		"SELECT client_name FROM transactions WHERE stock_symbol = 'Call option'",
		"SELECT client_name FROM transactions WHERE client_name = 'O''Brien; DROP TABLE x'",
		`SELECT "delete" FROM "update"`,
		"SELECT `insert` FROM transactions",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := CheckReadOnly(in)
			require.NoError(t, err)
			assert.Equal(t, in, got)
		})
	}
}

func TestCheckReadOnly_Rejects(t *testing.T) {
	tests := []string{
		"",
		"   ;  ",
		"DELETE FROM transactions",
		"UPDATE transactions SET status = 'FAILED'",
		"INSERT INTO transactions VALUES (1)",
		"DROP TABLE transactions",
		"SELECT 1; DROP TABLE transactions",
		"SELECT * INTO backup FROM transactions",
		"WITH d AS (DELETE FROM transactions RETURNING *) SELECT * FROM d",
		"PRAGMA writable_schema = 1",
		"ATTACH DATABASE 'x.db' AS x",
		"/* SELECT */ TRUNCATE transactions",
		"select 1; select 2",
		"SELECT 'a'; DELETE FROM transactions",
		"SELECT 'unterminated",
		"SELECT 1 /* open",
		`SELECT 'a\' ; DELETE FROM transactions; --'`,
		"-- SELECT\nDELETE FROM transactions",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := CheckReadOnly(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotReadOnly)
		})
	}
}
