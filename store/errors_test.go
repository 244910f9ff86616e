package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConnectivityError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"conn done", fmt.Errorf("query: %w", sql.ErrConnDone), true},
		{"deadline", context.DeadlineExceeded, true},
		{"refused", errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"), true},
		{"closed pool", errors.New("sql: database is closed"), true},
		{"syntax", errors.New("Error 1064: You have an error in your SQL syntax"), false},
		{"unknown table", errors.New("no such table: users"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectivityError(tt.err))
		})
	}
}

func TestWrapUnavailable(t *testing.T) {
	refused := errors.New("dial tcp: connection refused")

	wrapped := WrapUnavailable(refused)
	assert.ErrorIs(t, wrapped, ErrUnavailable)
	assert.ErrorIs(t, wrapped, refused)
	assert.Equal(t, refused.Error(), wrapped.Error())

	// Already marked errors are not wrapped twice.
	assert.Same(t, wrapped, WrapUnavailable(wrapped))

	syntax := errors.New("syntax error near SELEC")
	assert.Same(t, syntax, WrapUnavailable(syntax))
	assert.NoError(t, WrapUnavailable(nil))
}
