package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
)

// UnavailableError wraps a connectivity failure so that errors.Is(err, ErrUnavailable)
// holds while the driver's message is kept verbatim.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return e.Err.Error()
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// connectivityMarkers are message fragments drivers use for lost or refused connections.
var connectivityMarkers = []string{
	"connection refused",
	"no such host",
	"broken pipe",
	"connection reset",
	"database is closed",
	"invalid connection",
	"bad connection",
	"server has gone away",
	"i/o timeout",
}

// IsConnectivityError reports whether err means the store could not be reached,
// as opposed to the statement itself being wrong.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range connectivityMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// WrapUnavailable marks connectivity failures with ErrUnavailable and returns
// other errors untouched.
func WrapUnavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	if IsConnectivityError(err) {
		return &UnavailableError{Err: err}
	}
	return err
}
