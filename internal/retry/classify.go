package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// statusCoder is implemented by errors that carry an HTTP status, such as ai.StatusError.
type statusCoder interface {
	StatusCode() int
}

// IsTransientExternal reports whether a completion, embedding or search call
// is worth repeating: throttling, server-side failures and timeouts.
func IsTransientExternal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// IsTransientStorage reports connection and transaction failures of the
// document store.
func IsTransientStorage(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) < 2 {
			return false
		}
		// 08: connection exception, 40: transaction rollback, 57P0x: server shutting down
		switch pgErr.Code[:2] {
		case "08", "40":
			return true
		case "57":
			return pgErr.Code != "57014"
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// Never marks every error as permanent.
func Never(error) bool { return false }
