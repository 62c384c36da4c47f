package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// mysqlConnErrNums are server-side MySQL errors that indicate the connection
// or server, rather than the statement, is at fault.
var mysqlConnErrNums = map[uint16]bool{
	1040: true, // ER_CON_COUNT_ERROR: too many connections
	1042: true, // ER_BAD_HOST_ERROR
	1043: true, // ER_HANDSHAKE_ERROR
	1053: true, // ER_SERVER_SHUTDOWN
	1081: true, // ER_IPSOCK_ERROR
	1152: true, // ER_ABORTING_CONNECTION
	1184: true, // ER_NEW_ABORTING_CONNECTION
}

// IsConnectionError reports whether err signals a connection or transport
// failure rather than a statement-level problem. Callers use this to decide
// between a retryable unavailability condition and a genuine request error.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	var perr *pq.Error
	if errors.As(err, &perr) {
		// Class 08: connection exception. Class 57: operator
		// intervention (shutdown, crash-recovery).
		switch perr.Code.Class() {
		case "08", "57":
			return true
		}
		return false
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return mysqlConnErrNums[merr.Number]
	}
	return false
}

// IsCanceled reports whether err was caused by context cancellation or
// deadline expiry of the in-flight execution call.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
