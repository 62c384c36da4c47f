package dialect

import (
	"context"
)

// Supported dialect names.
const (
	// MySQL is the mysql dialect name.
	MySQL = "mysql"
	// SQLite is the sqlite dialect name.
	SQLite = "sqlite"
	// Postgres is the postgres dialect name.
	Postgres = "postgres"
)

// ExecQuerier wraps the two database operations relkit performs: executing a
// statement that reports an affected-row count, and executing a query that
// returns rows. Both accept bound arguments only; statement text never
// carries caller-supplied values.
type ExecQuerier interface {
	// Exec executes a query that does not return rows. The query result
	// is bound to v (typically *sql.Result).
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows. The rows are bound to v
	// (typically *sql.Rows).
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface a database client must implement to serve relkit
// relations. Connection pooling, retries, and backpressure are the driver's
// concern; relkit borrows the driver for one statement per operation, or
// one transaction for bulk inserts.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps transactional behavior on top of ExecQuerier.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx with a no-op Commit and Rollback on top of the driver.
func NopTx(d Driver) Tx {
	return nopTx{d}
}

