// Package dialect provides the database abstraction consumed by relkit.
//
// It defines the interfaces and constants used for database-specific
// operations, allowing relkit to target PostgreSQL, MySQL, and SQLite
// through one narrow surface.
//
// # Dialect Constants
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
// The Driver interface is the only thing relkit requires from a database
// client: execute a statement with bound parameters, return either an
// affected-row count or decoded rows, and report failures.
//
// # Usage
//
// Opening a database connection:
//
//	import (
//	    "github.com/relkit/relkit/dialect"
//	    "github.com/relkit/relkit/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// The dialect/sql sub-package implements Driver on top of database/sql.
package dialect
