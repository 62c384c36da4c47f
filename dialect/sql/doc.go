// Package sql implements the dialect.Driver contract on top of the standard
// database/sql package.
//
// It provides the connection wrapper relkit executes statements through,
// plus optional instrumentation (statistics collection, slow-query and debug
// logging) and classification of driver errors into transport failures
// versus statement-level problems for the lib/pq and go-sql-driver/mysql
// drivers.
//
// Opening a driver:
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://localhost/app")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// With statistics and slow-query logging:
//
//	drv, stats, err := sql.OpenWithStats(dialect.Postgres, dsn,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
package sql
