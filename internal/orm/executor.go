package orm

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// DBExecutor represents an interface that can execute database operations.
// It can be satisfied by both *sqlx.DB and *sqlx.Tx, allowing repositories
// to work with either regular connections or transactions.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row

	// Rebind for driver-specific placeholders
	Rebind(query string) string

	// DriverName returns the driverName passed to the Open function for this DB.
	DriverName() string
}

// Compile-time checks to ensure both sqlx.DB and sqlx.Tx implement DBExecutor
var (
	_ DBExecutor = (*sqlx.DB)(nil)
	_ DBExecutor = (*sqlx.Tx)(nil)
)
