// Package testing provides a throwaway PostgreSQL database for integration
// tests. Tests using it are skipped unless TEST_DATABASE_URL is set.
package testing

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// EnvTestDatabaseURL names the server used for integration tests. Its
// database is only used to create and drop the throwaway databases.
const EnvTestDatabaseURL = "TEST_DATABASE_URL"

// TestDB provides a test database connection
type TestDB struct {
	DB      *sqlx.DB
	DBName  string
	ConnStr string
	baseURL string
	t       *testing.T
}

// NewTestDB creates a new, empty test database. It skips the test when
// TEST_DATABASE_URL is unset or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	baseURL := os.Getenv(EnvTestDatabaseURL)
	if baseURL == "" {
		t.Skipf("%s not set", EnvTestDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := sqlx.ConnectContext(ctx, "postgres", baseURL)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}

	dbName := fmt.Sprintf("test_tasks_%d", time.Now().UnixNano())
	if _, err := admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		admin.Close()
		t.Fatalf("Failed to create test database: %v", err)
	}
	admin.Close()

	connStr, err := withDatabase(baseURL, dbName)
	if err != nil {
		t.Fatalf("Failed to build test connection string: %v", err)
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	tdb := &TestDB{
		DB:      db,
		DBName:  dbName,
		ConnStr: connStr,
		baseURL: baseURL,
		t:       t,
	}
	t.Cleanup(tdb.Cleanup)
	return tdb
}

// Cleanup drops the test database. It is registered with t.Cleanup by NewTestDB.
func (tdb *TestDB) Cleanup() {
	tdb.DB.Close()

	db, err := sqlx.Open("postgres", tdb.baseURL)
	if err != nil {
		tdb.t.Logf("Failed to connect for cleanup: %v", err)
		return
	}
	defer db.Close()

	_, err = db.Exec(`
		SELECT pg_terminate_backend(pg_stat_activity.pid)
		FROM pg_stat_activity
		WHERE pg_stat_activity.datname = $1
		AND pid <> pg_backend_pid()
	`, tdb.DBName)
	if err != nil {
		tdb.t.Logf("Failed to terminate connections: %v", err)
	}

	if _, err := db.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", tdb.DBName)); err != nil {
		tdb.t.Logf("Failed to drop test database: %v", err)
	}
}

// ExecuteSQL executes SQL statements separated by semicolons
func (tdb *TestDB) ExecuteSQL(sql string) error {
	for _, stmt := range strings.Split(sql, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tdb.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute SQL: %w\nStatement: %s", err, stmt)
		}
	}
	return nil
}

// TableExists checks if a table exists
func (tdb *TestDB) TableExists(tableName string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`
	err := tdb.DB.Get(&exists, query, tableName)
	return exists, err
}

// GetColumnType returns the data type of a column
func (tdb *TestDB) GetColumnType(tableName, columnName string) (string, error) {
	var dataType string
	query := `
		SELECT data_type
		FROM information_schema.columns
		WHERE table_schema = 'public'
		AND table_name = $1
		AND column_name = $2
	`
	err := tdb.DB.Get(&dataType, query, tableName, columnName)
	return dataType, err
}

// ForeignKeyTarget returns the table referenced by a foreign key column, or "" when there is none
func (tdb *TestDB) ForeignKeyTarget(tableName, columnName string) (string, error) {
	var target []string
	query := `
		SELECT ccu.table_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = 'public'
		AND tc.table_name = $1
		AND kcu.column_name = $2
	`
	if err := tdb.DB.Select(&target, query, tableName, columnName); err != nil {
		return "", err
	}
	if len(target) == 0 {
		return "", nil
	}
	return target[0], nil
}

func withDatabase(baseURL, dbName string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("%s must be a postgres:// URL", EnvTestDatabaseURL)
	}
	u.Path = "/" + dbName
	return u.String(), nil
}
