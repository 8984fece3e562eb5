package database

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/eleven-am/tasks/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const driverName = "postgres"

type DBConfig struct {
	URL             string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

func NewDBConfig(url string) *DBConfig {
	return &DBConfig{
		URL:             url,
		ConnMaxLifetime: 10 * time.Minute,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
	}
}

// Connect opens the process-wide pool and verifies it with a ping
func (cfg *DBConfig) Connect(ctx context.Context) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sqlx.Open(driverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.DB().Info("Connected to database", "max_open_conns", cfg.MaxOpenConns)
	return db, nil
}

// EnsureDatabaseExists creates the database named in dsn when it is missing,
// connecting through the "postgres" maintenance database.
func EnsureDatabaseExists(ctx context.Context, dsn string) error {
	dbName, adminDSN, err := parseAndModifyDSN(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse DSN: %w", err)
	}

	adminDB, err := sqlx.Open(driverName, adminDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer adminDB.Close()

	return createIfMissing(ctx, adminDB, dbName)
}

func createIfMissing(ctx context.Context, adminDB *sqlx.DB, dbName string) error {
	log := logger.DB().WithField("database", dbName)

	var exists bool
	err := adminDB.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if exists {
		log.Debug("Database already exists")
		return nil
	}

	log.Info("Database does not exist, creating")
	if _, err := adminDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", quoteIdentifier(dbName))); err != nil {
		return fmt.Errorf("failed to create database %s: %w", dbName, err)
	}

	return nil
}

// parseAndModifyDSN extracts the database name and returns an admin DSN.
// Both URL ("postgres://...") and keyword ("host=... dbname=...") forms are accepted.
func parseAndModifyDSN(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("failed to parse URL: %w", err)
		}

		dbName := strings.TrimPrefix(u.Path, "/")
		if dbName == "" {
			return "", "", fmt.Errorf("no database name in URL")
		}

		u.Path = "/postgres"
		return dbName, u.String(), nil
	}

	params := make(map[string]string)
	for _, part := range strings.Fields(dsn) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		params[kv[0]] = kv[1]
	}

	dbName, ok := params["dbname"]
	if !ok || dbName == "" {
		return "", "", fmt.Errorf("no dbname found in DSN")
	}

	params["dbname"] = "postgres"
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}

	return dbName, strings.Join(parts, " "), nil
}

// quoteIdentifier quotes a PostgreSQL identifier to prevent SQL injection
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
