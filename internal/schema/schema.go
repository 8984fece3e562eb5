// Package schema renders and applies the CREATE TABLE statements for the
// service's models. Tables are only ever created; existing tables are left untouched.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/eleven-am/tasks/internal/logger"
	"github.com/eleven-am/tasks/internal/orm"
)

// Execer is the subset of *sqlx.DB needed to apply DDL
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for one model
func CreateTableSQL(meta *orm.ModelMetadata) (string, error) {
	if len(meta.Fields) == 0 {
		return "", fmt.Errorf("table %s has no columns", meta.TableName)
	}

	inlinePK := len(meta.PrimaryKeys) == 1
	lines := make([]string, 0, len(meta.Fields)+1)

	for _, col := range meta.Fields {
		if col.SQLType == "" {
			return "", fmt.Errorf("column %s.%s has no type", meta.TableName, col.DBName)
		}

		parts := []string{col.DBName, strings.ToUpper(col.SQLType)}
		if col.IsPrimaryKey && inlinePK {
			parts = append(parts, "PRIMARY KEY")
		} else if col.NotNull {
			parts = append(parts, "NOT NULL")
		}
		if col.HasDefault {
			parts = append(parts, "DEFAULT "+col.Default)
		}
		if col.ForeignKey != "" {
			table, column, err := splitReference(col.ForeignKey)
			if err != nil {
				return "", fmt.Errorf("column %s.%s: %w", meta.TableName, col.DBName, err)
			}
			ref := fmt.Sprintf("REFERENCES %s (%s)", orm.QuoteIdentifier(table), column)
			if col.OnDelete != "" {
				ref += " ON DELETE " + strings.ToUpper(col.OnDelete)
			}
			parts = append(parts, ref)
		}

		lines = append(lines, "\t"+strings.Join(parts, " "))
	}

	if !inlinePK {
		lines = append(lines, fmt.Sprintf("\tPRIMARY KEY (%s)", strings.Join(meta.PrimaryKeys, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", meta.QuotedTableName(), strings.Join(lines, ",\n")), nil
}

// Statements returns the DDL for metas with referenced tables first.
// Tables without dependencies keep their argument order.
func Statements(metas ...*orm.ModelMetadata) ([]string, error) {
	sorted, err := sortByDependencies(metas)
	if err != nil {
		return nil, err
	}

	statements := make([]string, 0, len(sorted))
	for _, meta := range sorted {
		stmt, err := CreateTableSQL(meta)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

// Ensure creates every missing table. Each statement runs on its own.
func Ensure(ctx context.Context, db Execer, metas ...*orm.ModelMetadata) error {
	log := logger.Schema()

	sorted, err := sortByDependencies(metas)
	if err != nil {
		return fmt.Errorf("failed to build schema: %w", err)
	}

	for _, meta := range sorted {
		stmt, err := CreateTableSQL(meta)
		if err != nil {
			return fmt.Errorf("failed to build schema: %w", err)
		}

		log.Debug("Applying table definition", "table", meta.TableName, "statement", stmt)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return orm.ParsePostgreSQLError(err, "create_table", meta.TableName)
		}
	}

	log.Info("Schema ready", "tables", len(sorted))
	return nil
}

func splitReference(ref string) (string, string, error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("foreign key must be in format 'table.column', got: %s", ref)
	}
	return parts[0], parts[1], nil
}

func sortByDependencies(metas []*orm.ModelMetadata) ([]*orm.ModelMetadata, error) {
	byName := make(map[string]*orm.ModelMetadata, len(metas))
	for _, meta := range metas {
		byName[meta.TableName] = meta
	}

	sorted := make([]*orm.ModelMetadata, 0, len(metas))
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(meta *orm.ModelMetadata) error
	visit = func(meta *orm.ModelMetadata) error {
		if visited[meta.TableName] {
			return nil
		}
		if visiting[meta.TableName] {
			return fmt.Errorf("circular dependency detected involving table %s", meta.TableName)
		}
		visiting[meta.TableName] = true

		for _, col := range meta.Fields {
			if col.ForeignKey == "" {
				continue
			}
			table, _, err := splitReference(col.ForeignKey)
			if err != nil {
				return err
			}
			if dep, ok := byName[table]; ok && table != meta.TableName {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visiting[meta.TableName] = false
		visited[meta.TableName] = true
		sorted = append(sorted, meta)
		return nil
	}

	for _, meta := range metas {
		if err := visit(meta); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}
