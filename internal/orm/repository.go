package orm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Masterminds/squirrel"
)

// Repository runs single-table statements for model type T.
// It never traverses relationships; related rows are loaded with their own query.
type Repository[T any] struct {
	db                DBExecutor
	metadata          *ModelMetadata
	selectColumns     []string
	middlewareManager *middlewareManager
}

// NewRepository creates a repository for T. When metadata is nil it is derived
// from T's struct tags.
func NewRepository[T any](db DBExecutor, metadata *ModelMetadata) (*Repository[T], error) {
	if db == nil {
		return nil, fmt.Errorf("orm: nil database executor")
	}

	if metadata == nil {
		var err error
		metadata, err = MetadataFor[T]()
		if err != nil {
			return nil, err
		}
	} else {
		var zero T
		if err := metadata.bind(reflect.TypeOf(zero)); err != nil {
			return nil, err
		}
	}

	return &Repository[T]{
		db:            db,
		metadata:      metadata,
		selectColumns: metadata.ColumnNames(),
	}, nil
}

// Metadata returns the table description the repository works against
func (r *Repository[T]) Metadata() *ModelMetadata {
	return r.metadata
}

// Columns returns the selected column list
func (r *Repository[T]) Columns() []string {
	return r.selectColumns
}

func (r *Repository[T]) returning() string {
	return "RETURNING " + strings.Join(r.selectColumns, ", ")
}

// FindByID loads the row whose single-column primary key equals id.
// A missing row yields an *Error wrapping ErrNotFound.
func (r *Repository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	if len(r.metadata.PrimaryKeys) != 1 {
		return nil, &Error{Op: "find_by_id", Table: r.metadata.TableName, Err: fmt.Errorf("%w: FindByID needs exactly one primary key", ErrNoPrimaryKey)}
	}

	builder := squirrel.Select(r.selectColumns...).
		From(r.metadata.QuotedTableName()).
		Where(squirrel.Eq{r.metadata.PrimaryKeys[0]: id}).
		PlaceholderFormat(squirrel.Dollar)

	var record T
	err := r.executeQueryMiddleware(OpFind, ctx, nil, builder, func(mctx *MiddlewareContext) error {
		sqlQuery, args, err := mctx.QueryBuilder.(squirrel.SelectBuilder).ToSql()
		if err != nil {
			return &Error{Op: "find_by_id", Table: r.metadata.TableName, Err: fmt.Errorf("failed to build query: %w", err)}
		}

		if err := r.db.GetContext(ctx, &record, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "find_by_id", r.metadata.TableName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Create inserts record and scans the stored row, including generated
// columns, back into it. Auto-increment columns are never sent; columns with
// a database default are omitted while they hold their zero value.
func (r *Repository[T]) Create(ctx context.Context, record *T) error {
	if record == nil {
		return &Error{Op: "create", Table: r.metadata.TableName, Err: ErrInvalidStruct}
	}

	value := reflect.ValueOf(record).Elem()
	columns := make([]string, 0, len(r.metadata.Fields))
	values := make([]interface{}, 0, len(r.metadata.Fields))

	for _, col := range r.metadata.Fields {
		fv := value.FieldByIndex(col.index)
		if col.AutoIncrement {
			continue
		}
		if col.HasDefault && fv.IsZero() {
			continue
		}
		columns = append(columns, col.DBName)
		values = append(values, fv.Interface())
	}

	if len(columns) == 0 {
		return &Error{Op: "create", Table: r.metadata.TableName, Err: errors.New("no insertable columns")}
	}

	builder := squirrel.Insert(r.metadata.QuotedTableName()).
		Columns(columns...).
		Values(values...).
		Suffix(r.returning()).
		PlaceholderFormat(squirrel.Dollar)

	return r.executeQueryMiddleware(OpCreate, ctx, record, builder, func(mctx *MiddlewareContext) error {
		sqlQuery, args, err := mctx.QueryBuilder.(squirrel.InsertBuilder).ToSql()
		if err != nil {
			return &Error{Op: "create", Table: r.metadata.TableName, Err: fmt.Errorf("failed to build insert: %w", err)}
		}

		if err := r.db.QueryRowxContext(ctx, sqlQuery, args...).StructScan(record); err != nil {
			return ParsePostgreSQLError(err, "create", r.metadata.TableName)
		}
		return nil
	})
}

// Update writes every non primary key column of record and scans the stored
// row back. A row that no longer exists yields ErrNotFound.
func (r *Repository[T]) Update(ctx context.Context, record *T) error {
	if record == nil {
		return &Error{Op: "update", Table: r.metadata.TableName, Err: ErrInvalidStruct}
	}

	value := reflect.ValueOf(record).Elem()
	builder := squirrel.Update(r.metadata.QuotedTableName()).PlaceholderFormat(squirrel.Dollar)

	for _, col := range r.metadata.Fields {
		if col.IsPrimaryKey {
			continue
		}
		builder = builder.Set(col.DBName, value.FieldByIndex(col.index).Interface())
	}

	builder = builder.Where(r.primaryKeyCondition(value)).Suffix(r.returning())

	return r.executeQueryMiddleware(OpUpdate, ctx, record, builder, func(mctx *MiddlewareContext) error {
		sqlQuery, args, err := mctx.QueryBuilder.(squirrel.UpdateBuilder).ToSql()
		if err != nil {
			return &Error{Op: "update", Table: r.metadata.TableName, Err: fmt.Errorf("failed to build update: %w", err)}
		}

		if err := r.db.QueryRowxContext(ctx, sqlQuery, args...).StructScan(record); err != nil {
			return ParsePostgreSQLError(err, "update", r.metadata.TableName)
		}
		return nil
	})
}

// DeleteRecord removes the row identified by record's primary key
func (r *Repository[T]) DeleteRecord(ctx context.Context, record *T) error {
	if record == nil {
		return &Error{Op: "delete", Table: r.metadata.TableName, Err: ErrInvalidStruct}
	}
	return r.delete(ctx, record, r.primaryKeyCondition(reflect.ValueOf(record).Elem()))
}

// Delete removes the row whose single-column primary key equals id
func (r *Repository[T]) Delete(ctx context.Context, id interface{}) error {
	if len(r.metadata.PrimaryKeys) != 1 {
		return &Error{Op: "delete", Table: r.metadata.TableName, Err: fmt.Errorf("%w: Delete needs exactly one primary key", ErrNoPrimaryKey)}
	}
	return r.delete(ctx, nil, squirrel.Eq{r.metadata.PrimaryKeys[0]: id})
}

func (r *Repository[T]) delete(ctx context.Context, record interface{}, where squirrel.Eq) error {
	builder := squirrel.Delete(r.metadata.QuotedTableName()).
		Where(where).
		PlaceholderFormat(squirrel.Dollar)

	return r.executeQueryMiddleware(OpDelete, ctx, record, builder, func(mctx *MiddlewareContext) error {
		sqlQuery, args, err := mctx.QueryBuilder.(squirrel.DeleteBuilder).ToSql()
		if err != nil {
			return &Error{Op: "delete", Table: r.metadata.TableName, Err: fmt.Errorf("failed to build delete: %w", err)}
		}

		result, err := r.db.ExecContext(ctx, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "delete", r.metadata.TableName)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return &Error{Op: "delete", Table: r.metadata.TableName, Err: fmt.Errorf("failed to get rows affected: %w", err)}
		}
		if rows == 0 {
			return &Error{Op: "delete", Table: r.metadata.TableName, Err: ErrNotFound}
		}
		return nil
	})
}

func (r *Repository[T]) primaryKeyCondition(value reflect.Value) squirrel.Eq {
	where := squirrel.Eq{}
	for _, pk := range r.metadata.PrimaryKeys {
		col := r.metadata.ColumnByDBName(pk)
		where[pk] = value.FieldByIndex(col.index).Interface()
	}
	return where
}
