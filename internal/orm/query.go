package orm

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Query provides a fluent interface for building single-table queries
type Query[T any] struct {
	repo *Repository[T]
	ctx  context.Context
	err  error

	limit       *uint64
	offset      *uint64
	orderBy     []string
	whereClause squirrel.And
}

func (r *Repository[T]) Query(ctx context.Context) *Query[T] {
	return &Query[T]{
		repo:        r,
		ctx:         ctx,
		whereClause: squirrel.And{},
	}
}

func (q *Query[T]) Where(condition Condition) *Query[T] {
	if q.err != nil {
		return q
	}
	if condition.condition == nil {
		q.err = fmt.Errorf("orm: empty condition")
		return q
	}
	q.whereClause = append(q.whereClause, condition.ToSqlizer())
	return q
}

func (q *Query[T]) OrderBy(expressions ...string) *Query[T] {
	if q.err != nil {
		return q
	}
	q.orderBy = append(q.orderBy, expressions...)
	return q
}

func (q *Query[T]) Limit(limit uint64) *Query[T] {
	if q.err != nil {
		return q
	}
	q.limit = &limit
	return q
}

func (q *Query[T]) Offset(offset uint64) *Query[T] {
	if q.err != nil {
		return q
	}
	q.offset = &offset
	return q
}

func (q *Query[T]) selectBuilder() squirrel.SelectBuilder {
	builder := squirrel.Select(q.repo.selectColumns...).
		From(q.repo.metadata.QuotedTableName()).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		builder = builder.Where(q.whereClause)
	}

	for _, orderBy := range q.orderBy {
		builder = builder.OrderBy(orderBy)
	}

	if q.limit != nil {
		builder = builder.Limit(*q.limit)
	}

	if q.offset != nil {
		builder = builder.Offset(*q.offset)
	}

	return builder
}

// ToSQL renders the SELECT statement the query would run
func (q *Query[T]) ToSQL() (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	return q.selectBuilder().ToSql()
}

// Find executes the query and returns all matching records.
// The result is never nil; no matches yields an empty slice.
func (q *Query[T]) Find() ([]T, error) {
	if q.err != nil {
		return nil, &Error{Op: "find", Table: q.repo.metadata.TableName, Err: q.err}
	}

	records := make([]T, 0)
	err := q.repo.executeQueryMiddleware(OpQuery, q.ctx, nil, q.selectBuilder(), func(mctx *MiddlewareContext) error {
		sqlQuery, args, err := mctx.QueryBuilder.(squirrel.SelectBuilder).ToSql()
		if err != nil {
			return &Error{
				Op:    "find",
				Table: q.repo.metadata.TableName,
				Err:   fmt.Errorf("failed to build query: %w", err),
			}
		}

		if err := q.repo.db.SelectContext(q.ctx, &records, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "find", q.repo.metadata.TableName)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// First executes the query and returns the first matching record
func (q *Query[T]) First() (*T, error) {
	q.Limit(1)
	records, err := q.Find()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, &Error{
			Op:    "first",
			Table: q.repo.metadata.TableName,
			Err:   ErrNotFound,
		}
	}

	return &records[0], nil
}

// Count returns the number of records matching the query
func (q *Query[T]) Count() (int64, error) {
	if q.err != nil {
		return 0, &Error{Op: "count", Table: q.repo.metadata.TableName, Err: q.err}
	}

	countBuilder := squirrel.Select("COUNT(*)").
		From(q.repo.metadata.QuotedTableName()).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		countBuilder = countBuilder.Where(q.whereClause)
	}

	var count int64
	err := q.repo.executeQueryMiddleware(OpQuery, q.ctx, nil, countBuilder, func(mctx *MiddlewareContext) error {
		sqlQuery, args, err := mctx.QueryBuilder.(squirrel.SelectBuilder).ToSql()
		if err != nil {
			return &Error{
				Op:    "count",
				Table: q.repo.metadata.TableName,
				Err:   fmt.Errorf("failed to build count query: %w", err),
			}
		}

		if err := q.repo.db.GetContext(q.ctx, &count, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "count", q.repo.metadata.TableName)
		}
		return nil
	})

	return count, err
}

// Exists checks if any records match the query
func (q *Query[T]) Exists() (bool, error) {
	count, err := q.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update applies the assignments to every matching row and returns the number of rows changed
func (q *Query[T]) Update(actions ...Action) (int64, error) {
	if q.err != nil {
		return 0, &Error{Op: "update", Table: q.repo.metadata.TableName, Err: q.err}
	}
	if len(actions) == 0 {
		return 0, &Error{Op: "update", Table: q.repo.metadata.TableName, Err: fmt.Errorf("no columns to update")}
	}

	updateBuilder := squirrel.Update(q.repo.metadata.QuotedTableName()).
		PlaceholderFormat(squirrel.Dollar)

	for _, action := range actions {
		updateBuilder = updateBuilder.Set(action.column, action.value)
	}

	if len(q.whereClause) > 0 {
		updateBuilder = updateBuilder.Where(q.whereClause)
	}

	var affected int64
	err := q.repo.executeQueryMiddleware(OpUpdate, q.ctx, nil, updateBuilder, func(mctx *MiddlewareContext) error {
		sqlQuery, args, err := mctx.QueryBuilder.(squirrel.UpdateBuilder).ToSql()
		if err != nil {
			return &Error{Op: "update", Table: q.repo.metadata.TableName, Err: fmt.Errorf("failed to build update query: %w", err)}
		}

		result, err := q.repo.db.ExecContext(q.ctx, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "update", q.repo.metadata.TableName)
		}

		affected, err = result.RowsAffected()
		if err != nil {
			return &Error{Op: "update", Table: q.repo.metadata.TableName, Err: fmt.Errorf("failed to get rows affected: %w", err)}
		}
		return nil
	})

	return affected, err
}
