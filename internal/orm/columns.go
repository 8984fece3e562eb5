package orm

import (
	"github.com/Masterminds/squirrel"
)

// Column represents a type-safe database column reference
type Column[T any] struct {
	Name  string
	Table string
}

// String returns the column reference for SQL, table-qualified when Table is set
func (c Column[T]) String() string {
	if c.Table != "" {
		return QuoteIdentifier(c.Table) + "." + c.Name
	}
	return c.Name
}

func (c Column[T]) Eq(value T) Condition {
	return Condition{squirrel.Eq{c.String(): value}}
}

func (c Column[T]) NotEq(value T) Condition {
	return Condition{squirrel.NotEq{c.String(): value}}
}

func (c Column[T]) In(values ...T) Condition {
	interfaces := make([]interface{}, len(values))
	for i, v := range values {
		interfaces[i] = v
	}
	return Condition{squirrel.Eq{c.String(): interfaces}}
}

func (c Column[T]) Asc() string {
	return c.String() + " ASC"
}

func (c Column[T]) Desc() string {
	return c.String() + " DESC"
}

// Set produces an assignment for Query.Update.
func (c Column[T]) Set(value T) Action {
	return Action{column: c.Name, value: value}
}

// Comparable types that support comparison operators
type Comparable interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 |
		~string
}

// ComparableColumn provides comparison operations for comparable types
type ComparableColumn[T Comparable] struct {
	Column[T]
}

func (c ComparableColumn[T]) Gt(value T) Condition {
	return Condition{squirrel.Gt{c.String(): value}}
}

func (c ComparableColumn[T]) Gte(value T) Condition {
	return Condition{squirrel.GtOrEq{c.String(): value}}
}

func (c ComparableColumn[T]) Lt(value T) Condition {
	return Condition{squirrel.Lt{c.String(): value}}
}

func (c ComparableColumn[T]) Lte(value T) Condition {
	return Condition{squirrel.LtOrEq{c.String(): value}}
}

// Numeric types for mathematical operations
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// NumericColumn provides numeric-specific operations
type NumericColumn[T Numeric] struct {
	ComparableColumn[T]
}

// StringColumn provides string-specific operations
type StringColumn struct {
	ComparableColumn[string]
}

func (c StringColumn) Like(pattern string) Condition {
	return Condition{squirrel.Like{c.String(): pattern}}
}

func (c StringColumn) ILike(pattern string) Condition {
	return Condition{squirrel.ILike{c.String(): pattern}}
}

func (c StringColumn) Contains(substring string) Condition {
	return c.Like("%" + substring + "%")
}

// BoolColumn provides boolean-specific operations
type BoolColumn struct {
	Column[bool]
}

func (c BoolColumn) IsTrue() Condition {
	return c.Eq(true)
}

func (c BoolColumn) IsFalse() Condition {
	return c.Eq(false)
}

// Condition wraps a squirrel predicate
type Condition struct {
	condition squirrel.Sqlizer
}

func (c Condition) And(other Condition) Condition {
	return Condition{squirrel.And{c.condition, other.condition}}
}

func (c Condition) Or(other Condition) Condition {
	return Condition{squirrel.Or{c.condition, other.condition}}
}

func (c Condition) Not() Condition {
	return Condition{squirrel.Expr("NOT (?)", c.condition)}
}

func (c Condition) ToSqlizer() squirrel.Sqlizer {
	return c.condition
}

// And combines multiple conditions with AND
func And(conditions ...Condition) Condition {
	sqlizers := make([]squirrel.Sqlizer, len(conditions))
	for i, c := range conditions {
		sqlizers[i] = c.condition
	}
	return Condition{squirrel.And(sqlizers)}
}

// Or combines multiple conditions with OR
func Or(conditions ...Condition) Condition {
	sqlizers := make([]squirrel.Sqlizer, len(conditions))
	for i, c := range conditions {
		sqlizers[i] = c.condition
	}
	return Condition{squirrel.Or(sqlizers)}
}

// Action is a single "column = value" assignment
type Action struct {
	column string
	value  interface{}
}

func (a Action) Column() string {
	return a.column
}

func (a Action) Value() interface{} {
	return a.value
}
