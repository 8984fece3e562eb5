package models

import "github.com/eleven-am/tasks/internal/orm"

// User owns zero or more tasks. Name and email carry no uniqueness or format constraint.
type User struct {
	_ struct{} `dbdef:"table:user"`

	ID    int64  `db:"id" dbdef:"type:serial;primary_key"`
	Name  string `db:"name" dbdef:"type:varchar;not_null"`
	Email string `db:"email" dbdef:"type:varchar;not_null"`
}

// UserColumns are typed references to the user table's columns
var UserColumns = struct {
	ID    orm.NumericColumn[int64]
	Name  orm.StringColumn
	Email orm.StringColumn
}{
	ID:    orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "id"}}},
	Name:  orm.StringColumn{ComparableColumn: orm.ComparableColumn[string]{Column: orm.Column[string]{Name: "name"}}},
	Email: orm.StringColumn{ComparableColumn: orm.ComparableColumn[string]{Column: orm.Column[string]{Name: "email"}}},
}
