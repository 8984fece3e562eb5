package models

import "github.com/eleven-am/tasks/internal/orm"

// Task belongs to exactly one user through UserID. IsCompleted is the only
// field that changes after creation.
type Task struct {
	_ struct{} `dbdef:"table:task"`

	ID          int64  `db:"id" dbdef:"type:serial;primary_key"`
	Title       string `db:"title" dbdef:"type:varchar;not_null"`
	Description string `db:"description" dbdef:"type:varchar;not_null"`
	IsCompleted bool   `db:"is_completed" dbdef:"type:boolean;not_null;default:false"`
	UserID      int64  `db:"user_id" dbdef:"type:integer;not_null;foreign_key:user.id"`
}

// TaskColumns are typed references to the task table's columns
var TaskColumns = struct {
	ID          orm.NumericColumn[int64]
	Title       orm.StringColumn
	Description orm.StringColumn
	IsCompleted orm.BoolColumn
	UserID      orm.NumericColumn[int64]
}{
	ID:          orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "id"}}},
	Title:       orm.StringColumn{ComparableColumn: orm.ComparableColumn[string]{Column: orm.Column[string]{Name: "title"}}},
	Description: orm.StringColumn{ComparableColumn: orm.ComparableColumn[string]{Column: orm.Column[string]{Name: "description"}}},
	IsCompleted: orm.BoolColumn{Column: orm.Column[bool]{Name: "is_completed"}},
	UserID:      orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "user_id"}}},
}
