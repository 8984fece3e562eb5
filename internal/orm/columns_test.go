package orm

import (
	"reflect"
	"testing"

	"github.com/Masterminds/squirrel"
)

func sqlOf(t *testing.T, c Condition) (string, []interface{}) {
	t.Helper()
	sql, args, err := c.ToSqlizer().ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	return sql, args
}

func TestStringColumn(t *testing.T) {
	col := StringColumn{ComparableColumn[string]{Column[string]{Name: "title", Table: "task"}}}

	tests := []struct {
		name     string
		method   func() Condition
		expected string
	}{
		{
			name:     "Eq",
			method:   func() Condition { return col.Eq("write") },
			expected: `"task".title = ?`,
		},
		{
			name:     "NotEq",
			method:   func() Condition { return col.NotEq("write") },
			expected: `"task".title <> ?`,
		},
		{
			name:     "Like",
			method:   func() Condition { return col.Like("%write%") },
			expected: `"task".title LIKE ?`,
		},
		{
			name:     "ILike",
			method:   func() Condition { return col.ILike("%write%") },
			expected: `"task".title ILIKE ?`,
		},
		{
			name:     "Contains",
			method:   func() Condition { return col.Contains("rit") },
			expected: `"task".title LIKE ?`,
		},
		{
			name:     "Gt",
			method:   func() Condition { return col.Gt("a") },
			expected: `"task".title > ?`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _ := sqlOf(t, tt.method())
			if sql != tt.expected {
				t.Errorf("expected SQL %q, got %q", tt.expected, sql)
			}
		})
	}

	_, args := sqlOf(t, col.Contains("rit"))
	if !reflect.DeepEqual(args, []interface{}{"%rit%"}) {
		t.Errorf("Contains should wrap the pattern, got %v", args)
	}
}

func TestNumericColumn(t *testing.T) {
	col := NumericColumn[int64]{ComparableColumn[int64]{Column[int64]{Name: "user_id"}}}

	tests := []struct {
		name     string
		cond     Condition
		expected string
		args     []interface{}
	}{
		{name: "Eq", cond: col.Eq(7), expected: "user_id = ?", args: []interface{}{int64(7)}},
		{name: "Gte", cond: col.Gte(1), expected: "user_id >= ?", args: []interface{}{int64(1)}},
		{name: "Lt", cond: col.Lt(9), expected: "user_id < ?", args: []interface{}{int64(9)}},
		{name: "Lte", cond: col.Lte(9), expected: "user_id <= ?", args: []interface{}{int64(9)}},
		{name: "In", cond: col.In(1, 2), expected: "user_id IN (?,?)", args: []interface{}{int64(1), int64(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := sqlOf(t, tt.cond)
			if sql != tt.expected {
				t.Errorf("expected SQL %q, got %q", tt.expected, sql)
			}
			if !reflect.DeepEqual(args, tt.args) {
				t.Errorf("expected args %v, got %v", tt.args, args)
			}
		})
	}
}

func TestBoolColumn(t *testing.T) {
	col := BoolColumn{Column[bool]{Name: "is_completed"}}

	sql, args := sqlOf(t, col.IsTrue())
	if sql != "is_completed = ?" || !reflect.DeepEqual(args, []interface{}{true}) {
		t.Errorf("IsTrue rendered %q %v", sql, args)
	}

	_, args = sqlOf(t, col.IsFalse())
	if !reflect.DeepEqual(args, []interface{}{false}) {
		t.Errorf("IsFalse rendered args %v", args)
	}
}

func TestConditionCombinators(t *testing.T) {
	done := BoolColumn{Column[bool]{Name: "is_completed"}}
	owner := NumericColumn[int64]{ComparableColumn[int64]{Column[int64]{Name: "user_id"}}}

	tests := []struct {
		name     string
		cond     Condition
		expected string
	}{
		{name: "method And", cond: owner.Eq(1).And(done.IsTrue()), expected: "(user_id = ? AND is_completed = ?)"},
		{name: "method Or", cond: owner.Eq(1).Or(owner.Eq(2)), expected: "(user_id = ? OR user_id = ?)"},
		{name: "package And", cond: And(owner.Eq(1), done.IsFalse()), expected: "(user_id = ? AND is_completed = ?)"},
		{name: "package Or", cond: Or(owner.Eq(1), owner.Eq(2)), expected: "(user_id = ? OR user_id = ?)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := sqlOf(t, tt.cond)
			if sql != tt.expected {
				t.Errorf("expected SQL %q, got %q", tt.expected, sql)
			}
			if len(args) != 2 {
				t.Errorf("expected 2 args, got %v", args)
			}
		})
	}
}

func TestColumnOrderingAndSet(t *testing.T) {
	col := Column[int64]{Name: "id"}

	if got := col.Asc(); got != "id ASC" {
		t.Errorf("Asc() = %q", got)
	}
	if got := col.Desc(); got != "id DESC" {
		t.Errorf("Desc() = %q", got)
	}

	action := BoolColumn{Column[bool]{Name: "is_completed"}}.Set(true)
	if action.Column() != "is_completed" || action.Value() != true {
		t.Errorf("Set produced %s = %v", action.Column(), action.Value())
	}
}

func TestConditionInSelect(t *testing.T) {
	owner := NumericColumn[int64]{ComparableColumn[int64]{Column[int64]{Name: "user_id"}}}

	sql, args, err := squirrel.Select("id").
		From(`"task"`).
		Where(owner.Eq(4).ToSqlizer()).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if sql != `SELECT id FROM "task" WHERE user_id = $1` {
		t.Errorf("unexpected SQL %q", sql)
	}
	if !reflect.DeepEqual(args, []interface{}{int64(4)}) {
		t.Errorf("unexpected args %v", args)
	}
}
