package schema

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasks/internal/models"
	"github.com/eleven-am/tasks/internal/orm"
)

const (
	userDDL = "CREATE TABLE IF NOT EXISTS \"user\" (\n" +
		"\tid SERIAL PRIMARY KEY,\n" +
		"\tname VARCHAR NOT NULL,\n" +
		"\temail VARCHAR NOT NULL\n" +
		")"
	taskDDL = "CREATE TABLE IF NOT EXISTS \"task\" (\n" +
		"\tid SERIAL PRIMARY KEY,\n" +
		"\ttitle VARCHAR NOT NULL,\n" +
		"\tdescription VARCHAR NOT NULL,\n" +
		"\tis_completed BOOLEAN NOT NULL DEFAULT false,\n" +
		"\tuser_id INTEGER NOT NULL REFERENCES \"user\" (id)\n" +
		")"
)

func tables(t *testing.T) (*orm.ModelMetadata, *orm.ModelMetadata) {
	t.Helper()
	user, err := orm.MetadataFor[models.User]()
	require.NoError(t, err)
	task, err := orm.MetadataFor[models.Task]()
	require.NoError(t, err)
	return user, task
}

func TestCreateTableSQL(t *testing.T) {
	user, task := tables(t)

	got, err := CreateTableSQL(user)
	require.NoError(t, err)
	assert.Equal(t, userDDL, got)

	got, err = CreateTableSQL(task)
	require.NoError(t, err)
	assert.Equal(t, taskDDL, got)
}

type membership struct {
	_ struct{} `dbdef:"table:membership"`

	UserID  int64 `db:"user_id" dbdef:"type:integer;primary_key;foreign_key:user.id;on_delete:cascade"`
	GroupID int64 `db:"group_id" dbdef:"type:integer;primary_key"`
}

func TestCreateTableSQL_CompositeKey(t *testing.T) {
	meta, err := orm.MetadataFor[membership]()
	require.NoError(t, err)

	got, err := CreateTableSQL(meta)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS \"membership\" (\n"+
		"\tuser_id INTEGER REFERENCES \"user\" (id) ON DELETE CASCADE,\n"+
		"\tgroup_id INTEGER,\n"+
		"\tPRIMARY KEY (user_id, group_id)\n"+
		")", got)
}

func TestCreateTableSQL_Invalid(t *testing.T) {
	_, err := CreateTableSQL(&orm.ModelMetadata{TableName: "empty"})
	assert.Error(t, err)

	_, err = CreateTableSQL(&orm.ModelMetadata{
		TableName:   "bad",
		PrimaryKeys: []string{"id"},
		Fields:      []*orm.ColumnMetadata{{DBName: "id", SQLType: "serial", IsPrimaryKey: true, ForeignKey: "nodot"}},
	})
	assert.ErrorContains(t, err, "table.column")
}

func TestStatements_DependencyOrder(t *testing.T) {
	user, task := tables(t)

	statements, err := Statements(task, user)
	require.NoError(t, err)
	assert.Equal(t, []string{userDDL, taskDDL}, statements)
}

func TestStatements_Cycle(t *testing.T) {
	a := &orm.ModelMetadata{TableName: "a", Fields: []*orm.ColumnMetadata{{DBName: "b_id", SQLType: "integer", ForeignKey: "b.id"}}}
	b := &orm.ModelMetadata{TableName: "b", Fields: []*orm.ColumnMetadata{{DBName: "a_id", SQLType: "integer", ForeignKey: "a.id"}}}

	_, err := Statements(a, b)
	assert.ErrorContains(t, err, "circular dependency")
}

func TestEnsure(t *testing.T) {
	user, task := tables(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(userDDL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(taskDDL)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Ensure(context.Background(), db, user, task))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsure_StopsOnFailure(t *testing.T) {
	user, task := tables(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "user"`).
		WillReturnError(errors.New("connection refused"))

	err = Ensure(context.Background(), db, user, task)
	assert.ErrorIs(t, err, orm.ErrConnectionFailed)

	var ormErr *orm.Error
	require.ErrorAs(t, err, &ormErr)
	assert.Equal(t, "create_table", ormErr.Op)
	assert.Equal(t, "user", ormErr.Table)

	require.NoError(t, mock.ExpectationsWereMet())
}
