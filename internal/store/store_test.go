package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasks/internal/orm"
)

var (
	userColumns = []string{"id", "name", "email"}
	taskColumns = []string{"id", "title", "description", "is_completed", "user_id"}
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := New(sqlx.NewDb(db, "postgres"))
	require.NoError(t, err)
	return s, mock
}

func TestCreateUser(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`INSERT INTO "user" \(name,email\) VALUES \(\$1,\$2\) RETURNING id, name, email`).
		WithArgs("Dora", "dora@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "Dora", "dora@example.com"))

	user, err := s.CreateUser(context.Background(), "Dora", "dora@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "Dora", user.Name)
	assert.Equal(t, "dora@example.com", user.Email)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_StorageFailure(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`INSERT INTO "user"`).
		WillReturnError(errors.New("connection refused"))

	user, err := s.CreateUser(context.Background(), "Dora", "dora@example.com")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, orm.ErrConnectionFailed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser(t *testing.T) {
	s, mock := newTestStore(t)

	t.Run("existing user", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, email FROM "user" WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(3, "Ann", "ann@example.com"))

		user, err := s.GetUser(context.Background(), 3)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "Ann", user.Name)
	})

	t.Run("missing user is absent, not an error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, email FROM "user" WHERE id = \$1`).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(userColumns))

		user, err := s.GetUser(context.Background(), 404)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	s, mock := newTestStore(t)

	t.Run("returns every row", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, email FROM "user"$`).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "A", "a@example.com").
				AddRow(2, "B", "b@example.com"))

		users, err := s.ListUsers(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "B", users[1].Name)
	})

	t.Run("empty table yields empty slice", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, email FROM "user"$`).
			WillReturnRows(sqlmock.NewRows(userColumns))

		users, err := s.ListUsers(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTask(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`INSERT INTO "task" \(title,description,user_id\) VALUES \(\$1,\$2,\$3\) RETURNING id, title, description, is_completed, user_id`).
		WithArgs("Do stuff", "", int64(1)).
		WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(10, "Do stuff", "", false, 1))

	task, err := s.CreateTask(context.Background(), "Do stuff", "", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), task.ID)
	assert.Equal(t, "", task.Description)
	assert.False(t, task.IsCompleted)
	assert.Equal(t, int64(1), task.UserID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTasksByUser(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT id, title, description, is_completed, user_id FROM "task" WHERE \(user_id = \$1\)`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow(10, "one", "", false, 1).
			AddRow(11, "two", "x", true, 1))

	tasks, err := s.ListTasksByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, int64(1), task.UserID)
	}

	mock.ExpectQuery(`FROM "task" WHERE \(user_id = \$1\)`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(taskColumns))

	tasks, err = s.ListTasksByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTaskStatus(t *testing.T) {
	s, mock := newTestStore(t)

	t.Run("existing task", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM "task" WHERE id = \$1`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(10, "Do stuff", "Important", false, 1))
		mock.ExpectQuery(`UPDATE "task" SET title = \$1, description = \$2, is_completed = \$3, user_id = \$4 WHERE id = \$5 RETURNING`).
			WithArgs("Do stuff", "Important", true, int64(1), int64(10)).
			WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(10, "Do stuff", "Important", true, 1))

		task, err := s.UpdateTaskStatus(context.Background(), 10, true)
		require.NoError(t, err)
		require.NotNil(t, task)
		assert.True(t, task.IsCompleted)
	})

	t.Run("missing task writes nothing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM "task" WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(taskColumns))

		task, err := s.UpdateTaskStatus(context.Background(), 99, true)
		require.NoError(t, err)
		assert.Nil(t, task)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTask(t *testing.T) {
	s, mock := newTestStore(t)

	t.Run("existing task", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM "task" WHERE id = \$1`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(10, "Do stuff", "", false, 1))
		mock.ExpectExec(`DELETE FROM "task" WHERE id = \$1`).
			WithArgs(int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		deleted, err := s.DeleteTask(context.Background(), 10)
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("second delete reports false", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM "task" WHERE id = \$1`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(taskColumns))

		deleted, err := s.DeleteTask(context.Background(), 10)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithMiddleware(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var ops []orm.OperationType
	s, err := New(sqlx.NewDb(db, "postgres"), WithMiddleware(func(next orm.QueryMiddlewareFunc) orm.QueryMiddlewareFunc {
		return func(ctx *orm.MiddlewareContext) error {
			ops = append(ops, ctx.Operation)
			return next(ctx)
		}
	}))
	require.NoError(t, err)

	mock.ExpectQuery(`FROM "user"`).WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectQuery(`FROM "task"`).WillReturnRows(sqlmock.NewRows(taskColumns))

	_, err = s.ListUsers(context.Background())
	require.NoError(t, err)
	_, err = s.ListTasksByUser(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []orm.OperationType{orm.OpQuery, orm.OpQuery}, ops)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTables(t *testing.T) {
	s, _ := newTestStore(t)

	tables := s.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "user", tables[0].TableName)
	assert.Equal(t, "task", tables[1].TableName)
}
