package api

import (
	"context"
	"sync"

	"github.com/eleven-am/tasks/internal/models"
)

// fakeStore is an in-memory Store. err, when set, is returned by every call.
type fakeStore struct {
	mu     sync.Mutex
	users  []models.User
	tasks  []models.Task
	nextID int64
	calls  int
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (f *fakeStore) begin() error {
	f.calls++
	return f.err
}

func (f *fakeStore) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeStore) CreateUser(_ context.Context, name, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	u := models.User{ID: f.id(), Name: name, Email: email}
	f.users = append(f.users, u)
	return &u, nil
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListUsers(_ context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	return append([]models.User(nil), f.users...), nil
}

func (f *fakeStore) CreateTask(_ context.Context, title, description string, userID int64) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	t := models.Task{ID: f.id(), Title: title, Description: description, UserID: userID}
	f.tasks = append(f.tasks, t)
	return &t, nil
}

func (f *fakeStore) ListTasksByUser(_ context.Context, userID int64) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	var out []models.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTaskStatus(_ context.Context, taskID int64, isCompleted bool) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	for i := range f.tasks {
		if f.tasks[i].ID == taskID {
			f.tasks[i].IsCompleted = isCompleted
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) DeleteTask(_ context.Context, taskID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return false, err
	}
	for i, t := range f.tasks {
		if t.ID == taskID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
