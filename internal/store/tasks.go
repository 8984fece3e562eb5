package store

import (
	"context"
	"fmt"

	"github.com/eleven-am/tasks/internal/models"
	"github.com/eleven-am/tasks/internal/orm"
)

// CreateTask inserts an incomplete task for userID. Whether the user exists
// is the caller's concern.
func (s *Store) CreateTask(ctx context.Context, title, description string, userID int64) (*models.Task, error) {
	task := &models.Task{
		Title:       title,
		Description: description,
		IsCompleted: false,
		UserID:      userID,
	}
	if err := s.Tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// GetTask looks a task up by id; (nil, nil) means no such task
func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.Tasks.FindByID(ctx, id)
	if orm.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %d: %w", id, err)
	}
	return task, nil
}

// ListTasksByUser returns the tasks owned by userID, empty when there are none
// or the user does not exist
func (s *Store) ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	tasks, err := s.Tasks.Query(ctx).
		Where(models.TaskColumns.UserID.Eq(userID)).
		Find()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for user %d: %w", userID, err)
	}
	return tasks, nil
}

// UpdateTaskStatus sets is_completed on an existing task and returns the
// stored row. A missing task yields (nil, nil) and writes nothing.
func (s *Store) UpdateTaskStatus(ctx context.Context, taskID int64, isCompleted bool) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil || task == nil {
		return nil, err
	}

	task.IsCompleted = isCompleted
	err = s.Tasks.Update(ctx, task)
	if orm.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task %d: %w", taskID, err)
	}
	return task, nil
}

// DeleteTask removes a task. It reports false, without side effects, when the
// task does not exist.
func (s *Store) DeleteTask(ctx context.Context, taskID int64) (bool, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil || task == nil {
		return false, err
	}

	err = s.Tasks.DeleteRecord(ctx, task)
	if orm.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete task %d: %w", taskID, err)
	}
	return true, nil
}
