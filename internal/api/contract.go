package api

import "github.com/eleven-am/tasks/internal/models"

// Request bodies use pointer fields so that a missing key and a zero value
// can be told apart by the required rule.

// UserCreate is the body of POST /users/
type UserCreate struct {
	Name  *string `json:"name" binding:"required"`
	Email *string `json:"email" binding:"required"`
}

// UserOut is the wire form of a user
type UserOut struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TaskCreate is the body of POST /tasks/. A missing description is stored as "".
type TaskCreate struct {
	Title       *string `json:"title" binding:"required"`
	Description *string `json:"description"`
	UserID      *int64  `json:"user_id" binding:"required"`
}

// TaskOut is the wire form of a task
type TaskOut struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
	UserID      int64  `json:"user_id"`
}

// TaskStatusUpdate is the body of PUT /tasks/{task_id}/status
type TaskStatusUpdate struct {
	IsCompleted *bool `json:"is_completed" binding:"required"`
}

// DeleteResult is returned by DELETE /tasks/{task_id}
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// ErrorResponse carries a single message, as used for 404 and 500
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// FieldError locates one validation failure. Loc starts with "body" or
// "path" followed by the field name.
type FieldError struct {
	Loc  []interface{} `json:"loc"`
	Msg  string        `json:"msg"`
	Type string        `json:"type"`
}

// ValidationErrorResponse is the 422 body
type ValidationErrorResponse struct {
	Detail []FieldError `json:"detail"`
}

func toUserOut(u models.User) UserOut {
	return UserOut{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toTaskOut(t models.Task) TaskOut {
	return TaskOut{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		UserID:      t.UserID,
	}
}
