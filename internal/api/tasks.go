package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) createTask(c *gin.Context) {
	var payload TaskCreate
	if errs := bindBody(c, &payload); errs != nil {
		abortValidation(c, errs)
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.GetUser(ctx, *payload.UserID)
	if err != nil {
		s.abortInternal(c, err)
		return
	}
	if user == nil {
		abortNotFound(c, detailUserNotFound)
		return
	}

	description := ""
	if payload.Description != nil {
		description = *payload.Description
	}

	task, err := s.store.CreateTask(ctx, *payload.Title, description, user.ID)
	if err != nil {
		s.abortInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaskOut(*task))
}

func (s *Server) listTasksByUser(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		s.abortInternal(c, err)
		return
	}
	if user == nil {
		abortNotFound(c, detailUserNotFound)
		return
	}

	tasks, err := s.store.ListTasksByUser(ctx, userID)
	if err != nil {
		s.abortInternal(c, err)
		return
	}

	out := make([]TaskOut, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskOut(t))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) updateTaskStatus(c *gin.Context) {
	taskID, ok := pathID(c, "task_id")
	if !ok {
		return
	}

	var payload TaskStatusUpdate
	if errs := bindBody(c, &payload); errs != nil {
		abortValidation(c, errs)
		return
	}

	task, err := s.store.UpdateTaskStatus(c.Request.Context(), taskID, *payload.IsCompleted)
	if err != nil {
		s.abortInternal(c, err)
		return
	}
	if task == nil {
		abortNotFound(c, detailTaskNotFound)
		return
	}

	c.JSON(http.StatusOK, toTaskOut(*task))
}

func (s *Server) deleteTask(c *gin.Context) {
	taskID, ok := pathID(c, "task_id")
	if !ok {
		return
	}

	deleted, err := s.store.DeleteTask(c.Request.Context(), taskID)
	if err != nil {
		s.abortInternal(c, err)
		return
	}
	if !deleted {
		abortNotFound(c, detailTaskNotFound)
		return
	}

	c.JSON(http.StatusOK, DeleteResult{Deleted: true})
}
