// Package api is the HTTP route layer. Each handler validates its input,
// checks that referenced entities exist, performs one data-access call and
// maps the result to its wire form.
package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/eleven-am/tasks/internal/logger"
	"github.com/eleven-am/tasks/internal/metrics"
	"github.com/eleven-am/tasks/internal/models"
)

// Store is the data-access layer the handlers depend on. *store.Store implements it.
type Store interface {
	CreateUser(ctx context.Context, name, email string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateTask(ctx context.Context, title, description string, userID int64) (*models.Task, error)
	ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID int64, isCompleted bool) (*models.Task, error)
	DeleteTask(ctx context.Context, taskID int64) (bool, error)
}

// Pinger reports database reachability for /healthz
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server owns the handlers and their dependencies
type Server struct {
	store   Store
	db      Pinger
	log     logger.Logger
	metrics *metrics.Metrics
}

// Option customises a Server at construction
type Option func(*Server)

// WithLogger sets the logger used for request and error logging
func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithMetrics enables the request metrics middleware and the /metrics route
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithPinger enables the database check on /healthz
func WithPinger(p Pinger) Option {
	return func(s *Server) {
		s.db = p
	}
}

// New creates a Server backed by store
func New(store Store, opts ...Option) *Server {
	s := &Server{
		store: store,
		log:   logger.HTTP(),
	}
	for _, opt := range opts {
		opt(s)
	}
	useJSONFieldNames()
	return s
}

// Router builds the gin engine with middleware and every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(s.recovery(), s.requestLogger())
	if s.metrics != nil {
		router.Use(s.metrics.Middleware())
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	router.GET("/healthz", s.healthz)

	router.POST("/users/", s.createUser)
	router.GET("/users/", s.listUsers)

	router.POST("/tasks/", s.createTask)
	router.GET("/tasks/user/:user_id", s.listTasksByUser)
	router.PUT("/tasks/:task_id/status", s.updateTaskStatus)
	router.DELETE("/tasks/:task_id", s.deleteTask)

	return router
}
