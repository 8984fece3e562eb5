package orm

import (
	"context"
	"time"

	"github.com/eleven-am/tasks/internal/logger"
)

// OperationType represents different types of database operations
type OperationType string

const (
	OpCreate OperationType = "create"
	OpUpdate OperationType = "update"
	OpDelete OperationType = "delete"
	OpFind   OperationType = "find"
	OpQuery  OperationType = "query"
)

// MiddlewareContext contains information passed to middleware
type MiddlewareContext struct {
	Operation    OperationType
	TableName    string
	Record       interface{}
	QueryBuilder interface{} // squirrel.SelectBuilder, squirrel.InsertBuilder, etc.
	StartTime    time.Time
	Context      context.Context
	Metadata     map[string]interface{}
}

// QueryMiddlewareFunc represents middleware that can modify queries
type QueryMiddlewareFunc func(ctx *MiddlewareContext) error

// QueryMiddleware represents middleware that can see and modify query builders
type QueryMiddleware func(next QueryMiddlewareFunc) QueryMiddlewareFunc

// middlewareManager manages database middleware
type middlewareManager struct {
	middleware []QueryMiddleware
}

func newMiddlewareManager() *middlewareManager {
	return &middlewareManager{
		middleware: make([]QueryMiddleware, 0),
	}
}

func (mm *middlewareManager) AddMiddleware(middleware QueryMiddleware) {
	mm.middleware = append(mm.middleware, middleware)
}

func (mm *middlewareManager) ExecuteMiddleware(ctx *MiddlewareContext, finalFunc QueryMiddlewareFunc) error {
	handler := finalFunc

	for i := len(mm.middleware) - 1; i >= 0; i-- {
		handler = mm.middleware[i](handler)
	}

	return handler(ctx)
}

func (r *Repository[T]) executeQueryMiddleware(op OperationType, ctx context.Context, record interface{}, queryBuilder interface{}, finalFunc QueryMiddlewareFunc) error {
	middlewareCtx := &MiddlewareContext{
		Operation:    op,
		TableName:    r.metadata.TableName,
		Record:       record,
		QueryBuilder: queryBuilder,
		Context:      ctx,
		StartTime:    time.Now(),
		Metadata:     make(map[string]interface{}),
	}

	if r.middlewareManager == nil {
		return finalFunc(middlewareCtx)
	}

	return r.middlewareManager.ExecuteMiddleware(middlewareCtx, finalFunc)
}

// AddMiddleware appends middleware wrapping every statement this repository runs.
// Middleware must be added before the repository is shared between goroutines.
func (r *Repository[T]) AddMiddleware(middleware QueryMiddleware) {
	if r.middlewareManager == nil {
		r.middlewareManager = newMiddlewareManager()
	}
	r.middlewareManager.AddMiddleware(middleware)
}

// LoggingMiddleware logs each operation at debug level and failures at warn level
func LoggingMiddleware(log logger.Logger) QueryMiddleware {
	return func(next QueryMiddlewareFunc) QueryMiddlewareFunc {
		return func(ctx *MiddlewareContext) error {
			err := next(ctx)

			duration := time.Since(ctx.StartTime)
			if err != nil && !IsNotFound(err) {
				log.Warn("Operation failed", "op", ctx.Operation, "table", ctx.TableName, "duration", duration, "error", err)
			} else {
				log.Debug("Operation completed", "op", ctx.Operation, "table", ctx.TableName, "duration", duration)
			}

			return err
		}
	}
}

// MetricsCollector receives one observation per executed operation
type MetricsCollector interface {
	RecordOperation(operation, table string, duration time.Duration, hasError bool)
}

// MetricsMiddleware collects operation metrics
func MetricsMiddleware(collector MetricsCollector) QueryMiddleware {
	return func(next QueryMiddlewareFunc) QueryMiddlewareFunc {
		return func(ctx *MiddlewareContext) error {
			err := next(ctx)

			collector.RecordOperation(string(ctx.Operation), ctx.TableName, time.Since(ctx.StartTime), err != nil && !IsNotFound(err))

			return err
		}
	}
}
