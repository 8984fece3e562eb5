package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

// recovery turns a handler panic into a 500 with the standard error body
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("Panic recovered", "panic", fmt.Sprint(rec), "path", c.Request.URL.Path, "stack", string(debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Detail: detailInternal})
			}
		}()
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.log.Warn("Request completed", fields...)
			return
		}
		s.log.Info("Request completed", fields...)
	}
}
