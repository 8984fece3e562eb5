package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) createUser(c *gin.Context) {
	var payload UserCreate
	if errs := bindBody(c, &payload); errs != nil {
		abortValidation(c, errs)
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), *payload.Name, *payload.Email)
	if err != nil {
		s.abortInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserOut(*user))
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.abortInternal(c, err)
		return
	}

	out := make([]UserOut, 0, len(users))
	for _, u := range users {
		out = append(out, toUserOut(u))
	}
	c.JSON(http.StatusOK, out)
}
