package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	detailUserNotFound = "User not found"
	detailTaskNotFound = "Task not found"
	detailInternal     = "Internal Server Error"
)

var registerTagName sync.Once

// useJSONFieldNames makes validator report fields by their json name
func useJSONFieldNames() {
	registerTagName.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
}

// bindBody decodes and validates the JSON body into obj. A nil result means success.
func bindBody(c *gin.Context, obj interface{}) []FieldError {
	if err := c.ShouldBindJSON(obj); err != nil {
		return bodyErrors(err)
	}
	return nil
}

func bodyErrors(err error) []FieldError {
	var (
		validationErrs validator.ValidationErrors
		typeErr        *json.UnmarshalTypeError
		syntaxErr      *json.SyntaxError
	)

	switch {
	case errors.As(err, &validationErrs):
		out := make([]FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			out = append(out, fieldError(fe))
		}
		return out

	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return []FieldError{{Loc: []interface{}{"body"}, Msg: "value is not a valid dict", Type: "type_error.dict"}}
		}
		msg, typ := typeMismatch(typeErr.Type)
		return []FieldError{{Loc: bodyLoc(typeErr.Field), Msg: msg, Type: typ}}

	case errors.As(err, &syntaxErr):
		return []FieldError{{
			Loc:  []interface{}{"body", syntaxErr.Offset},
			Msg:  syntaxErr.Error(),
			Type: "value_error.jsondecode",
		}}

	case errors.Is(err, io.EOF), err.Error() == "invalid request":
		return []FieldError{{Loc: []interface{}{"body"}, Msg: "field required", Type: "value_error.missing"}}

	case errors.Is(err, io.ErrUnexpectedEOF):
		return []FieldError{{Loc: []interface{}{"body"}, Msg: "unexpected end of JSON input", Type: "value_error.jsondecode"}}
	}

	return []FieldError{{Loc: []interface{}{"body"}, Msg: err.Error(), Type: "value_error"}}
}

func fieldError(fe validator.FieldError) FieldError {
	loc := bodyLoc(fe.Field())
	if fe.Tag() == "required" {
		return FieldError{Loc: loc, Msg: "field required", Type: "value_error.missing"}
	}
	return FieldError{Loc: loc, Msg: "failed on the " + fe.Tag() + " rule", Type: "value_error." + fe.Tag()}
}

func typeMismatch(t reflect.Type) (string, string) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "str type expected", "type_error.str"
	case reflect.Bool:
		return "value could not be parsed to a boolean", "type_error.bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "value is not a valid integer", "type_error.integer"
	}
	return "value is not a valid " + t.Kind().String(), "type_error." + t.Kind().String()
}

func bodyLoc(field string) []interface{} {
	loc := []interface{}{"body"}
	for _, part := range strings.Split(field, ".") {
		loc = append(loc, part)
	}
	return loc
}

// pathID parses an integer path parameter, writing the 422 response on failure
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		abortValidation(c, []FieldError{{
			Loc:  []interface{}{"path", name},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		}})
		return 0, false
	}
	return id, true
}

func abortValidation(c *gin.Context, details []FieldError) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ValidationErrorResponse{Detail: details})
}

func abortNotFound(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Detail: detail})
}

func (s *Server) abortInternal(c *gin.Context, err error) {
	s.log.Error("Request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Detail: detailInternal})
}
