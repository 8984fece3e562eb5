package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Common errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidStruct    = errors.New("invalid struct type")
	ErrNoPrimaryKey     = errors.New("no primary key defined")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrForeignKey       = errors.New("foreign key violation")
	ErrCheckConstraint  = errors.New("check constraint violation")
	ErrNotNull          = errors.New("not null constraint violation")
	ErrConnectionFailed = errors.New("database connection failed")
	ErrTimeout          = errors.New("operation timeout")
	ErrCanceled         = errors.New("operation canceled")
)

// Error provides detailed error information
type Error struct {
	Op         string // Operation that failed
	Table      string // Table involved
	Err        error  // Underlying error
	Constraint string // Constraint name (if applicable)
	Column     string // Column name (if applicable)
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("orm: %s", e.Op))

	if e.Table != "" {
		parts = append(parts, fmt.Sprintf("table=%s", e.Table))
	}

	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column=%s", e.Column))
	}

	if e.Constraint != "" {
		parts = append(parts, fmt.Sprintf("constraint=%s", e.Constraint))
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// pq SQLSTATE codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeQueryCanceled       = "57014"
)

// ParsePostgreSQLError converts driver errors into *Error wrapping one of the
// sentinel errors above when the failure is recognised.
func ParsePostgreSQLError(err error, op, table string) error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Op: op, Table: table, Err: ErrNotFound}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Op: op, Table: table, Err: ErrTimeout}
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Op: op, Table: table, Err: ErrCanceled}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		e := &Error{Op: op, Table: table, Err: err, Constraint: pqErr.Constraint, Column: pqErr.Column}
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			e.Err = ErrDuplicateKey
		case codeForeignKeyViolation:
			e.Err = ErrForeignKey
		case codeNotNullViolation:
			e.Err = ErrNotNull
		case codeCheckViolation:
			e.Err = ErrCheckConstraint
		case codeQueryCanceled:
			e.Err = ErrTimeout
		}
		return e
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "duplicate key value violates unique constraint"):
		return &Error{Op: op, Table: table, Err: ErrDuplicateKey, Constraint: extractConstraintName(errStr)}
	case strings.Contains(errStr, "violates foreign key constraint"):
		return &Error{Op: op, Table: table, Err: ErrForeignKey, Constraint: extractConstraintName(errStr)}
	case strings.Contains(errStr, "violates not-null constraint"):
		return &Error{Op: op, Table: table, Err: ErrNotNull, Column: extractColumnName(errStr)}
	case strings.Contains(errStr, "violates check constraint"):
		return &Error{Op: op, Table: table, Err: ErrCheckConstraint, Constraint: extractConstraintName(errStr)}
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "connection reset"),
		strings.Contains(errStr, "broken pipe"):
		return &Error{Op: op, Table: table, Err: fmt.Errorf("%w: %v", ErrConnectionFailed, err)}
	}

	return &Error{Op: op, Table: table, Err: err}
}

func extractConstraintName(errStr string) string {
	start := strings.Index(errStr, "\"")
	if start == -1 {
		return ""
	}
	end := strings.Index(errStr[start+1:], "\"")
	if end == -1 {
		return ""
	}
	return errStr[start+1 : start+1+end]
}

func extractColumnName(errStr string) string {
	columnIdx := strings.Index(errStr, "column \"")
	if columnIdx == -1 {
		return ""
	}
	start := columnIdx + 8
	end := strings.Index(errStr[start:], "\"")
	if end == -1 {
		return ""
	}
	return errStr[start : start+end]
}

// IsNotFound reports whether err signals a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConstraintError checks if an error is a constraint violation
func IsConstraintError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrForeignKey) ||
		errors.Is(err, ErrCheckConstraint) ||
		errors.Is(err, ErrNotNull)
}
