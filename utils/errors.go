package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrorKind classifies domain failures that are reported to the caller verbatim.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindInvalidOperation
	KindTooManyRequests
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindConflict:
		return "Conflict"
	case KindInvalidOperation:
		return "InvalidOperation"
	case KindTooManyRequests:
		return "TooManyRequests"
	default:
		return "Internal"
	}
}

// Status maps a kind to its HTTP status code.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation, KindInvalidOperation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AppError carries a kind and a message that is safe to show to clients.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates an AppError of the given kind.
func NewAppError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func ValidationError(format string, args ...any) *AppError {
	return NewAppError(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) *AppError {
	return NewAppError(KindNotFound, fmt.Sprintf(format, args...))
}

func Unauthorized(message string) *AppError {
	return NewAppError(KindUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return NewAppError(KindForbidden, message)
}

func Conflict(message string) *AppError {
	return NewAppError(KindConflict, message)
}

func InvalidOperation(message string) *AppError {
	return NewAppError(KindInvalidOperation, message)
}

func TooManyRequests(message string) *AppError {
	return NewAppError(KindTooManyRequests, message)
}

// HandleError writes err to the response. Domain errors are surfaced verbatim;
// anything else is logged and reported without detail.
func HandleError(ctx *gin.Context, err error) {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		Error(ctx, appErr.Kind.Status(), appErr.Message)
	case errors.Is(err, gorm.ErrRecordNotFound):
		Error(ctx, http.StatusNotFound, "Requested resource was not found.")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		Error(ctx, http.StatusConflict, "Duplicate field value.")
	default:
		Logger.Error("unhandled request error",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Error(err),
		)
		Error(ctx, http.StatusInternalServerError, "Something went wrong.")
	}
}
