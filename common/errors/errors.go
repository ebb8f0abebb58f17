package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-service/common/logger"
)

// Error represents an application error
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of e carrying details
func (e *Error) WithDetails(details interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string) *Error { return New(http.StatusBadRequest, message, nil) }
func NotFound(message string) *Error   { return New(http.StatusNotFound, message, nil) }
func Forbidden(message string) *Error  { return New(http.StatusForbidden, message, nil) }
func Conflict(message string) *Error   { return New(http.StatusConflict, message, nil) }

// Internal wraps an unexpected failure. The message is what clients see.
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// Common error types
var (
	ErrBadRequest   = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden    = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound     = New(http.StatusNotFound, "Not found", nil)
	ErrInternal     = New(http.StatusInternalServerError, "Internal server error", nil)
)

var exposeDetails = true

// Configure toggles whether internal error text and stacks reach clients.
// They are hidden in production.
func Configure(env string) {
	exposeDetails = env != "production"
}

// As reports whether err is (or wraps) an *Error and returns it
func As(err error) (*Error, bool) {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Respond writes err as a JSON error response
func Respond(c *gin.Context, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal(ErrInternal.Message, err)
	}

	body := gin.H{"error": appErr.Message}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error(c, "request failed", err)
		if exposeDetails && appErr.Err != nil {
			body["detail"] = appErr.Err.Error()
		}
	}
	c.AbortWithStatusJSON(appErr.Code, body)
}

// Recovery turns panics into a generic 500 and keeps the process alive
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger.Error(c, "panic recovered", fmt.Errorf("%v", r), zap.ByteString("stack", stack))

				body := gin.H{"error": ErrInternal.Message}
				if exposeDetails {
					body["detail"] = fmt.Sprint(r)
					body["stack"] = string(stack)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}
