package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// AppError is an error meant for API callers. Err keeps the underlying
// cause for logs; it is never rendered.
type AppError struct {
	Status  int
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(status int, code, message string, details interface{}) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Details: details}
}

// WithCause returns a copy of e carrying err.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorBody{
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
		}})
		return
	}

	if appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}
	c.JSON(appErr.Status, ErrorResponse{Error: ErrorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}})
}

func RespondValidationError(c *gin.Context, details interface{}) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
		Code:    "VALIDATION_ERROR",
		Message: "invalid request",
		Details: details,
	}})
}

func RespondOK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}
