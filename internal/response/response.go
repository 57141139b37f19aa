// Package response defines the JSON envelope shared by every
// endpoint and the typed error that business logic raises to select
// an HTTP status and machine-readable code.
package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Error codes carried in the error envelope.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIError is a business-logic failure with an HTTP status and a
// stable code. Anything else that reaches the error handler becomes
// a generic INTERNAL_ERROR without leaking internals.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

func Validation(message string, details interface{}) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Details: details}
}

func Unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: CodeConflict, Message: message}
}

func RateLimited(message string) *APIError {
	return &APIError{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: message}
}

// JSON bodies follow {success:true,data} / {success:false,error:{...}}.
type successEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// Success writes a success envelope with the given status code.
func Success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, successEnvelope{Success: true, Data: data})
}

// HTTPErrorHandler converts any error escaping a handler into the
// error envelope. Register it as echo's HTTPErrorHandler so handlers
// and middleware can simply return errors.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		_ = c.JSON(apiErr.Status, errorEnvelope{Success: false, Error: apiErr})
		return
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg, ok := echoErr.Message.(string)
		if !ok {
			msg = http.StatusText(echoErr.Code)
		}
		_ = c.JSON(echoErr.Code, errorEnvelope{Success: false, Error: &APIError{
			Status:  echoErr.Code,
			Code:    codeForStatus(echoErr.Code),
			Message: msg,
		}})
		return
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
	_ = c.JSON(http.StatusInternalServerError, errorEnvelope{Success: false, Error: &APIError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "Internal server error",
	}})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimited
	default:
		return CodeInternal
	}
}
