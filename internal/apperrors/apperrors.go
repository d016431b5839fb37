// internal/apperrors/apperrors.go

// Package apperrors defines the coded business errors shared by the catalog,
// discount, and inventory services. Handlers map codes onto HTTP statuses so
// callers can distinguish validation failures (fix input, retry) from missing
// resources (terminal) from actionable business conditions such as
// insufficient stock.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeNotFound                       Code = "NOT_FOUND"
	CodeValidation                     Code = "VALIDATION_ERROR"
	CodeInvalidRule                    Code = "INVALID_RULE"
	CodeInactive                       Code = "INACTIVE"
	CodeInsufficientQuantity           Code = "INSUFFICIENT_QUANTITY"
	CodeInsufficientQuantityAtLocation Code = "INSUFFICIENT_QUANTITY_AT_LOCATION"
	CodeUnitNotAvailable               Code = "UNIT_NOT_AVAILABLE"
	CodeInvalidTransition              Code = "INVALID_TRANSITION"
	CodeNegativeQuantity               Code = "NEGATIVE_QUANTITY"
	CodeDuplicateSerial                Code = "DUPLICATE_SERIAL"
	CodeImmutableField                 Code = "IMMUTABLE_FIELD"
	CodeConflict                       Code = "CONFLICT"
	CodeInternal                       Code = "INTERNAL_ERROR"
)

type Error struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Message: resource + " not found"}
}

func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// CodeOf extracts the code from an error chain, defaulting to INTERNAL_ERROR
// for plain errors.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps an error code to the status used by the REST layer.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeInvalidRule:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeInsufficientQuantity, CodeInsufficientQuantityAtLocation, CodeUnitNotAvailable,
		CodeInvalidTransition, CodeNegativeQuantity, CodeDuplicateSerial, CodeImmutableField,
		CodeInactive:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
