package jsonapi

import (
	"net/http"
	"sort"
	"strconv"
)

// Error is a JSON:API error object.
type Error struct {
	Status string       `json:"status"`
	Code   string       `json:"code"`
	Title  string       `json:"title"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
}

// ErrorSource names the offending form field as a JSON pointer.
type ErrorSource struct {
	Pointer string `json:"pointer,omitempty"`
}

// StatusCode parses Status, returning 0 when it is not a number.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

// ErrorBuilder assembles an Error.
type ErrorBuilder struct {
	err Error
}

// NewError starts an error with the given status. The title defaults to
// the standard status text.
func NewError(status int, code, title string) *ErrorBuilder {
	if title == "" {
		title = http.StatusText(status)
	}
	return &ErrorBuilder{err: Error{Status: strconv.Itoa(status), Code: code, Title: title}}
}

func (b *ErrorBuilder) Detail(detail string) *ErrorBuilder {
	b.err.Detail = detail
	return b
}

// Field points the error at a form field.
func (b *ErrorBuilder) Field(key string) *ErrorBuilder {
	b.err.Source = &ErrorSource{Pointer: "/data/attributes/" + key}
	return b
}

func (b *ErrorBuilder) Build() Error {
	return b.err
}

func ErrBadRequest(detail string) Error {
	return NewError(http.StatusBadRequest, "bad_request", "").Detail(detail).Build()
}

func ErrForbidden(detail string) Error {
	if detail == "" {
		detail = "access denied"
	}
	return NewError(http.StatusForbidden, "forbidden", "").Detail(detail).Build()
}

func ErrNotFound(detail string) Error {
	return NewError(http.StatusNotFound, "not_found", "").Detail(detail).Build()
}

func ErrMethodNotAllowed(method string) Error {
	return NewError(http.StatusMethodNotAllowed, "method_not_allowed", "").
		Detail(method + " is not allowed on this route").
		Build()
}

// ErrValidation reports a form field that failed its rules.
func ErrValidation(key, message string) Error {
	return NewError(http.StatusUnprocessableEntity, "validation_error", "Validation Failed").
		Detail(message).
		Field(key).
		Build()
}

// FieldErrors turns a field to message map into validation errors ordered
// by field key.
func FieldErrors(fields map[string]string) []Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	errs := make([]Error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, ErrValidation(k, fields[k]))
	}
	return errs
}

func ErrNotImplemented(feature string) Error {
	return NewError(http.StatusNotImplemented, "not_implemented", "").
		Detail(feature + " is not implemented").
		Build()
}

// ErrBadGateway reports a failing resource service.
func ErrBadGateway(detail string) Error {
	return NewError(http.StatusBadGateway, "bad_gateway", "").Detail(detail).Build()
}
