package service

import "net/http"

// Error is an expected failure that carries the HTTP status it maps to.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func badRequest(message string) *Error   { return NewError(http.StatusBadRequest, message) }
func unauthorized(message string) *Error { return NewError(http.StatusUnauthorized, message) }
func notFound(message string) *Error     { return NewError(http.StatusNotFound, message) }
