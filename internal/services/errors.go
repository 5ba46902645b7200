package services

import (
	"errors"

	"creative-arena-backend/internal/store"
)

// Kinds of failure a service can report. Handlers map each kind to one HTTP
// status; the wrapping error carries the user-facing message.
var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized access")
	ErrForbidden           = errors.New("forbidden access")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrPaymentRequired     = errors.New("payment required")
	ErrPaymentVerification = errors.New("payment verification failed")
)

type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

func notFound(what string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return newError(ErrNotFound, what+" not found")
	}
	return err
}
