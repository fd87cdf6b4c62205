package game

import "fmt"

// Rejections never mutate state: the first failing check short-circuits
// and the coordinator discards all pending writes.

type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	return e.Msg
}

type ConflictError struct {
	Msg string
}

func (e ConflictError) Error() string {
	return e.Msg
}

type BadRequestError struct {
	Msg string
}

func (e BadRequestError) Error() string {
	return e.Msg
}

type NotFoundError struct {
	Msg string
}

func (e NotFoundError) Error() string {
	return e.Msg
}

// UnexpectedError wraps an internal fault during mutation. It is the
// only kind eligible for operator-side investigation and retry.
type UnexpectedError struct {
	Err error
}

func (e UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e UnexpectedError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies a rejection for the caller.
type ErrorKind string

const (
	KindForbidden  ErrorKind = "forbidden"
	KindConflict   ErrorKind = "conflict"
	KindBadRequest ErrorKind = "bad_request"
	KindNotFound   ErrorKind = "not_found"
	KindUnexpected ErrorKind = "unexpected"
)

// Kind returns the error kind of err, defaulting to unexpected.
func Kind(err error) ErrorKind {
	switch err.(type) {
	case ForbiddenError:
		return KindForbidden
	case ConflictError:
		return KindConflict
	case BadRequestError:
		return KindBadRequest
	case NotFoundError:
		return KindNotFound
	default:
		return KindUnexpected
	}
}
