package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mbolis/quick-forms/log"
)

// Error is an expected failure: it carries the status code and the message
// the client gets to see.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(status int, msg string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(msg, args...)}
}

func Unauthenticated(msg string) *Error {
	return NewError(http.StatusUnauthorized, "%s", msg)
}

func Forbidden(msg string) *Error {
	return NewError(http.StatusForbidden, "%s", msg)
}

func NotFound(msg string) *Error {
	return NewError(http.StatusNotFound, "%s", msg)
}

func ValidationFailed(msg string, args ...any) *Error {
	return NewError(http.StatusBadRequest, msg, args...)
}

func TooManyRequests(msg string) *Error {
	return NewError(http.StatusTooManyRequests, "%s", msg)
}

// Internal marks err as unexpected; its message is never sent outside debug mode.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: http.StatusText(http.StatusInternalServerError), Err: err}
}

// LogError is the boundary translator: it logs err under code and writes the
// error envelope. Expected errors are logged at DEBUG level with their own
// status and message. Errors of any other type are a 500.
func LogError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var e *Error
	if !errors.As(err, &e) {
		LogInternalError(w, r, code, err)
		return
	}
	if e.Status < http.StatusInternalServerError {
		log.Debugf("%s: %s", code, e)
		WriteError(w, r, e.Status, e.Message)
		return
	}

	log.Errorf("%s: %s", code, e)
	msg := e.Message
	if log.IsDebug() && e.Err != nil {
		msg = e.Err.Error()
	}
	WriteError(w, r, e.Status, msg)
}

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	msg := http.StatusText(http.StatusInternalServerError)
	if log.IsDebug() && err != nil {
		msg = err.Error()
	}
	WriteError(w, r, http.StatusInternalServerError, msg)
}
