package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal server error")

	// ErrTooManyRequests is only produced by the rate limiters.
	ErrTooManyRequests = errors.New("too many requests")
	ErrUnavailable     = errors.New("service unavailable")

	// ErrTokenExpired is an Unauthorized error with its own message so clients can refresh.
	ErrTokenExpired = &AppError{Kind: ErrUnauthorized, Message: "token expired"}
)

// AppError carries a client-facing message and the taxonomy sentinel it belongs to.
type AppError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

// Is matches the sentinel kind, so errors.Is(err, ErrNotFound) works on wrapped AppErrors.
func (e *AppError) Is(target error) bool {
	return target == e.Kind
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newErr(kind error, msg string) *AppError {
	return &AppError{Kind: kind, Message: msg}
}

func Validation(msg string) *AppError   { return newErr(ErrValidation, msg) }
func Unauthorized(msg string) *AppError { return newErr(ErrUnauthorized, msg) }
func Forbidden(msg string) *AppError    { return newErr(ErrForbidden, msg) }
func NotFound(msg string) *AppError     { return newErr(ErrNotFound, msg) }
func Conflict(msg string) *AppError     { return newErr(ErrConflict, msg) }

func TooManyRequests(msg string) *AppError { return newErr(ErrTooManyRequests, msg) }
func Unavailable(msg string) *AppError     { return newErr(ErrUnavailable, msg) }

// Internal wraps a collaborator failure. The cause is kept for logs, never shown to clients.
func Internal(msg string, err error) *AppError {
	return &AppError{Kind: ErrInternal, Message: msg, Err: err}
}

// Status maps an error to its HTTP status code. Unknown errors are 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing text for err. Internal failures get a generic message.
func Message(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		if errors.Is(ae.Kind, ErrInternal) {
			if ae.Message != "" {
				return ae.Message
			}
			return ErrInternal.Error()
		}
		return ae.Error()
	}
	if Status(err) == http.StatusInternalServerError {
		return ErrInternal.Error()
	}
	return err.Error()
}
