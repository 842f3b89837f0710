package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors shared by the domain packages.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
	ErrTooLarge   = errors.New("payload too large")
)

// StatusOf maps a domain error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to the {"error"} envelope. Internal
// failures never leak their cause to the client.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		Error(w, status, "internal server error")
		return
	}
	Error(w, status, Cause(err))
}

// Cause returns the outermost message of err with any sentinel suffix
// stripped, e.g. "Invalid updates!" for "Invalid updates!: validation failed".
func Cause(err error) string {
	var msg interface{ Public() string }
	if errors.As(err, &msg) {
		return msg.Public()
	}
	return err.Error()
}

// PublicError carries a client-facing message alongside a sentinel.
type PublicError struct {
	Msg  string
	Kind error
}

func (e *PublicError) Error() string { return e.Msg + ": " + e.Kind.Error() }

// Public returns the message shown to clients.
func (e *PublicError) Public() string { return e.Msg }

func (e *PublicError) Unwrap() error { return e.Kind }

// Errorf builds a PublicError of the given kind.
func Errorf(kind error, msg string) error {
	return &PublicError{Msg: msg, Kind: kind}
}
