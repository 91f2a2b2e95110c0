// Package apperr defines the failure kinds returned by the service layer.
// Callers match them with errors.Is; wrapped messages carry the detail.
package apperr

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrBadCredentials  = errors.New("bad credentials")
	ErrNotVerified     = errors.New("email not verified")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrExpired         = errors.New("token expired")
	ErrAlreadyVerified = errors.New("email already verified")
	ErrRateLimited     = errors.New("too many verification requests")
	ErrEmailDispatch   = errors.New("verification email could not be sent")
)

// Uniqueness failures are conflicts with a specific message.
var (
	ErrEmailTaken    = wrap(ErrConflict, "email is already in use")
	ErrUsernameTaken = wrap(ErrConflict, "username is already taken")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func wrap(kind error, msg string) error { return &kindError{kind: kind, msg: msg} }

// New returns an error of the given kind whose message is msg alone, so the
// text can be shown to API clients unchanged.
func New(kind error, msg string) error { return wrap(kind, msg) }

// Kind returns the first sentinel from this package found in err's chain,
// or nil when err carries none of them.
func Kind(err error) error {
	for _, k := range []error{
		ErrInvalidInput, ErrConflict, ErrBadCredentials, ErrNotVerified,
		ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrExpired,
		ErrAlreadyVerified, ErrRateLimited, ErrEmailDispatch,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

var codes = map[error]string{
	ErrInvalidInput:    "invalid_input",
	ErrConflict:        "conflict",
	ErrBadCredentials:  "bad_credentials",
	ErrNotVerified:     "not_verified",
	ErrUnauthenticated: "unauthenticated",
	ErrForbidden:       "forbidden",
	ErrNotFound:        "not_found",
	ErrExpired:         "token_expired",
	ErrAlreadyVerified: "already_verified",
	ErrRateLimited:     "rate_limited",
	ErrEmailDispatch:   "email_dispatch_failed",
}

// Code returns the machine-readable code for err: "ok" for nil and
// "internal_error" when err carries no known kind.
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	if k := Kind(err); k != nil {
		return codes[k]
	}
	return "internal_error"
}
