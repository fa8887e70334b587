package response

import (
	"errors"
)

type Error struct {
	Code int
	Key  string
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{Code: code, Err: errors.New(err)}
}

// NewCodedError is NewError with a machine readable key clients can switch on.
func NewCodedError(code int, key string, err string) error {
	return &Error{Code: code, Key: key, Err: errors.New(err)}
}

// Key returns the machine readable key carried by err, or "" when it has none.
func Key(err error) string {
	var respErr *Error
	if errors.As(err, &respErr) {
		return respErr.Key
	}
	return ""
}
