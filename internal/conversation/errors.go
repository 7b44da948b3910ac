package conversation

import (
	"errors"
	"fmt"
)

var ErrPairNotFound = errors.New("conversation: device pair not found")

type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorPairNotFound ErrorCode = "PAIR_NOT_FOUND"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

// Error is the rejection returned by Service. Errors carries every
// validation violation for INVALID_INPUT.
type Error struct {
	Code   ErrorCode
	Reason string
	Errors []string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("conversation: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("conversation: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the ErrorCode carried by err, or ErrorInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrorInternal
}
