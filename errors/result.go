package errors

import (
	"errors"
	"fmt"
)

const (
	// SuccessCode is the result code of a transaction that was applied.
	SuccessCode = 0

	// Errors that do not wrap a registered root error are reported with the
	// internal code and a generic log.
	internalCode uint32 = 1
	internalLog         = "internal error"
)

// ResultInfo returns the result code and log of a processed transaction.
// Registered errors expose their message. All other errors are internal and
// their message is hidden unless debug is set, in which case the full error
// with its stack trace is returned.
func ResultInfo(err error, debug bool) (uint32, string) {
	if errIsNil(err) {
		return SuccessCode, ""
	}
	code := Code(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalCode:
		return code, internalLog
	default:
		return code, err.Error()
	}
}

// Code returns the code of the root error wrapped by err, SuccessCode for a
// nil error and the internal code when no registered root error is found.
func Code(err error) uint32 {
	if errIsNil(err) {
		return SuccessCode
	}
	for {
		if c, ok := err.(interface{ Code() uint32 }); ok {
			return c.Code()
		}
		c, ok := err.(causer)
		if !ok {
			return internalCode
		}
		err = c.Cause()
	}
}

// Redact replaces internal errors and recovered panics with a generic error,
// so that no implementation details leak to a client. It returns err
// unchanged when debug is set.
func Redact(err error, debug bool) error {
	if debug {
		return err
	}
	if ErrPanic.Is(err) || Code(err) == internalCode {
		return errors.New(internalLog)
	}
	return err
}
