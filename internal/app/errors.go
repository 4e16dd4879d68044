package app

import (
	"errors"
	"fmt"

	"github.com/tartampluch/chronos-ics/internal/config"
	"github.com/tartampluch/chronos-ics/internal/engine"
)

// AppError carries the process exit code alongside the cause.
// Printed marks errors already reported to the user.
type AppError struct {
	Code    int
	Err     error
	Printed bool
}

func (e AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e AppError) Unwrap() error {
	return e.Err
}

// Wrap attaches an exit code to err. A nil err stays nil.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return AppError{Code: code, Err: err}
}

// WrapPrinted is Wrap for errors the user has already seen.
func WrapPrinted(code int, err error) error {
	if err == nil {
		return nil
	}
	return AppError{Code: code, Err: err, Printed: true}
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return config.ExitCodeSuccess
	}
	var e AppError
	if errors.As(err, &e) {
		return e.Code
	}
	return config.ExitCodeError
}

// conversionExitCode classifies engine failures.
func conversionExitCode(err error) int {
	switch {
	case errors.Is(err, engine.ErrNoEvents):
		return config.ExitCodeNoEvents
	case errors.Is(err, engine.ErrInputNotFound):
		return config.ExitCodeInputAbsent
	case errors.Is(err, engine.ErrOutputWrite):
		return config.ExitCodeOutputWrite
	case errors.Is(err, engine.ErrUnknownTimezone), errors.Is(err, engine.ErrInvertedPolicy):
		return config.ExitCodeUsage
	default:
		return config.ExitCodeError
	}
}
