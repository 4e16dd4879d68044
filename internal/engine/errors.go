package engine

import (
	"errors"
	"fmt"

	"github.com/tartampluch/chronos-ics/internal/config"
)

// Sentinel errors returned by the pipeline. Callers match them with errors.Is.
var (
	// ErrLineMismatch marks a line that does not follow the appointment grammar.
	ErrLineMismatch = errors.New(config.ErrLineMismatch)
	// ErrTimeNormalization marks a date/time pair that no accepted layout could parse.
	ErrTimeNormalization = errors.New(config.ErrTimeNormalize)
	// ErrInvertedRange marks an event rejected because it ends before it starts.
	ErrInvertedRange = errors.New(config.ErrInvertedRange)
	// ErrNoEvents is returned when a run produced zero events. No document is emitted.
	ErrNoEvents = errors.New(config.ErrNoEvents)
	// ErrInputNotFound is returned when the local input file does not exist.
	ErrInputNotFound = errors.New(config.ErrInputNotFound)
	// ErrInputRead covers every other failure to obtain or read the input.
	ErrInputRead = errors.New(config.ErrInputRead)
	// ErrOutputWrite is returned when the calendar file cannot be written.
	ErrOutputWrite = errors.New(config.ErrOutputWrite)
	// ErrUnknownTimezone is returned when the configured zone cannot be loaded.
	ErrUnknownTimezone = errors.New(config.ErrUnknownTimezone)
	// ErrInvertedPolicy is returned for an unknown inverted range policy name.
	ErrInvertedPolicy = errors.New(config.ErrInvertedPolicy)
)

// NormalizeError carries the original strings of a failed normalization.
type NormalizeError struct {
	Date string
	Time string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("%s: %s %s", config.ErrTimeNormalize, e.Date, e.Time)
}

// Unwrap lets errors.Is(err, ErrTimeNormalization) match.
func (e *NormalizeError) Unwrap() error {
	return ErrTimeNormalization
}
