/*
errors.go - Centralized error types for the earnings engine

ERROR CATEGORIES:
  1. Not found - shift or profession cannot be resolved (fatal, no write)
  2. Invalid configuration - pay rules that would divide by zero or pay
     negative amounts (fatal, no write)
  3. Malformed mentions - recovered locally, mentions treated as empty
  4. State - shift is not in a state that allows calculation

USAGE:
    if errors.Is(err, earnings.ErrInvalidConfiguration) {
        var cfgErr *earnings.ConfigError
        errors.As(err, &cfgErr) // which field, why
    }
*/
package earnings

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrShiftNotFound is returned when the referenced shift doesn't exist.
	ErrShiftNotFound = errors.New("shift not found")

	// ErrProfessionNotFound is returned when no profession is configured for
	// the shift's project.
	ErrProfessionNotFound = errors.New("profession not found")

	// ErrProjectNotFound is returned when the referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrNoBreakdown is returned when a shift has no earnings rows yet.
	ErrNoBreakdown = errors.New("no earnings breakdown for shift")

	// ErrInvalidConfiguration is returned for pay rules the engine refuses
	// to compute with.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMalformedMentions is returned by DecodeMentions. The engine never
	// surfaces it; it logs and continues with empty mentions.
	ErrMalformedMentions = errors.New("malformed mentions payload")

	// ErrAlreadyCalculated is returned when a shift has already been moved
	// into the calculated state.
	ErrAlreadyCalculated = errors.New("shift already calculated")

	// ErrInvalidTransition is returned for status changes the shift
	// lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid shift status transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError names the offending configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

func configErr(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	ShiftID ShiftID
	From    ShiftStatus
	To      ShiftStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("shift %s: cannot move from %s to %s", e.ShiftID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	if e.From == StatusCalculated && e.To == StatusCalculated {
		return ErrAlreadyCalculated
	}
	return ErrInvalidTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShiftNotFound) ||
		errors.Is(err, ErrProfessionNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrNoBreakdown)
}

// IsConflict returns true if the error is a lifecycle conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyCalculated) || errors.Is(err, ErrInvalidTransition)
}
