package earnings

import (
	"fmt"
	"time"
)

// =============================================================================
// SHIFT LIFECYCLE
// =============================================================================
//
//   draft -> confirmed -> calculated
//
// A calculated shift is final. Stores enforce the move into calculated with a
// conditional update so that two calculations of one shift cannot both write.

var transitions = map[ShiftStatus]ShiftStatus{
	StatusDraft:     StatusConfirmed,
	StatusConfirmed: StatusCalculated,
}

// CanTransition reports whether a shift may move from one status to another.
func (s ShiftStatus) CanTransition(to ShiftStatus) bool {
	next, ok := transitions[s]
	return ok && next == to
}

// CheckTransition returns a *TransitionError when the move is not allowed.
func CheckTransition(id ShiftID, from, to ShiftStatus) error {
	if from.CanTransition(to) {
		return nil
	}
	return &TransitionError{ShiftID: id, From: from, To: to}
}

// =============================================================================
// WORKED HOURS
// =============================================================================

const clockLayout = "15:04"

// WorkedHours returns the hours between two HH:MM clock times. An end at or
// before the start is taken to be on the next day.
func WorkedHours(start, end string) (float64, error) {
	s, err := time.Parse(clockLayout, start)
	if err != nil {
		return 0, fmt.Errorf("parse start time %q: %w", start, err)
	}
	e, err := time.Parse(clockLayout, end)
	if err != nil {
		return 0, fmt.Errorf("parse end time %q: %w", end, err)
	}
	if !e.After(s) {
		e = e.Add(24 * time.Hour)
	}
	return e.Sub(s).Hours(), nil
}
