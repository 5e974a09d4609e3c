/*
store.go - Persistence interface for shifts, professions and breakdowns

PURPOSE:
  Defines the narrow contract between the engine and the database. The
  engine reads one shift and one profession and writes one breakdown row
  plus the shift's overtime summary. When a shift is confirmed and
  calculated in one step, the insert or the draft → confirmed change runs
  in the same transaction.

APPEND-ONLY BREAKDOWNS:
  AppendBreakdown never replaces an existing row. Appending the same result
  twice stores two rows. Guarding against a second calculation is the job of
  MarkCalculated, which only succeeds on a confirmed shift.

ATOMICITY:
  Engine.Calculate, ConfirmAndCalculate and SubmitAndCalculate run inside
  TxStore.WithTx. Status changes and the breakdown insert commit together
  or not at all, so a failed calculation leaves the shift as it was.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - earnings/store/memory.go: In-memory for testing
*/
package earnings

import "context"

// Store handles the engine's reads and writes.
type Store interface {
	// CreateShift inserts a shift with its meal links and attached
	// services. An empty ID is filled in; an empty status means draft.
	CreateShift(ctx context.Context, shift Shift) (ShiftID, error)

	// ConfirmShift moves a draft shift to confirmed. ErrShiftNotFound or a
	// TransitionError otherwise.
	ConfirmShift(ctx context.Context, id ShiftID) error

	// GetShift returns ErrShiftNotFound when the shift doesn't exist.
	GetShift(ctx context.Context, id ShiftID) (*Shift, error)

	// GetProfessionByProject returns the project's profession with brackets
	// ordered, meal and service catalogs loaded. ErrProfessionNotFound when
	// none is configured.
	GetProfessionByProject(ctx context.Context, projectID ProjectID) (*Profession, error)

	// MarkCalculated moves a confirmed shift to calculated and records its
	// overtime summary. Returns ErrAlreadyCalculated if the shift is already
	// calculated, ErrInvalidTransition for any other status.
	MarkCalculated(ctx context.Context, id ShiftID, overtimeHours float64) error

	// AppendBreakdown persists a breakdown row. Append-only.
	AppendBreakdown(ctx context.Context, b Breakdown) error

	// ListBreakdowns returns the rows for a shift, oldest first.
	ListBreakdowns(ctx context.Context, shiftID ShiftID) ([]Breakdown, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
