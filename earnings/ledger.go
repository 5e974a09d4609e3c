package earnings

import "context"

// Ledger is the read side of the breakdown log.
//
// INVARIANTS:
//   - Rows are never updated or deleted.
//   - A shift may have several rows if it was ever recalculated outside the
//     engine; the newest is authoritative for display.
type Ledger struct {
	Store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{Store: store}
}

// History returns every breakdown row for a shift, oldest first.
func (l *Ledger) History(ctx context.Context, shiftID ShiftID) ([]Breakdown, error) {
	return l.Store.ListBreakdowns(ctx, shiftID)
}

// Latest returns the newest breakdown row for a shift.
func (l *Ledger) Latest(ctx context.Context, shiftID ShiftID) (*Breakdown, error) {
	rows, err := l.Store.ListBreakdowns(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoBreakdown
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}
