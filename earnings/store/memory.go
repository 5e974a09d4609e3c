// Package store provides Store implementations.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/shift-earnings/earnings"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	shifts      map[earnings.ShiftID]earnings.Shift
	professions map[earnings.ProjectID]earnings.Profession
	breakdowns  map[earnings.ShiftID][]earnings.Breakdown
}

func NewMemory() *Memory {
	return &Memory{
		shifts:      make(map[earnings.ShiftID]earnings.Shift),
		professions: make(map[earnings.ProjectID]earnings.Profession),
		breakdowns:  make(map[earnings.ShiftID][]earnings.Breakdown),
	}
}

// SaveShift inserts or replaces a shift.
func (m *Memory) SaveShift(_ context.Context, shift earnings.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[shift.ID] = cloneShift(shift)
	return nil
}

// CreateShift inserts a new shift. An empty ID gets a UUID and an empty
// status means draft.
func (m *Memory) CreateShift(_ context.Context, shift earnings.Shift) (earnings.ShiftID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createShiftLocked(shift), nil
}

// ConfirmShift moves a draft shift to confirmed.
func (m *Memory) ConfirmShift(_ context.Context, id earnings.ShiftID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmShiftLocked(id)
}

// SaveProfession inserts or replaces the profession of a project.
func (m *Memory) SaveProfession(_ context.Context, prof earnings.Profession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.professions[prof.ProjectID] = prof
	return nil
}

func (m *Memory) GetShift(_ context.Context, id earnings.ShiftID) (*earnings.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getShiftLocked(id)
}

func (m *Memory) GetProfessionByProject(_ context.Context, projectID earnings.ProjectID) (*earnings.Profession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getProfessionLocked(projectID)
}

func (m *Memory) MarkCalculated(_ context.Context, id earnings.ShiftID, overtimeHours float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markCalculatedLocked(id, overtimeHours)
}

// AppendBreakdown adds a breakdown row. Append-only.
func (m *Memory) AppendBreakdown(_ context.Context, b earnings.Breakdown) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(b)
	return nil
}

func (m *Memory) ListBreakdowns(_ context.Context, shiftID earnings.ShiftID) ([]earnings.Breakdown, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(shiftID), nil
}

func (m *Memory) getShiftLocked(id earnings.ShiftID) (*earnings.Shift, error) {
	shift, ok := m.shifts[id]
	if !ok {
		return nil, earnings.ErrShiftNotFound
	}
	shift = cloneShift(shift)
	return &shift, nil
}

func (m *Memory) createShiftLocked(shift earnings.Shift) earnings.ShiftID {
	if shift.ID == "" {
		shift.ID = earnings.ShiftID(uuid.NewString())
	}
	if shift.Status == "" {
		shift.Status = earnings.StatusDraft
	}
	m.shifts[shift.ID] = cloneShift(shift)
	return shift.ID
}

func (m *Memory) confirmShiftLocked(id earnings.ShiftID) error {
	shift, ok := m.shifts[id]
	if !ok {
		return earnings.ErrShiftNotFound
	}
	if err := earnings.CheckTransition(id, shift.Status, earnings.StatusConfirmed); err != nil {
		return err
	}
	shift.Status = earnings.StatusConfirmed
	m.shifts[id] = shift
	return nil
}

// cloneShift detaches the link slices so stored shifts can't be changed
// through a caller's copy.
func cloneShift(shift earnings.Shift) earnings.Shift {
	shift.Meals = slices.Clone(shift.Meals)
	shift.AttachedServices = slices.Clone(shift.AttachedServices)
	return shift
}

func (m *Memory) getProfessionLocked(projectID earnings.ProjectID) (*earnings.Profession, error) {
	prof, ok := m.professions[projectID]
	if !ok {
		return nil, earnings.ErrProfessionNotFound
	}
	return &prof, nil
}

func (m *Memory) markCalculatedLocked(id earnings.ShiftID, overtimeHours float64) error {
	shift, ok := m.shifts[id]
	if !ok {
		return earnings.ErrShiftNotFound
	}
	if err := earnings.CheckTransition(id, shift.Status, earnings.StatusCalculated); err != nil {
		return err
	}
	shift.Status = earnings.StatusCalculated
	shift.OvertimeHours = overtimeHours
	m.shifts[id] = shift
	return nil
}

func (m *Memory) appendLocked(b earnings.Breakdown) {
	m.breakdowns[b.ShiftID] = append(m.breakdowns[b.ShiftID], b)
}

func (m *Memory) listLocked(shiftID earnings.ShiftID) []earnings.Breakdown {
	result := make([]earnings.Breakdown, len(m.breakdowns[shiftID]))
	copy(result, m.breakdowns[shiftID])
	return result
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

var _ earnings.TxStore = (*TxMemory)(nil)

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(_ context.Context, fn func(earnings.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	shifts     map[earnings.ShiftID]earnings.Shift
	breakdowns map[earnings.ShiftID][]earnings.Breakdown
}

func (tm *TxMemory) snapshot() memorySnapshot {
	shifts := make(map[earnings.ShiftID]earnings.Shift, len(tm.shifts))
	for k, v := range tm.shifts {
		shifts[k] = v
	}
	breakdowns := make(map[earnings.ShiftID][]earnings.Breakdown, len(tm.breakdowns))
	for k, v := range tm.breakdowns {
		breakdowns[k] = append([]earnings.Breakdown{}, v...)
	}
	return memorySnapshot{shifts: shifts, breakdowns: breakdowns}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.shifts = s.shifts
	tm.breakdowns = s.breakdowns
}

// txMemoryView runs against the parent while WithTx holds its lock.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) CreateShift(_ context.Context, shift earnings.Shift) (earnings.ShiftID, error) {
	return tv.parent.createShiftLocked(shift), nil
}

func (tv *txMemoryView) ConfirmShift(_ context.Context, id earnings.ShiftID) error {
	return tv.parent.confirmShiftLocked(id)
}

func (tv *txMemoryView) GetShift(_ context.Context, id earnings.ShiftID) (*earnings.Shift, error) {
	return tv.parent.getShiftLocked(id)
}

func (tv *txMemoryView) GetProfessionByProject(_ context.Context, projectID earnings.ProjectID) (*earnings.Profession, error) {
	return tv.parent.getProfessionLocked(projectID)
}

func (tv *txMemoryView) MarkCalculated(_ context.Context, id earnings.ShiftID, overtimeHours float64) error {
	return tv.parent.markCalculatedLocked(id, overtimeHours)
}

func (tv *txMemoryView) AppendBreakdown(_ context.Context, b earnings.Breakdown) error {
	tv.parent.appendLocked(b)
	return nil
}

func (tv *txMemoryView) ListBreakdowns(_ context.Context, shiftID earnings.ShiftID) ([]earnings.Breakdown, error) {
	return tv.parent.listLocked(shiftID), nil
}
