/*
assembler.go - Earnings assembly and persistence

PURPOSE:
  Runs the calculation pipeline for one shift and writes the result.

FLOW (Engine.Calculate):
  1. Load shift                 (ErrShiftNotFound)
  2. Check shift is confirmed   (ErrAlreadyCalculated / ErrInvalidTransition)
  3. Load profession by project (ErrProfessionNotFound)
  4. Validate pay rules         (ErrInvalidConfiguration)
  5. Compute breakdown          (pure, see Compute)
  6. Move shift to calculated with its overtime summary
  7. Append breakdown row
  Steps 1-7 share one store transaction. Any error rolls everything back,
  so no row is ever written for a shift whose profession can't be resolved.

  ConfirmAndCalculate runs the draft → confirmed change first, and
  SubmitAndCalculate inserts a new confirmed shift first, in that same
  transaction. A failed calculation leaves the draft a draft, and leaves no
  shift at all for a submission.

TOTALS:
  total_net   = base_net   + overtime_net   + meals_net   + per_diem + services_net
  total_gross = base_gross + overtime_gross + meals_gross + per_diem + services_gross

  Per-diem is added to gross unconverted. It is a reimbursement and is
  treated as already gross-equivalent.
*/
package earnings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine computes and persists shift earnings.
type Engine struct {
	Store  TxStore
	Logger *slog.Logger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() BreakdownID
}

func NewEngine(store TxStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Store:  store,
		Logger: logger,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  func() BreakdownID { return BreakdownID(uuid.NewString()) },
	}
}

// Calculate computes the earnings of a confirmed shift, marks it calculated
// and appends one breakdown row.
func (e *Engine) Calculate(ctx context.Context, shiftID ShiftID) (*Breakdown, error) {
	return e.run(ctx, shiftID, func(s Store) (Breakdown, error) {
		return e.calculateIn(ctx, s, shiftID)
	})
}

// ConfirmAndCalculate confirms a draft shift and calculates it in one
// transaction.
func (e *Engine) ConfirmAndCalculate(ctx context.Context, shiftID ShiftID) (*Breakdown, error) {
	return e.run(ctx, shiftID, func(s Store) (Breakdown, error) {
		if err := s.ConfirmShift(ctx, shiftID); err != nil {
			return Breakdown{}, err
		}
		return e.calculateIn(ctx, s, shiftID)
	})
}

// SubmitAndCalculate inserts shift as confirmed and calculates it in one
// transaction. The new shift's ID is the breakdown's ShiftID.
func (e *Engine) SubmitAndCalculate(ctx context.Context, shift Shift) (*Breakdown, error) {
	shift.Status = StatusConfirmed
	return e.run(ctx, shift.ID, func(s Store) (Breakdown, error) {
		id, err := s.CreateShift(ctx, shift)
		if err != nil {
			return Breakdown{}, err
		}
		return e.calculateIn(ctx, s, id)
	})
}

func (e *Engine) run(ctx context.Context, shiftID ShiftID, fn func(Store) (Breakdown, error)) (*Breakdown, error) {
	var result Breakdown

	err := e.Store.WithTx(ctx, func(s Store) error {
		b, err := fn(s)
		if err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		e.Logger.Warn("earnings calculation failed", "shift_id", shiftID, "error", err)
		return nil, err
	}

	e.Logger.Info("earnings calculated",
		"shift_id", result.ShiftID,
		"breakdown_id", result.ID,
		"total_net", result.TotalNet,
		"total_gross", result.TotalGross,
	)
	return &result, nil
}

func (e *Engine) calculateIn(ctx context.Context, s Store, shiftID ShiftID) (Breakdown, error) {
	shift, err := s.GetShift(ctx, shiftID)
	if err != nil {
		return Breakdown{}, err
	}
	if err := CheckTransition(shift.ID, shift.Status, StatusCalculated); err != nil {
		return Breakdown{}, err
	}

	prof, err := s.GetProfessionByProject(ctx, shift.ProjectID)
	if err != nil {
		return Breakdown{}, err
	}

	b, err := Compute(shift, prof, e.Logger)
	if err != nil {
		return Breakdown{}, err
	}
	b.ID = e.NewID()
	b.CreatedAt = e.Now()

	if err := s.MarkCalculated(ctx, shift.ID, b.Details.OvertimeHours); err != nil {
		return Breakdown{}, err
	}
	if err := s.AppendBreakdown(ctx, b); err != nil {
		return Breakdown{}, err
	}
	return b, nil
}

// Compute produces the breakdown of a shift under a profession without
// touching storage. ID and CreatedAt are left empty.
//
// A malformed mentions payload is not an error: it is logged, recorded as a
// warning in the details, and treated as empty.
func Compute(shift *Shift, prof *Profession, logger *slog.Logger) (Breakdown, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := prof.Validate(); err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{
		ShiftID:      shift.ID,
		BasePayNet:   prof.BasePayNet,
		BasePayGross: prof.BasePayGross,
	}

	billable := ResolveOvertime(shift.TotalHours, prof.overtimeRule())
	overtime, err := AllocateBrackets(billable, prof.Brackets, prof.BaseOvertimeRate, prof.TaxPercent)
	if err != nil {
		return Breakdown{}, err
	}

	var warnings []string
	mentions, err := DecodeMentions(shift.MentionsJSON)
	if err != nil {
		logger.Warn("ignoring shift mentions", "shift_id", shift.ID, "error", err)
		warnings = append(warnings, err.Error())
		mentions = Mentions{}
	}

	meals, err := AdjudicateMeals(shift.Meals, mentions.Names(), prof.Meals, prof.BaseOvertimeRate, prof.TaxPercent)
	if err != nil {
		return Breakdown{}, err
	}

	services, err := MatchServices(mentions.Services, shift.AttachedServices, prof.Services)
	if err != nil {
		return Breakdown{}, err
	}

	if shift.IsExpenseDay {
		b.PerDiem = prof.PerDiem
	}

	b.OvertimeNet, b.OvertimeGross = overtime.Net, overtime.Gross
	b.MealsNet, b.MealsGross = meals.Net, meals.Gross
	b.ServicesNet, b.ServicesGross = services.Net, services.Gross

	b.TotalNet = b.BasePayNet + b.OvertimeNet + b.MealsNet + b.PerDiem + b.ServicesNet
	b.TotalGross = b.BasePayGross + b.OvertimeGross + b.MealsGross + b.PerDiem + b.ServicesGross

	summary, _ := billable.Add(meals.Hours).Float64()
	b.Details = Details{
		BaseHours:     prof.BaseShiftHours,
		TotalHours:    displayHours(decimal.NewFromFloat(shift.TotalHours)),
		BillableHours: displayHours(billable),
		MealHours:     displayHours(meals.Hours),
		OvertimeHours: summary,
		BasePay:       PayPair{Net: b.BasePayNet, Gross: b.BasePayGross},
		Overtime:      nonNil(overtime.Lines),
		Meals:         nonNil(meals.Lines),
		PerDiem:       b.PerDiem,
		Services:      nonNil(services.Lines),
		Warnings:      warnings,
	}
	return b, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
