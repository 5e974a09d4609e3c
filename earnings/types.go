/*
Package earnings provides the shift earnings calculation engine.

PURPOSE:
  Given a persisted shift and the pay rules of the profession it was worked
  under, the engine deterministically produces an auditable breakdown and two
  totals: what the worker takes home (net) and what they are owed before tax
  (gross).

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: An integer amount in the smallest display unit
  - Shift: One logged workday with its mentions and meal links
  - Profession: Pay rules of a project (rates, brackets, catalogs)
  - Breakdown: The write-once result of a calculation

PIPELINE:
  Engine.Calculate runs, in order:
    ResolveOvertime  -> billable overtime hours
    AllocateBrackets -> progressive overtime pay
    AdjudicateMeals  -> meal bonus hours and pay
    MatchServices    -> itemized extra services
  and then sums everything into one Breakdown.

DESIGN PRINCIPLES:
  1. Precision: hour and rate arithmetic runs on decimal.Decimal
  2. One tax primitive: GrossFromNet / NetFromGross (tax.go)
  3. Write-once output: breakdown rows are appended, never updated

SEE ALSO:
  - tax.go: Net/gross conversion
  - assembler.go: Engine orchestration
  - store.go: Persistence interfaces
*/
package earnings

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Integer currency amount
// =============================================================================

// Money is a currency amount in the smallest display unit. There are no
// fractional subunits anywhere in the engine.
type Money int64

func (m Money) Decimal() decimal.Decimal { return decimal.NewFromInt(int64(m)) }

func moneyFromDecimal(d decimal.Decimal) Money { return Money(d.IntPart()) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ShiftID string
type ProjectID string
type ProfessionID string
type MealTypeID string
type ServiceID string
type BreakdownID string

// =============================================================================
// SHIFT - One logged workday
// =============================================================================

type ShiftStatus string

const (
	StatusDraft      ShiftStatus = "draft"
	StatusConfirmed  ShiftStatus = "confirmed"
	StatusCalculated ShiftStatus = "calculated"
)

type Shift struct {
	ID        ShiftID
	ProjectID ProjectID
	Date      time.Time
	StartTime string // HH:MM
	EndTime   string // HH:MM

	// TotalHours may exceed 24 when the shift spans midnight. Normalizing it
	// is the caller's job.
	TotalHours   float64
	IsExpenseDay bool
	Status       ShiftStatus

	OriginalMessage string

	// MentionsJSON is the raw mentions payload as stored, e.g.
	// {"meals":["lunch"],"services":["camera car"]}. Decoded lazily so a
	// broken payload only costs meals and services, not the whole shift.
	MentionsJSON string

	// Meals are persisted shift-meal links. The same meal type may appear
	// more than once.
	Meals []MealTypeID

	// AttachedServices are applied regardless of their application rule.
	AttachedServices []ServiceID

	// OvertimeHours is the display summary written by the engine:
	// billable overtime plus meal bonus hours.
	OvertimeHours float64

	CreatedAt time.Time
}

// =============================================================================
// PROFESSION - Pay rules for a project
// =============================================================================

type Profession struct {
	ID        ProfessionID
	ProjectID ProjectID
	Name      string

	BaseShiftHours float64
	BasePayNet     Money
	// BasePayGross is derived once when the profession is created.
	BasePayGross Money
	TaxPercent   float64

	BaseOvertimeRate Money // net, per hour
	PerDiem          Money // net

	OvertimeThreshold float64 // hours of excess ignored
	OvertimeRounding  float64 // hours; 0 disables rounding

	Brackets []Bracket
	Meals    []MealType
	Services []Service
}

// Bracket is a half-open hour range [HoursFrom, HoursTo) with its own net
// hourly rate. A nil HoursTo means unbounded.
type Bracket struct {
	Order     int
	HoursFrom float64
	HoursTo   *float64
	RateNet   Money
}

type MealType struct {
	ID         MealTypeID
	Name       string
	BonusHours float64
	Keywords   []string
}

// DefaultMealBonusHours is used when a meal type is created without a bonus.
const DefaultMealBonusHours = 1.0

type ServiceRule string

const (
	RuleOnMention ServiceRule = "on_mention"
	RuleAlways    ServiceRule = "always"
)

type Service struct {
	ID         ServiceID
	Name       string
	CostNet    Money
	TaxPercent float64
	Rule       ServiceRule
	Keywords   []string
}

// =============================================================================
// BREAKDOWN - Calculation output
// =============================================================================

// Breakdown is one calculation result. It is never mutated after insertion;
// calculating a shift again appends a new row.
type Breakdown struct {
	ID      BreakdownID
	ShiftID ShiftID

	BasePayNet    Money
	BasePayGross  Money
	OvertimeNet   Money
	OvertimeGross Money
	MealsNet      Money
	MealsGross    Money
	PerDiem       Money
	ServicesNet   Money
	ServicesGross Money

	TotalNet   Money
	TotalGross Money

	Details Details

	CreatedAt time.Time
}

// Details mirrors the line items used for audit and display.
type Details struct {
	BaseHours     float64       `json:"base_hours"`
	TotalHours    float64       `json:"total_hours"`
	BillableHours float64       `json:"billable_hours"`
	MealHours     float64       `json:"meal_hours"`
	OvertimeHours float64       `json:"overtime_hours"`
	BasePay       PayPair       `json:"base_pay"`
	Overtime      []BracketLine `json:"overtime"`
	Meals         []MealLine    `json:"meals"`
	PerDiem       Money         `json:"per_diem"`
	Services      []ServiceLine `json:"services"`
	Warnings      []string      `json:"warnings,omitempty"`
}

type PayPair struct {
	Net   Money `json:"net"`
	Gross Money `json:"gross"`
}

type BracketLine struct {
	Label      string  `json:"bracket"`
	Hours      float64 `json:"hours"`
	RateNet    Money   `json:"rate_net"`
	RateGross  Money   `json:"rate_gross"`
	TotalNet   Money   `json:"total_net"`
	TotalGross Money   `json:"total_gross"`
}

type MealLine struct {
	Name       string  `json:"name"`
	Hours      float64 `json:"hours"`
	RateNet    Money   `json:"rate_net"`
	TotalNet   Money   `json:"total_net"`
	TotalGross Money   `json:"total_gross"`
}

type ServiceLine struct {
	Name       string  `json:"name"`
	CostNet    Money   `json:"cost_net"`
	CostGross  Money   `json:"cost_gross"`
	TaxPercent float64 `json:"tax"`
}

// displayHours rounds an hour quantity to two decimals. Display only.
func displayHours(h decimal.Decimal) float64 {
	f, _ := h.Round(2).Float64()
	return f
}
