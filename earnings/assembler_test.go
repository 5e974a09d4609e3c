package earnings_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/earnings/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func upTo(h float64) *float64 { return &h }

// crewProfession is the reference configuration: 12h base, 10000 net base
// pay, 13% tax, two overtime tiers, one meal type.
func crewProfession() earnings.Profession {
	return earnings.Profession{
		ID:                "prof-1",
		ProjectID:         "proj-1",
		Name:              "Gaffer",
		BaseShiftHours:    12,
		BasePayNet:        10000,
		BasePayGross:      11494,
		TaxPercent:        13,
		BaseOvertimeRate:  500,
		PerDiem:           1500,
		OvertimeThreshold: 0.25,
		OvertimeRounding:  0.5,
		Brackets: []earnings.Bracket{
			{Order: 1, HoursFrom: 0, HoursTo: upTo(2), RateNet: 500},
			{Order: 2, HoursFrom: 2, HoursTo: upTo(4), RateNet: 600},
		},
		Meals: []earnings.MealType{
			{ID: "meal-lunch", Name: "lunch", BonusHours: 1.0},
		},
		Services: []earnings.Service{
			{ID: "svc-car", Name: "camera car", CostNet: 500, TaxPercent: 15, Rule: earnings.RuleOnMention},
		},
	}
}

func confirmedShift(id string, hours float64) earnings.Shift {
	return earnings.Shift{
		ID:         earnings.ShiftID(id),
		ProjectID:  "proj-1",
		Date:       time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "08:00",
		EndTime:    "00:00",
		TotalHours: hours,
		Status:     earnings.StatusConfirmed,
	}
}

func newTestEngine(t *testing.T, prof *earnings.Profession, shifts ...earnings.Shift) (*earnings.Engine, *store.TxMemory) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewTxMemory()
	if prof != nil {
		require.NoError(t, mem.SaveProfession(ctx, *prof))
	}
	for _, s := range shifts {
		require.NoError(t, mem.SaveShift(ctx, s))
	}
	return earnings.NewEngine(mem, quietLogger()), mem
}

// =============================================================================
// END-TO-END
// =============================================================================

func TestCalculate_ReferenceScenario(t *testing.T) {
	// GIVEN: 16h worked on a 12h base, 0.25 threshold, 0.5 rounding,
	//        tiers [0,2)@500 [2,4)@600, 13% tax, one lunch, no services,
	//        not an expense day
	// WHEN: Calculating
	// THEN: total_net ~ 10000 + 2200 + 500 = 12700

	prof := crewProfession()
	shift := confirmedShift("sh-1", 16)
	shift.Meals = []earnings.MealTypeID{"meal-lunch"}
	engine, mem := newTestEngine(t, &prof, shift)
	ctx := context.Background()

	b, err := engine.Calculate(ctx, "sh-1")
	require.NoError(t, err)

	assert.InDelta(t, 12700, int64(b.TotalNet), 2)
	assert.Equal(t, earnings.Money(12701), b.TotalNet)
	assert.Equal(t, earnings.Money(14599), b.TotalGross)

	assert.Equal(t, earnings.Money(10000), b.BasePayNet)
	assert.Equal(t, earnings.Money(11494), b.BasePayGross)
	assert.Equal(t, earnings.Money(2201), b.OvertimeNet)
	assert.Equal(t, earnings.Money(2530), b.OvertimeGross)
	assert.Equal(t, earnings.Money(500), b.MealsNet)
	assert.Equal(t, earnings.Money(575), b.MealsGross)
	assert.Equal(t, earnings.Money(0), b.PerDiem)
	assert.Equal(t, earnings.Money(0), b.ServicesNet)

	assert.Equal(t, 4.0, b.Details.BillableHours)
	assert.Equal(t, 1.0, b.Details.MealHours)
	assert.Equal(t, 5.0, b.Details.OvertimeHours)
	assert.Len(t, b.Details.Overtime, 2)
	assert.Len(t, b.Details.Meals, 1)
	assert.Empty(t, b.Details.Services)

	stored, err := mem.GetShift(ctx, "sh-1")
	require.NoError(t, err)
	assert.Equal(t, earnings.StatusCalculated, stored.Status)
	assert.Equal(t, 5.0, stored.OvertimeHours, "summary is billable + meal hours")

	rows, err := mem.ListBreakdowns(ctx, "sh-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].ID)
}

func TestCalculate_ShortShiftHasNoOvertime(t *testing.T) {
	prof := crewProfession()
	engine, _ := newTestEngine(t, &prof, confirmedShift("sh-1", 9))

	b, err := engine.Calculate(context.Background(), "sh-1")
	require.NoError(t, err)

	assert.Equal(t, earnings.Money(0), b.OvertimeNet)
	assert.Equal(t, earnings.Money(0), b.OvertimeGross)
	assert.Empty(t, b.Details.Overtime)
	assert.Equal(t, earnings.Money(10000), b.TotalNet, "base pay is paid in full")
}

func TestCalculate_MealHoursNeverEnterBrackets(t *testing.T) {
	// GIVEN: Exactly 12h on a 12h base with lunch attached
	// THEN: No bracket overtime; meal net = 1.0 * 500

	prof := crewProfession()
	shift := confirmedShift("sh-1", 12)
	shift.Meals = []earnings.MealTypeID{"meal-lunch"}
	engine, _ := newTestEngine(t, &prof, shift)

	b, err := engine.Calculate(context.Background(), "sh-1")
	require.NoError(t, err)

	assert.Equal(t, earnings.Money(0), b.OvertimeNet)
	assert.Empty(t, b.Details.Overtime)
	assert.Equal(t, earnings.Money(500), b.MealsNet)
	assert.Equal(t, 1.0, b.Details.OvertimeHours)
}

func TestCalculate_ExpenseDayAddsPerDiemUnconverted(t *testing.T) {
	prof := crewProfession()
	shift := confirmedShift("sh-1", 10)
	shift.IsExpenseDay = true
	engine, _ := newTestEngine(t, &prof, shift)

	b, err := engine.Calculate(context.Background(), "sh-1")
	require.NoError(t, err)

	assert.Equal(t, earnings.Money(1500), b.PerDiem)
	assert.Equal(t, earnings.Money(10000+1500), b.TotalNet)
	assert.Equal(t, earnings.Money(11494+1500), b.TotalGross, "per-diem is not grossed up")
}

func TestCalculate_ServicesFromMentions(t *testing.T) {
	prof := crewProfession()
	shift := confirmedShift("sh-1", 10)
	shift.MentionsJSON = `{"services":["Camera Car all day"]}`
	engine, _ := newTestEngine(t, &prof, shift)

	b, err := engine.Calculate(context.Background(), "sh-1")
	require.NoError(t, err)

	assert.Equal(t, earnings.Money(500), b.ServicesNet)
	assert.Equal(t, earnings.Money(588), b.ServicesGross, "service's own 15% tax")
	assert.Equal(t, earnings.Money(10500), b.TotalNet)
	assert.Equal(t, earnings.Money(11494+588), b.TotalGross)
}

func TestCalculate_MealsFromMentionsWhenNoLinks(t *testing.T) {
	prof := crewProfession()
	shift := confirmedShift("sh-1", 12)
	shift.MentionsJSON = `{"meals":["Lunch"]}`
	engine, _ := newTestEngine(t, &prof, shift)

	b, err := engine.Calculate(context.Background(), "sh-1")
	require.NoError(t, err)
	assert.Equal(t, earnings.Money(500), b.MealsNet)
}

func TestCalculate_MealsFromSingleMentionList(t *testing.T) {
	// GIVEN: A payload that lists every mention under "services",
	//        one of them naming the catalog meal
	// WHEN: Calculating a 16h shift with no meal links
	// THEN: The meal is found there and priced like a linked one

	prof := crewProfession()
	prof.Meals[0].Name = "обед"
	shift := confirmedShift("sh-1", 16)
	shift.MentionsJSON = `{"services":["текущий обед"]}`
	engine, _ := newTestEngine(t, &prof, shift)

	b, err := engine.Calculate(context.Background(), "sh-1")
	require.NoError(t, err)

	assert.Equal(t, earnings.Money(500), b.MealsNet)
	assert.Equal(t, earnings.Money(0), b.ServicesNet)
	assert.Equal(t, earnings.Money(12701), b.TotalNet)
}

func TestCalculate_MalformedMentionsTreatedAsEmpty(t *testing.T) {
	// GIVEN: A broken mentions payload that names a service
	// THEN: Calculation succeeds, no services or mention-based meals applied

	prof := crewProfession()
	shift := confirmedShift("sh-1", 16)
	shift.MentionsJSON = `{"services":["camera car"`
	engine, _ := newTestEngine(t, &prof, shift)

	b, err := engine.Calculate(context.Background(), "sh-1")
	require.NoError(t, err)

	assert.Equal(t, earnings.Money(0), b.ServicesNet)
	assert.Equal(t, earnings.Money(0), b.MealsNet)
	assert.Equal(t, earnings.Money(2201), b.OvertimeNet, "overtime still computed")
	assert.Len(t, b.Details.Warnings, 1)
}

// =============================================================================
// FAILURES - no partial writes
// =============================================================================

func TestCalculate_MissingShift(t *testing.T) {
	prof := crewProfession()
	engine, _ := newTestEngine(t, &prof)

	_, err := engine.Calculate(context.Background(), "nope")
	assert.ErrorIs(t, err, earnings.ErrShiftNotFound)
	assert.True(t, earnings.IsNotFound(err))
}

func TestCalculate_MissingProfessionWritesNothing(t *testing.T) {
	engine, mem := newTestEngine(t, nil, confirmedShift("sh-1", 16))
	ctx := context.Background()

	_, err := engine.Calculate(ctx, "sh-1")
	assert.ErrorIs(t, err, earnings.ErrProfessionNotFound)

	rows, _ := mem.ListBreakdowns(ctx, "sh-1")
	assert.Empty(t, rows)
	stored, _ := mem.GetShift(ctx, "sh-1")
	assert.Equal(t, earnings.StatusConfirmed, stored.Status, "shift keeps its prior status")
}

func TestCalculate_InvalidConfigurationWritesNothing(t *testing.T) {
	prof := crewProfession()
	prof.TaxPercent = 100
	engine, mem := newTestEngine(t, &prof, confirmedShift("sh-1", 16))
	ctx := context.Background()

	_, err := engine.Calculate(ctx, "sh-1")
	assert.ErrorIs(t, err, earnings.ErrInvalidConfiguration)

	rows, _ := mem.ListBreakdowns(ctx, "sh-1")
	assert.Empty(t, rows)
	stored, _ := mem.GetShift(ctx, "sh-1")
	assert.Equal(t, earnings.StatusConfirmed, stored.Status)
}

func TestCalculate_DraftShiftRejected(t *testing.T) {
	prof := crewProfession()
	shift := confirmedShift("sh-1", 16)
	shift.Status = earnings.StatusDraft
	engine, _ := newTestEngine(t, &prof, shift)

	_, err := engine.Calculate(context.Background(), "sh-1")
	assert.ErrorIs(t, err, earnings.ErrInvalidTransition)
}

func TestConfirmAndCalculate_FailureKeepsDraft(t *testing.T) {
	// GIVEN: A draft shift with no profession configured
	// WHEN: Confirming and calculating in one step
	// THEN: Nothing is written and the shift is still a draft

	shift := confirmedShift("sh-1", 16)
	shift.Status = earnings.StatusDraft
	engine, mem := newTestEngine(t, nil, shift)
	ctx := context.Background()

	_, err := engine.ConfirmAndCalculate(ctx, "sh-1")
	assert.ErrorIs(t, err, earnings.ErrProfessionNotFound)

	stored, err := mem.GetShift(ctx, "sh-1")
	require.NoError(t, err)
	assert.Equal(t, earnings.StatusDraft, stored.Status)
	rows, _ := mem.ListBreakdowns(ctx, "sh-1")
	assert.Empty(t, rows)

	prof := crewProfession()
	require.NoError(t, mem.SaveProfession(ctx, prof))
	b, err := engine.ConfirmAndCalculate(ctx, "sh-1")
	require.NoError(t, err)
	assert.Equal(t, earnings.Money(12201), b.TotalNet)

	_, err = engine.ConfirmAndCalculate(ctx, "sh-1")
	assert.ErrorIs(t, err, earnings.ErrInvalidTransition, "only drafts can be confirmed")
}

func TestSubmitAndCalculate(t *testing.T) {
	engine, mem := newTestEngine(t, nil)
	ctx := context.Background()

	shift := confirmedShift("sh-new", 16)
	shift.Status = earnings.StatusDraft

	_, err := engine.SubmitAndCalculate(ctx, shift)
	assert.ErrorIs(t, err, earnings.ErrProfessionNotFound)
	_, err = mem.GetShift(ctx, "sh-new")
	assert.ErrorIs(t, err, earnings.ErrShiftNotFound, "failed submission stores nothing")

	prof := crewProfession()
	require.NoError(t, mem.SaveProfession(ctx, prof))
	b, err := engine.SubmitAndCalculate(ctx, shift)
	require.NoError(t, err)
	assert.Equal(t, earnings.ShiftID("sh-new"), b.ShiftID)

	stored, err := mem.GetShift(ctx, "sh-new")
	require.NoError(t, err)
	assert.Equal(t, earnings.StatusCalculated, stored.Status)
}

// =============================================================================
// RECALCULATION
// =============================================================================

func TestCalculate_SecondCalculationRejected(t *testing.T) {
	// GIVEN: A shift that was already calculated
	// WHEN: Calculating it again
	// THEN: The guard rejects it and exactly one row exists

	prof := crewProfession()
	engine, mem := newTestEngine(t, &prof, confirmedShift("sh-1", 16))
	ctx := context.Background()

	_, err := engine.Calculate(ctx, "sh-1")
	require.NoError(t, err)

	_, err = engine.Calculate(ctx, "sh-1")
	assert.ErrorIs(t, err, earnings.ErrAlreadyCalculated)

	rows, err := mem.ListBreakdowns(ctx, "sh-1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestBreakdownStore_AppendIsNotIdempotent(t *testing.T) {
	// The store itself appends unconditionally: the same result written
	// twice yields two identical rows. Only the engine guards.
	prof := crewProfession()
	shift := confirmedShift("sh-1", 16)
	mem := store.NewTxMemory()
	ctx := context.Background()

	b, err := earnings.Compute(&shift, &prof, quietLogger())
	require.NoError(t, err)

	require.NoError(t, mem.AppendBreakdown(ctx, b))
	require.NoError(t, mem.AppendBreakdown(ctx, b))

	rows, err := mem.ListBreakdowns(ctx, "sh-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, rows[0].TotalNet, rows[1].TotalNet)
	assert.Equal(t, rows[0].TotalGross, rows[1].TotalGross)
}

func TestCompute_IsDeterministic(t *testing.T) {
	prof := crewProfession()
	shift := confirmedShift("sh-1", 17.3)
	shift.Meals = []earnings.MealTypeID{"meal-lunch", "meal-lunch"}
	shift.MentionsJSON = `{"services":["camera car"]}`

	first, err := earnings.Compute(&shift, &prof, quietLogger())
	require.NoError(t, err)
	second, err := earnings.Compute(&shift, &prof, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLedger_Latest(t *testing.T) {
	prof := crewProfession()
	engine, mem := newTestEngine(t, &prof, confirmedShift("sh-1", 16))
	ctx := context.Background()
	ledger := earnings.NewLedger(mem)

	_, err := ledger.Latest(ctx, "sh-1")
	assert.ErrorIs(t, err, earnings.ErrNoBreakdown)

	b, err := engine.Calculate(ctx, "sh-1")
	require.NoError(t, err)

	latest, err := ledger.Latest(ctx, "sh-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, latest.ID)

	history, err := ledger.History(ctx, "sh-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
