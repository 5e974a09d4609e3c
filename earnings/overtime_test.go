package earnings

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func hoursEqual(t *testing.T, want float64, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, decimal.NewFromFloat(want).Equal(got), "%s: want %v, got %s", msg, want, got)
}

func TestResolveOvertime_NoExcess(t *testing.T) {
	rule := OvertimeRule{BaseHours: 12, Threshold: 0.25, Rounding: 0.5}

	hoursEqual(t, 0, ResolveOvertime(8, rule), "short shift")
	hoursEqual(t, 0, ResolveOvertime(12, rule), "exact shift")
}

func TestResolveOvertime_ExcessBelowThresholdIsAbsorbed(t *testing.T) {
	// GIVEN: 0.2h over base with a 0.25h threshold
	// THEN: Billable is 0, not a threshold-reduced amount
	rule := OvertimeRule{BaseHours: 12, Threshold: 0.25, Rounding: 0}

	hoursEqual(t, 0, ResolveOvertime(12.2, rule), "below threshold")
}

func TestResolveOvertime_ThresholdIsSubtracted(t *testing.T) {
	rule := OvertimeRule{BaseHours: 12, Threshold: 0.25, Rounding: 0}

	hoursEqual(t, 1.05, ResolveOvertime(13.3, rule), "unrounded")
	hoursEqual(t, 0, ResolveOvertime(12.25, rule), "exactly threshold")
}

func TestResolveOvertime_CeilingToStep(t *testing.T) {
	// excess 1.76, step 0.5 -> 2.0
	rule := OvertimeRule{BaseHours: 10, Threshold: 0, Rounding: 0.5}

	hoursEqual(t, 2.0, ResolveOvertime(11.76, rule), "ceil 1.76")
	hoursEqual(t, 1.5, ResolveOvertime(11.5, rule), "exact multiple stays")
	hoursEqual(t, 0.5, ResolveOvertime(10.01, rule), "tiny excess takes a full step")
}

func TestResolveOvertime_EndToEndScenarioHours(t *testing.T) {
	// 16h on a 12h base, 0.25 threshold, 0.5 rounding -> 3.75 -> 4.0
	rule := OvertimeRule{BaseHours: 12, Threshold: 0.25, Rounding: 0.5}

	hoursEqual(t, 4.0, ResolveOvertime(16, rule), "scenario")
}

func TestResolveOvertime_FloatNoiseDoesNotAddStep(t *testing.T) {
	rule := OvertimeRule{BaseHours: 12, Threshold: 0, Rounding: 0.1}

	hoursEqual(t, 0.3, ResolveOvertime(12.3, rule), "12.3 - 12")
}
