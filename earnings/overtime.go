package earnings

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME RESOLVER
// =============================================================================

// OvertimeRule holds the profession parameters that turn worked hours into
// billable overtime.
type OvertimeRule struct {
	BaseHours float64
	Threshold float64 // excess below this is ignored entirely
	Rounding  float64 // ceiling step in hours; 0 disables
}

// hourNoise is the precision float hour values are trimmed to before the
// rounding ceiling, so 12.3-12 does not become 0.30000000000000071 and
// ceil up a whole step.
const hourNoise = 9

// ResolveOvertime converts total worked hours into billable overtime hours.
//
// An excess below the threshold yields zero, not a threshold-reduced amount.
// Otherwise the threshold is subtracted and the remainder is rounded up to the
// next multiple of the rounding step.
func ResolveOvertime(totalHours float64, rule OvertimeRule) decimal.Decimal {
	raw := decimal.NewFromFloat(totalHours).Sub(decimal.NewFromFloat(rule.BaseHours))
	if !raw.IsPositive() {
		return decimal.Zero
	}

	threshold := decimal.NewFromFloat(rule.Threshold)
	if raw.LessThan(threshold) {
		return decimal.Zero
	}
	excess := raw.Sub(threshold).Round(hourNoise)

	if rule.Rounding > 0 {
		step := decimal.NewFromFloat(rule.Rounding)
		excess = excess.Div(step).Ceil().Mul(step)
	}
	return excess
}

func (p *Profession) overtimeRule() OvertimeRule {
	return OvertimeRule{
		BaseHours: p.BaseShiftHours,
		Threshold: p.OvertimeThreshold,
		Rounding:  p.OvertimeRounding,
	}
}
