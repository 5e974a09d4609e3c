package earnings

import "fmt"

// Validate checks the pay rules before any arithmetic runs. A profession that
// fails here must never produce an earnings row.
func (p *Profession) Validate() error {
	if err := ValidateTax("tax_percentage", p.TaxPercent); err != nil {
		return err
	}
	if p.BaseShiftHours <= 0 {
		return configErr("base_shift_hours", "must be positive, got %v", p.BaseShiftHours)
	}
	if p.BasePayNet < 0 {
		return configErr("base_rate_net", "negative amount %d", p.BasePayNet)
	}
	if p.BasePayGross < 0 {
		return configErr("base_rate_gross", "negative amount %d", p.BasePayGross)
	}
	if p.BaseOvertimeRate < 0 {
		return configErr("base_overtime_rate", "negative rate %d", p.BaseOvertimeRate)
	}
	if p.PerDiem < 0 {
		return configErr("daily_allowance", "negative amount %d", p.PerDiem)
	}
	if p.OvertimeThreshold < 0 {
		return configErr("overtime_threshold", "negative hours %v", p.OvertimeThreshold)
	}
	if p.OvertimeRounding < 0 {
		return configErr("overtime_rounding", "negative step %v", p.OvertimeRounding)
	}

	for i, b := range p.Brackets {
		field := fmt.Sprintf("progressive_rates[%d]", i)
		if b.HoursFrom < 0 {
			return configErr(field, "hours_from %v is negative", b.HoursFrom)
		}
		if b.HoursTo != nil && *b.HoursTo <= b.HoursFrom {
			return configErr(field, "hours_to %v must be greater than hours_from %v", *b.HoursTo, b.HoursFrom)
		}
		if b.RateNet < 0 {
			return configErr(field, "negative rate %d", b.RateNet)
		}
	}

	for i, m := range p.Meals {
		if m.BonusHours < 0 {
			return configErr(fmt.Sprintf("meal_types[%d]", i), "negative bonus hours %v", m.BonusHours)
		}
	}

	for i, s := range p.Services {
		field := fmt.Sprintf("additional_services[%d]", i)
		if s.CostNet < 0 {
			return configErr(field, "negative cost %d", s.CostNet)
		}
		if err := ValidateTax(field+".tax_percentage", s.TaxPercent); err != nil {
			return err
		}
	}
	return nil
}
