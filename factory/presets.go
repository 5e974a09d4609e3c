package factory

import "fmt"

// =============================================================================
// PRESET PROFESSIONS
// =============================================================================
//
// Presets return JSON so they go through the same parsing, defaults and
// validation as user-supplied definitions.

// OperatorJSON is the default configuration for new projects: 12h base shift,
// 10000 net, 13% tax, three overtime tiers, lunch, two services taxed at 15%.
func OperatorJSON() string {
	return `{
		"position": "Operator",
		"base_rate_net": 10000,
		"tax_percentage": 13,
		"base_overtime_rate": 500,
		"daily_allowance": 1000,
		"base_shift_hours": 12,
		"overtime_threshold": 0.25,
		"overtime_rounding": 0.5,
		"progressive_rates": [
			{"hours_from": 0, "hours_to": 2, "rate": 500, "order_num": 1},
			{"hours_from": 2, "hours_to": 4, "rate": 600, "order_num": 2},
			{"hours_from": 4, "hours_to": null, "rate": 700, "order_num": 3}
		],
		"meal_types": [
			{"id": "meal-lunch", "name": "lunch", "bonus_hours": 1.0, "keywords": ["lunch", "обед"]}
		],
		"additional_services": [
			{"id": "svc-camera-car", "name": "camera car", "cost": 500, "tax_percentage": 15,
			 "application_rule": "on_mention", "keywords": ["car"]},
			{"id": "svc-ronin", "name": "ronin", "cost": 3000, "tax_percentage": 15,
			 "application_rule": "on_mention", "keywords": ["ronin", "ронин"]}
		]
	}`
}

// FlatRateJSON is a profession with no brackets: all overtime is paid at
// the base overtime rate.
func FlatRateJSON(position string, baseNet, overtimeRate int64, tax float64) string {
	return fmt.Sprintf(`{
		"position": %q,
		"base_rate_net": %d,
		"tax_percentage": %g,
		"base_overtime_rate": %d,
		"base_shift_hours": 10
	}`, position, baseNet, tax, overtimeRate)
}
