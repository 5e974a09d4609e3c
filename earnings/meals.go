package earnings

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MEAL ADJUDICATOR
// =============================================================================

// MealResult is the meal bonus of one shift. Hours are tracked apart from
// billable overtime and never enter bracket allocation.
type MealResult struct {
	Hours decimal.Decimal
	Net   Money
	Gross Money
	Lines []MealLine
}

// AdjudicateMeals prices the meals taken during a shift.
//
// Persisted shift-meal links win. Without any, meal names from the mentions
// payload are matched against the catalog. Each matched meal credits its
// configured bonus hours at the base overtime rate, never a bracket rate:
// net is the truncated product, gross is converted from that net.
// Links to the same meal type twice are priced twice.
func AdjudicateMeals(linked []MealTypeID, mentioned []string, catalog []MealType, baseRate Money, taxPercent float64) (MealResult, error) {
	res := MealResult{Hours: decimal.Zero}
	if err := ValidateTax("tax_percentage", taxPercent); err != nil {
		return res, err
	}

	for _, meal := range resolveMeals(linked, mentioned, catalog) {
		bonus := decimal.NewFromFloat(meal.BonusHours)
		net := bonus.Mul(baseRate.Decimal()).Truncate(0)
		gross := grossFromNet(net, taxPercent)

		line := MealLine{
			Name:       meal.Name,
			Hours:      displayHours(bonus),
			RateNet:    baseRate,
			TotalNet:   moneyFromDecimal(net),
			TotalGross: moneyFromDecimal(gross),
		}
		res.Hours = res.Hours.Add(bonus)
		res.Net += line.TotalNet
		res.Gross += line.TotalGross
		res.Lines = append(res.Lines, line)
	}
	return res, nil
}

func resolveMeals(linked []MealTypeID, mentioned []string, catalog []MealType) []MealType {
	var out []MealType
	if len(linked) > 0 {
		byID := make(map[MealTypeID]MealType, len(catalog))
		for _, m := range catalog {
			byID[m.ID] = m
		}
		for _, id := range linked {
			if m, ok := byID[id]; ok {
				out = append(out, m)
			}
		}
		return out
	}

	for _, m := range catalog {
		if mentionMatches(m.Name, mentioned) {
			out = append(out, m)
		}
	}
	return out
}
