package earnings

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// NET/GROSS CONVERTER
// =============================================================================
//
// This is the only place tax arithmetic happens. Every tax rate in play is
// converted independently: the profession rate for base pay, overtime and
// meals, and each service's own rate for its line item.

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ValidateTax rejects tax percentages outside [0, 100).
func ValidateTax(field string, taxPercent float64) error {
	if taxPercent < 0 {
		return configErr(field, "tax percentage %v is negative", taxPercent)
	}
	if taxPercent >= 100 {
		return configErr(field, "tax percentage %v must be below 100", taxPercent)
	}
	return nil
}

// keepRatio returns 1 - tax/100.
func keepRatio(taxPercent float64) decimal.Decimal {
	return one.Sub(decimal.NewFromFloat(taxPercent).Div(hundred))
}

// GrossFromNet returns round(net / (1 - tax/100)), rounding half to even.
func GrossFromNet(net Money, taxPercent float64) (Money, error) {
	if err := ValidateTax("tax_percentage", taxPercent); err != nil {
		return 0, err
	}
	return moneyFromDecimal(grossFromNet(net.Decimal(), taxPercent)), nil
}

// NetFromGross returns round(gross * (1 - tax/100)), rounding half to even.
func NetFromGross(gross Money, taxPercent float64) (Money, error) {
	if err := ValidateTax("tax_percentage", taxPercent); err != nil {
		return 0, err
	}
	return moneyFromDecimal(netFromGross(gross.Decimal(), taxPercent)), nil
}

func grossFromNet(net decimal.Decimal, taxPercent float64) decimal.Decimal {
	return net.Div(keepRatio(taxPercent)).RoundBank(0)
}

func netFromGross(gross decimal.Decimal, taxPercent float64) decimal.Decimal {
	return gross.Mul(keepRatio(taxPercent)).RoundBank(0)
}
