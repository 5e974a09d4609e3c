package earnings

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BRACKET ALLOCATOR
// =============================================================================

// BaseBracketLabel labels the synthetic bracket used when a profession has no
// progressive brackets.
const BaseBracketLabel = "base"

// OvertimeResult is the priced overtime of one shift.
type OvertimeResult struct {
	Net   Money
	Gross Money
	Lines []BracketLine
}

// AllocateBrackets distributes billable overtime hours across the brackets in
// their declared order, or across one flat bracket at the base overtime rate
// when there are none.
//
// Brackets are not checked for contiguity. Each one takes at most its width
// from the running remainder; allocation stops once nothing remains.
func AllocateBrackets(billable decimal.Decimal, brackets []Bracket, baseRate Money, taxPercent float64) (OvertimeResult, error) {
	var res OvertimeResult
	if !billable.IsPositive() {
		return res, nil
	}
	if err := ValidateTax("tax_percentage", taxPercent); err != nil {
		return res, err
	}

	if len(brackets) == 0 {
		line := PriceBracketPortion(BaseBracketLabel, billable, baseRate, taxPercent)
		res.add(line)
		return res, nil
	}

	remaining := billable
	for _, b := range orderedBrackets(brackets) {
		if !remaining.IsPositive() {
			break
		}
		consumed := remaining
		if b.HoursTo != nil {
			width := decimal.NewFromFloat(*b.HoursTo).Sub(decimal.NewFromFloat(b.HoursFrom))
			consumed = decimal.Min(remaining, width)
		}
		res.add(PriceBracketPortion(bracketLabel(b), consumed, b.RateNet, taxPercent))
		remaining = remaining.Sub(consumed)
	}
	return res, nil
}

// PriceBracketPortion prices hours at a net hourly rate through the gross
// figure: the rate is grossed up, the portion is paid in gross and rounded,
// and net is derived back from that gross. Net may differ by one unit from
// hours * rateNet. Overtime pricing changes belong here.
func PriceBracketPortion(label string, hours decimal.Decimal, rateNet Money, taxPercent float64) BracketLine {
	rateGross := grossFromNet(rateNet.Decimal(), taxPercent)
	gross := hours.Mul(rateGross).RoundBank(0)
	net := netFromGross(gross, taxPercent)
	return BracketLine{
		Label:      label,
		Hours:      displayHours(hours),
		RateNet:    rateNet,
		RateGross:  moneyFromDecimal(rateGross),
		TotalNet:   moneyFromDecimal(net),
		TotalGross: moneyFromDecimal(gross),
	}
}

func (r *OvertimeResult) add(line BracketLine) {
	r.Net += line.TotalNet
	r.Gross += line.TotalGross
	r.Lines = append(r.Lines, line)
}

func orderedBrackets(brackets []Bracket) []Bracket {
	out := make([]Bracket, len(brackets))
	copy(out, brackets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// bracketLabel renders "0-2h" or "4-+h" for an unbounded bracket.
func bracketLabel(b Bracket) string {
	to := "+"
	if b.HoursTo != nil {
		to = strconv.FormatFloat(*b.HoursTo, 'f', -1, 64)
	}
	return strconv.FormatFloat(b.HoursFrom, 'f', -1, 64) + "-" + to + "h"
}
