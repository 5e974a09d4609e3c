package earnings

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upTo(h float64) *float64 { return &h }

func threeTiers() []Bracket {
	return []Bracket{
		{Order: 1, HoursFrom: 0, HoursTo: upTo(2), RateNet: 500},
		{Order: 2, HoursFrom: 2, HoursTo: upTo(4), RateNet: 600},
		{Order: 3, HoursFrom: 4, HoursTo: nil, RateNet: 700},
	}
}

func TestAllocateBrackets_ExhaustiveAndOrdered(t *testing.T) {
	// GIVEN: [0,2)@500, [2,4)@600, [4,inf)@700 and 6 billable hours
	// WHEN: Allocating with no tax
	// THEN: 2x500 + 2x600 + 2x700 = 3600

	res, err := AllocateBrackets(decimal.NewFromInt(6), threeTiers(), 0, 0)
	require.NoError(t, err)

	assert.Equal(t, Money(3600), res.Net)
	assert.Equal(t, Money(3600), res.Gross)
	require.Len(t, res.Lines, 3)
	assert.Equal(t, "0-2h", res.Lines[0].Label)
	assert.Equal(t, "2-4h", res.Lines[1].Label)
	assert.Equal(t, "4-+h", res.Lines[2].Label)
	for _, l := range res.Lines {
		assert.Equal(t, 2.0, l.Hours)
	}
}

func TestAllocateBrackets_GrossFirstThenNet(t *testing.T) {
	// GIVEN: Same tiers with 13% tax
	// THEN: Each portion is paid in gross first, net derived from it.
	//   500 -> 575 gross/h, 1150 gross, 1000.5 -> 1000 net
	//   600 -> 690 gross/h, 1380 gross, 1200.6 -> 1201 net
	//   700 -> 805 gross/h, 1610 gross, 1400.7 -> 1401 net

	res, err := AllocateBrackets(decimal.NewFromInt(6), threeTiers(), 0, 13)
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)

	want := []BracketLine{
		{Label: "0-2h", Hours: 2, RateNet: 500, RateGross: 575, TotalNet: 1000, TotalGross: 1150},
		{Label: "2-4h", Hours: 2, RateNet: 600, RateGross: 690, TotalNet: 1201, TotalGross: 1380},
		{Label: "4-+h", Hours: 2, RateNet: 700, RateGross: 805, TotalNet: 1401, TotalGross: 1610},
	}
	assert.Equal(t, want, res.Lines)
	assert.Equal(t, Money(3602), res.Net)
	assert.Equal(t, Money(4140), res.Gross)

	// Each portion stays within one unit of hours * net rate.
	for _, l := range res.Lines {
		direct := Money(l.Hours) * l.RateNet
		assert.InDelta(t, int64(direct), int64(l.TotalNet), 1, l.Label)
	}
}

func TestAllocateBrackets_StopsWhenExhausted(t *testing.T) {
	res, err := AllocateBrackets(decimal.NewFromInt(3), threeTiers(), 0, 0)
	require.NoError(t, err)

	require.Len(t, res.Lines, 2, "third bracket never touched")
	assert.Equal(t, 2.0, res.Lines[0].Hours)
	assert.Equal(t, 1.0, res.Lines[1].Hours)
	assert.Equal(t, Money(1600), res.Net)
}

func TestAllocateBrackets_FollowsOrderNumberNotSlicePosition(t *testing.T) {
	tiers := threeTiers()
	shuffled := []Bracket{tiers[2], tiers[0], tiers[1]}

	res, err := AllocateBrackets(decimal.NewFromInt(1), shuffled, 0, 0)
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	assert.Equal(t, "0-2h", res.Lines[0].Label)
	assert.Equal(t, Money(500), res.Net)
}

func TestAllocateBrackets_FractionalHoursKeepFullPrecision(t *testing.T) {
	// 2.125h: 2h in the first tier, 0.125h in the second
	res, err := AllocateBrackets(decimal.NewFromFloat(2.125), threeTiers(), 0, 0)
	require.NoError(t, err)

	require.Len(t, res.Lines, 2)
	assert.Equal(t, 0.13, res.Lines[1].Hours, "display rounds to 2 decimals")
	assert.Equal(t, Money(75), res.Lines[1].TotalNet, "0.125 * 600 priced at full precision")
}

func TestAllocateBrackets_NoBracketsUsesBaseRate(t *testing.T) {
	// GIVEN: No progressive brackets, 2.5 billable hours, base rate 500, tax 13%
	// THEN: One "base" line: 2.5 * 575 = 1437.5 -> 1438 gross, 1251.06 -> 1251 net

	res, err := AllocateBrackets(decimal.NewFromFloat(2.5), nil, 500, 13)
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	line := res.Lines[0]
	assert.Equal(t, BaseBracketLabel, line.Label)
	assert.Equal(t, Money(575), line.RateGross)
	assert.Equal(t, Money(1438), line.TotalGross)
	assert.Equal(t, Money(1251), line.TotalNet)
}

func TestAllocateBrackets_ZeroBillable(t *testing.T) {
	res, err := AllocateBrackets(decimal.Zero, threeTiers(), 500, 13)
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.Equal(t, Money(0), res.Net)
	assert.Equal(t, Money(0), res.Gross)

	res, err = AllocateBrackets(decimal.Zero, nil, 500, 13)
	require.NoError(t, err)
	assert.Empty(t, res.Lines, "no synthetic bracket without hours")
}

func TestAllocateBrackets_RejectsTax100(t *testing.T) {
	_, err := AllocateBrackets(decimal.NewFromInt(1), threeTiers(), 0, 100)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
