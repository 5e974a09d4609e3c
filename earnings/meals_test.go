package earnings

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mealCatalog() []MealType {
	return []MealType{
		{ID: "meal-lunch", Name: "Lunch", BonusHours: 1.0},
		{ID: "meal-dinner", Name: "Dinner", BonusHours: 1.5},
	}
}

func TestAdjudicateMeals_PricesAtBaseOvertimeRate(t *testing.T) {
	res, err := AdjudicateMeals([]MealTypeID{"meal-lunch"}, nil, mealCatalog(), 500, 13)
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	assert.Equal(t, Money(500), res.Net)
	assert.Equal(t, Money(575), res.Gross, "gross converted from net")
	assert.True(t, decimal.NewFromInt(1).Equal(res.Hours))
}

func TestAdjudicateMeals_DuplicateLinksPricedIndependently(t *testing.T) {
	linked := []MealTypeID{"meal-lunch", "meal-lunch"}

	res, err := AdjudicateMeals(linked, nil, mealCatalog(), 500, 13)
	require.NoError(t, err)

	assert.Len(t, res.Lines, 2)
	assert.Equal(t, Money(1000), res.Net)
	assert.Equal(t, Money(1150), res.Gross)
	assert.True(t, decimal.NewFromInt(2).Equal(res.Hours))
}

func TestAdjudicateMeals_NetTruncates(t *testing.T) {
	// 1.5h * 333 = 499.5 -> 499
	res, err := AdjudicateMeals([]MealTypeID{"meal-dinner"}, nil, mealCatalog(), 333, 0)
	require.NoError(t, err)
	assert.Equal(t, Money(499), res.Net)
}

func TestAdjudicateMeals_FallsBackToMentions(t *testing.T) {
	// GIVEN: No persisted links, mentions name a meal in different case
	res, err := AdjudicateMeals(nil, []string{"had a LUNCH break"}, mealCatalog(), 500, 0)
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	assert.Equal(t, "Lunch", res.Lines[0].Name)
}

func TestAdjudicateMeals_MentionContainedInCatalogName(t *testing.T) {
	catalog := []MealType{{ID: "m1", Name: "Late dinner", BonusHours: 1}}

	res, err := AdjudicateMeals(nil, []string{"dinner"}, catalog, 500, 0)
	require.NoError(t, err)
	assert.Len(t, res.Lines, 1)
}

func TestAdjudicateMeals_LinksWinOverMentions(t *testing.T) {
	res, err := AdjudicateMeals([]MealTypeID{"meal-dinner"}, []string{"lunch"}, mealCatalog(), 500, 0)
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	assert.Equal(t, "Dinner", res.Lines[0].Name)
}

func TestAdjudicateMeals_UnknownLinkIgnored(t *testing.T) {
	res, err := AdjudicateMeals([]MealTypeID{"meal-breakfast"}, nil, mealCatalog(), 500, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.True(t, res.Hours.IsZero())
}
