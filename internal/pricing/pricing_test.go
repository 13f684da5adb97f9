package pricing

import (
	"testing"

	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burger() models.MenuItem {
	return models.MenuItem{ID: "item-burger", Name: "Classic Cheeseburger", BasePrice: 10.00}
}

func sizeGroup() models.ModifierGroup {
	return models.ModifierGroup{
		ID:            "g-size",
		MenuItemRef:   "item-burger",
		Name:          "Size",
		SelectionMode: models.SelectionModeSingle,
		Required:      true,
		MinSelection:  1,
		MaxSelection:  1,
		Modifiers: []models.Modifier{
			{ID: "m-reg", GroupID: "g-size", Name: "Regular", PriceDelta: 0},
			{ID: "m-lrg", GroupID: "g-size", Name: "Large", PriceDelta: 1.5},
		},
	}
}

func extrasGroup() models.ModifierGroup {
	return models.ModifierGroup{
		ID:            "g-extras",
		MenuItemRef:   "item-burger",
		Name:          "Extras",
		SelectionMode: models.SelectionModeMultiple,
		MaxSelection:  2,
		Modifiers: []models.Modifier{
			{ID: "m-bacon", GroupID: "g-extras", Name: "Bacon", PriceDelta: 2.0},
			{ID: "m-cheese", GroupID: "g-extras", Name: "Extra Cheese", PriceDelta: 1.0},
			{ID: "m-egg", GroupID: "g-extras", Name: "Fried Egg", PriceDelta: 1.5},
		},
	}
}

func TestResolve_NoModifiersIsBaseTimesQuantity(t *testing.T) {
	q, err := Resolve(burger(), nil, Selection{}, 3)
	require.NoError(t, err)
	assert.Equal(t, 10.00, q.UnitPrice)
	assert.Equal(t, 30.00, q.LineTotal)
	assert.Empty(t, q.Modifiers)
}

func TestResolve_DeltaRaisesUnitPriceExactly(t *testing.T) {
	sel := Selection{}
	sel.Select(extrasGroup(), "m-bacon")

	q, err := Resolve(burger(), []models.ModifierGroup{extrasGroup()}, sel, 1)
	require.NoError(t, err)
	assert.Equal(t, 12.00, q.UnitPrice)
}

func TestResolve_RequiredGroupRejectsByName(t *testing.T) {
	// Scenario: required single group unselected, add is rejected naming the
	// group; selecting an option with delta 1.5 then prices at 11.50.
	groups := []models.ModifierGroup{sizeGroup()}

	_, err := Resolve(burger(), groups, Selection{}, 1)
	require.Error(t, err)
	var unmet *UnmetGroupError
	require.ErrorAs(t, err, &unmet)
	assert.Equal(t, "Size", unmet.GroupName)

	sel := Selection{}
	sel.Select(sizeGroup(), "m-lrg")
	q, err := Resolve(burger(), groups, sel, 1)
	require.NoError(t, err)
	assert.Equal(t, 11.50, q.UnitPrice)
}

func TestResolve_FirstUnsatisfiedGroupNamed(t *testing.T) {
	second := sizeGroup()
	second.ID = "g-bun"
	second.Name = "Bun"
	groups := []models.ModifierGroup{sizeGroup(), second}

	_, err := Resolve(burger(), groups, Selection{}, 1)
	var unmet *UnmetGroupError
	require.ErrorAs(t, err, &unmet)
	assert.Equal(t, "Size", unmet.GroupName, "first group in display order wins")
}

func TestResolve_SumsDeltasAcrossGroups(t *testing.T) {
	sel := Selection{}
	sel.Select(sizeGroup(), "m-lrg")
	sel.Select(extrasGroup(), "m-bacon")
	sel.Select(extrasGroup(), "m-cheese")

	q, err := Resolve(burger(), []models.ModifierGroup{sizeGroup(), extrasGroup()}, sel, 2)
	require.NoError(t, err)
	assert.Equal(t, 14.50, q.UnitPrice) // 10 + 1.5 + 2 + 1
	assert.Equal(t, 29.00, q.LineTotal)
	assert.Len(t, q.Modifiers, 3)
}

func TestResolve_UnknownModifierRejected(t *testing.T) {
	sel := Selection{"g-extras": []string{"m-unknown"}}
	_, err := Resolve(burger(), []models.ModifierGroup{extrasGroup()}, sel, 1)
	assert.Error(t, err)
}

func TestResolve_RejectsNonPositiveQuantity(t *testing.T) {
	_, err := Resolve(burger(), nil, Selection{}, 0)
	assert.Error(t, err)
}

func TestSelection_SingleModeReplaces(t *testing.T) {
	sel := Selection{}
	sel.Select(sizeGroup(), "m-reg")
	sel.Select(sizeGroup(), "m-lrg")
	assert.Equal(t, []string{"m-lrg"}, sel["g-size"], "single mode stores at most one id")
}

func TestSelection_MultipleModeCapsAtMax(t *testing.T) {
	g := extrasGroup() // max_selection = 2
	sel := Selection{}
	sel.Select(g, "m-bacon")
	sel.Select(g, "m-cheese")
	sel.Select(g, "m-egg") // third attempt, no effect

	assert.Len(t, sel["g-extras"], 2)
	assert.Equal(t, []string{"m-bacon", "m-cheese"}, sel["g-extras"])
}

func TestSelection_DuplicateSelectIgnored(t *testing.T) {
	g := extrasGroup()
	sel := Selection{}
	sel.Select(g, "m-bacon")
	sel.Select(g, "m-bacon")
	assert.Equal(t, []string{"m-bacon"}, sel["g-extras"])
}

func TestSelection_Deselect(t *testing.T) {
	g := extrasGroup()
	sel := Selection{}
	sel.Select(g, "m-bacon")
	sel.Select(g, "m-cheese")
	sel.Deselect("g-extras", "m-bacon")
	assert.Equal(t, []string{"m-cheese"}, sel["g-extras"])

	// Room freed below the cap, a new selection lands again.
	sel.Select(g, "m-egg")
	assert.Len(t, sel["g-extras"], 2)
}

func TestSelection_UnknownModifierIgnored(t *testing.T) {
	sel := Selection{}
	sel.Select(sizeGroup(), "m-nope")
	assert.Empty(t, sel["g-size"])
}
