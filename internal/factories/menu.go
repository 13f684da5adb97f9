package factories

import (
	"math/rand"

	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

var fake = faker.New()

type MenuFactory struct{}

// CreateMenuItem builds one menu item with a plausible category and price.
func (mf *MenuFactory) CreateMenuItem(tenantID string) models.MenuItem {
	category := menuCategories[rand.Intn(len(menuCategories))]
	return models.MenuItem{
		ID:          cuid.New(),
		TenantID:    tenantID,
		Name:        randomDishName(category),
		Description: fake.Lorem().Sentence(8),
		Category:    category,
		BasePrice:   fake.Float64(2, 4, 30),
		Available:   rand.Float64() > 0.05,
	}
}

// CreateModifierGroups builds the modifier groups for one menu item: a
// required single-choice size group plus an optional multi-choice extras
// group for most items.
func (mf *MenuFactory) CreateModifierGroups(itemID string) []models.ModifierGroup {
	groups := []models.ModifierGroup{sizeGroup(itemID)}
	if rand.Float64() > 0.3 {
		groups = append(groups, extrasGroup(itemID))
	}
	return groups
}

func sizeGroup(itemID string) models.ModifierGroup {
	return models.ModifierGroup{
		ID:            cuid.New(),
		MenuItemRef:   itemID,
		Name:          "Size",
		SelectionMode: models.SelectionModeSingle,
		Required:      true,
		MinSelection:  1,
		MaxSelection:  1,
		Position:      0,
		Modifiers: []models.Modifier{
			{ID: cuid.New(), Name: "Small", PriceDelta: 0},
			{ID: cuid.New(), Name: "Medium", PriceDelta: 1.50},
			{ID: cuid.New(), Name: "Large", PriceDelta: 3.00},
		},
	}
}

func extrasGroup(itemID string) models.ModifierGroup {
	all := []models.Modifier{
		{Name: "Extra Cheese", PriceDelta: 1.00},
		{Name: "Bacon", PriceDelta: 1.50},
		{Name: "Avocado", PriceDelta: 2.00},
		{Name: "Fried Egg", PriceDelta: 1.25},
		{Name: "Jalapeños", PriceDelta: 0.75},
		{Name: "Mushrooms", PriceDelta: 1.00},
	}
	count := rand.Intn(3) + 3
	mods := make([]models.Modifier, 0, count)
	for _, m := range all[:count] {
		m.ID = cuid.New()
		mods = append(mods, m)
	}
	return models.ModifierGroup{
		ID:            cuid.New(),
		MenuItemRef:   itemID,
		Name:          "Extras",
		SelectionMode: models.SelectionModeMultiple,
		Required:      false,
		MaxSelection:  3,
		Position:      1,
		Modifiers:     mods,
	}
}

var menuCategories = []string{"Mains", "Starters", "Sides", "Desserts", "Drinks"}

func randomDishName(category string) string {
	dishes := map[string][]string{
		"Mains":    {"Classic Cheeseburger", "Grilled Salmon", "Chicken Tikka Masala", "Margherita Pizza", "BBQ Ribs", "Pad Thai", "Mushroom Risotto"},
		"Starters": {"Caesar Salad", "Tomato Soup", "Garlic Bread", "Calamari", "Bruschetta", "Chicken Wings"},
		"Sides":    {"French Fries", "Onion Rings", "Coleslaw", "Steamed Rice", "Mixed Greens"},
		"Desserts": {"Tiramisu", "Cheesecake", "Chocolate Brownie", "Apple Pie", "Crème Brûlée"},
		"Drinks":   {"Fresh Lemonade", "Iced Tea", "Espresso", "Mango Smoothie", "House Cola"},
	}
	if names, ok := dishes[category]; ok {
		return names[rand.Intn(len(names))]
	}
	return "Special of the Day"
}
