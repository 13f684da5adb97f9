package models

const (
	SelectionModeSingle   = "single"
	SelectionModeMultiple = "multiple"
)

type MenuItem struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BasePrice   float64 `json:"base_price"`
	Category    string  `json:"category"`
	ImagePath   string  `json:"image_path,omitempty"`
	Available   bool    `json:"available"`
}

// ModifierGroup is a named set of related customisations for one menu item
// (e.g. "Size"), with a selection-cardinality rule. Groups are ordered for
// display; Modifiers are loaded nested for resolution.
type ModifierGroup struct {
	ID            string     `json:"id"`
	MenuItemRef   string     `json:"menu_item_ref"`
	Name          string     `json:"name"`
	SelectionMode string     `json:"selection_mode"`
	Required      bool       `json:"required"`
	MinSelection  int        `json:"min_selection"`
	MaxSelection  int        `json:"max_selection"`
	Position      int        `json:"position"`
	Modifiers     []Modifier `json:"modifiers,omitempty"`
}

type Modifier struct {
	ID         string  `json:"id"`
	GroupID    string  `json:"group_id"`
	Name       string  `json:"name"`
	PriceDelta float64 `json:"price_delta"`
}

// Modifier returns the group's modifier with the given id.
func (g *ModifierGroup) Modifier(id string) (Modifier, bool) {
	for _, m := range g.Modifiers {
		if m.ID == id {
			return m, true
		}
	}
	return Modifier{}, false
}
