package pricing

import (
	"fmt"

	"github.com/chrisdamba/kitchensync/internal/models"
)

// Selection maps group id to the chosen modifier ids while the customer
// composes a line. Mutate it through Select/Deselect so the group's
// cardinality rules hold.
type Selection map[string][]string

// Select records a modifier choice for the group. Single mode replaces any
// prior choice; multiple mode appends up to the group's max_selection, after
// which further attempts are silently ignored.
func (s Selection) Select(group models.ModifierGroup, modifierID string) {
	if _, ok := group.Modifier(modifierID); !ok {
		return
	}
	current := s[group.ID]

	switch group.SelectionMode {
	case models.SelectionModeSingle:
		s[group.ID] = []string{modifierID}
	case models.SelectionModeMultiple:
		for _, id := range current {
			if id == modifierID {
				return
			}
		}
		if group.MaxSelection > 0 && len(current) >= group.MaxSelection {
			return
		}
		s[group.ID] = append(current, modifierID)
	}
}

// Deselect removes a modifier choice from the group, if present.
func (s Selection) Deselect(groupID, modifierID string) {
	current := s[groupID]
	for i, id := range current {
		if id == modifierID {
			s[groupID] = append(current[:i:i], current[i+1:]...)
			return
		}
	}
}

// UnmetGroupError names the first required group whose minimum selection is
// not satisfied at commit time.
type UnmetGroupError struct {
	GroupName string
}

func (e *UnmetGroupError) Error() string {
	return fmt.Sprintf("required modifier group %q needs a selection", e.GroupName)
}

// Quote is a priced, validated order line ready for placement.
type Quote struct {
	UnitPrice float64
	LineTotal float64
	Modifiers []models.SelectedModifier
}

// Resolve validates the selection against the item's groups and prices the
// line: unit price = base price + every selected delta, line total = unit
// price x quantity. Groups are checked in display order, and the first
// unsatisfied required group rejects the whole line.
func Resolve(item models.MenuItem, groups []models.ModifierGroup, sel Selection, quantity int) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	unit := item.BasePrice
	var resolved []models.SelectedModifier

	for _, group := range groups {
		chosen := sel[group.ID]
		if group.Required && len(chosen) < group.MinSelection {
			return Quote{}, &UnmetGroupError{GroupName: group.Name}
		}
		for _, modifierID := range chosen {
			mod, ok := group.Modifier(modifierID)
			if !ok {
				return Quote{}, fmt.Errorf("modifier %s not in group %q", modifierID, group.Name)
			}
			unit += mod.PriceDelta
			resolved = append(resolved, models.SelectedModifier{
				GroupName:    group.Name,
				ModifierName: mod.Name,
				PriceDelta:   mod.PriceDelta,
			})
		}
	}

	return Quote{
		UnitPrice: unit,
		LineTotal: unit * float64(quantity),
		Modifiers: resolved,
	}, nil
}
