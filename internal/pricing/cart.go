package pricing

import (
	"sort"
	"strings"

	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/lucsky/cuid"
)

// Line is one cart entry, priced at add time. The unit price never changes
// after it is resolved, even if menu prices move.
type Line struct {
	ID           string
	MenuItemID   string
	Name         string
	Quantity     int
	UnitPrice    float64
	FreeTextNote string
	Modifiers    []models.SelectedModifier
}

func (l *Line) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// fingerprint identifies a line by item, resolved modifier set and note.
// Modifiers compare as an order-independent set of group+name pairs.
func (l *Line) fingerprint() string {
	pairs := make([]string, len(l.Modifiers))
	for i, m := range l.Modifiers {
		pairs[i] = m.GroupName + "\x1f" + m.ModifierName
	}
	sort.Strings(pairs)
	return l.MenuItemID + "\x1e" + l.FreeTextNote + "\x1e" + strings.Join(pairs, "\x1e")
}

// Cart accumulates lines for one order before placement. Not safe for
// concurrent use; each composing client owns its own cart.
type Cart struct {
	lines []Line
}

func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Add resolves and validates the selection, then either merges into an
// existing identical line (quantities summed) or appends a new one. The
// returned line reflects the cart state after the add.
func (c *Cart) Add(item models.MenuItem, groups []models.ModifierGroup, sel Selection, quantity int, note string) (Line, error) {
	quote, err := Resolve(item, groups, sel, quantity)
	if err != nil {
		return Line{}, err
	}

	line := Line{
		ID:           cuid.New(),
		MenuItemID:   item.ID,
		Name:         item.Name,
		Quantity:     quantity,
		UnitPrice:    quote.UnitPrice,
		FreeTextNote: note,
		Modifiers:    quote.Modifiers,
	}

	fp := line.fingerprint()
	for i := range c.lines {
		if c.lines[i].fingerprint() == fp {
			c.lines[i].Quantity += quantity
			return c.lines[i], nil
		}
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// Remove drops the line with the given id.
func (c *Cart) Remove(lineID string) {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Total is the sum of every line total.
func (c *Cart) Total() float64 {
	var total float64
	for i := range c.lines {
		total += c.lines[i].Total()
	}
	return total
}

// ToOrderItems converts the cart into order lines for atomic placement.
func (c *Cart) ToOrderItems(orderID string) []models.OrderItem {
	items := make([]models.OrderItem, len(c.lines))
	for i, l := range c.lines {
		items[i] = models.OrderItem{
			ID:                l.ID,
			OrderID:           orderID,
			MenuItemRef:       l.MenuItemID,
			DisplayName:       l.Name,
			Quantity:          l.Quantity,
			UnitPriceAtTime:   l.UnitPrice,
			SelectedModifiers: l.Modifiers,
			FreeTextNote:      l.FreeTextNote,
		}
	}
	return items
}
