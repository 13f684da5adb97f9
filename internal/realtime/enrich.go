package realtime

import (
	"context"

	"github.com/chrisdamba/kitchensync/internal/models"
)

// MenuLookup is the slice of the menu store enrichment needs.
type MenuLookup interface {
	ItemNames(ctx context.Context, ids []string) (map[string]string, error)
	TableLabel(ctx context.Context, tableRef string) (string, error)
}

// MenuEnricher joins display fields onto an inserted order: item names per
// line and the floor label for the order's table. All lookups are best
// effort; the subscriber delivers the raw order when any of them fail.
type MenuEnricher struct {
	menu MenuLookup
}

func NewMenuEnricher(menu MenuLookup) *MenuEnricher {
	return &MenuEnricher{menu: menu}
}

func (e *MenuEnricher) Enrich(ctx context.Context, o *models.Order) error {
	if o.TableRef != "" && o.TableLabel == "" {
		label, err := e.menu.TableLabel(ctx, o.TableRef)
		if err != nil {
			return err
		}
		o.TableLabel = label
	}

	var refs []string
	seen := make(map[string]bool)
	for i := range o.Items {
		ref := o.Items[i].MenuItemRef
		if o.Items[i].DisplayName == "" && ref != "" && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	names, err := e.menu.ItemNames(ctx, refs)
	if err != nil {
		return err
	}
	for i := range o.Items {
		if o.Items[i].DisplayName == "" {
			o.Items[i].DisplayName = names[o.Items[i].MenuItemRef]
		}
	}
	return nil
}
