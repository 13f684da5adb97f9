package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuRepository struct {
	pool *pgxpool.Pool
}

func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

func (r *MenuRepository) BulkCreateItems(ctx context.Context, items []*models.MenuItem) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"menu_items"},
		[]string{"id", "tenant_id", "name", "description", "base_price", "category", "image_path", "available"},
		pgx.CopyFromSlice(len(items), func(i int) ([]interface{}, error) {
			return []interface{}{
				items[i].ID,
				items[i].TenantID,
				items[i].Name,
				items[i].Description,
				items[i].BasePrice,
				items[i].Category,
				items[i].ImagePath,
				items[i].Available,
			}, nil
		}),
	)
	return classify(err)
}

func (r *MenuRepository) BulkCreateGroups(ctx context.Context, groups []*models.ModifierGroup) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"modifier_groups"},
		[]string{"id", "menu_item_ref", "name", "selection_mode", "required", "min_selection", "max_selection", "position"},
		pgx.CopyFromSlice(len(groups), func(i int) ([]interface{}, error) {
			return []interface{}{
				groups[i].ID,
				groups[i].MenuItemRef,
				groups[i].Name,
				groups[i].SelectionMode,
				groups[i].Required,
				groups[i].MinSelection,
				groups[i].MaxSelection,
				groups[i].Position,
			}, nil
		}),
	)
	if err != nil {
		return classify(err)
	}

	var modifierRows [][]interface{}
	for _, g := range groups {
		for _, m := range g.Modifiers {
			modifierRows = append(modifierRows, []interface{}{m.ID, g.ID, m.Name, m.PriceDelta})
		}
	}
	if len(modifierRows) == 0 {
		return nil
	}
	_, err = r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"modifiers"},
		[]string{"id", "group_id", "name", "price_delta"},
		pgx.CopyFromRows(modifierRows),
	)
	return classify(err)
}

func (r *MenuRepository) GetItem(ctx context.Context, tenantID, itemID string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.pool.QueryRow(ctx, `
        SELECT id, tenant_id, name, COALESCE(description, ''), base_price,
               COALESCE(category, ''), COALESCE(image_path, ''), available
        FROM menu_items
        WHERE tenant_id = $1 AND id = $2
    `, tenantID, itemID).Scan(
		&item.ID,
		&item.TenantID,
		&item.Name,
		&item.Description,
		&item.BasePrice,
		&item.Category,
		&item.ImagePath,
		&item.Available,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("menu item %s not found", itemID)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &item, nil
}

// GroupsForItem loads the item's modifier groups in display order with their
// modifiers nested, the shape the pricing resolver consumes.
func (r *MenuRepository) GroupsForItem(ctx context.Context, itemID string) ([]models.ModifierGroup, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, menu_item_ref, name, selection_mode, required, min_selection, max_selection, position
        FROM modifier_groups
        WHERE menu_item_ref = $1
        ORDER BY position
    `, itemID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var groups []models.ModifierGroup
	index := make(map[string]int)
	for rows.Next() {
		var g models.ModifierGroup
		if err := rows.Scan(
			&g.ID, &g.MenuItemRef, &g.Name, &g.SelectionMode,
			&g.Required, &g.MinSelection, &g.MaxSelection, &g.Position,
		); err != nil {
			return nil, classify(err)
		}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if len(groups) == 0 {
		return nil, nil
	}

	groupIDs := make([]string, 0, len(index))
	for id := range index {
		groupIDs = append(groupIDs, id)
	}
	modRows, err := r.pool.Query(ctx, `
        SELECT id, group_id, name, price_delta
        FROM modifiers
        WHERE group_id = ANY($1)
        ORDER BY name
    `, groupIDs)
	if err != nil {
		return nil, classify(err)
	}
	defer modRows.Close()

	for modRows.Next() {
		var m models.Modifier
		if err := modRows.Scan(&m.ID, &m.GroupID, &m.Name, &m.PriceDelta); err != nil {
			return nil, classify(err)
		}
		if i, ok := index[m.GroupID]; ok {
			groups[i].Modifiers = append(groups[i].Modifiers, m)
		}
	}
	return groups, nil
}

func (r *MenuRepository) ItemNames(ctx context.Context, ids []string) (map[string]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name FROM menu_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	names := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, classify(err)
		}
		names[id] = name
	}
	return names, nil
}

func (r *MenuRepository) TableLabel(ctx context.Context, tableRef string) (string, error) {
	var label string
	err := r.pool.QueryRow(ctx,
		`SELECT label FROM restaurant_tables WHERE id = $1`, tableRef).Scan(&label)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("table %s not found", tableRef)
	}
	if err != nil {
		return "", classify(err)
	}
	return label, nil
}
