package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/chrisdamba/kitchensync/internal/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// timestampColumns whitelists the columns UpdateStatus may interpolate.
var timestampColumns = map[string]bool{
	"preparing_at": true,
	"ready_at":     true,
	"served_at":    true,
	"paid_at":      true,
}

// Create inserts the order and all of its lines atomically. Orders are born
// in pending; there is no partial placement.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO orders (
            id, tenant_id, status, order_type, table_ref, customer_ref,
            notes, total_amount, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `,
		order.ID,
		order.TenantID,
		order.Status,
		order.OrderType,
		nullable(order.TableRef),
		nullable(order.CustomerRef),
		nullable(order.Notes),
		order.TotalAmount,
		order.CreatedAt,
	)
	if err != nil {
		return classify(err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"order_items"},
		[]string{"id", "order_id", "menu_item_ref", "quantity", "unit_price_at_time", "free_text_note"},
		pgx.CopyFromRows(orderItemRows(order.Items)),
	)
	if err != nil {
		return classify(err)
	}

	if modifierRows := orderModifierRows(order.Items); len(modifierRows) > 0 {
		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"order_item_modifiers"},
			[]string{"order_item_id", "group_name", "modifier_name", "price_delta"},
			pgx.CopyFromRows(modifierRows),
		)
		if err != nil {
			return classify(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// orderItemRows shapes the order's lines for the order_items bulk insert.
func orderItemRows(items []models.OrderItem) [][]interface{} {
	rows := make([][]interface{}, len(items))
	for i, item := range items {
		rows[i] = []interface{}{
			item.ID,
			item.OrderID,
			item.MenuItemRef,
			item.Quantity,
			item.UnitPriceAtTime,
			item.FreeTextNote,
		}
	}
	return rows
}

// orderModifierRows flattens every line's resolved modifiers for the
// order_item_modifiers bulk insert.
func orderModifierRows(items []models.OrderItem) [][]interface{} {
	var rows [][]interface{}
	for _, item := range items {
		for _, m := range item.SelectedModifiers {
			rows = append(rows, []interface{}{
				item.ID, m.GroupName, m.ModifierName, m.PriceDelta,
			})
		}
	}
	return rows
}

const orderColumns = `
        id, tenant_id, status, order_type,
        COALESCE(table_ref, ''), COALESCE(customer_ref, ''), COALESCE(notes, ''),
        total_amount, created_at, preparing_at, ready_at, served_at, paid_at
`

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.TenantID,
		&o.Status,
		&o.OrderType,
		&o.TableRef,
		&o.CustomerRef,
		&o.Notes,
		&o.TotalAmount,
		&o.CreatedAt,
		&o.PreparingAt,
		&o.ReadyAt,
		&o.ServedAt,
		&o.PaidAt,
	)
	return o, err
}

func (r *OrderRepository) GetByID(ctx context.Context, tenantID, orderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND id = $2`
	o, err := scanOrder(r.pool.QueryRow(ctx, query, tenantID, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	if err != nil {
		return nil, classify(err)
	}
	if err := r.loadItems(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, o *models.Order) error {
	rows, err := r.pool.Query(ctx, `
        SELECT id, order_id, menu_item_ref, quantity, unit_price_at_time, COALESCE(free_text_note, '')
        FROM order_items WHERE order_id = $1
    `, o.ID)
	if err != nil {
		return classify(err)
	}
	defer rows.Close()

	byID := make(map[string]int)
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemRef,
			&item.Quantity, &item.UnitPriceAtTime, &item.FreeTextNote,
		); err != nil {
			return classify(err)
		}
		byID[item.ID] = len(o.Items)
		o.Items = append(o.Items, item)
	}
	if len(o.Items) == 0 {
		return nil
	}

	itemIDs := make([]string, 0, len(byID))
	for id := range byID {
		itemIDs = append(itemIDs, id)
	}
	modRows, err := r.pool.Query(ctx, `
        SELECT order_item_id, group_name, modifier_name, price_delta
        FROM order_item_modifiers WHERE order_item_id = ANY($1)
    `, itemIDs)
	if err != nil {
		return classify(err)
	}
	defer modRows.Close()

	for modRows.Next() {
		var itemID string
		var m models.SelectedModifier
		if err := modRows.Scan(&itemID, &m.GroupName, &m.ModifierName, &m.PriceDelta); err != nil {
			return classify(err)
		}
		if i, ok := byID[itemID]; ok {
			o.Items[i].SelectedModifiers = append(o.Items[i].SelectedModifiers, m)
		}
	}
	return nil
}

// ActiveAndRecent returns every non-terminal order plus terminal orders
// created since the cutoff. The union is what metrics computation runs over.
func (r *OrderRepository) ActiveAndRecent(ctx context.Context, tenantID string, completedSince time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
        FROM orders
        WHERE tenant_id = $1
          AND (status NOT IN ('paid', 'cancelled') OR created_at >= $2)
        ORDER BY created_at
    `
	rows, err := r.pool.Query(ctx, query, tenantID, completedSince)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, classify(err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *OrderRepository) CountByTypeOn(ctx context.Context, tenantID string, day time.Time) (int, int, error) {
	var dineIn, takeaway int
	err := r.pool.QueryRow(ctx, `
        SELECT
            COUNT(*) FILTER (WHERE order_type = 'dine_in'),
            COUNT(*) FILTER (WHERE order_type = 'takeaway')
        FROM orders
        WHERE tenant_id = $1 AND created_at::date = $2::date
    `, tenantID, day).Scan(&dineIn, &takeaway)
	if err != nil {
		return 0, 0, classify(err)
	}
	return dineIn, takeaway, nil
}

func (r *OrderRepository) CompletedOn(ctx context.Context, tenantID string, day time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
        FROM orders
        WHERE tenant_id = $1
          AND status IN ('paid', 'cancelled')
          AND created_at::date = $2::date
        ORDER BY created_at
    `
	rows, err := r.pool.Query(ctx, query, tenantID, day)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, classify(err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateStatus performs one transition write: status plus its timestamp
// column, or status alone for a reduced write. The write is unconditional
// (last write wins); repeated application of the same status is a no-op in
// effect.
func (r *OrderRepository) UpdateStatus(ctx context.Context, w repositories.StatusWrite) error {
	if w.TimestampColumn == "" {
		_, err := r.pool.Exec(ctx,
			`UPDATE orders SET status = $1 WHERE tenant_id = $2 AND id = $3`,
			w.Status, w.TenantID, w.OrderID,
		)
		return classify(err)
	}

	if !timestampColumns[w.TimestampColumn] {
		return &repositories.StoreError{
			Kind: repositories.ValidationFailed,
			Err:  fmt.Errorf("unknown timestamp column %q", w.TimestampColumn),
		}
	}
	query := fmt.Sprintf(
		`UPDATE orders SET status = $1, %s = $2 WHERE tenant_id = $3 AND id = $4`,
		w.TimestampColumn,
	)
	_, err := r.pool.Exec(ctx, query, w.Status, w.Timestamp, w.TenantID, w.OrderID)
	return classify(err)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
