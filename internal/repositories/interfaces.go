package repositories

import (
	"context"
	"time"

	"github.com/chrisdamba/kitchensync/internal/models"
)

// StatusWrite is one durable status-transition write. TimestampColumn is
// empty for a reduced (status-only) write or for transitions that carry no
// timestamp.
type StatusWrite struct {
	TenantID        string
	OrderID         string
	Status          models.Status
	TimestampColumn string
	Timestamp       time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, tenantID, orderID string) (*models.Order, error)
	// ActiveAndRecent returns currently active orders plus orders completed
	// since the cutoff, deduplicated by id.
	ActiveAndRecent(ctx context.Context, tenantID string, completedSince time.Time) ([]models.Order, error)
	// CountByTypeOn returns the dine-in and takeaway counts for orders
	// created on the given day. Used to seed the daily tally once.
	CountByTypeOn(ctx context.Context, tenantID string, day time.Time) (dineIn, takeaway int, err error)
	// CompletedOn returns paid and cancelled orders created on the given day.
	CompletedOn(ctx context.Context, tenantID string, day time.Time) ([]models.Order, error)
	// UpdateStatus performs one durable transition write. Failures carry the
	// StoreError kind contract.
	UpdateStatus(ctx context.Context, w StatusWrite) error
}

type MenuRepository interface {
	BulkCreateItems(ctx context.Context, items []*models.MenuItem) error
	BulkCreateGroups(ctx context.Context, groups []*models.ModifierGroup) error
	GetItem(ctx context.Context, tenantID, itemID string) (*models.MenuItem, error)
	// GroupsForItem returns the item's modifier groups in display order with
	// their modifiers nested.
	GroupsForItem(ctx context.Context, itemID string) ([]models.ModifierGroup, error)
	// ItemNames resolves menu item ids to display names.
	ItemNames(ctx context.Context, ids []string) (map[string]string, error)
	// TableLabel resolves a table ref to its floor label.
	TableLabel(ctx context.Context, tableRef string) (string, error)
}
