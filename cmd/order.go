package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/kitchensync/internal/logger"
	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/chrisdamba/kitchensync/internal/pricing"
	"github.com/chrisdamba/kitchensync/internal/repositories"
	"github.com/chrisdamba/kitchensync/internal/repositories/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucsky/cuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	orderItemID    string
	orderQuantity  int
	orderModifiers []string
	orderNote      string
	orderTableRef  string
	orderType      string
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Place an order for a menu item",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrder()
	},
}

func init() {
	orderCmd.Flags().StringVar(&orderItemID, "item", "", "Menu item id to order")
	orderCmd.Flags().IntVar(&orderQuantity, "qty", 1, "Quantity")
	orderCmd.Flags().StringArrayVar(&orderModifiers, "modifier", nil, "Modifier choice as <group-id>=<modifier-id> (repeatable)")
	orderCmd.Flags().StringVar(&orderNote, "note", "", "Free-text note for the line")
	orderCmd.Flags().StringVar(&orderTableRef, "table", "", "Table ref for dine-in orders")
	orderCmd.Flags().StringVar(&orderType, "type", models.OrderTypeDineIn, "Order type (dine_in or takeaway)")
	orderCmd.MarkFlagRequired("item")
	rootCmd.AddCommand(orderCmd)
}

// placeRequest carries one line's worth of placement input.
type placeRequest struct {
	TenantID  string
	ItemID    string
	Quantity  int
	Modifiers []string // "<group-id>=<modifier-id>"
	Note      string
	TableRef  string
	OrderType string
}

// placeOrder resolves the requested line against the menu, prices it, and
// creates the order with all of its lines atomically. The stored order is
// read back so the caller sees exactly what the durable side holds.
func placeOrder(ctx context.Context, menu repositories.MenuRepository, orders repositories.OrderRepository, req placeRequest) (*models.Order, error) {
	item, err := menu.GetItem(ctx, req.TenantID, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu item: %w", err)
	}
	groups, err := menu.GroupsForItem(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load modifier groups: %w", err)
	}

	sel := pricing.Selection{}
	for _, choice := range req.Modifiers {
		groupID, modifierID, ok := strings.Cut(choice, "=")
		if !ok {
			return nil, fmt.Errorf("invalid modifier choice %q, want <group-id>=<modifier-id>", choice)
		}
		var found bool
		for _, g := range groups {
			if g.ID == groupID {
				sel.Select(g, modifierID)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("modifier group %s not on item %s", groupID, req.ItemID)
		}
	}

	cart := pricing.NewCart()
	if _, err := cart.Add(*item, groups, sel, req.Quantity, req.Note); err != nil {
		return nil, err
	}

	orderID := cuid.New()
	order := models.Order{
		ID:          orderID,
		TenantID:    req.TenantID,
		Status:      models.StatusPending,
		OrderType:   req.OrderType,
		TableRef:    req.TableRef,
		TotalAmount: cart.Total(),
		Items:       cart.ToOrderItems(orderID),
		CreatedAt:   time.Now(),
	}
	if err := orders.Create(ctx, &order); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	return orders.GetByID(ctx, req.TenantID, orderID)
}

func runOrder() error {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	order, err := placeOrder(ctx, postgres.NewMenuRepository(pool), postgres.NewOrderRepository(pool), placeRequest{
		TenantID:  cfg.TenantID,
		ItemID:    orderItemID,
		Quantity:  orderQuantity,
		Modifiers: orderModifiers,
		Note:      orderNote,
		TableRef:  orderTableRef,
		OrderType: orderType,
	})
	if err != nil {
		return err
	}

	log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("order_type", order.OrderType),
		zap.Float64("total_amount", order.TotalAmount),
	)
	fmt.Printf("order %s placed, total %.2f\n", order.ID, order.TotalAmount)
	return nil
}
