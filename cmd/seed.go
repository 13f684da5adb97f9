package cmd

import (
	"context"
	"fmt"

	"github.com/chrisdamba/kitchensync/internal/factories"
	"github.com/chrisdamba/kitchensync/internal/logger"
	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/chrisdamba/kitchensync/internal/repositories/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedItemCount int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed menu and modifier fixtures into Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedItemCount, "items", 50, "Number of menu items to generate")
	rootCmd.AddCommand(seedCmd)
}

func runSeed() error {
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

	menuRepo := postgres.NewMenuRepository(pool)
	factory := &factories.MenuFactory{}

	bar := progressbar.Default(int64(seedItemCount), "generating menu")
	items := make([]*models.MenuItem, 0, seedItemCount)
	groups := make([]*models.ModifierGroup, 0, seedItemCount*2)
	for i := 0; i < seedItemCount; i++ {
		item := factory.CreateMenuItem(cfg.TenantID)
		items = append(items, &item)
		for _, g := range factory.CreateModifierGroups(item.ID) {
			g := g
			groups = append(groups, &g)
		}
		bar.Add(1)
	}

	if err := menuRepo.BulkCreateItems(ctx, items); err != nil {
		return fmt.Errorf("failed to insert menu items: %w", err)
	}
	if err := menuRepo.BulkCreateGroups(ctx, groups); err != nil {
		return fmt.Errorf("failed to insert modifier groups: %w", err)
	}

	log.Info("menu seeded",
		zap.String("tenant_id", cfg.TenantID),
		zap.Int("items", len(items)),
		zap.Int("modifier_groups", len(groups)),
	)
	return nil
}
