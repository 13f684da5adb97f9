package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/kitchensync/internal/archive"
	"github.com/chrisdamba/kitchensync/internal/logger"
	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/chrisdamba/kitchensync/internal/repositories/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportDay string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Archive completed orders for a day to parquet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport()
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDay, "day", "", "Day to export (YYYY-MM-DD, default yesterday)")
	rootCmd.AddCommand(exportCmd)
}

func runExport() error {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	day := time.Now().AddDate(0, 0, -1)
	if exportDay != "" {
		day, err = time.Parse("2006-01-02", exportDay)
		if err != nil {
			return fmt.Errorf("invalid day %q: %w", exportDay, err)
		}
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	orders, err := postgres.NewOrderRepository(pool).CompletedOn(ctx, cfg.TenantID, day)
	if err != nil {
		return fmt.Errorf("failed to load completed orders: %w", err)
	}
	if len(orders) == 0 {
		log.Info("nothing to archive", zap.String("day", day.Format("2006-01-02")))
		return nil
	}

	path, err := archive.NewExporter(cfg.Archive, log).Export(ctx, day, orders)
	if err != nil {
		return err
	}
	fmt.Printf("archived %d orders to %s\n", len(orders), path)
	return nil
}
