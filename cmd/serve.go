package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chrisdamba/kitchensync/internal/feed"
	"github.com/chrisdamba/kitchensync/internal/lifecycle"
	"github.com/chrisdamba/kitchensync/internal/logger"
	"github.com/chrisdamba/kitchensync/internal/metrics"
	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/chrisdamba/kitchensync/internal/realtime"
	"github.com/chrisdamba/kitchensync/internal/repositories"
	"github.com/chrisdamba/kitchensync/internal/repositories/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the realtime order board for one tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// timedStore bounds every durable status write with the configured timeout.
type timedStore struct {
	repo    repositories.OrderRepository
	timeout time.Duration
}

func (s *timedStore) UpdateStatus(ctx context.Context, w repositories.StatusWrite) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.UpdateStatus(ctx, w)
}

func runServe() error {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	orders := postgres.NewOrderRepository(pool)
	menu := postgres.NewMenuRepository(pool)

	cache := realtime.NewCache()
	seed, err := orders.ActiveAndRecent(ctx, cfg.TenantID, time.Now().Add(-cfg.RecentWindow))
	if err != nil {
		return fmt.Errorf("failed to load board state: %w", err)
	}
	cache.Seed(seed)
	log.Info("board state loaded", zap.Int("orders", len(seed)))

	tally := metrics.NewTally(time.Now())
	dineIn, takeaway, err := orders.CountByTypeOn(ctx, cfg.TenantID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to seed daily counts: %w", err)
	}
	tally.Seed(dineIn, takeaway)

	consumer, err := feed.NewConsumer(cfg.Kafka, log)
	if err != nil {
		return err
	}
	sub := realtime.NewSubscriber(cfg.TenantID, consumer, cache, realtime.NewMenuEnricher(menu), log)
	reconciler := lifecycle.NewReconciler(cache, &timedStore{repo: orders, timeout: cfg.WriteTimeout}, log)

	presence, err := feed.NewPresenceProducer(cfg.Kafka.BrokerList, cfg.Kafka.PresenceTopic, log)
	if err != nil {
		return err
	}
	defer presence.Close()
	sessionID := uuid.NewString()

	unsubscribe := sub.Subscribe(ctx, realtime.Handlers{
		OnInsert: func(o models.Order) {
			tally.RecordInsert(o)
			log.Info("order placed",
				zap.String("order_id", o.ID),
				zap.String("order_type", o.OrderType),
				zap.String("table", o.TableLabel),
			)
		},
		OnUpdate: func(orderID string, patch models.OrderPatch) {
			if patch.Status != nil {
				log.Info("order moved", zap.String("order_id", orderID), zap.String("status", string(*patch.Status)))
			}
		},
		OnConnectionState: func(cs models.ConnectionState) {
			log.Info("feed connection state changed", zap.String("state", string(cs)))
		},
	})
	defer unsubscribe()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return presence.Heartbeat(ctx, cfg.TenantID, sessionID, cfg.Kafka.PresenceHeartbeat)
	})
	g.Go(func() error {
		return metricsLoop(ctx, cfg, cache, tally, log)
	})
	g.Go(func() error {
		return consoleLoop(ctx, reconciler, cache, tally, log)
	})

	log.Info("order board running",
		zap.String("tenant_id", cfg.TenantID),
		zap.String("session_id", sessionID),
	)
	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func metricsLoop(ctx context.Context, cfg *models.Config, cache *realtime.Cache, tally *metrics.Tally, log *zap.Logger) error {
	ticker := time.NewTicker(cfg.MetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pruned := cache.PruneCompleted(time.Now().Add(-cfg.RecentWindow))
			if pruned > 0 {
				log.Debug("pruned completed orders", zap.Int("count", pruned))
			}
			m := metrics.Compute(cache.Snapshot(), tally)
			log.Info("kitchen metrics",
				zap.Int("response_minutes", m.ResponseMinutes),
				zap.Int("cook_minutes", m.CookMinutes),
				zap.Int("service_minutes", m.ServiceMinutes),
				zap.Int("dine_in", m.DineInCount),
				zap.Int("takeaway", m.TakeawayCount),
			)
		}
	}
}

// consoleLoop accepts operator commands on stdin:
//
//	advance <order-id> <status>   apply a status transition
//	orders                        list the board
//	metrics                       print the current snapshot
func consoleLoop(ctx context.Context, rec *lifecycle.Reconciler, cache *realtime.Cache, tally *metrics.Tally, log *zap.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				<-ctx.Done()
				return ctx.Err()
			}
			handleCommand(ctx, strings.Fields(line), rec, cache, tally, log)
		}
	}
}

func handleCommand(ctx context.Context, args []string, rec *lifecycle.Reconciler, cache *realtime.Cache, tally *metrics.Tally, log *zap.Logger) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "advance":
		if len(args) != 3 {
			fmt.Println("usage: advance <order-id> <status>")
			return
		}
		outcome, err := rec.ApplyTransition(ctx, args[1], models.Status(args[2]))
		if err != nil {
			fmt.Printf("%s: %v\n", outcome, err)
			return
		}
		fmt.Println(outcome)
	case "orders":
		for _, o := range cache.Snapshot() {
			fmt.Printf("%s  %-10s  %-8s  %s\n", o.ID, o.Status, o.OrderType, o.TableLabel)
		}
	case "metrics":
		m := metrics.Compute(cache.Snapshot(), tally)
		fmt.Printf("response=%dm cook=%dm service=%dm dine-in=%d takeaway=%d\n",
			m.ResponseMinutes, m.CookMinutes, m.ServiceMinutes, m.DineInCount, m.TakeawayCount)
	default:
		log.Debug("unknown console command", zap.String("command", args[0]))
	}
}
