package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shelfwise-ai/shelfwise-backend/internal/catalog"
	"github.com/shelfwise-ai/shelfwise-backend/internal/features"
	"github.com/shelfwise-ai/shelfwise-backend/internal/forecasts"
	"github.com/shelfwise-ai/shelfwise-backend/internal/model"
	"github.com/shelfwise-ai/shelfwise-backend/internal/prediction"
	"github.com/shelfwise-ai/shelfwise-backend/internal/prediction/worker"
	"github.com/shelfwise-ai/shelfwise-backend/internal/sales"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/config"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/db"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/idempotency"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/logger"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/metrics"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/migrate"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/pubsub"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "forecast-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "forecast-worker"

	logg = logger.New(logger.Options{
		ServiceName: "forecast-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	requireResource(ctx, logg, "migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.ForecastRunSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "forecast run subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.PubSub.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	adapter := model.NewAdapter(cfg.Model, logg)
	requireResource(ctx, logg, "model artifact", adapter.Load(ctx))

	cat := catalog.New()
	if err := cat.Load(ctx, redisClient); err != nil {
		logg.Warn(ctx, fmt.Sprintf("catalog load failed: %v", err))
	}

	salesSvc := sales.NewService(dbClient, sales.NewRepository(dbClient.DB()), cfg.Prediction.HistoryDays, logg)
	forecastSvc := forecasts.NewService(dbClient, forecasts.NewRepository(dbClient.DB()), logg)

	orchestrator := prediction.NewOrchestrator(
		features.NewEngine(logg),
		adapter,
		cat,
		forecastSvc,
		metrics.NewPipelineMetrics(prometheus.DefaultRegisterer),
		cfg.Prediction,
		logg,
	)

	handler := worker.HandlerFunc(func(ctx context.Context, event worker.RunEvent) error {
		rows, anchor, err := salesSvc.History(ctx, event.UserID, event.StoreNbr)
		if err != nil {
			return err
		}

		reference := prediction.ReferenceOrAnchor(cfg.Prediction, event.ReferenceDate, anchor)

		result, err := orchestrator.Run(ctx, prediction.RunRequest{
			UserID:      event.UserID,
			StoreNbr:    event.StoreNbr,
			Horizon:     event.Horizon,
			Rows:        rows,
			Reference:   reference,
			SaveResults: true,
			SourceFile:  event.SourceFile,
		})
		if err != nil {
			return err
		}

		if err := cat.Save(ctx, redisClient); err != nil {
			logg.Warn(ctx, fmt.Sprintf("catalog save failed: %v", err))
		}

		logg.Info(logg.WithFields(ctx, map[string]any{
			"records":         len(result.DetailedPredictions),
			"rows_persisted":  result.RowsPersisted,
			"total_predicted": result.Summary.TotalPredicted,
		}), "forecast run completed")
		return nil
	})

	service, err := worker.NewService(subscription, handler, manager, logg)
	requireResource(ctx, logg, "forecast worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "forecast worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "forecast worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
