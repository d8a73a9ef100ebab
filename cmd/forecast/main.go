package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
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
	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
	pkgerrors "github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/logger"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/metrics"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/migrate"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/pubsub"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "forecast"})

	_ = godotenv.Load()

	// Flags
	user := flag.String("user", "", "user id (uuid)")
	store := flag.Int("store", 0, "store number")
	horizonFlag := flag.String("horizon", "today", "prediction horizon: today|tomorrow|7days")
	reference := flag.String("reference", "", "reference date (YYYY-MM-DD); default: configured demo pin, else latest sales date")
	save := flag.Bool("save", false, "persist forecast rows")
	ingest := flag.String("ingest", "", "sales file (csv/xlsx) to ingest before running")
	enqueue := flag.Bool("enqueue", false, "publish the run to the forecast-run topic instead of running locally")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "forecast"

	logg = logger.New(logger.Options{
		ServiceName: "forecast",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	userID, err := uuid.Parse(*user)
	requireResource(ctx, logg, "user id flag", err)

	horizon, err := enums.ParseHorizon(*horizonFlag)
	requireResource(ctx, logg, "horizon flag", err)

	if *store <= 0 {
		fmt.Fprintln(os.Stderr, "missing or invalid -store")
		os.Exit(1)
	}

	var explicit time.Time
	if *reference != "" {
		explicit, err = time.Parse("2006-01-02", *reference)
		requireResource(ctx, logg, "reference flag", err)
		explicit = explicit.UTC()
	}

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env":       cfg.App.Env,
		"user_id":   userID.String(),
		"store_nbr": *store,
		"horizon":   string(horizon),
	})

	if *enqueue {
		enqueueRun(ctx, cfg, logg, worker.RunEvent{
			EventID:       uuid.New(),
			UserID:        userID,
			StoreNbr:      *store,
			Horizon:       horizon,
			ReferenceDate: explicit,
		})
		return
	}

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

	adapter := model.NewAdapter(cfg.Model, logg)
	requireResource(ctx, logg, "model artifact", adapter.Load(ctx))

	cat := catalog.New()
	if err := cat.Load(ctx, redisClient); err != nil {
		// Enrichment still works off the built-in mappings.
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

	sourceFile := ""
	if *ingest != "" {
		data, err := os.ReadFile(*ingest)
		requireResource(ctx, logg, "sales file", err)

		sourceFile = filepath.Base(*ingest)
		ingested, err := salesSvc.IngestFile(ctx, userID, sourceFile, "", data)
		requireResource(ctx, logg, "sales ingestion", err)

		logg.Info(logg.WithFields(ctx, map[string]any{
			"upload_id":     ingested.UploadID.String(),
			"rows_ingested": ingested.RowsIngested,
			"rows_skipped":  ingested.RowsSkipped,
		}), "sales file ingested")
	}

	rows, anchor, err := salesSvc.History(ctx, userID, *store)
	requireResource(ctx, logg, "sales history", err)

	ref := prediction.ReferenceOrAnchor(cfg.Prediction, explicit, anchor)

	logg.Info(ctx, "forecast run starting")

	result, runErr := orchestrator.Run(ctx, prediction.RunRequest{
		UserID:      userID,
		StoreNbr:    *store,
		Horizon:     horizon,
		Rows:        rows,
		Reference:   ref,
		SaveResults: *save,
		SourceFile:  sourceFile,
	})
	if runErr != nil {
		logg.Error(ctx, "forecast run failed", runErr)
		if cfg.App.IsDev() {
			if dump, err := json.Marshal(pkgerrors.Dump(runErr)); err == nil {
				fmt.Fprintln(os.Stderr, string(dump))
			}
		}
		if result == nil {
			os.Exit(1)
		}
		// Persistence failed after the run computed; surface the summary
		// anyway so the rows can be inspected.
	}

	if err := cat.Save(ctx, redisClient); err != nil {
		logg.Warn(ctx, fmt.Sprintf("catalog save failed: %v", err))
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	requireResource(ctx, logg, "result encoding", err)
	fmt.Println(string(encoded))

	if runErr != nil {
		os.Exit(1)
	}
}

// enqueueRun hands the request to the worker queue instead of running it
// in-process.
func enqueueRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, event worker.RunEvent) {
	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	msgID, err := worker.Enqueue(ctx, pubsubClient.ForecastRunPublisher(), event)
	requireResource(ctx, logg, "run enqueue", err)

	logg.Info(logg.WithFields(ctx, map[string]any{
		"event_id":   event.EventID.String(),
		"message_id": msgID,
	}), "forecast run enqueued")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
